// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/jskoetsier/nwipe/internal/logging"
)

// S3SinkConfig names where a completed run's summary should be
// uploaded, for sites that archive erasure certificates centrally
// rather than scraping local log files off every host.
type S3SinkConfig struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Key       string
}

// S3Sink uploads a Summary to an S3-compatible object store. Its
// shape — a gateway endpoint, static credentials, a path-style client
// — is the same one the teacher's S3Connection builds in
// s3_connection.go's WorkerConnect; it is narrowed here to the one
// operation a report sink needs (PutObject), since nwipe has no
// equivalent of sibench's read/delete/bucket-lifecycle benchmarking
// operations to exercise.
type S3Sink struct {
	cfg    S3SinkConfig
	client *s3.S3
}

// NewS3Sink constructs a sink and opens its S3 session.
func NewS3Sink(cfg S3SinkConfig) (*S3Sink, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("report: s3 sink requires access and secret keys")
	}

	creds := credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	awsConfig := aws.NewConfig().
		WithRegion("us-east-1").
		WithDisableSSL(true).
		WithEndpoint(cfg.Endpoint).
		WithS3ForcePathStyle(true).
		WithCredentials(creds)

	sess, err := session.NewSession()
	if err != nil {
		return nil, fmt.Errorf("report: new aws session: %w", err)
	}

	logging.Infof("uploading completion report to s3 endpoint %s\n", cfg.Endpoint)

	return &S3Sink{cfg: cfg, client: s3.New(sess, awsConfig)}, nil
}

// Upload marshals s and PUTs it to the sink's configured bucket/key.
func (sink *S3Sink) Upload(s Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal summary: %w", err)
	}

	_, err = sink.client.PutObject(&s3.PutObjectInput{
		Body:   bytes.NewReader(data),
		Bucket: aws.String(sink.cfg.Bucket),
		Key:    aws.String(sink.cfg.Key),
	})
	if err != nil {
		return fmt.Errorf("report: upload to s3://%s/%s: %w", sink.cfg.Bucket, sink.cfg.Key, err)
	}

	return nil
}
