// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Package report builds and persists the run summary the supervisor
// emits (spec.md §4.5: "per device: name, model, serial, duration,
// bytes-total, result"), and optionally uploads it to S3 as a
// compliance artifact, following the sink shape of the teacher's own
// s3_connection.go.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/natefinch/atomic"

	"github.com/jskoetsier/nwipe/internal/wipeengine"
)

// DeviceResult is one device's outcome in the summary.
type DeviceResult struct {
	Name       string `json:"name"`
	Model      string `json:"model"`
	Serial     string `json:"serial"`
	Method     string `json:"method"`
	PRNG       string `json:"prng"`
	StartUnix  int64  `json:"start_time"`
	EndUnix    int64  `json:"end_time"`
	BytesTotal uint64 `json:"bytes_total"`
	Result     int    `json:"result"`
	Signal     int    `json:"signal,omitempty"`
	Outcome    string `json:"outcome"`
}

// Summary is the full run report.
type Summary struct {
	Devices  []DeviceResult `json:"devices"`
	ExitCode int            `json:"exit_code"`
}

// outcomeString renders a result code into spec.md §7's taxonomy.
func outcomeString(result int) string {
	switch {
	case result == 0:
		return "success"
	case result > 0:
		return "cancelled"
	default:
		return "failed"
	}
}

// FromContext builds a DeviceResult from a finished device context.
func FromContext(ctx *wipeengine.Context) DeviceResult {
	p := ctx.Progress
	return DeviceResult{
		Name:       ctx.DeviceName,
		Model:      ctx.Identity.Model,
		Serial:     ctx.Identity.Serial,
		Method:     ctx.Method,
		PRNG:       ctx.PRNGName,
		StartUnix:  p.StartUnixNano() / 1e9,
		EndUnix:    p.EndUnix(),
		BytesTotal: p.BytesTotal(),
		Result:     p.Result(),
		Signal:     p.Signal(),
		Outcome:    outcomeString(p.Result()),
	}
}

// BuildSummary aggregates per-device results into a process-level exit
// code: 0 if every result is 0, 1 if some result is positive and none
// negative, -1 if any result is negative (spec.md §4.5).
func BuildSummary(devices []DeviceResult) Summary {
	exitCode := 0

	for _, d := range devices {
		switch {
		case d.Result < 0:
			exitCode = -1
		case d.Result > 0 && exitCode == 0:
			exitCode = 1
		}
	}

	return Summary{Devices: devices, ExitCode: exitCode}
}

// WriteJSON atomically writes s as indented JSON to path, so a crash
// mid-write never leaves a half-written report on disk — the same
// guarantee calvinalkan-agent-task's WithTicketLock gets from
// natefinch/atomic for its own file writes.
func WriteJSON(path string, s Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal summary: %w", err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}

	return nil
}
