// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package wipeengine

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

// SeedRecord captures everything cmd/nwipe-verify needs to replay one
// device's PRNG write pass without access to the original run: which
// generator produced the stream and what it was seeded with.
type SeedRecord struct {
	Device  string `json:"device"`
	PRNG    string `json:"prng"`
	SeedHex string `json:"seed_hex"`
}

// WriteSeedFile atomically persists rec as JSON, the same way
// internal/report writes its completion summaries.
func WriteSeedFile(path string, rec SeedRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("wipeengine: marshal seed record: %w", err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("wipeengine: write seed file %s: %w", path, err)
	}

	return nil
}

// ReadSeedFile loads a SeedRecord previously written by WriteSeedFile
// and decodes its seed back into raw bytes.
func ReadSeedFile(path string) (SeedRecord, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SeedRecord{}, nil, fmt.Errorf("wipeengine: read seed file %s: %w", path, err)
	}

	var rec SeedRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return SeedRecord{}, nil, fmt.Errorf("wipeengine: decode seed file %s: %w", path, err)
	}

	seed, err := hex.DecodeString(rec.SeedHex)
	if err != nil {
		return SeedRecord{}, nil, fmt.Errorf("wipeengine: decode seed hex in %s: %w", path, err)
	}

	return rec, seed, nil
}

// NewSeedRecord builds a SeedRecord for a seed captured by a PRNG
// write pass (normally Engine.LastSeed), hex-encoding it.
func NewSeedRecord(deviceName, prngName string, seed []byte) SeedRecord {
	return SeedRecord{Device: deviceName, PRNG: prngName, SeedHex: hex.EncodeToString(seed)}
}
