// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSummaryAllSuccess(t *testing.T) {
	s := BuildSummary([]DeviceResult{{Result: 0}, {Result: 0}})
	assert.Equal(t, 0, s.ExitCode)
}

func TestBuildSummaryNonFatalCancellation(t *testing.T) {
	s := BuildSummary([]DeviceResult{{Result: 0}, {Result: 1}})
	assert.Equal(t, 1, s.ExitCode)
}

func TestBuildSummaryFatalWins(t *testing.T) {
	s := BuildSummary([]DeviceResult{{Result: 1}, {Result: -1}, {Result: 0}})
	assert.Equal(t, -1, s.ExitCode)
}

func TestOutcomeStrings(t *testing.T) {
	assert.Equal(t, "success", outcomeString(0))
	assert.Equal(t, "cancelled", outcomeString(1))
	assert.Equal(t, "failed", outcomeString(-1))
}

func TestWriteJSONRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	s := BuildSummary([]DeviceResult{{Name: "sda", Result: 0, BytesTotal: 4096}})
	require.NoError(t, WriteJSON(path, s))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Summary
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, s, got)
}
