// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jskoetsier/nwipe/internal/method"
)

func TestNewIsNotStarted(t *testing.T) {
	s := New()
	assert.Equal(t, NotStarted, s.Status())
}

func TestStartMovesToRunning(t *testing.T) {
	s := New()
	s.Start(3, 3, 1000)
	assert.Equal(t, Running, s.Status())
	assert.Equal(t, 3, s.RoundCount())
	assert.Equal(t, 3, s.PassCount())
}

func TestAdvanceWriteTracksBytesAndPercent(t *testing.T) {
	s := New()
	s.Start(1, 1, 100)
	s.BeginPass(1, 1, method.Write)

	s.AdvanceWrite(50, 50, 100, 0, 1)
	assert.Equal(t, uint64(50), s.BytesWritten())
	assert.Equal(t, uint64(50), s.BytesTotal())
	assert.InDelta(t, 50.0, s.PassPercent(), 0.001)
	assert.InDelta(t, 50.0, s.RoundPercent(), 0.001)

	s.AdvanceWrite(50, 100, 100, 0, 1)
	assert.InDelta(t, 100.0, s.PassPercent(), 0.001)
	assert.InDelta(t, 100.0, s.RoundPercent(), 0.001)
}

func TestRoundPercentNeverExceeds100(t *testing.T) {
	s := New()
	s.Start(1, 2, 100)
	s.BeginPass(1, 1, method.Write)
	// passesDoneInRound already equal to passCount should clamp, not overshoot.
	s.AdvanceWrite(10, 10, 10, 2, 2)
	assert.LessOrEqual(t, s.RoundPercent(), 100.0)
}

func TestSetRoundPercentCompleteForcesExactly100(t *testing.T) {
	s := New()
	s.Start(1, 1, 100)
	s.BeginPass(1, 1, method.Write)
	s.AdvanceWrite(1, 1, 100, 0, 1)
	s.SetRoundPercentComplete()
	assert.Equal(t, 100.0, s.RoundPercent())
}

func TestFinishOrdersCompletedAfterResultAndEndTime(t *testing.T) {
	s := New()
	s.Start(1, 1, 10)
	s.Finish(0, 0)

	assert.Equal(t, Completed, s.Status())
	assert.Equal(t, 0, s.Result())
	assert.NotZero(t, s.EndUnix())
}

func TestSetSyncingTogglesFlag(t *testing.T) {
	s := New()
	assert.False(t, s.Syncing())
	s.SetSyncing(true)
	assert.True(t, s.Syncing())
	s.SetSyncing(false)
	assert.False(t, s.Syncing())
}

func TestEtaZeroWhenTotalReachesExpected(t *testing.T) {
	s := New()
	s.Start(1, 1, 10)
	s.BeginPass(1, 1, method.Write)
	s.AdvanceWrite(10, 10, 10, 0, 1)
	assert.Equal(t, int64(0), s.ETA())
}

func TestBeginPassResetsPerPassCounters(t *testing.T) {
	s := New()
	s.Start(1, 1, 100)
	s.BeginPass(1, 1, method.Write)
	s.AdvanceWrite(10, 10, 100, 0, 1)
	assert.NotZero(t, s.BytesWritten())

	s.BeginPass(1, 2, method.Verify)
	assert.Zero(t, s.BytesWritten())
	assert.Zero(t, s.BytesVerified())
	assert.Equal(t, method.Verify, s.PassType())
}
