// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Package progress is the single-writer, multi-reader progress
// snapshot spec §3/§5 describes: one field per counter, each an
// atomic scalar, so the owning worker never blocks on a UI reader and
// a UI reader never blocks the worker. wipe_status, result and
// end_time are the three fields whose ordering matters (a reader that
// observes "completed" must also observe the final result and
// end_time); they are written last, end_time and result first and
// wipe_status after them, and Go's atomic
// package gives all atomic operations a single total order, so that
// ordering is safe without an extra lock.
package progress

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/jskoetsier/nwipe/internal/method"
)

// Status is the per-device wipe_status enum (spec §3).
type Status int32

const (
	NotStarted Status = -1
	Running    Status = 1
	Completed  Status = 0
)

// Snapshot is the mutable, UI-observable state of one device's wipe.
type Snapshot struct {
	roundCount   atomic.Int32
	roundWorking atomic.Int32
	passCount    atomic.Int32
	passWorking  atomic.Int32
	passType     atomic.Int32

	roundPercentBits atomic.Uint64
	passPercentBits  atomic.Uint64

	bytesWritten  atomic.Uint64
	bytesVerified atomic.Uint64
	bytesTotal    atomic.Uint64

	expectedTotalBytes atomic.Uint64
	startUnixNano      atomic.Int64

	throughput atomic.Uint64
	eta        atomic.Int64
	spinnerIdx atomic.Int64
	syncStatus atomic.Bool

	status   atomic.Int32
	result   atomic.Int32
	signal   atomic.Int32
	endUnix  atomic.Int64
}

// New returns a snapshot in its not-started state.
func New() *Snapshot {
	s := &Snapshot{}
	s.status.Store(int32(NotStarted))
	return s
}

// --- writer-side setters, called only by the owning worker ---

// Start records the start time and moves the snapshot to Running.
func (s *Snapshot) Start(roundCount, writePassCount int, expectedTotalBytes uint64) {
	s.roundCount.Store(int32(roundCount))
	s.passCount.Store(int32(writePassCount))
	s.expectedTotalBytes.Store(expectedTotalBytes)
	s.startUnixNano.Store(time.Now().UnixNano())
	s.status.Store(int32(Running))
}

// BeginPass resets the per-pass counters for a new pass.
func (s *Snapshot) BeginPass(round, passWorking int, passType method.PassType) {
	s.roundWorking.Store(int32(round))
	s.passWorking.Store(int32(passWorking))
	s.passType.Store(int32(passType))
	s.passPercentBits.Store(0)
	s.bytesWritten.Store(0)
	s.bytesVerified.Store(0)
}

// AdvanceWrite records n more bytes written at offset/deviceSize
// progress within the current pass, and recomputes round_percent,
// throughput and eta.
func (s *Snapshot) AdvanceWrite(n uint64, offset, deviceSize uint64, passesDoneInRound, passCount int) {
	s.bytesWritten.Add(n)
	s.bytesTotal.Add(n)
	s.tick(offset, deviceSize, passesDoneInRound, passCount)
}

// AdvanceVerify is AdvanceWrite's counterpart for verify passes.
func (s *Snapshot) AdvanceVerify(n uint64, offset, deviceSize uint64, passesDoneInRound, passCount int) {
	s.bytesVerified.Add(n)
	s.bytesTotal.Add(n)
	s.tick(offset, deviceSize, passesDoneInRound, passCount)
}

func (s *Snapshot) tick(offset, deviceSize uint64, passesDoneInRound, passCount int) {
	passPercent := 100.0
	if deviceSize > 0 {
		passPercent = 100.0 * float64(offset) / float64(deviceSize)
	}
	s.passPercentBits.Store(math.Float64bits(passPercent))

	if passCount > 0 {
		fraction := passPercent / 100.0
		roundPercent := (float64(passesDoneInRound) + fraction) * 100.0 / float64(passCount)
		if roundPercent > 100.0 {
			roundPercent = 100.0
		}
		s.roundPercentBits.Store(math.Float64bits(roundPercent))
	}

	s.spinnerIdx.Add(1)

	elapsedSecs := time.Since(time.Unix(0, s.startUnixNano.Load())).Seconds()
	if elapsedSecs < 1 {
		elapsedSecs = 1
	}

	total := s.bytesTotal.Load()
	throughput := uint64(float64(total) / elapsedSecs)
	s.throughput.Store(throughput)

	expected := s.expectedTotalBytes.Load()
	if total >= expected {
		s.eta.Store(0)
		return
	}

	remaining := expected - total
	if throughput == 0 {
		s.eta.Store(0)
		return
	}

	s.eta.Store(int64(remaining / throughput))
}

// SetRoundPercentComplete force-sets round_percent to exactly 100,
// used when the final pass of a round finishes (spec invariant: "
// round_percent reaches 100.0 exactly when the last pass of that
// round finishes").
func (s *Snapshot) SetRoundPercentComplete() {
	s.roundPercentBits.Store(math.Float64bits(100.0))
}

// SetPassPercentComplete force-sets pass_percent to exactly 100, used
// when a pass has nothing to stream (spec §8 boundary: "device_size
// == 0: each pass completes immediately; pass_percent reported as
// 100").
func (s *Snapshot) SetPassPercentComplete() {
	s.passPercentBits.Store(math.Float64bits(100.0))
}

// SetSyncing marks fsync as in progress or finished.
func (s *Snapshot) SetSyncing(v bool) {
	s.syncStatus.Store(v)
}

// Finish publishes the terminal state. It must be the last writer call
// made against the snapshot: wipe_status is stored last so that any
// reader observing Completed is guaranteed (by the total order Go's
// atomics impose) to also observe the final result, signal and end
// time stored just before it.
func (s *Snapshot) Finish(result int, signal int) {
	s.endUnix.Store(time.Now().Unix())
	s.result.Store(int32(result))
	s.signal.Store(int32(signal))
	s.status.Store(int32(Completed))
}

// --- reader-side getters, safe from any number of goroutines ---

func (s *Snapshot) RoundCount() int       { return int(s.roundCount.Load()) }
func (s *Snapshot) RoundWorking() int     { return int(s.roundWorking.Load()) }
func (s *Snapshot) PassCount() int        { return int(s.passCount.Load()) }
func (s *Snapshot) PassWorking() int      { return int(s.passWorking.Load()) }
func (s *Snapshot) PassType() method.PassType { return method.PassType(s.passType.Load()) }
func (s *Snapshot) RoundPercent() float64 { return math.Float64frombits(s.roundPercentBits.Load()) }
func (s *Snapshot) PassPercent() float64  { return math.Float64frombits(s.passPercentBits.Load()) }
func (s *Snapshot) BytesWritten() uint64  { return s.bytesWritten.Load() }
func (s *Snapshot) BytesVerified() uint64 { return s.bytesVerified.Load() }
func (s *Snapshot) BytesTotal() uint64    { return s.bytesTotal.Load() }
func (s *Snapshot) Throughput() uint64    { return s.throughput.Load() }
func (s *Snapshot) ETA() int64            { return s.eta.Load() }
func (s *Snapshot) SpinnerIdx() int64     { return s.spinnerIdx.Load() }
func (s *Snapshot) Syncing() bool         { return s.syncStatus.Load() }
func (s *Snapshot) Status() Status        { return Status(s.status.Load()) }
func (s *Snapshot) Result() int           { return int(s.result.Load()) }
func (s *Snapshot) Signal() int           { return int(s.signal.Load()) }
func (s *Snapshot) EndUnix() int64        { return s.endUnix.Load() }
func (s *Snapshot) StartUnixNano() int64  { return s.startUnixNano.Load() }
