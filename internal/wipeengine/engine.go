// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package wipeengine

import (
	"fmt"
	"io"

	"github.com/jskoetsier/nwipe/internal/cancel"
	"github.com/jskoetsier/nwipe/internal/logging"
	"github.com/jskoetsier/nwipe/internal/method"
	"github.com/jskoetsier/nwipe/internal/pattern"
	"github.com/jskoetsier/nwipe/internal/prng"
)

// bufSize is the I/O chunk the engine streams through on every pass.
// 4 MiB balances syscall overhead against how much of a cancellation
// request's latency a single in-flight write can add.
const bufSize = 4 << 20

// Result codes, spec §4.4/§7: 0 success, positive cancelled, negative
// fatal (I/O failure or verify mismatch).
const (
	ResultSuccess  = 0
	ResultCanceled = 1
	ResultFailure  = -1
)

// Engine drives Context through its configured method's schedule. One
// Engine belongs to exactly one Context for exactly one Run call; the
// supervisor constructs a fresh Engine per device per run.
type Engine struct {
	ctx    *Context
	cancel *cancel.Flag
	gen    prng.Generator

	buf      []byte
	readBuf  []byte
	lastSeed []byte
}

// New validates ctx's method and PRNG names up front (spec §4.4 step
// 1: "resolve method and PRNG, fatal on either being unrecognised")
// and returns an Engine ready to Run.
func New(ctx *Context, cancelFlag *cancel.Flag) (*Engine, error) {
	gen, err := prng.New(ctx.PRNGName)
	if err != nil {
		return nil, err
	}

	if _, err := method.Resolve(ctx.Method, ctx.Rounds, ctx.Verify); err != nil {
		return nil, err
	}

	return &Engine{
		ctx:     ctx,
		cancel:  cancelFlag,
		gen:     gen,
		buf:     make([]byte, bufSize),
		readBuf: make([]byte, bufSize),
	}, nil
}

// Run drives ctx.Progress through its full schedule and returns one of
// the Result* codes. It never panics on an I/O or verify failure;
// those are logged and turned into ResultFailure so the supervisor can
// keep driving the other devices in the run.
func (e *Engine) Run() int {
	sched, err := method.Resolve(e.ctx.Method, e.ctx.Rounds, e.ctx.Verify)
	if err != nil {
		logging.Fatalf("%s: %v\n", e.ctx.DeviceName, err)
		return ResultFailure
	}

	e.ctx.Progress.Start(sched.RoundCount, sched.WritePassCount, expectedTotalBytes(sched, e.ctx.DeviceSize))

	result := ResultSuccess
	signal := 0

outer:
	for round := 1; round <= sched.RoundCount; round++ {
		if err := e.runPassList(sched.RoundPasses, round); err != nil {
			result, signal = e.classify(err)
			break outer
		}
		e.ctx.Progress.SetRoundPercentComplete()
	}

	if result == ResultSuccess {
		if err := e.runPassList(sched.FinalPasses, sched.RoundCount); err != nil {
			result, signal = e.classify(err)
		}
	}

	if result == ResultCanceled {
		e.bestEffortSync()
	}

	e.ctx.Progress.Finish(result, signal)
	return result
}

// bestEffortSync flushes whatever has already been written after a
// cancellation (spec §5 cancellation semantics step 2). Unlike the
// per-write-pass fsync in runPassList, a failure here is not fatal —
// the run is already ending as cancelled, not as a fresh failure.
func (e *Engine) bestEffortSync() {
	e.ctx.Progress.SetSyncing(true)
	if err := e.ctx.Handle.Sync(); err != nil {
		logging.Warnf("%s: best-effort sync after cancellation failed: %v\n", e.ctx.DeviceName, err)
	}
	e.ctx.Progress.SetSyncing(false)
}

// LastSeed returns the entropy seed captured by the most recent
// PRNG write pass, or nil if none has run yet. The supervisor
// persists this so cmd/nwipe-verify can re-verify a device's random
// pass later without re-running the wipe itself.
func (e *Engine) LastSeed() []byte {
	return e.lastSeed
}

func (e *Engine) classify(err error) (result, signal int) {
	if err == ErrCancelled {
		logging.Noticef("%s: cancelled\n", e.ctx.DeviceName)
		return ResultCanceled, e.cancel.Signal()
	}

	logging.Errorf("%s: %v\n", e.ctx.DeviceName, err)
	return ResultFailure, 0
}

// runPassList drives one list of passes (a round's RoundPasses, or the
// one-shot FinalPasses) in order. For round_percent every pass in the
// list takes an equal share, so when verify passes are spliced in a
// write pass fills the first half of its write-pass "unit" and the
// verify pass after it the second half (spec §9, resolving the
// pass_count formula so it stays monotonic and lands on exactly 100 at
// the list's last byte rather than overshooting when verify passes are
// present). Every write pass is followed by an fsync before the next
// pass begins (spec §4.4 step 4.d, §5); a sync failure here is fatal,
// unlike the best-effort sync on cancellation.
func (e *Engine) runPassList(passes []method.Pass, round int) error {
	shares := len(passes)

	for i, p := range passes {
		passWorking := i + 1

		switch p.Kind {
		case method.Pattern:
			e.ctx.Progress.BeginPass(round, passWorking, p.Type)
			if err := e.drivePatternWrite(p, i, shares); err != nil {
				return err
			}
			if err := e.syncAfterWrite(); err != nil {
				return err
			}

		case method.PRNG:
			e.ctx.Progress.BeginPass(round, passWorking, p.Type)
			if err := e.drivePRNGWrite(p, i, shares); err != nil {
				return err
			}
			if err := e.syncAfterWrite(); err != nil {
				return err
			}

		case method.VerifyPattern:
			e.ctx.Progress.BeginPass(round, passWorking, p.Type)
			if err := e.drivePatternVerify(p, i, shares); err != nil {
				return err
			}

		case method.VerifyPRNG:
			e.ctx.Progress.BeginPass(round, passWorking, p.Type)
			if err := e.drivePRNGVerify(p, i, shares); err != nil {
				return err
			}

		default:
			return fmt.Errorf("wipeengine: unhandled pass kind %v", p.Kind)
		}
	}

	return nil
}

// syncAfterWrite flushes the device after a completed write pass.
// Failure is fatal (spec §4.4 step 4.d).
func (e *Engine) syncAfterWrite() error {
	e.ctx.Progress.SetSyncing(true)
	defer e.ctx.Progress.SetSyncing(false)

	if err := e.ctx.Handle.Sync(); err != nil {
		return fmt.Errorf("wipeengine: sync: %w", err)
	}

	return nil
}

// drivePatternWrite fills the buffer once with p.Bytes and streams it
// across the whole device.
func (e *Engine) drivePatternWrite(p method.Pass, unit, writePassCount int) error {
	if err := pattern.Fill(e.buf, p.Bytes); err != nil {
		return err
	}

	if _, err := e.ctx.Handle.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("wipeengine: seek: %w", err)
	}

	return e.stream(func(offset uint64, n int) error {
		if _, err := e.ctx.Handle.WriteAt(e.buf[:n], int64(offset)); err != nil {
			return fmt.Errorf("wipeengine: write at %d: %w", offset, err)
		}
		e.ctx.Progress.AdvanceWrite(uint64(n), offset+uint64(n), e.ctx.DeviceSize, unit, writePassCount)
		return nil
	})
}

// drivePRNGWrite draws a fresh OS-entropy seed, remembers it for a
// following verify pass (spec §4.1 "seed replay"), and streams
// generator output across the device.
func (e *Engine) drivePRNGWrite(p method.Pass, unit, writePassCount int) error {
	seed, err := prng.SeedFromEntropy(e.gen)
	if err != nil {
		return err
	}
	e.lastSeed = seed

	if _, err := e.ctx.Handle.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("wipeengine: seek: %w", err)
	}

	return e.stream(func(offset uint64, n int) error {
		e.gen.Fill(e.buf[:n])
		if _, err := e.ctx.Handle.WriteAt(e.buf[:n], int64(offset)); err != nil {
			return fmt.Errorf("wipeengine: write at %d: %w", offset, err)
		}
		e.ctx.Progress.AdvanceWrite(uint64(n), offset+uint64(n), e.ctx.DeviceSize, unit, writePassCount)
		return nil
	})
}

// drivePatternVerify re-derives the expected pattern and compares it
// against what is actually on the device, byte for byte.
func (e *Engine) drivePatternVerify(p method.Pass, unit, writePassCount int) error {
	expected := make([]byte, bufSize)
	if err := pattern.Fill(expected, p.Bytes); err != nil {
		return err
	}

	if _, err := e.ctx.Handle.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("wipeengine: seek: %w", err)
	}

	return e.stream(func(offset uint64, n int) error {
		if _, err := e.ctx.Handle.ReadAt(e.readBuf[:n], int64(offset)); err != nil {
			return fmt.Errorf("wipeengine: read at %d: %w", offset, err)
		}
		if mismatch, idx := firstMismatch(e.readBuf[:n], expected[:n]); mismatch {
			return &VerifyMismatchError{Offset: offset + uint64(idx), Expected: expected[idx], Found: e.readBuf[idx]}
		}
		e.ctx.Progress.AdvanceVerify(uint64(n), offset+uint64(n), e.ctx.DeviceSize, unit, writePassCount)
		return nil
	})
}

// drivePRNGVerify reseeds the generator with the seed captured by the
// write pass it follows and regenerates the identical stream to
// compare against the device — true seed replay, not the weaker
// all-zero/all-ones heuristic spec §9 flags as insufficient.
func (e *Engine) drivePRNGVerify(p method.Pass, unit, writePassCount int) error {
	if e.lastSeed == nil {
		return fmt.Errorf("wipeengine: verify-prng pass with no preceding write-prng seed")
	}

	if err := e.gen.Reseed(e.lastSeed); err != nil {
		return err
	}

	if _, err := e.ctx.Handle.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("wipeengine: seek: %w", err)
	}

	expected := make([]byte, bufSize)

	return e.stream(func(offset uint64, n int) error {
		e.gen.Fill(expected[:n])
		if _, err := e.ctx.Handle.ReadAt(e.readBuf[:n], int64(offset)); err != nil {
			return fmt.Errorf("wipeengine: read at %d: %w", offset, err)
		}
		if mismatch, idx := firstMismatch(e.readBuf[:n], expected[:n]); mismatch {
			return &VerifyMismatchError{Offset: offset + uint64(idx), Expected: expected[idx], Found: e.readBuf[idx]}
		}
		e.ctx.Progress.AdvanceVerify(uint64(n), offset+uint64(n), e.ctx.DeviceSize, unit, writePassCount)
		return nil
	})
}

// ReplayVerify re-runs a single PRNG verify pass against ctx.Handle
// using a seed captured by an earlier write pass, independent of any
// method schedule. It backs cmd/nwipe-verify, which re-checks a
// device's random pass from a previously saved seed file without
// re-wiping the device. Progress is reported the same way a normal
// verify pass would (unit 0 of 1).
func (e *Engine) ReplayVerify(seed []byte) error {
	if len(seed) == 0 {
		return fmt.Errorf("wipeengine: replay verify requires a non-empty seed")
	}

	e.lastSeed = seed
	e.ctx.Progress.Start(1, 1, e.ctx.DeviceSize)
	e.ctx.Progress.BeginPass(1, 1, method.Verify)

	err := e.drivePRNGVerify(method.Pass{Kind: method.VerifyPRNG, Type: method.Verify}, 0, 1)

	result, signal := ResultSuccess, 0
	if err != nil {
		result, signal = e.classify(err)
	}
	e.ctx.Progress.Finish(result, signal)

	return err
}

// stream walks the device from offset 0 to DeviceSize in bufSize
// chunks, calling step for each one and checking the cancellation flag
// between chunks (spec §4.4: "check the cancellation flag at every
// buffer boundary").
func (e *Engine) stream(step func(offset uint64, n int) error) error {
	if e.ctx.DeviceSize == 0 {
		e.ctx.Progress.SetPassPercentComplete()
		return nil
	}

	var offset uint64

	for offset < e.ctx.DeviceSize {
		if e.cancel.Terminated() {
			return ErrCancelled
		}

		remaining := e.ctx.DeviceSize - offset
		n := uint64(bufSize)
		if remaining < n {
			n = remaining
		}

		if err := step(offset, int(n)); err != nil {
			return err
		}

		offset += n
	}

	return nil
}

func firstMismatch(got, want []byte) (bool, int) {
	for i := range got {
		if got[i] != want[i] {
			return true, i
		}
	}
	return false, 0
}

// expectedTotalBytes sums the device-size cost of every pass the
// schedule will actually run, across every round plus the final
// passes — write and verify passes each cost one full device pass of
// bytes. This is the corrected form of spec §9's ETA/throughput open
// question: rather than a formula that can double count, the total is
// built directly from the schedule that will run, so AdvanceWrite and
// AdvanceVerify calls sum to exactly this value at completion and ETA
// reaches zero precisely then.
func expectedTotalBytes(sched *method.Schedule, deviceSize uint64) uint64 {
	perRound := uint64(len(sched.RoundPasses)) * deviceSize
	total := perRound * uint64(sched.RoundCount)
	total += uint64(len(sched.FinalPasses)) * deviceSize
	return total
}
