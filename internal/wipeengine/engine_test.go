// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package wipeengine

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jskoetsier/nwipe/internal/cancel"
	"github.com/jskoetsier/nwipe/internal/method"
	"github.com/jskoetsier/nwipe/internal/progress"
)

// memHandle is an in-memory Handle backing, used so tests never touch
// a real block device.
type memHandle struct {
	data   []byte
	offset int64
	synced int
}

func newMemHandle(size int) *memHandle { return &memHandle{data: make([]byte, size)} }

func (m *memHandle) ReadAt(p []byte, off int64) (int, error)  { return copy(p, m.data[off:]), nil }
func (m *memHandle) WriteAt(p []byte, off int64) (int, error) { return copy(m.data[off:], p), nil }
func (m *memHandle) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		m.offset = offset
	case io.SeekCurrent:
		m.offset += offset
	case io.SeekEnd:
		m.offset = int64(len(m.data)) + offset
	}
	return m.offset, nil
}
func (m *memHandle) Sync() error { m.synced++; return nil }
func (m *memHandle) Close() error { return nil }

func newTestContext(method, prngName string, rounds int, verify bool, size int) (*Context, *memHandle) {
	h := newMemHandle(size)
	ctx := NewContext("testdev", h, uint64(size), 512, method, prngName, rounds, verify)
	return ctx, h
}

func TestRunZeroMethodWritesZeroes(t *testing.T) {
	ctx, h := newTestContext("zero", "chacha20", 0, false, bufSize*2+17)
	for i := range h.data {
		h.data[i] = 0xAB
	}

	e, err := New(ctx, cancel.New())
	require.NoError(t, err)

	result := e.Run()
	assert.Equal(t, ResultSuccess, result)
	assert.Equal(t, progress.Completed, ctx.Progress.Status())
	for _, b := range h.data {
		assert.Equal(t, byte(0x00), b)
	}
	assert.Equal(t, 1, h.synced)
}

func TestRunSyncsAfterEveryWritePass(t *testing.T) {
	ctx, h := newTestContext("dod", "isaac64", 0, false, bufSize)

	e, err := New(ctx, cancel.New())
	require.NoError(t, err)

	result := e.Run()
	assert.Equal(t, ResultSuccess, result)
	assert.Equal(t, 3, h.synced) // dod: one sync per write pass, not one per run
}

func TestRunWithVerifySucceedsOnUntamperedDevice(t *testing.T) {
	ctx, _ := newTestContext("dod", "isaac64", 0, true, bufSize+101)

	e, err := New(ctx, cancel.New())
	require.NoError(t, err)

	result := e.Run()
	assert.Equal(t, ResultSuccess, result)
	assert.Equal(t, ctx.DeviceSize*3, ctx.Progress.BytesVerified()) // dod: 3 write+verify pairs
}

// corruptingHandle flips one byte on every ReadAt that covers it, so a
// verify pass run against it always finds a mismatch regardless of
// what the preceding write pass actually wrote.
func TestRunDetectsTamperedVerify(t *testing.T) {
	ctx, h := newTestContext("zero", "mt19937", 0, true, bufSize)

	ctx.Handle = &corruptingHandle{memHandle: h, corruptAt: 42}

	e, err := New(ctx, cancel.New())
	require.NoError(t, err)

	result := e.Run()
	assert.Equal(t, ResultFailure, result)
}

type corruptingHandle struct {
	*memHandle
	corruptAt int64
}

func (c *corruptingHandle) ReadAt(p []byte, off int64) (int, error) {
	n, err := c.memHandle.ReadAt(p, off)
	if off <= c.corruptAt && c.corruptAt < off+int64(n) {
		p[c.corruptAt-off] ^= 0xFF
	}
	return n, err
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, _ := newTestContext("gutmann", "isaac64", 0, false, bufSize*8)

	flag := cancel.New()
	flag.Set(0)

	e, err := New(ctx, flag)
	require.NoError(t, err)

	result := e.Run()
	assert.Equal(t, ResultCanceled, result)
}

func TestNewRejectsUnknownMethodAndPRNG(t *testing.T) {
	ctx, _ := newTestContext("bogus", "chacha20", 0, false, 4096)
	_, err := New(ctx, cancel.New())
	assert.Error(t, err)

	ctx2, _ := newTestContext("zero", "bogus", 0, false, 4096)
	_, err = New(ctx2, cancel.New())
	assert.Error(t, err)
}

func TestReplayVerifySucceedsWithCapturedSeed(t *testing.T) {
	ctx, h := newTestContext("zero", "chacha20", 0, false, bufSize+64)

	writer, err := New(ctx, cancel.New())
	require.NoError(t, err)
	require.NoError(t, writer.drivePRNGWrite(method.Pass{Kind: method.PRNG}, 0, 1))
	seed := writer.LastSeed()
	require.NotEmpty(t, seed)

	ctx2, _ := newTestContext("zero", "chacha20", 0, false, len(h.data))
	ctx2.Handle = h

	replayer, err := New(ctx2, cancel.New())
	require.NoError(t, err)
	assert.NoError(t, replayer.ReplayVerify(seed))
	assert.Equal(t, progress.Completed, ctx2.Progress.Status())
}

func TestReplayVerifyDetectsTamperedData(t *testing.T) {
	ctx, h := newTestContext("zero", "chacha20", 0, false, bufSize)

	writer, err := New(ctx, cancel.New())
	require.NoError(t, err)
	require.NoError(t, writer.drivePRNGWrite(method.Pass{Kind: method.PRNG}, 0, 1))
	seed := writer.LastSeed()

	ctx2, _ := newTestContext("zero", "chacha20", 0, false, len(h.data))
	ctx2.Handle = &corruptingHandle{memHandle: h, corruptAt: 7}

	replayer, err := New(ctx2, cancel.New())
	require.NoError(t, err)
	assert.Error(t, replayer.ReplayVerify(seed))
	assert.Equal(t, ResultFailure, ctx2.Progress.Result())
}

func TestRunOnZeroSizeDeviceCompletesImmediately(t *testing.T) {
	ctx, _ := newTestContext("zero", "chacha20", 0, false, 0)

	e, err := New(ctx, cancel.New())
	require.NoError(t, err)

	result := e.Run()
	assert.Equal(t, ResultSuccess, result)
	assert.Equal(t, progress.Completed, ctx.Progress.Status())
	assert.Equal(t, 100.0, ctx.Progress.PassPercent())
	assert.Equal(t, 100.0, ctx.Progress.RoundPercent())
}

func TestOps2RunsFinalBlankPass(t *testing.T) {
	ctx, h := newTestContext("ops2", "chacha20", 1, false, bufSize)
	for i := range h.data {
		h.data[i] = 0xFF
	}

	e, err := New(ctx, cancel.New())
	require.NoError(t, err)

	result := e.Run()
	require.Equal(t, ResultSuccess, result)
	for _, b := range h.data {
		assert.Equal(t, byte(0x00), b)
	}
}
