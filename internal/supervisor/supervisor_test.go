// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package supervisor

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jskoetsier/nwipe/internal/cancel"
	"github.com/jskoetsier/nwipe/internal/device"
	"github.com/jskoetsier/nwipe/internal/wipeengine"
)

type fakeHandle struct {
	data   []byte
	offset int64
	closed bool
}

func (h *fakeHandle) ReadAt(p []byte, off int64) (int, error)  { return copy(p, h.data[off:]), nil }
func (h *fakeHandle) WriteAt(p []byte, off int64) (int, error) { return copy(h.data[off:], p), nil }
func (h *fakeHandle) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekStart {
		h.offset = offset
	}
	return h.offset, nil
}
func (h *fakeHandle) Sync() error { return nil }
func (h *fakeHandle) Close() error {
	h.closed = true
	return nil
}

func TestRunOpensSpawnsAndAggregates(t *testing.T) {
	handles := map[string]*fakeHandle{
		"/dev/a": {data: make([]byte, 4096)},
		"/dev/b": {data: make([]byte, 4096)},
	}

	sup := New(cancel.New())
	sup.open = func(path string) (wipeengine.Handle, device.Info, error) {
		h := handles[path]
		return h, device.Info{Path: path, Size: uint64(len(h.data)), SectorSize: 512}, nil
	}

	contexts, summary := sup.Run([]DeviceSpec{
		{Path: "/dev/a", Method: "zero", PRNG: "chacha20", Rounds: 1},
		{Path: "/dev/b", Method: "zero", PRNG: "chacha20", Rounds: 1},
	})

	require.Len(t, contexts, 2)
	assert.Equal(t, 0, summary.ExitCode)
	assert.Len(t, summary.Devices, 2)
	for _, h := range handles {
		assert.True(t, h.closed)
		for _, b := range h.data {
			assert.Equal(t, byte(0), b)
		}
	}
}

func TestRunSkipsDevicesThatFailToOpen(t *testing.T) {
	sup := New(cancel.New())
	sup.open = func(path string) (wipeengine.Handle, device.Info, error) {
		return nil, device.Info{}, assert.AnError
	}

	contexts, summary := sup.Run([]DeviceSpec{{Path: "/dev/bad", Method: "zero", PRNG: "chacha20", Rounds: 1}})
	assert.Empty(t, contexts)
	assert.Empty(t, summary.Devices)
	assert.Equal(t, 0, summary.ExitCode)
}

func TestRunSkipsDevicesWithUnknownMethod(t *testing.T) {
	h := &fakeHandle{data: make([]byte, 4096)}
	sup := New(cancel.New())
	sup.open = func(path string) (wipeengine.Handle, device.Info, error) {
		return h, device.Info{Path: path, Size: uint64(len(h.data)), SectorSize: 512}, nil
	}

	contexts, summary := sup.Run([]DeviceSpec{{Path: "/dev/a", Method: "bogus", PRNG: "chacha20", Rounds: 1}})
	assert.Empty(t, contexts)
	assert.Empty(t, summary.Devices)
	assert.True(t, h.closed)
}
