// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Package wipeengine is the per-device pass driver: it seeks, streams
// buffers of pattern or PRNG output through block-aligned writes,
// verifies, syncs, maintains throughput/ETA via the progress package,
// and honors cooperative cancellation (spec §4.4).
package wipeengine

import (
	"io"

	"github.com/jskoetsier/nwipe/internal/progress"
)

// SelectState is the device selection enum (spec §3).
type SelectState int

const (
	Unselected SelectState = iota
	Selected
	SelectedByParent
	Disabled
)

// Identity holds the opaque device identity strings spec §3 names:
// model, serial and firmware revision. Populated by internal/device;
// the engine only ever echoes these back into logs and the summary.
type Identity struct {
	Model    string
	Serial   string
	Firmware string
}

// Handle is the opaque, already-opened device handle the engine
// drives. *os.File satisfies it directly. It is expressed as an
// interface so tests can wipe an in-memory fake instead of a real
// block device.
type Handle interface {
	io.ReaderAt
	io.WriterAt
	Seek(offset int64, whence int) (int64, error)
	Sync() error
	Close() error
}

// Context is one device's worth of state (spec §3 "Device context").
// It is owned exclusively by the worker running Engine.Run for its
// entire lifetime; only Context.Progress is meant to be read
// concurrently by other goroutines.
type Context struct {
	DeviceName string
	Handle     Handle
	DeviceSize uint64
	SectorSize uint32
	BlockSize  uint32
	Identity   Identity
	Select     SelectState

	Method   string
	PRNGName string
	Rounds   int
	Verify   bool

	Progress *progress.Snapshot
}

// NewContext builds a context in its default, not-started state.
func NewContext(name string, handle Handle, size uint64, sectorSize uint32, method, prngName string, rounds int, verify bool) *Context {
	return &Context{
		DeviceName: name,
		Handle:     handle,
		DeviceSize: size,
		SectorSize: sectorSize,
		BlockSize:  sectorSize,
		Select:     Unselected,
		Method:     method,
		PRNGName:   prngName,
		Rounds:     rounds,
		Verify:     verify,
		Progress:   progress.New(),
	}
}
