// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

//go:build windows

package device

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sys/windows"

	"github.com/jskoetsier/nwipe/internal/wipeengine"
)

// Enumerate has no sysfs equivalent on Windows (spec.md §4.1:
// "best-effort"); callers name a physical drive path explicitly
// (e.g. \\.\PhysicalDrive0) and rely on Open.
func Enumerate(excludeMounted bool) ([]Info, error) {
	return nil, ErrUnsupportedPlatform
}

// Open opens path read-write with FILE_FLAG_WRITE_THROUGH, the same
// flag the teacher's windows.go mixes into its own CreateFile call,
// and queries size via GetFileInformationByHandle the same way.
func Open(path string) (wipeengine.Handle, Info, error) {
	pathp, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, Info{}, fmt.Errorf("device: invalid path %s: %w", path, err)
	}

	handle, err := windows.CreateFile(
		pathp,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL|windows.FILE_FLAG_WRITE_THROUGH,
		0,
	)
	if err != nil {
		return nil, Info{}, fmt.Errorf("device: open %s: %w", path, err)
	}

	var fi windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(handle, &fi); err != nil {
		windows.CloseHandle(handle)
		return nil, Info{}, fmt.Errorf("device: stat %s: %w", path, err)
	}

	size := uint64(fi.FileSizeHigh)<<32 | uint64(fi.FileSizeLow)

	h := &winHandle{handle: handle}

	return h, Info{
		Path:       path,
		Size:       size,
		SectorSize: 512,
		Identity:   wipeengine.Identity{Model: filepath.Base(path)},
	}, nil
}

// winHandle adapts a raw windows.Handle to the wipeengine.Handle
// interface, the same offset-based ReadAt/WriteAt shape the teacher's
// windows.go implements via Overlapped I/O for Pread/Pwrite.
type winHandle struct {
	handle windows.Handle
}

func (h *winHandle) ReadAt(p []byte, off int64) (int, error) {
	var o windows.Overlapped
	o.OffsetHigh = uint32(off >> 32)
	o.Offset = uint32(off)

	var n uint32
	err := windows.ReadFile(h.handle, p, &n, &o)
	return int(n), err
}

func (h *winHandle) WriteAt(p []byte, off int64) (int, error) {
	var o windows.Overlapped
	o.OffsetHigh = uint32(off >> 32)
	o.Offset = uint32(off)

	var n uint32
	err := windows.WriteFile(h.handle, p, &n, &o)
	return int(n), err
}

func (h *winHandle) Seek(offset int64, whence int) (int64, error) {
	return windows.Seek(h.handle, offset, whence)
}

func (h *winHandle) Sync() error {
	return windows.FlushFileBuffers(h.handle)
}

func (h *winHandle) Close() error {
	return windows.CloseHandle(h.handle)
}
