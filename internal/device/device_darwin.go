// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

//go:build darwin

package device

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jskoetsier/nwipe/internal/wipeengine"
)

// Enumerate has no sysfs equivalent on Darwin; callers are expected to
// name device paths explicitly and rely on Open (spec.md §4.1:
// "best-effort" on non-Linux platforms), mirroring the teacher's own
// unix_darwin.go, which likewise implements only the open/read/write
// primitives and leaves discovery to the caller.
func Enumerate(excludeMounted bool) ([]Info, error) {
	return nil, ErrUnsupportedPlatform
}

// Open opens path read-write. Darwin raw disk devices (/dev/rdiskN)
// don't support a stat-based size query the way regular files do, so
// size is derived by seeking to the end, which is accurate for both
// regular files and raw device nodes the kernel backs with a real
// block count.
func Open(path string) (wipeengine.Handle, Info, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, Info{}, fmt.Errorf("device: open %s: %w", path, err)
	}

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return nil, Info{}, fmt.Errorf("device: seek %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, Info{}, fmt.Errorf("device: rewind %s: %w", path, err)
	}

	return f, Info{
		Path:       path,
		Size:       uint64(size),
		SectorSize: 512,
		Identity:   wipeengine.Identity{Model: filepath.Base(path)},
	}, nil
}
