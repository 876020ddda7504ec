// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

//go:build linux

package device

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/jskoetsier/nwipe/internal/logging"
	"github.com/jskoetsier/nwipe/internal/wipeengine"
)

const sysClassBlock = "/sys/class/block"

// Enumerate walks /sys/class/block the way the teacher's unix.go
// drives raw syscalls directly against device nodes, extended here to
// sysfs identity attributes and, when requested, a cross-reference
// against /proc/mounts (spec.md §6 "-e/--exclude-mounted").
func Enumerate(excludeMounted bool) ([]Info, error) {
	entries, err := os.ReadDir(sysClassBlock)
	if err != nil {
		return nil, fmt.Errorf("device: read %s: %w", sysClassBlock, err)
	}

	var mounted map[string]bool
	if excludeMounted {
		mounted, err = readMountedSources()
		if err != nil {
			logging.Warnf("device: could not read /proc/mounts, not excluding mounted devices: %v\n", err)
			mounted = nil
		}
	}

	var infos []Info
	for _, ent := range entries {
		name := ent.Name()
		if strings.HasPrefix(name, "loop") || strings.HasPrefix(name, "ram") {
			continue
		}

		path := filepath.Join("/dev", name)
		isMounted := mounted[path]
		if excludeMounted && isMounted {
			logging.Infof("device: excluding mounted device %s\n", path)
			continue
		}

		info, err := statPath(path, name)
		if err != nil {
			logging.Warnf("device: skipping %s: %v\n", path, err)
			continue
		}
		info.Mounted = isMounted

		infos = append(infos, info)
	}

	return infos, nil
}

// Open opens path read-write and queries its geometry and identity,
// for both enumerated devices and device paths given explicitly on
// the command line.
func Open(path string) (wipeengine.Handle, Info, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, Info{}, fmt.Errorf("device: open %s: %w", path, err)
	}

	info, err := statOpenPath(int(f.Fd()), path, filepath.Base(path))
	if err != nil {
		f.Close()
		return nil, Info{}, err
	}

	return f, info, nil
}

func statPath(path, name string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	return statOpenPath(int(f.Fd()), path, name)
}

func statOpenPath(fd int, path, name string) (Info, error) {
	size, err := blockGetSize64(fd)
	if err != nil {
		return Info{}, fmt.Errorf("device: BLKGETSIZE64 %s: %w", path, err)
	}

	sectorSize, err := unix.IoctlGetInt(fd, unix.BLKSSZGET)
	if err != nil {
		sectorSize = 512
	}

	return Info{
		Path:       path,
		Size:       size,
		SectorSize: uint32(sectorSize),
		Identity:   readIdentity(name),
	}, nil
}

func blockGetSize64(fd int) (uint64, error) {
	var size uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size)))
	if errno != 0 {
		return 0, errno
	}
	return size, nil
}

func readIdentity(name string) wipeengine.Identity {
	base := filepath.Join(sysClassBlock, name, "device")
	return wipeengine.Identity{
		Model:    readSysfsString(filepath.Join(base, "model")),
		Serial:   readSysfsString(filepath.Join(base, "serial")),
		Firmware: readSysfsString(filepath.Join(base, "firmware_rev")),
	}
}

func readSysfsString(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// readMountedSources returns the set of device paths that appear as
// the source field of an entry in /proc/mounts.
func readMountedSources() (map[string]bool, error) {
	f, err := os.Open("/proc/mounts")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parseMountedSources(f)
}

func parseMountedSources(r io.Reader) (map[string]bool, error) {
	sources := make(map[string]bool)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		if strings.HasPrefix(fields[0], "/dev/") {
			sources[fields[0]] = true
		}
	}

	return sources, scanner.Err()
}
