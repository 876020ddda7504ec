// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Package device is the concrete device-enumeration-and-identity
// collaborator spec.md §1 names only by interface: it walks the
// system's block devices, reads their identity strings and geometry,
// and opens them into the wipeengine.Handle the core consumes. The
// core itself stays filesystem- and platform-unaware; all of that
// lives here (SPEC_FULL.md §4.1), following the +build-tag split the
// teacher uses for its own per-platform FileDescriptor type.
package device

import "github.com/jskoetsier/nwipe/internal/wipeengine"

// Info describes one enumerated or explicitly named device, before it
// is opened.
type Info struct {
	Path       string
	Size       uint64
	SectorSize uint32
	Identity   wipeengine.Identity
	Mounted    bool
}
