// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package device

import "errors"

// ErrUnsupportedPlatform is returned by Enumerate on platforms with no
// full sysfs-equivalent device listing (spec §4.1: "best-effort" on
// Darwin and Windows). Open still works on those platforms for an
// explicitly named device path.
var ErrUnsupportedPlatform = errors.New("device: enumeration unsupported on this platform")
