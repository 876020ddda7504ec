// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package method

import "errors"

// ErrUnknownMethod is returned by Resolve for an unrecognised method name.
var ErrUnknownMethod = errors.New("method: unknown method")
