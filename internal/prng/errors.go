// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package prng

import "errors"

// ErrUnknownPRNG is returned by New for an unrecognised variant name.
var ErrUnknownPRNG = errors.New("prng: unknown prng")

// ErrEntropyUnavailable is returned when the OS CSPRNG cannot be read.
var ErrEntropyUnavailable = errors.New("prng: entropy source unavailable")
