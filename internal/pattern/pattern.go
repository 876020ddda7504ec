// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Package pattern fills I/O buffers with a short repeating byte
// sequence (spec §4.3). It is deliberately tiny: the wipe engine fills
// a buffer once per pass and reuses it for every write in that pass.
package pattern

import "fmt"

// MaxLen is the largest pattern this package will tile (spec §3: "1-16 bytes").
const MaxLen = 16

// Fill populates every byte of buf with pattern, tiled so that
// buf[i] == pattern[i % len(pattern)].
func Fill(buf []byte, pat []byte) error {
	if len(pat) == 0 || len(pat) > MaxLen {
		return fmt.Errorf("pattern: invalid pattern length %d (want 1-%d)", len(pat), MaxLen)
	}

	if len(pat) == 1 {
		b := pat[0]
		for i := range buf {
			buf[i] = b
		}
		return nil
	}

	for i := range buf {
		buf[i] = pat[i%len(pat)]
	}

	return nil
}
