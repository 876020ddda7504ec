// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package prng

import "encoding/binary"

// ISAAC-64, Bob Jenkins' cryptographic-strength generator (public
// domain). No maintained Go module in the example pack implements it,
// so it is ported directly from the reference algorithm, the same way
// the teacher hand-rolls its own content generator in
// src/sibench/prng_generator.go rather than pulling in a library for
// a well-specified, self-contained algorithm.

const (
	isaacSizeL = 8
	isaacSize  = 1 << isaacSizeL // 256
)

const goldenRatio64 = 0x9e3779b97f4a7c13

type isaac64 struct {
	mm     [isaacSize]uint64
	rsl    [isaacSize]uint64
	aa, bb, cc uint64
	cnt    int
}

func newIsaac64() *isaac64 {
	g := &isaac64{}
	g.reseedWords(nil)
	return g
}

// SeedLen is the 256-bit seed width spec §4.1 assigns to ISAAC-64.
func (g *isaac64) SeedLen() int { return 32 }

func (g *isaac64) Reseed(seed []byte) error {
	words := make([]uint64, 4)
	for i := 0; i < 4 && i*8 < len(seed); i++ {
		end := (i + 1) * 8
		if end > len(seed) {
			var tmp [8]byte
			copy(tmp[:], seed[i*8:])
			words[i] = binary.LittleEndian.Uint64(tmp[:])
		} else {
			words[i] = binary.LittleEndian.Uint64(seed[i*8 : end])
		}
	}

	g.reseedWords(words)
	return nil
}

func (g *isaac64) reseedWords(words []uint64) {
	var rsl [isaacSize]uint64
	copy(rsl[:], words)

	a, b, c, d, e, f, h, j := goldenRatio64, goldenRatio64, goldenRatio64, goldenRatio64,
		goldenRatio64, goldenRatio64, goldenRatio64, goldenRatio64

	mix := func() {
		a -= e
		f ^= h >> 9
		h += a
		b -= f
		j ^= a << 9
		a += b
		c -= j
		h ^= b >> 23
		b += c
		d -= h
		a ^= c << 15
		c += d
		e -= a
		b ^= d >> 14
		d += e
		f -= b
		c ^= e << 20
		e += f
		j -= c
		d ^= f >> 17
		f += j
		h -= d
		e ^= j << 14
		j += h
	}

	for i := 0; i < 4; i++ {
		mix()
	}

	useSeed := words != nil

	var mm [isaacSize]uint64

	for i := 0; i < isaacSize; i += 8 {
		if useSeed {
			a += rsl[i+0]
			b += rsl[i+1]
			c += rsl[i+2]
			d += rsl[i+3]
			e += rsl[i+4]
			f += rsl[i+5]
			h += rsl[i+6]
			j += rsl[i+7]
		}

		mix()

		mm[i+0] = a
		mm[i+1] = b
		mm[i+2] = c
		mm[i+3] = d
		mm[i+4] = e
		mm[i+5] = f
		mm[i+6] = h
		mm[i+7] = j
	}

	if useSeed {
		for i := 0; i < isaacSize; i += 8 {
			a += mm[i+0]
			b += mm[i+1]
			c += mm[i+2]
			d += mm[i+3]
			e += mm[i+4]
			f += mm[i+5]
			h += mm[i+6]
			j += mm[i+7]

			mix()

			mm[i+0] = a
			mm[i+1] = b
			mm[i+2] = c
			mm[i+3] = d
			mm[i+4] = e
			mm[i+5] = f
			mm[i+6] = h
			mm[i+7] = j
		}
	}

	g.mm = mm
	g.aa, g.bb, g.cc = 0, 0, 0
	g.generate()
	g.cnt = isaacSize
}

// generate runs one full mixing round, refilling g.rsl with isaacSize
// fresh 64-bit words.
func (g *isaac64) generate() {
	a, b := g.aa, g.bb
	g.cc++
	b += g.cc

	ind := func(x uint64) uint64 {
		return g.mm[(x>>3)&(isaacSize-1)]
	}

	step := func(mix uint64, mPtr, m2Ptr *int, r *int) {
		x := g.mm[*mPtr]
		a = mix + g.mm[*m2Ptr]
		*m2Ptr++
		y := ind(x) + a + b
		g.mm[*mPtr] = y
		*mPtr++
		b = ind(y>>isaacSizeL) + x
		g.rsl[*r] = b
		*r++
	}

	half := isaacSize / 2
	m, m2, r := 0, half, 0

	for m < half {
		step(^(a ^ (a << 21)), &m, &m2, &r)
		step(a^(a>>5), &m, &m2, &r)
		step(a^(a<<12), &m, &m2, &r)
		step(a^(a>>33), &m, &m2, &r)
	}

	m2 = 0
	for m < isaacSize {
		step(^(a ^ (a << 21)), &m, &m2, &r)
		step(a^(a>>5), &m, &m2, &r)
		step(a^(a<<12), &m, &m2, &r)
		step(a^(a>>33), &m, &m2, &r)
	}

	g.aa, g.bb = a, b
}

func (g *isaac64) nextWord() uint64 {
	if g.cnt == 0 {
		g.generate()
		g.cnt = isaacSize
	}
	g.cnt--
	return g.rsl[g.cnt]
}

func (g *isaac64) Fill(buf []byte) {
	var tmp [8]byte
	i := 0
	for i < len(buf) {
		binary.LittleEndian.PutUint64(tmp[:], g.nextWord())
		i += copy(buf[i:], tmp[:])
	}
}
