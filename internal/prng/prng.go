// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Package prng provides the pluggable byte-stream generators the wipe
// engine drives for random passes (spec §4.1). Every variant satisfies
// the same small capability set — Reseed and Fill — rather than
// reaching for interface hierarchies or reflection-based dispatch; the
// capability set exists specifically because verification needs
// Reseed, not merely "next byte".
package prng

import (
	"crypto/rand"
	"fmt"
)

// Generator is the capability set every PRNG variant exposes.
type Generator interface {
	// Reseed deterministically reinitializes the generator. Two
	// generators of the same kind reseeded with an identical seed
	// produce identical infinite byte streams.
	Reseed(seed []byte) error

	// Fill fills buf with pseudo-random bytes, advancing internal
	// state by exactly len(buf) bytes worth of output.
	Fill(buf []byte)

	// SeedLen returns this variant's natural seed width in bytes.
	SeedLen() int
}

// New constructs a named PRNG variant. It returns an error tagged
// ErrUnknownPRNG if name is not recognised.
func New(name string) (Generator, error) {
	switch name {
	case "isaac", "isaac64":
		return newIsaac64(), nil
	case "mt19937", "twister":
		return newMT19937(), nil
	case "system", "chacha20", "random":
		return newChaCha(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPRNG, name)
	}
}

// SeedFromEntropy draws SeedLen() bytes from the OS CSPRNG, reseeds g
// with them, and returns the seed so the caller can capture it for
// later verification replay (spec §4.1 "Seed replay for verification").
func SeedFromEntropy(g Generator) ([]byte, error) {
	seed := make([]byte, g.SeedLen())

	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}

	if err := g.Reseed(seed); err != nil {
		return nil, err
	}

	return seed, nil
}
