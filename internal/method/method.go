// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Package method is the declarative erasure-schedule catalog (spec
// §4.2): a named method is an ordered list of passes executed once per
// round, and the wipe engine interprets that list without knowing
// anything about specific methods.
package method

import "fmt"

// Kind identifies what a single pass does.
type Kind int

const (
	Pattern Kind = iota
	PRNG
	VerifyPattern
	VerifyPRNG
)

// PassType mirrors the progress snapshot's pass_type enum (spec §3).
type PassType int

const (
	Idle PassType = iota
	Write
	Verify
	FinalBlank
)

// Pass is one immutable catalog entry.
type Pass struct {
	Kind    Kind
	Bytes   []byte // pattern bytes; nil for PRNG/VerifyPRNG
	Label   string
	Type    PassType
}

func (p Pass) isWrite() bool {
	return p.Kind == Pattern || p.Kind == PRNG
}

func (p Pass) verifyCounterpart() Pass {
	switch p.Kind {
	case Pattern:
		return Pass{Kind: VerifyPattern, Bytes: p.Bytes, Label: "verify " + p.Label, Type: Verify}
	case PRNG:
		return Pass{Kind: VerifyPRNG, Label: "verify " + p.Label, Type: Verify}
	default:
		return p
	}
}

// definition is a catalog entry before verify passes are spliced in.
type definition struct {
	name          string
	defaultRounds int
	roundPasses   []Pass
	finalPasses   []Pass
}

// Schedule is a fully expanded, ready-to-drive pass plan: one slice of
// passes repeated for each round, plus an optional slice of extra
// passes run once after all rounds complete (OPS-II's final-blank
// pass). WritePassCount is the per-round count of write passes before
// any verify passes are spliced in — this is the "pass_count" the
// progress model uses (spec §9, resolving the pass_count ambiguity:
// it is always the per-round write-pass count, with OPS-II's final
// pass accounted separately rather than folded into pass_count).
type Schedule struct {
	Name           string
	RoundCount     int
	WritePassCount int
	RoundPasses    []Pass
	FinalPasses    []Pass
}

var catalog = map[string]definition{
	"zero": {
		name:          "zero",
		defaultRounds: 1,
		roundPasses: []Pass{
			{Kind: Pattern, Bytes: []byte{0x00}, Label: "zero", Type: Write},
		},
	},
	"random": {
		name:          "random",
		defaultRounds: 1,
		roundPasses: []Pass{
			{Kind: PRNG, Label: "random", Type: Write},
		},
	},
	"dod": {
		name:          "dod",
		defaultRounds: 1,
		roundPasses: []Pass{
			{Kind: Pattern, Bytes: []byte{0x00}, Label: "dod-zero", Type: Write},
			{Kind: Pattern, Bytes: []byte{0xFF}, Label: "dod-ones", Type: Write},
			{Kind: PRNG, Label: "dod-random", Type: Write},
		},
	},
	"ops2": {
		name:          "ops2",
		defaultRounds: 3,
		roundPasses: []Pass{
			{Kind: Pattern, Bytes: []byte{0x00}, Label: "ops2-zero", Type: Write},
			{Kind: Pattern, Bytes: []byte{0xFF}, Label: "ops2-ones", Type: Write},
			{Kind: PRNG, Label: "ops2-random", Type: Write},
		},
		finalPasses: []Pass{
			{Kind: Pattern, Bytes: []byte{0x00}, Label: "ops2-final-blank", Type: FinalBlank},
		},
	},
	"gutmann": {
		name:          "gutmann",
		defaultRounds: 1,
		roundPasses:   gutmannPasses(),
	},
}

// gutmannPatterns is the fixed 27-entry 3-byte pattern list from spec §4.2.
var gutmannPatterns = [][]byte{
	{0x55, 0x55, 0x55},
	{0xAA, 0xAA, 0xAA},
	{0x92, 0x49, 0x24},
	{0x49, 0x24, 0x92},
	{0x24, 0x92, 0x49},
	{0x00, 0x00, 0x00},
	{0x11, 0x11, 0x11},
	{0x22, 0x22, 0x22},
	{0x33, 0x33, 0x33},
	{0x44, 0x44, 0x44},
	{0x55, 0x55, 0x55},
	{0x66, 0x66, 0x66},
	{0x77, 0x77, 0x77},
	{0x88, 0x88, 0x88},
	{0x99, 0x99, 0x99},
	{0xAA, 0xAA, 0xAA},
	{0xBB, 0xBB, 0xBB},
	{0xCC, 0xCC, 0xCC},
	{0xDD, 0xDD, 0xDD},
	{0xEE, 0xEE, 0xEE},
	{0xFF, 0xFF, 0xFF},
	{0x92, 0x49, 0x24},
	{0x49, 0x24, 0x92},
	{0x24, 0x92, 0x49},
	{0x6D, 0xB6, 0xDB},
	{0xB6, 0xDB, 0x6D},
	{0xDB, 0x6D, 0xB6},
}

func gutmannPasses() []Pass {
	passes := make([]Pass, 0, 35)

	for i := 0; i < 4; i++ {
		passes = append(passes, Pass{Kind: PRNG, Label: fmt.Sprintf("gutmann-random-%d", i+1), Type: Write})
	}

	for i, p := range gutmannPatterns {
		passes = append(passes, Pass{Kind: Pattern, Bytes: p, Label: fmt.Sprintf("gutmann-pattern-%d", i+5), Type: Write})
	}

	for i := 0; i < 4; i++ {
		passes = append(passes, Pass{Kind: PRNG, Label: fmt.Sprintf("gutmann-random-%d", i+32), Type: Write})
	}

	return passes
}

// Names returns every catalog key, for CLI help text and validation.
func Names() []string {
	return []string{"zero", "random", "dod", "ops2", "gutmann"}
}

// Resolve builds a Schedule for the named method. rounds, if non-zero,
// overrides the method's default round count (spec §4.2's "caller,
// default 3" for ops2; every other method ignores a caller override
// of 0 and uses its own default, since only ops2 documents rounds as
// caller-settable and the others are defined as always running once,
// though a caller may still request >1 rounds explicitly).
func Resolve(name string, rounds int, verify bool) (*Schedule, error) {
	def, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}

	roundCount := def.defaultRounds
	if rounds > 0 {
		roundCount = rounds
	}

	sched := &Schedule{
		Name:           def.name,
		RoundCount:     roundCount,
		WritePassCount: len(def.roundPasses),
		RoundPasses:    splice(def.roundPasses, verify),
		FinalPasses:    splice(def.finalPasses, verify),
	}

	return sched, nil
}

// splice returns passes with a verify pass inserted immediately after
// each write pass, when verify is requested.
func splice(passes []Pass, verify bool) []Pass {
	if !verify {
		out := make([]Pass, len(passes))
		copy(out, passes)
		return out
	}

	out := make([]Pass, 0, len(passes)*2)
	for _, p := range passes {
		out = append(out, p)
		if p.isWrite() {
			out = append(out, p.verifyCounterpart())
		}
	}

	return out
}
