// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package method

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveUnknownMethod(t *testing.T) {
	_, err := Resolve("bogus", 0, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestGutmannPassCount(t *testing.T) {
	sched, err := Resolve("gutmann", 0, false)
	require.NoError(t, err)

	assert.Equal(t, 1, sched.RoundCount)
	assert.Equal(t, 35, sched.WritePassCount)
	assert.Len(t, sched.RoundPasses, 35)
	assert.Empty(t, sched.FinalPasses)
}

func TestOps2DefaultRoundsAndFinalPass(t *testing.T) {
	sched, err := Resolve("ops2", 0, false)
	require.NoError(t, err)

	assert.Equal(t, 3, sched.RoundCount)
	assert.Equal(t, 3, sched.WritePassCount)
	assert.Len(t, sched.RoundPasses, 3)
	require.Len(t, sched.FinalPasses, 1)
	assert.Equal(t, FinalBlank, sched.FinalPasses[0].Type)
}

func TestOps2RoundsOverride(t *testing.T) {
	sched, err := Resolve("ops2", 5, false)
	require.NoError(t, err)
	assert.Equal(t, 5, sched.RoundCount)
}

func TestVerifySplicesAfterEachWritePass(t *testing.T) {
	sched, err := Resolve("dod", 0, true)
	require.NoError(t, err)

	require.Len(t, sched.RoundPasses, 6)
	for i, p := range sched.RoundPasses {
		if i%2 == 0 {
			assert.True(t, p.Kind == Pattern || p.Kind == PRNG)
		} else {
			assert.True(t, p.Kind == VerifyPattern || p.Kind == VerifyPRNG)
		}
	}
}

func TestZeroMethodSinglePass(t *testing.T) {
	sched, err := Resolve("zero", 0, false)
	require.NoError(t, err)
	assert.Equal(t, 1, sched.RoundCount)
	require.Len(t, sched.RoundPasses, 1)
	assert.Equal(t, []byte{0x00}, sched.RoundPasses[0].Bytes)
}
