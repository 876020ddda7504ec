// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package prng

import (
	"crypto/sha256"

	"golang.org/x/crypto/chacha20"
)

// chachaGen is the "system"/default-CSPRNG PRNG variant (spec §4.1).
// It streams bytes through golang.org/x/crypto/chacha20, the same
// primitive the pack's github.com/sixafter/prng-chacha uses for its
// pooled io.Reader — but that package only ever keys itself from OS
// entropy, with no way to reseed deterministically, so it cannot
// satisfy the seed-replay contract verification needs. chachaGen is a
// re-seedable sibling built from the same cipher.
type chachaGen struct {
	cipher *chacha20.Cipher
	zero   [4096]byte
}

func newChaCha() *chachaGen {
	g := &chachaGen{}
	// A zero key lets the generator be constructed before the first
	// real Reseed call; it is never used to produce output for an
	// actual wipe pass, since write/verify passes always reseed first.
	_ = g.Reseed(make([]byte, g.SeedLen()))
	return g
}

// SeedLen returns the ChaCha20 key size. Spec §4.1 describes the
// system variant's seed length as "opaque" to the caller; internally
// any caller-supplied seed is normalized to this width via SHA-256.
func (g *chachaGen) SeedLen() int { return chacha20.KeySize }

func (g *chachaGen) Reseed(seed []byte) error {
	key := deriveKey(seed)

	var nonce [chacha20.NonceSize]byte // fixed zero nonce: the key alone carries all seed entropy

	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return err
	}

	g.cipher = c
	return nil
}

func deriveKey(seed []byte) [chacha20.KeySize]byte {
	return sha256.Sum256(seed)
}

func (g *chachaGen) Fill(buf []byte) {
	for len(buf) > 0 {
		n := len(buf)
		if n > len(g.zero) {
			n = len(g.zero)
		}

		g.cipher.XORKeyStream(buf[:n], g.zero[:n])
		buf = buf[n:]
	}
}
