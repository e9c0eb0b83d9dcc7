// Package devicecode generates short human-enterable pairing codes.
package devicecode

import (
	"crypto/rand"
	"fmt"
)

// Alphabet is the fixed set of 32 unambiguous symbols codes are drawn from.
// Visually confusable glyphs (0/O, 1/I/L) are excluded because the code is
// typed on a TV remote.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Generate returns a code of length characters drawn uniformly at random
// from Alphabet. Codes gate account linking, so the random source is
// crypto/rand, never math/rand.
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length %d", length)
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	// len(Alphabet) is 32, a power of two, so masking the low five bits
	// keeps the draw uniform.
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = Alphabet[b&31]
	}

	return string(out), nil
}
