// Package pickupcode generates the short numeric codes gating physical
// retrieval from a pickup box.
package pickupcode

import "math/rand/v2"

// Length is fixed so a constrained box keypad can size its input buffer.
const Length = 4

// Alphabet matches the four buttons on the box keypad. 4^4 = 256 possible
// codes per box; uniqueness is scoped per (code, box) at lookup time, not
// checked at generation.
const Alphabet = "1234"

// Generate draws a code uniformly from the alphabet. Not cryptographically
// strong; the code space is deliberately tiny for keypad entry.
func Generate() string {
	b := make([]byte, Length)
	for i := range b {
		b[i] = Alphabet[rand.IntN(len(Alphabet))]
	}
	return string(b)
}

// Valid reports whether code has the exact keypad shape.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '1' || code[i] > '4' {
			return false
		}
	}
	return true
}
