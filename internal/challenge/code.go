package challenge

import (
	"math/rand/v2"
	"strings"
)

// CodeAlphabet leaves out 0, O, 1 and I so codes can be read aloud.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the number of characters in a challenge code.
const CodeLength = 6

// NewCode draws a random code from CodeAlphabet.
func NewCode(r *rand.Rand) string {
	var b strings.Builder
	b.Grow(CodeLength)
	for range CodeLength {
		b.WriteByte(CodeAlphabet[r.IntN(len(CodeAlphabet))])
	}
	return b.String()
}

// NormalizeCode upper-cases and trims user-typed codes.
func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidCode reports whether s is a well-formed code.
func ValidCode(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(CodeAlphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
