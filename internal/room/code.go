package room

import (
	"crypto/rand"
	"strings"
)

// CodeAlphabet omits I, O, 0 and 1 so codes survive being read aloud.
const (
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLength   = 4
)

// maxCodeAttempts bounds collision retries when creating a room.
const maxCodeAttempts = 64

// NewCode returns a random room code.
func NewCode() string {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}

	out := make([]byte, CodeLength)
	for i := range out {
		out[i] = CodeAlphabet[int(buf[i])%len(CodeAlphabet)]
	}

	return string(out)
}

// NormalizeCode upper-cases and trims user input and reports whether the
// result is a well-formed code.
func NormalizeCode(s string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if len(code) != CodeLength {
		return code, false
	}
	for _, c := range code {
		if !strings.ContainsRune(CodeAlphabet, c) {
			return code, false
		}
	}
	return code, true
}
