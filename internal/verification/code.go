package verification

import (
	"crypto/rand"
	"fmt"
	"io"
	"time"
)

// codeAlphabet excludes characters that read ambiguously when spoken or
// transcribed (0/O, 1/I/L). Codes are compared case-sensitively but never
// contain lowercase letters, so case-folding input is safe for callers.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// DefaultLength is the code length used when none is configured.
const DefaultLength = 8

// Generator produces verification codes and their expiry timestamps. It is
// pure with respect to the clock and the random source.
type Generator struct {
	Length int           // Code length in characters.
	TTL    time.Duration // Validity window for new codes.

	now func() time.Time
}

// NewGenerator builds a Generator with the given code length and TTL.
func NewGenerator(length int, ttl time.Duration) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{Length: length, TTL: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// Generate returns a new random code and its absolute expiry.
func (g *Generator) Generate() (string, time.Time, error) {
	code, errCode := randomCode(g.Length)
	if errCode != nil {
		return "", time.Time{}, errCode
	}
	return code, g.clock().Add(g.TTL), nil
}

func (g *Generator) clock() time.Time {
	if g.now != nil {
		return g.now()
	}
	return time.Now().UTC()
}

// randomCode draws length characters uniformly from the code alphabet.
func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	out := make([]byte, length)
	filled := 0
	for filled < length {
		if _, errRead := io.ReadFull(rand.Reader, buf[:length-filled]); errRead != nil {
			return "", fmt.Errorf("verification: read random: %w", errRead)
		}
		for _, b := range buf[:length-filled] {
			// Reject bytes outside the largest multiple of the alphabet
			// size to keep the draw uniform.
			limit := byte(256 - 256%len(codeAlphabet))
			if b >= limit {
				continue
			}
			out[filled] = codeAlphabet[int(b)%len(codeAlphabet)]
			filled++
			if filled == length {
				break
			}
		}
	}
	return string(out), nil
}
