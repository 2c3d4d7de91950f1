package verification

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateLengthAndAlphabet(t *testing.T) {
	gen := NewGenerator(8, 30*24*time.Hour)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, _, errGen := gen.Generate()
		if errGen != nil {
			t.Fatalf("generate: %v", errGen)
		}
		if len(code) != 8 {
			t.Fatalf("code %q has length %d, want 8", code, len(code))
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
		if seen[code] {
			t.Fatalf("duplicate code %q within 200 draws", code)
		}
		seen[code] = true
	}
}

func TestGenerateExpiryUsesTTL(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator(8, 30*24*time.Hour)
	gen.now = func() time.Time { return base }

	_, expires, errGen := gen.Generate()
	if errGen != nil {
		t.Fatalf("generate: %v", errGen)
	}
	if want := base.Add(30 * 24 * time.Hour); !expires.Equal(want) {
		t.Fatalf("expires = %s, want %s", expires, want)
	}
}

func TestNewGeneratorDefaultsLength(t *testing.T) {
	gen := NewGenerator(0, time.Hour)
	code, _, errGen := gen.Generate()
	if errGen != nil {
		t.Fatalf("generate: %v", errGen)
	}
	if len(code) != DefaultLength {
		t.Fatalf("default code length = %d, want %d", len(code), DefaultLength)
	}
}
