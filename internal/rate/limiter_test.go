package rate

import (
	"testing"
	"time"
)

func TestAllowWithinWindow(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	l := NewLimiter()
	l.now = func() time.Time { return base }

	for i := 0; i < 2; i++ {
		if !l.Allow("a@example.com", 2, time.Hour) {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("a@example.com", 2, time.Hour) {
		t.Fatal("third attempt within the window should be denied")
	}
	// A different key has its own window.
	if !l.Allow("b@example.com", 2, time.Hour) {
		t.Fatal("other key should be allowed")
	}
}

func TestAllowResetsAfterWindow(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	l := NewLimiter()
	l.now = func() time.Time { return base }

	if !l.Allow("k", 1, time.Hour) {
		t.Fatal("first attempt should be allowed")
	}
	if l.Allow("k", 1, time.Hour) {
		t.Fatal("second attempt should be denied")
	}

	base = base.Add(time.Hour + time.Second)
	if !l.Allow("k", 1, time.Hour) {
		t.Fatal("attempt after window should be allowed")
	}
}
