package ratelimit

import (
	"testing"
	"time"
)

func TestAllow_ConsumesTokens(t *testing.T) {
	l := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Error("request over the limit should be denied")
	}
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	l := New(1, time.Minute)

	if !l.Allow("1.2.3.4") {
		t.Fatal("first key should be allowed")
	}
	if !l.Allow("5.6.7.8") {
		t.Error("a different key must have its own bucket")
	}
	if l.Allow("1.2.3.4") {
		t.Error("exhausted key should be denied")
	}
}

func TestAllow_RefillsOverTime(t *testing.T) {
	now := time.Now()
	l := New(2, time.Minute)
	l.now = func() time.Time { return now }

	l.Allow("k")
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("bucket should be empty")
	}

	// Half a window refills half the bucket.
	now = now.Add(30 * time.Second)
	if !l.Allow("k") {
		t.Error("expected one token after 30s")
	}
	if l.Allow("k") {
		t.Error("only one token should have refilled")
	}
}

func TestRemaining(t *testing.T) {
	l := New(5, time.Minute)

	if got := l.Remaining("k"); got != 5 {
		t.Errorf("fresh bucket: expected 5, got %d", got)
	}
	l.Allow("k")
	l.Allow("k")
	if got := l.Remaining("k"); got != 3 {
		t.Errorf("after two requests: expected 3, got %d", got)
	}
}

func TestRefill_CapsAtRate(t *testing.T) {
	now := time.Now()
	l := New(2, time.Minute)
	l.now = func() time.Time { return now }

	l.Allow("k")
	now = now.Add(time.Hour)
	if got := l.Remaining("k"); got != 2 {
		t.Errorf("bucket must not refill past its rate, got %d", got)
	}
}
