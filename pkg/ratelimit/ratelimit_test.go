package ratelimit

import (
	"testing"
	"time"
)

func TestCheckWithinLimit(t *testing.T) {
	l := New(time.Minute)
	defer l.Stop()

	cfg := Config{MaxRequests: 3, Window: time.Minute}

	for i := 0; i < 3; i++ {
		res := l.Check("analyze:1.2.3.4", cfg)
		if !res.Allowed {
			t.Fatalf("Request %d should be allowed", i+1)
		}
		if res.Remaining != cfg.MaxRequests-i-1 {
			t.Errorf("Request %d: expected remaining %d, got %d", i+1, cfg.MaxRequests-i-1, res.Remaining)
		}
	}
}

func TestCheckOverLimit(t *testing.T) {
	l := New(time.Minute)
	defer l.Stop()

	cfg := Config{MaxRequests: 2, Window: time.Minute}

	l.Check("k", cfg)
	l.Check("k", cfg)

	res := l.Check("k", cfg)
	if res.Allowed {
		t.Error("Third request should be rejected")
	}
	if res.Remaining != 0 {
		t.Errorf("Expected remaining 0, got %d", res.Remaining)
	}
	if res.ResetTime.Before(time.Now()) {
		t.Error("ResetTime should be in the future for a rejected request")
	}
}

func TestCheckWindowReset(t *testing.T) {
	l := New(time.Minute)
	defer l.Stop()

	cfg := Config{MaxRequests: 1, Window: 10 * time.Millisecond}

	if res := l.Check("k", cfg); !res.Allowed {
		t.Fatal("First request should be allowed")
	}
	if res := l.Check("k", cfg); res.Allowed {
		t.Fatal("Second request within window should be rejected")
	}

	time.Sleep(15 * time.Millisecond)

	if res := l.Check("k", cfg); !res.Allowed {
		t.Error("Request after window reset should be allowed")
	}
}

func TestCheckIndependentKeys(t *testing.T) {
	l := New(time.Minute)
	defer l.Stop()

	cfg := Config{MaxRequests: 1, Window: time.Minute}

	l.Check("analyze:10.0.0.1", cfg)

	res := l.Check("analyze:10.0.0.2", cfg)
	if !res.Allowed {
		t.Error("Different key should have its own window")
	}

	res = l.Check("parse:10.0.0.1", cfg)
	if !res.Allowed {
		t.Error("Different endpoint class should have its own window")
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	l := New(time.Hour) // sweep manually below
	defer l.Stop()

	cfg := Config{MaxRequests: 5, Window: 5 * time.Millisecond}
	l.Check("a", cfg)
	l.Check("b", cfg)

	if l.Len() != 2 {
		t.Fatalf("Expected 2 entries, got %d", l.Len())
	}

	time.Sleep(10 * time.Millisecond)
	l.sweep(time.Now())

	if l.Len() != 0 {
		t.Errorf("Expected 0 entries after sweep, got %d", l.Len())
	}
}

func TestSweepKeepsActive(t *testing.T) {
	l := New(time.Hour)
	defer l.Stop()

	l.Check("active", Config{MaxRequests: 5, Window: time.Minute})
	l.Check("stale", Config{MaxRequests: 5, Window: time.Millisecond})

	time.Sleep(5 * time.Millisecond)
	l.sweep(time.Now())

	if l.Len() != 1 {
		t.Errorf("Expected 1 entry after sweep, got %d", l.Len())
	}
}
