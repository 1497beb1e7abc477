package ratelimit

import (
	"testing"
	"time"
)

func TestAllowBurstThenRefill(t *testing.T) {
	p := New(1, 3)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := range 3 {
		if !p.Allow("u1", now) {
			t.Fatalf("call %d rejected inside burst", i)
		}
	}
	if p.Allow("u1", now) {
		t.Fatal("call past burst allowed")
	}
	if !p.Allow("u2", now) {
		t.Error("other key shares the bucket")
	}
	if !p.Allow("u1", now.Add(time.Second)) {
		t.Error("token not refilled after one second")
	}
}

func TestNilLimiterAllows(t *testing.T) {
	var p *PerKey
	if !p.Allow("u1", time.Now()) {
		t.Error("nil limiter rejected")
	}
	if New(0, 5) != nil || New(1, 0) != nil {
		t.Error("New with non-positive args should return nil")
	}
}

func TestIdleKeysEvicted(t *testing.T) {
	p := New(100, 100)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p.Allow("idle", start)

	later := start.Add(time.Hour)
	for range sweepEvery {
		p.Allow("busy", later)
	}
	if got := p.Len(); got != 1 {
		t.Errorf("tracked keys = %d, want 1", got)
	}
}
