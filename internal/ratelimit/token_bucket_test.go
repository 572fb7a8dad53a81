package ratelimit

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestTokenBucket_StartsFull(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	b := NewTokenBucket(clk, 3, 1)

	for i := 0; i < 3; i++ {
		if !b.Allow(1) {
			t.Fatalf("Allow(1) #%d = false, want true", i)
		}
	}
	if b.Allow(1) {
		t.Fatal("Allow(1) after drain = true, want false")
	}
}

func TestTokenBucket_RefillsAtRate(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	b := NewTokenBucket(clk, 2, 2)

	if !b.Allow(2) {
		t.Fatal("initial Allow(2) = false")
	}
	if b.Allow(1) {
		t.Fatal("Allow(1) on empty bucket = true")
	}

	clk.Advance(500 * time.Millisecond) // +1 token
	if !b.Allow(1) {
		t.Fatal("Allow(1) after 500ms at 2/s = false")
	}
	if b.Allow(1) {
		t.Fatal("second Allow(1) = true, want false")
	}
}

func TestTokenBucket_ClampsToCapacity(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	b := NewTokenBucket(clk, 2, 10)

	clk.Advance(time.Hour)
	if !b.Allow(2) {
		t.Fatal("Allow(2) after long idle = false")
	}
	if b.Allow(1) {
		t.Fatal("capacity not clamped: Allow(1) = true")
	}
}

func TestTokenBucket_TimeGoingBackwards(t *testing.T) {
	clk := &fakeClock{now: time.Unix(100, 0)}
	b := NewTokenBucket(clk, 1, 1)

	if !b.Allow(1) {
		t.Fatal("initial Allow(1) = false")
	}
	clk.now = time.Unix(50, 0)
	if b.Allow(1) {
		t.Fatal("Allow(1) after clock regression = true, want false")
	}
}

func TestTokenBucket_NonPositiveCost(t *testing.T) {
	b := NewTokenBucket(&fakeClock{now: time.Unix(0, 0)}, 0, 0)
	if !b.Allow(0) {
		t.Fatal("Allow(0) = false, want true")
	}
	if !b.Allow(-5) {
		t.Fatal("Allow(-5) = false, want true")
	}
	if b.Allow(1) {
		t.Fatal("Allow(1) with zero capacity = true")
	}
}
