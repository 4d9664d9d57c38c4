package ratelimiter

import (
	"testing"
	"time"
)

func TestTokenBucket_AllowsUpToCapacity(t *testing.T) {
	tb := NewTokenBucket(0.0001, 3)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("request %d rejected within capacity", i+1)
		}
	}
	if tb.Allow() {
		t.Error("request beyond capacity should be rejected")
	}
}

func TestTokenBucket_Refills(t *testing.T) {
	tb := NewTokenBucket(100, 1) // 100 tokens per second

	if !tb.Allow() {
		t.Fatal("first request rejected")
	}
	if tb.Allow() {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(30 * time.Millisecond)
	if !tb.Allow() {
		t.Error("bucket should have refilled")
	}
}

func TestFixedWindowCounter_LimitAndReset(t *testing.T) {
	fwc := NewFixedWindowCounter(2, 20*time.Millisecond)

	if !fwc.Allow() || !fwc.Allow() {
		t.Fatal("requests within the limit were rejected")
	}
	if fwc.Allow() {
		t.Error("request over the limit should be rejected")
	}

	time.Sleep(30 * time.Millisecond)
	if !fwc.Allow() {
		t.Error("a new window should admit requests again")
	}
}
