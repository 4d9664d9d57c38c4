package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func failing() (interface{}, error) { return nil, errBoom }
func succeeding() (interface{}, error) { return "ok", nil }

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := New(2, 1, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(failing); !errors.Is(err, errBoom) {
			t.Fatalf("call %d: err = %v", i+1, err)
		}
	}
	if cb.State() != Open {
		t.Fatalf("state = %v, expected Open", cb.State())
	}
	if _, err := cb.Execute(succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, expected ErrCircuitOpen", err)
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := New(2, 1, time.Minute)

	if _, err := cb.Execute(failing); err == nil {
		t.Fatal("expected error")
	}
	if _, err := cb.Execute(succeeding); err != nil {
		t.Fatalf("err = %v", err)
	}
	if _, err := cb.Execute(failing); err == nil {
		t.Fatal("expected error")
	}
	if cb.State() != Closed {
		t.Errorf("state = %v, a non-consecutive failure must not trip the circuit", cb.State())
	}
}

func TestBreaker_RecoversThroughHalfOpen(t *testing.T) {
	cb := New(1, 1, 10*time.Millisecond)

	if _, err := cb.Execute(failing); err == nil {
		t.Fatal("expected error")
	}
	if cb.State() != Open {
		t.Fatalf("state = %v, expected Open", cb.State())
	}

	time.Sleep(20 * time.Millisecond)
	res, err := cb.Execute(succeeding)
	if err != nil {
		t.Fatalf("trial request failed: %v", err)
	}
	if res != "ok" {
		t.Errorf("res = %v", res)
	}
	if cb.State() != Closed {
		t.Errorf("state = %v, expected Closed after successful trial", cb.State())
	}
}
