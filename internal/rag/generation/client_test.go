package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"StudyMate/pkg/circuitbreaker"
	"StudyMate/pkg/logger"
)

// fakeLLM returns a canned answer or error.
type fakeLLM struct {
	answer string
	err    error
	calls  int
}

func (f *fakeLLM) Complete(ctx context.Context, userMessage, systemPrompt string) (string, error) {
	f.calls++
	return f.answer, f.err
}

func TestComplete_NoProviderReturnsSentinel(t *testing.T) {
	c := NewClient(nil, nil, logger.New("test", "", ""))

	got, err := c.Complete(context.Background(), "hello", "system")
	if err != nil {
		t.Fatalf("Complete() error = %v, expected nil", err)
	}
	if got != MissingKeyResponse {
		t.Errorf("Complete() = %q, expected the missing-key sentinel", got)
	}
}

func TestComplete_PassesThroughProviderAnswer(t *testing.T) {
	model := &fakeLLM{answer: "generated text"}
	c := NewClient(model, nil, logger.New("test", "", ""))

	got, err := c.Complete(context.Background(), "hello", "system")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "generated text" {
		t.Errorf("Complete() = %q", got)
	}
}

func TestComplete_ProviderFailureDegrades(t *testing.T) {
	model := &fakeLLM{err: errors.New("upstream 500")}
	c := NewClient(model, nil, logger.New("test", "", ""))

	got, err := c.Complete(context.Background(), "hello", "system")
	if err == nil {
		t.Fatal("expected an internal error alongside the degraded text")
	}
	if got == "" || got == MissingKeyResponse {
		t.Errorf("degraded text = %q, expected a human-readable fallback", got)
	}
}

func TestComplete_OpenCircuitStopsCalls(t *testing.T) {
	model := &fakeLLM{err: errors.New("upstream 500")}
	breaker := circuitbreaker.New(2, 1, time.Minute)
	c := NewClient(model, breaker, logger.New("test", "", ""))

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := c.Complete(ctx, "hello", "system"); err == nil {
			t.Fatalf("call %d: expected error", i+1)
		}
	}
	if breaker.State() != circuitbreaker.Open {
		t.Fatalf("breaker state = %v, expected Open", breaker.State())
	}

	callsBefore := model.calls
	got, err := c.Complete(ctx, "hello", "system")
	if !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if got == "" {
		t.Error("open circuit must still return degraded text")
	}
	if model.calls != callsBefore {
		t.Error("open circuit must not reach the provider")
	}
}
