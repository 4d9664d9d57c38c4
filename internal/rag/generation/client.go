package generation

import (
	"context"
	"fmt"

	"StudyMate/internal/llm"
	"StudyMate/internal/models"
	"StudyMate/pkg/circuitbreaker"
	"StudyMate/pkg/logger"
)

// MissingKeyResponse is returned verbatim when no LLM provider is configured.
// It flows through the pipeline as a normal answer so the rest of the system
// keeps working without credentials.
const MissingKeyResponse = "LLM API key is not configured"

// degradedResponse is the user-facing text for provider or transport failures.
const degradedResponse = "I'm having trouble reaching the language model right now. Please try again in a moment."

// Client turns an assembled prompt pair into generated text. Provider calls go
// through a circuit breaker so a failing upstream stops being hammered.
//
// Complete always returns usable text. When it also returns an error, the text
// is a degraded stand-in and the error is the internal signal for logging;
// callers present the text and do not fail the request.
type Client struct {
	model   llm.LLM
	breaker circuitbreaker.CircuitBreaker
	log     *logger.Logger
}

// NewClient creates a generation client. model may be nil when no API key is
// configured; breaker may be nil to call the provider directly.
func NewClient(model llm.LLM, breaker circuitbreaker.CircuitBreaker, log *logger.Logger) *Client {
	return &Client{model: model, breaker: breaker, log: log}
}

// Complete sends the prompt pair to the configured provider.
func (c *Client) Complete(ctx context.Context, userMessage, systemPrompt string) (string, error) {
	if c.model == nil {
		c.log.Warn("no LLM provider configured, returning placeholder response")
		return MissingKeyResponse, nil
	}

	call := func() (interface{}, error) {
		return c.model.Complete(ctx, userMessage, systemPrompt)
	}

	var (
		res interface{}
		err error
	)
	if c.breaker != nil {
		res, err = c.breaker.Execute(call)
	} else {
		res, err = call()
	}
	if err != nil {
		c.log.WithError(models.ErrorInfo{Type: "generation_error", Message: err.Error()}).
			Error("LLM completion failed")
		return degradedResponse, fmt.Errorf("llm completion failed: %w", err)
	}

	text, ok := res.(string)
	if !ok {
		return degradedResponse, fmt.Errorf("unexpected completion result type %T", res)
	}
	return text, nil
}
