package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout marks a reasoning call that did not finish within its deadline.
// The in-flight request is abandoned, not retried; retrying under a batch
// deadline is the caller's decision.
var ErrTimeout = errors.New("reasoning call timed out")

// Completer is the raw chat surface the gateway wraps.
type Completer interface {
	ChatCompletion(ctx context.Context, messages []Message) (string, error)
}

// Gateway issues exactly one reasoning request per call under a hard
// per-call deadline. It has no side effects beyond the network call.
type Gateway struct {
	client Completer
}

// NewGateway creates a gateway around a chat client.
func NewGateway(client Completer) *Gateway {
	return &Gateway{client: client}
}

// Complete sends one system+user prompt pair and returns the raw response
// text. A deadline overrun yields ErrTimeout; any other transport or
// protocol failure comes back wrapped with its cause.
func (g *Gateway) Complete(ctx context.Context, system, user string, deadline time.Duration) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	messages := []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}

	text, err := g.client.ChatCompletion(callCtx, messages)
	if err != nil {
		// The per-call deadline expired, not the caller's context
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("%w after %v", ErrTimeout, deadline)
		}
		return "", fmt.Errorf("reasoning upstream: %w", err)
	}
	return text, nil
}
