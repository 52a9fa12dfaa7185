package middleware

import (
	"context"
	"time"

	"github.com/veracity-ai/veracity/llm"
)

// Timeout enforces a per-call deadline on the wrapped client.
type Timeout struct {
	limit time.Duration
}

// NewTimeout creates a deadline middleware. A non-positive limit disables it.
func NewTimeout(limit time.Duration) *Timeout {
	return &Timeout{limit: limit}
}

func (m *Timeout) Name() string { return "timeout" }

func (m *Timeout) Wrap(next llm.Client) llm.Client {
	return clientFunc(func(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
		if m.limit > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, m.limit)
			defer cancel()
		}
		return next.Generate(ctx, req)
	})
}
