package middleware

import (
	"context"
	"errors"
	"time"

	verr "github.com/veracity-ai/veracity/errors"
	"github.com/veracity-ai/veracity/llm"
)

// Retry re-issues failed generation calls. Only provider-side failures are
// retried; context cancellation and malformed requests surface immediately.
type Retry struct {
	attempts int
	backoff  time.Duration
}

// NewRetry creates a retry middleware with attempts total tries and a linear
// backoff between them.
func NewRetry(attempts int, backoff time.Duration) *Retry {
	if attempts < 1 {
		attempts = 1
	}
	return &Retry{attempts: attempts, backoff: backoff}
}

func (m *Retry) Name() string { return "retry" }

func (m *Retry) Wrap(next llm.Client) llm.Client {
	return clientFunc(func(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
		var lastErr error
		for attempt := 0; attempt < m.attempts; attempt++ {
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(time.Duration(attempt) * m.backoff):
				}
			}
			resp, err := next.Generate(ctx, req)
			if err == nil {
				return resp, nil
			}
			lastErr = err
			if !retryable(err) {
				return nil, err
			}
		}
		return nil, lastErr
	})
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var genErr *verr.GenerationServiceError
	return errors.As(err, &genErr)
}
