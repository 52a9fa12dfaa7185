package middleware

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/veracity-ai/veracity/llm"
)

// RateLimiter throttles generation calls with a token bucket. Useful when a
// compare run fans out over several modes against the same provider quota.
type RateLimiter struct {
	limiter *rate.Limiter
	wait    bool
}

// NewRateLimiter allows rps requests per second with the given burst. The
// limiter blocks until a token is available.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		wait:    true,
	}
}

// NewRejectingRateLimiter fails immediately instead of waiting when the
// bucket is empty.
func NewRejectingRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (m *RateLimiter) Name() string { return "rate_limiter" }

func (m *RateLimiter) Wrap(next llm.Client) llm.Client {
	return clientFunc(func(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
		if m.wait {
			if err := m.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		} else if !m.limiter.Allow() {
			return nil, fmt.Errorf("rate limit exceeded")
		}
		return next.Generate(ctx, req)
	})
}
