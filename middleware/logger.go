package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/veracity-ai/veracity/llm"
	"github.com/veracity-ai/veracity/pkg/logging"
)

// Logger logs every generation call with its duration and outcome.
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a logging middleware. A nil logger falls back to the
// package default with a middleware component tag.
func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = logging.WithComponent("middleware")
	}
	return &Logger{logger: logger}
}

func (m *Logger) Name() string { return "logger" }

func (m *Logger) Wrap(next llm.Client) llm.Client {
	return clientFunc(func(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
		start := time.Now()
		resp, err := next.Generate(ctx, req)
		elapsed := time.Since(start)

		if err != nil {
			m.logger.Error("generation failed",
				"messages", len(req.Messages),
				"duration", elapsed,
				"error", err,
			)
			return nil, err
		}
		m.logger.Debug("generation completed",
			"messages", len(req.Messages),
			"duration", elapsed,
			"response_chars", len(resp.Message.Text()),
		)
		return resp, nil
	})
}

// clientFunc adapts a function to the llm.Client interface.
type clientFunc func(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error)

func (f clientFunc) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	return f(ctx, req)
}
