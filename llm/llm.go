package llm

import (
	"context"

	"github.com/veracity-ai/veracity/message"
)

// Options carries per-request sampling parameters. Nil fields keep the
// provider's defaults.
type Options struct {
	Temperature *float64
	TopP        *float64
}

// GenerateRequest bundles inputs for a non-streaming model invocation.
type GenerateRequest struct {
	Messages []*message.Message
	Options  *Options
}

// GenerateResponse captures the model reply for non-streaming calls.
type GenerateResponse struct {
	Message *message.Message
}

// Client is the text generation capability the pipeline depends on. Concrete
// implementations live in contrib/provider; they wrap transport and quota
// failures in *errors.GenerationServiceError. A successful call may still
// return malformed or schema-violating text; that is not an error from the
// client's point of view.
type Client interface {
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}

// Temperature returns an Options pointer field for literal values.
func Temperature(v float64) *float64 { return &v }

// TopP returns an Options pointer field for literal values.
func TopP(v float64) *float64 { return &v }
