// Package gemini implements llm.Client on the Google generative AI SDK.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	verr "github.com/veracity-ai/veracity/errors"
	"github.com/veracity-ai/veracity/llm"
	"github.com/veracity-ai/veracity/message"
)

// Config holds Gemini provider configuration
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int32
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:    apiKey,
		Model:     "gemini-1.5-flash",
		MaxTokens: 2048,
	}
}

// Provider implements the llm.Client interface for Google Gemini
type Provider struct {
	config *Config
	client *genai.Client
}

// New creates a new Gemini provider. The client owns a connection and should
// be closed when done.
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config == nil || config.APIKey == "" {
		return nil, fmt.Errorf("gemini api key not configured")
	}
	if config.Model == "" {
		config.Model = DefaultConfig("").Model
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Provider{config: config, client: client}, nil
}

// Close releases the underlying client connection.
func (p *Provider) Close() error {
	return p.client.Close()
}

// Generate implements llm.Client. System messages become the system
// instruction; user and assistant turns are flattened into the prompt
// because each pipeline stage is a single-shot exchange.
func (p *Provider) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("generate request cannot be nil")
	}

	model := p.client.GenerativeModel(p.config.Model)
	if p.config.MaxTokens > 0 {
		model.SetMaxOutputTokens(p.config.MaxTokens)
	}
	if req.Options != nil {
		if req.Options.Temperature != nil {
			model.SetTemperature(float32(*req.Options.Temperature))
		}
		if req.Options.TopP != nil {
			model.SetTopP(float32(*req.Options.TopP))
		}
	}

	var systemParts []genai.Part
	var prompt strings.Builder
	for _, msg := range req.Messages {
		switch msg.Role {
		case message.RoleSystem:
			systemParts = append(systemParts, genai.Text(msg.Text()))
		default:
			if prompt.Len() > 0 {
				prompt.WriteString("\n\n")
			}
			prompt.WriteString(msg.Text())
		}
	}
	if len(systemParts) > 0 {
		model.SystemInstruction = &genai.Content{Parts: systemParts}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt.String()))
	if err != nil {
		return nil, &verr.GenerationServiceError{Err: fmt.Errorf("gemini api: %w", err)}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, &verr.GenerationServiceError{Err: fmt.Errorf("no candidates returned")}
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	return &llm.GenerateResponse{
		Message: message.NewMessage(message.RoleAssistant, text.String()),
	}, nil
}
