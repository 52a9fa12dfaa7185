// Package openai implements vector.Embedder on the OpenAI embeddings API.
package openai

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	verr "github.com/veracity-ai/veracity/errors"
	"github.com/veracity-ai/veracity/vector"
)

// DefaultModel is used when no embedding model is configured.
const DefaultModel = openaisdk.EmbeddingModelTextEmbedding3Small

// defaultDimension matches text-embedding-3-small.
const defaultDimension = 1536

// Embedder implements vector.Embedder by calling the OpenAI embeddings API.
type Embedder struct {
	client    openaisdk.Client
	model     openaisdk.EmbeddingModel
	dimension int
}

// New creates an Embedder. Empty model and non-positive dimension fall back
// to text-embedding-3-small defaults.
func New(apiKey, baseURL string, model openaisdk.EmbeddingModel, dimension int) *Embedder {
	if model == "" {
		model = DefaultModel
	}
	if dimension <= 0 {
		dimension = defaultDimension
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Embedder{
		client:    openaisdk.NewClient(opts...),
		model:     model,
		dimension: dimension,
	}
}

// Dimension returns the number of embedding dimensions.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Embed converts one text to a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, &verr.EmbeddingServiceError{Err: fmt.Errorf("no embedding returned")}
	}
	return vectors[0], nil
}

// EmbedBatch converts multiple texts to embeddings in one API call.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embedBatch(ctx, texts)
}

func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	params := openaisdk.EmbeddingNewParams{
		Model: e.model,
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, &verr.EmbeddingServiceError{Err: fmt.Errorf("create embeddings: %w", err)}
	}
	if len(resp.Data) != len(texts) {
		return nil, &verr.EmbeddingServiceError{
			Err: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)),
		}
	}

	out := make([][]float32, len(resp.Data))
	for i, emb := range resp.Data {
		out[i] = convertVector(emb.Embedding, e.dimension)
	}
	return out, nil
}

// convertVector narrows the API's float64 values into the fixed dimension the
// index expects, truncating or zero-padding as needed.
func convertVector(input []float64, expected int) []float32 {
	vec := make([]float32, expected)
	for i := 0; i < len(input) && i < expected; i++ {
		vec[i] = float32(input[i])
	}
	return vec
}

var _ vector.Embedder = (*Embedder)(nil)
