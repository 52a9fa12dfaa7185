// Package token implements chunking.Chunker on tiktoken, so chunk windows
// line up with the tokens the embedding model actually sees instead of
// whitespace-separated words.
package token

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/veracity-ai/veracity/rag/chunking"
)

// DefaultEncoding matches the OpenAI embedding model family.
const DefaultEncoding = "cl100k_base"

// Chunker splits text into token windows with overlap.
type Chunker struct {
	encoder       *tiktoken.Tiktoken
	maxTokens     int
	overlapTokens int
}

// Option customises the token chunker.
type Option func(*Chunker)

// WithMaxTokens sets the maximum tokens per chunk (default 256).
func WithMaxTokens(tokens int) Option {
	return func(c *Chunker) {
		if tokens > 0 {
			c.maxTokens = tokens
		}
	}
}

// WithOverlapTokens sets how many tokens consecutive chunks share
// (default 32).
func WithOverlapTokens(tokens int) Option {
	return func(c *Chunker) {
		if tokens >= 0 {
			c.overlapTokens = tokens
		}
	}
}

// New creates a token chunker for the given tiktoken encoding name. An empty
// name uses DefaultEncoding.
func New(encoding string, opts ...Option) (*Chunker, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	encoder, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", encoding, err)
	}

	c := &Chunker{
		encoder:       encoder,
		maxTokens:     256,
		overlapTokens: 32,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlapTokens >= c.maxTokens {
		c.overlapTokens = c.maxTokens / 2
	}
	return c, nil
}

// Chunk implements chunking.Chunker. Paragraphs are chunked independently so
// a window never bridges a paragraph boundary.
func (c *Chunker) Chunk(ctx context.Context, text string) ([]string, error) {
	var chunks []string
	for _, paragraph := range chunking.SplitParagraphs(text) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks = append(chunks, c.chunkParagraph(paragraph)...)
	}
	return chunks, nil
}

func (c *Chunker) chunkParagraph(paragraph string) []string {
	tokens := c.encoder.Encode(paragraph, nil, nil)
	if len(tokens) <= c.maxTokens {
		return []string{paragraph}
	}

	var out []string
	step := c.maxTokens - c.overlapTokens
	for start := 0; start < len(tokens); start += step {
		end := start + c.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		piece := strings.TrimSpace(c.encoder.Decode(tokens[start:end]))
		if piece != "" {
			out = append(out, piece)
		}
		if end == len(tokens) {
			break
		}
	}
	return out
}

var _ chunking.Chunker = (*Chunker)(nil)
