package chunking

import (
	"context"
	"strings"
)

// Chunker splits raw document text into bounded pieces that can be embedded
// and indexed. Implementations must be deterministic: the same input yields
// the same chunks in the same order.
type Chunker interface {
	Chunk(ctx context.Context, text string) ([]string, error)
}

// Options customises the word chunker.
type Options struct {
	MaxWords int
	Overlap  int
}

// Option customizes the word chunker.
type Option func(*Options)

// WithMaxWords overrides the maximum words per chunk.
func WithMaxWords(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxWords = n
		}
	}
}

// WithOverlap configures how many words consecutive chunks share.
func WithOverlap(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.Overlap = n
		}
	}
}

// WordChunker splits text into paragraphs on blank lines and re-splits long
// paragraphs into overlapping word windows.
type WordChunker struct {
	maxWords int
	overlap  int
}

// NewWordChunker constructs a chunker with the default 200-word window and
// 40-word overlap.
func NewWordChunker(opts ...Option) *WordChunker {
	cfg := &Options{
		MaxWords: 200,
		Overlap:  40,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Overlap >= cfg.MaxWords {
		cfg.Overlap = cfg.MaxWords / 2
	}
	return &WordChunker{
		maxWords: cfg.MaxWords,
		overlap:  cfg.Overlap,
	}
}

// Chunk splits the document text into bounded pieces. Paragraphs shorter than
// the word limit are returned whole.
func (c *WordChunker) Chunk(ctx context.Context, text string) ([]string, error) {
	var chunks []string
	for _, para := range SplitParagraphs(text) {
		chunks = append(chunks, c.splitParagraph(para)...)
	}
	return chunks, nil
}

// SplitParagraphs splits text on blank-line boundaries, trimming each
// paragraph and dropping empty ones.
func SplitParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	paragraphs := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}

// splitParagraph slides a window of maxWords forward by maxWords-overlap each
// step so adjacent chunks share overlap words of context.
func (c *WordChunker) splitParagraph(para string) []string {
	words := strings.Fields(para)
	if len(words) == 0 {
		return nil
	}
	if len(words) <= c.maxWords {
		return []string{strings.TrimSpace(para)}
	}

	var chunks []string
	for start := 0; start < len(words); start += c.maxWords - c.overlap {
		end := start + c.maxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
