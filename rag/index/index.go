package index

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	verr "github.com/veracity-ai/veracity/errors"
	"github.com/veracity-ai/veracity/pkg/logging"
	"github.com/veracity-ai/veracity/rag/chunking"
	"github.com/veracity-ai/veracity/rag/corpus"
	"github.com/veracity-ai/veracity/rag/document"
	"github.com/veracity-ai/veracity/vector"
)

// ScoredChunk pairs a retrieved chunk with its cosine similarity to the query.
type ScoredChunk struct {
	Chunk      document.Chunk `json:"chunk"`
	Similarity float64        `json:"similarity"`
}

// EmbeddingCache lets an index reuse previously computed chunk embeddings
// across rebuilds. Get returns (nil, nil) on a miss. Cache failures are
// logged and ignored: the cache is a throughput optimization, never a
// correctness dependency.
type EmbeddingCache interface {
	Get(ctx context.Context, text string) ([]float32, error)
	Put(ctx context.Context, text string, vec []float32) error
}

// Index is an immutable nearest-neighbor structure over corpus text. It is
// built once, then safe for unlimited concurrent Retrieve calls without
// locking. Rebuilding the corpus means building a new Index.
type Index struct {
	chunks     []document.Chunk
	embeddings [][]float32
	dimension  int
	embedder   vector.Embedder
	logger     *slog.Logger
}

type buildConfig struct {
	chunker   chunking.Chunker
	cache     EmbeddingCache
	batchSize int
}

// Option customises index construction.
type Option func(*buildConfig)

// WithChunker plugs in an alternative chunking strategy.
func WithChunker(c chunking.Chunker) Option {
	return func(cfg *buildConfig) {
		if c != nil {
			cfg.chunker = c
		}
	}
}

// WithBatchSize overrides how many chunk texts are embedded per upstream
// request. Batch boundaries never affect the resulting vectors.
func WithBatchSize(n int) Option {
	return func(cfg *buildConfig) {
		if n > 0 {
			cfg.batchSize = n
		}
	}
}

// WithEmbeddingCache consults the cache before calling the embedder for each
// chunk text.
func WithEmbeddingCache(c EmbeddingCache) Option {
	return func(cfg *buildConfig) {
		cfg.cache = c
	}
}

// Build loads the corpus directory, chunks every document, embeds the chunks
// and returns the frozen index. Construction is the only phase that mutates
// the index; it is not reentrant.
func Build(ctx context.Context, dir string, embedder vector.Embedder, opts ...Option) (*Index, error) {
	cfg := &buildConfig{
		chunker:   chunking.NewWordChunker(),
		batchSize: 64,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	docs, err := corpus.Load(dir)
	if err != nil {
		return nil, err
	}

	logger := logging.WithComponent("index")

	chunks, err := chunkCorpus(ctx, docs, cfg.chunker)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", verr.ErrEmptyCorpus, dir)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := embedAll(ctx, embedder, texts, cfg)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		chunks:     chunks,
		embeddings: embeddings,
		dimension:  len(embeddings[0]),
		embedder:   embedder,
		logger:     logger,
	}
	logger.Info("index built",
		"documents", len(docs),
		"chunks", len(chunks),
		"dimension", idx.dimension,
	)
	return idx, nil
}

// chunkCorpus splits every document and assigns source ids with a single
// monotonically increasing counter across the whole corpus.
func chunkCorpus(ctx context.Context, docs []document.Document, chunker chunking.Chunker) ([]document.Chunk, error) {
	var chunks []document.Chunk
	globalIndex := 0
	for _, doc := range docs {
		pieces, err := chunker.Chunk(ctx, doc.Content)
		if err != nil {
			return nil, fmt.Errorf("chunk document %s: %w", doc.Name, err)
		}
		for _, text := range pieces {
			if text == "" {
				continue
			}
			chunks = append(chunks, document.Chunk{
				Text:     text,
				SourceID: document.SourceID(doc.Name, globalIndex),
			})
			globalIndex++
		}
	}
	return chunks, nil
}

// embedAll computes one vector per text, batching upstream requests and
// filling cache hits in place so batching stays a pure throughput concern.
func embedAll(ctx context.Context, embedder vector.Embedder, texts []string, cfg *buildConfig) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	pending := make([]int, 0, len(texts))
	if cfg.cache != nil {
		for i, text := range texts {
			vec, err := cfg.cache.Get(ctx, text)
			if err != nil {
				logging.WithComponent("index").Warn("embedding cache read failed", "error", err)
				pending = append(pending, i)
				continue
			}
			if vec != nil {
				vectors[i] = vec
				continue
			}
			pending = append(pending, i)
		}
	} else {
		for i := range texts {
			pending = append(pending, i)
		}
	}

	for start := 0; start < len(pending); start += cfg.batchSize {
		end := start + cfg.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batchIdx := pending[start:end]
		batch := make([]string, len(batchIdx))
		for i, pos := range batchIdx {
			batch[i] = texts[pos]
		}

		embedded, err := embedder.EmbedBatch(ctx, batch)
		if err != nil {
			return nil, &verr.EmbeddingServiceError{Err: err}
		}
		if len(embedded) != len(batch) {
			return nil, &verr.EmbeddingServiceError{Err: fmt.Errorf("expected %d embeddings, got %d", len(batch), len(embedded))}
		}
		for i, pos := range batchIdx {
			vectors[pos] = embedded[i]
			if cfg.cache != nil {
				if err := cfg.cache.Put(ctx, texts[pos], embedded[i]); err != nil {
					logging.WithComponent("index").Warn("embedding cache write failed", "error", err)
				}
			}
		}
	}

	dim := len(vectors[0])
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, &verr.EmbeddingServiceError{Err: fmt.Errorf("chunk %d has dimension %d, expected %d", i, len(vec), dim)}
		}
	}
	return vectors, nil
}

// Retrieve embeds the query and returns the k most similar chunks, sorted by
// similarity descending with ties broken by ascending corpus order. When k
// exceeds the corpus size every chunk is returned. Exactly one embedder call
// is made per invocation.
func (idx *Index) Retrieve(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	queryVec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &verr.EmbeddingServiceError{Err: err}
	}

	scored := make([]ScoredChunk, len(idx.chunks))
	for i, chunk := range idx.chunks {
		scored[i] = ScoredChunk{
			Chunk:      chunk,
			Similarity: vector.CosineSimilarity(queryVec, idx.embeddings[i]),
		}
	}

	// Stable sort keeps the original corpus order for exact similarity ties.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	return len(idx.chunks)
}

// Dimension returns the corpus-wide embedding dimensionality.
func (idx *Index) Dimension() int {
	return idx.dimension
}

// SourceIDs returns the chunk identifiers in corpus order.
func (idx *Index) SourceIDs() []string {
	ids := make([]string, len(idx.chunks))
	for i, c := range idx.chunks {
		ids[i] = c.SourceID
	}
	return ids
}
