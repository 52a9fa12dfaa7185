package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	verr "github.com/veracity-ai/veracity/errors"
)

// keywordEmbedder embeds text as keyword-presence vectors so similarity is
// fully deterministic in tests.
type keywordEmbedder struct {
	keywords   []string
	batchCalls int
	maxBatch   int
}

func newKeywordEmbedder(keywords ...string) *keywordEmbedder {
	return &keywordEmbedder{keywords: keywords}
}

func (k *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, len(k.keywords))
	lower := strings.ToLower(text)
	for i, kw := range k.keywords {
		if strings.Contains(lower, kw) {
			vec[i] = 1
		}
	}
	return vec, nil
}

func (k *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	k.batchCalls++
	if len(texts) > k.maxBatch {
		k.maxBatch = len(texts)
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := k.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (k *keywordEmbedder) Dimension() int { return len(k.keywords) }

type failingEmbedder struct{}

func (f *failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("quota exceeded")
}

func (f *failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("quota exceeded")
}

func (f *failingEmbedder) Dimension() int { return 0 }

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]float32
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]float32)}
}

func (c *memoryCache) Get(ctx context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[text], nil
}

func (c *memoryCache) Put(ctx context.Context, text string, vec []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[text] = vec
	return nil
}

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestBuildAssignsUniqueMonotonicSourceIDs(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"a.txt": "alpha paragraph\n\nbeta paragraph",
		"b.txt": "gamma paragraph",
	})

	idx, err := Build(context.Background(), dir, newKeywordEmbedder("alpha", "beta", "gamma"))
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	ids := idx.SourceIDs()
	want := []string{"a.txt#0", "a.txt#1", "b.txt#2"}
	if len(ids) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(ids))
	}
	for i, id := range ids {
		if id != want[i] {
			t.Fatalf("chunk %d: expected source id %s, got %s", i, want[i], id)
		}
	}

	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate source id %s", id)
		}
		seen[id] = true
	}
}

func TestBuildIsReproducible(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"doc1.txt": "first paragraph about safety\n\nsecond paragraph about fairness",
		"doc2.txt": "third paragraph about transparency",
	})
	emb := newKeywordEmbedder("safety", "fairness", "transparency")

	first, err := Build(context.Background(), dir, emb)
	if err != nil {
		t.Fatalf("first Build error: %v", err)
	}
	second, err := Build(context.Background(), dir, emb)
	if err != nil {
		t.Fatalf("second Build error: %v", err)
	}

	a, b := first.SourceIDs(), second.SourceIDs()
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("source id %d differs: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestBuildBatchBoundariesDoNotAffectVectors(t *testing.T) {
	files := make(map[string]string)
	var parts []string
	for i := 0; i < 7; i++ {
		parts = append(parts, fmt.Sprintf("paragraph number %d about topic%d", i, i))
	}
	files["big.txt"] = strings.Join(parts, "\n\n")
	dir := writeCorpus(t, files)

	small, err := Build(context.Background(), dir, newKeywordEmbedder("topic1", "topic3", "topic5"), WithBatchSize(2))
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	large, err := Build(context.Background(), dir, newKeywordEmbedder("topic1", "topic3", "topic5"), WithBatchSize(64))
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	for i := range small.embeddings {
		for j := range small.embeddings[i] {
			if small.embeddings[i][j] != large.embeddings[i][j] {
				t.Fatalf("vector %d differs between batch sizes", i)
			}
		}
	}
}

func TestBuildRespectsBatchSizeLimit(t *testing.T) {
	var parts []string
	for i := 0; i < 10; i++ {
		parts = append(parts, fmt.Sprintf("paragraph %d", i))
	}
	dir := writeCorpus(t, map[string]string{"big.txt": strings.Join(parts, "\n\n")})

	emb := newKeywordEmbedder("paragraph")
	if _, err := Build(context.Background(), dir, emb, WithBatchSize(3)); err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if emb.maxBatch > 3 {
		t.Fatalf("batch size limit violated: saw batch of %d", emb.maxBatch)
	}
	if emb.batchCalls != 4 {
		t.Fatalf("expected 4 batches for 10 chunks at size 3, got %d", emb.batchCalls)
	}
}

func TestBuildWrapsEmbedderFailure(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"a.txt": "some text"})
	_, err := Build(context.Background(), dir, &failingEmbedder{})
	var svcErr *verr.EmbeddingServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected EmbeddingServiceError, got %v", err)
	}
}

func TestBuildUsesEmbeddingCache(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"a.txt": "alpha\n\nbeta"})
	cache := newMemoryCache()

	emb := newKeywordEmbedder("alpha", "beta")
	if _, err := Build(context.Background(), dir, emb, WithEmbeddingCache(cache)); err != nil {
		t.Fatalf("first Build error: %v", err)
	}
	firstCalls := emb.batchCalls

	if _, err := Build(context.Background(), dir, emb, WithEmbeddingCache(cache)); err != nil {
		t.Fatalf("second Build error: %v", err)
	}
	if emb.batchCalls != firstCalls {
		t.Fatalf("expected no embedder calls on warm cache, got %d extra", emb.batchCalls-firstCalls)
	}
}

func TestRetrieveOrderingAndTieBreak(t *testing.T) {
	// Five chunks; two of them ("twin": chunks 1 and 3) get identical
	// embeddings so the tie must resolve to the lower corpus index.
	dir := writeCorpus(t, map[string]string{
		"corpus.txt": strings.Join([]string{
			"zero about nothing",
			"twin paragraph one",
			"query exact match paragraph",
			"twin paragraph two",
			"another filler paragraph",
		}, "\n\n"),
	})
	emb := newKeywordEmbedder("twin", "query", "filler")

	idx, err := Build(context.Background(), dir, emb)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	results, err := idx.Retrieve(context.Background(), "twin", 5)
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity > results[i-1].Similarity {
			t.Fatalf("results not sorted by similarity descending at %d", i)
		}
	}
	if results[0].Chunk.SourceID != "corpus.txt#1" || results[1].Chunk.SourceID != "corpus.txt#3" {
		t.Fatalf("tie not broken by corpus order: got %s then %s",
			results[0].Chunk.SourceID, results[1].Chunk.SourceID)
	}

	seen := make(map[string]bool)
	for _, r := range results {
		if seen[r.Chunk.SourceID] {
			t.Fatalf("duplicate source id %s in result", r.Chunk.SourceID)
		}
		seen[r.Chunk.SourceID] = true
	}
}

func TestRetrieveSelfSimilarity(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"c.txt": "safety document text\n\nfairness document text",
	})
	emb := newKeywordEmbedder("safety", "fairness", "document")

	idx, err := Build(context.Background(), dir, emb)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	results, err := idx.Retrieve(context.Background(), "safety document text", 1)
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}
	if results[0].Chunk.SourceID != "c.txt#0" {
		t.Fatalf("expected the identical chunk first, got %s", results[0].Chunk.SourceID)
	}
	if math.Abs(results[0].Similarity-1.0) > 1e-6 {
		t.Fatalf("expected similarity ~1.0, got %f", results[0].Similarity)
	}
}

func TestRetrieveClampsKToCorpusSize(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"a.txt": "only one paragraph"})
	idx, err := Build(context.Background(), dir, newKeywordEmbedder("paragraph"))
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	results, err := idx.Retrieve(context.Background(), "anything", 10)
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected all chunks when k exceeds corpus size, got %d", len(results))
	}
}

func TestRetrieveRejectsNonPositiveK(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"a.txt": "text"})
	idx, err := Build(context.Background(), dir, newKeywordEmbedder("text"))
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if _, err := idx.Retrieve(context.Background(), "q", 0); err == nil {
		t.Fatal("expected error for k=0")
	}
}

func TestEndToEndResponsibleAIScenario(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"responsible.txt": "Responsible AI is safe, fair, transparent.\n\nOpenAI is a research company.",
	})
	emb := newKeywordEmbedder("responsible", "ai", "research", "company")

	idx, err := Build(context.Background(), dir, emb)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	results, err := idx.Retrieve(context.Background(), "What is responsible AI?", 1)
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly one result, got %d", len(results))
	}
	if results[0].Chunk.SourceID != "responsible.txt#0" {
		t.Fatalf("expected the first paragraph chunk, got %s", results[0].Chunk.SourceID)
	}
	if !strings.Contains(results[0].Chunk.Text, "safe, fair, transparent") {
		t.Fatalf("unexpected chunk text: %q", results[0].Chunk.Text)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"a.txt": "alpha text\n\nbeta text",
	})
	emb := newKeywordEmbedder("alpha", "beta")

	built, err := Build(context.Background(), dir, emb)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	restored, err := FromSnapshot(built.Snapshot(), emb)
	if err != nil {
		t.Fatalf("FromSnapshot error: %v", err)
	}
	if restored.Len() != built.Len() || restored.Dimension() != built.Dimension() {
		t.Fatalf("restored index shape differs")
	}

	results, err := restored.Retrieve(context.Background(), "alpha text", 1)
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}
	if results[0].Chunk.SourceID != "a.txt#0" {
		t.Fatalf("expected a.txt#0, got %s", results[0].Chunk.SourceID)
	}
}

func TestFromSnapshotRejectsMisalignedState(t *testing.T) {
	snap := &Snapshot{
		SourceIDs:  []string{"a.txt#0", "a.txt#1"},
		Texts:      []string{"only one"},
		Embeddings: [][]float32{{1, 0}, {0, 1}},
	}
	if _, err := FromSnapshot(snap, newKeywordEmbedder("x", "y")); err == nil {
		t.Fatal("expected misalignment error")
	}
}
