package index

import (
	"context"
	"fmt"

	"github.com/veracity-ai/veracity/pkg/logging"
	"github.com/veracity-ai/veracity/rag/document"
	"github.com/veracity-ai/veracity/vector"
)

// Snapshot is a serializable copy of a built index: chunk texts, source ids
// and the embedding matrix, all index-aligned. Persisting one avoids
// re-embedding an unchanged corpus across restarts.
type Snapshot struct {
	SourceIDs  []string    `json:"source_ids"`
	Texts      []string    `json:"texts"`
	Embeddings [][]float32 `json:"embeddings"`
}

// SnapshotStore persists index snapshots under a caller-chosen name.
// Load returns (nil, nil) when no snapshot exists for the name.
type SnapshotStore interface {
	Save(ctx context.Context, name string, snap *Snapshot) error
	Load(ctx context.Context, name string) (*Snapshot, error)
}

// Snapshot returns a copy of the index contents suitable for persistence.
func (idx *Index) Snapshot() *Snapshot {
	snap := &Snapshot{
		SourceIDs:  make([]string, len(idx.chunks)),
		Texts:      make([]string, len(idx.chunks)),
		Embeddings: make([][]float32, len(idx.embeddings)),
	}
	for i, c := range idx.chunks {
		snap.SourceIDs[i] = c.SourceID
		snap.Texts[i] = c.Text
	}
	for i, vec := range idx.embeddings {
		cp := make([]float32, len(vec))
		copy(cp, vec)
		snap.Embeddings[i] = cp
	}
	return snap
}

// FromSnapshot reconstructs an index from persisted state. The embedder must
// produce vectors in the same embedding space the snapshot was built with;
// queries are still embedded live.
func FromSnapshot(snap *Snapshot, embedder vector.Embedder) (*Index, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot cannot be nil")
	}
	n := len(snap.SourceIDs)
	if n == 0 {
		return nil, fmt.Errorf("snapshot contains no chunks")
	}
	if len(snap.Texts) != n || len(snap.Embeddings) != n {
		return nil, fmt.Errorf("snapshot is misaligned: %d ids, %d texts, %d embeddings",
			n, len(snap.Texts), len(snap.Embeddings))
	}

	dim := len(snap.Embeddings[0])
	chunks := make([]document.Chunk, n)
	for i := 0; i < n; i++ {
		if snap.Texts[i] == "" {
			return nil, fmt.Errorf("snapshot chunk %d has empty text", i)
		}
		if len(snap.Embeddings[i]) != dim {
			return nil, fmt.Errorf("snapshot chunk %d has dimension %d, expected %d", i, len(snap.Embeddings[i]), dim)
		}
		chunks[i] = document.Chunk{Text: snap.Texts[i], SourceID: snap.SourceIDs[i]}
	}

	return &Index{
		chunks:     chunks,
		embeddings: snap.Embeddings,
		dimension:  dim,
		embedder:   embedder,
		logger:     logging.WithComponent("index"),
	}, nil
}
