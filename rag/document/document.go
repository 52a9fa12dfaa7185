package document

import "fmt"

// Document represents one corpus source file before chunking.
type Document struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Chunk represents a bounded span of corpus text with a stable identifier.
// The embedding for a chunk lives in the index matrix at the same position,
// not on the chunk itself, so chunks stay cheap to copy around.
type Chunk struct {
	Text     string `json:"text"`
	SourceID string `json:"source_id"`
}

// SourceID builds the stable chunk identifier from the origin document name
// and the corpus-wide chunk index. The index increases monotonically across
// the whole corpus, never resetting per document.
func SourceID(documentName string, globalIndex int) string {
	return fmt.Sprintf("%s#%d", documentName, globalIndex)
}
