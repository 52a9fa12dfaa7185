package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for corpus problems. Both are fatal to index construction.
var (
	// ErrEmptyCorpus indicates that the corpus directory contains no eligible documents
	ErrEmptyCorpus = errors.New("corpus contains no eligible documents")

	// ErrInvalidCorpusPath indicates that the corpus path is not a readable directory
	ErrInvalidCorpusPath = errors.New("corpus path is not a readable directory")
)

// EmbeddingServiceError wraps a transport or quota failure from the embedding
// capability. Fatal to the current operation only; never retried automatically.
type EmbeddingServiceError struct {
	Err error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding service: %v", e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Err }

// GenerationServiceError wraps a transport or quota failure from the text
// generation capability. Fatal to the current run only.
type GenerationServiceError struct {
	Err error
}

func (e *GenerationServiceError) Error() string {
	return fmt.Sprintf("generation service: %v", e.Err)
}

func (e *GenerationServiceError) Unwrap() error { return e.Err }

// StageError attributes a run failure to the pipeline stage that produced it,
// so callers never see a bare generic failure.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Stage reports which pipeline stage an error originated from, or "" when the
// error carries no stage attribution.
func Stage(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
