package token

import (
	"context"
	"strings"
	"testing"
)

func newTestChunker(t *testing.T, opts ...Option) *Chunker {
	t.Helper()
	ch, err := New("", opts...)
	if err != nil {
		// The encoding dictionary is fetched on first use.
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}
	return ch
}

func TestShortParagraphStaysWhole(t *testing.T) {
	ch := newTestChunker(t)
	chunks, err := ch.Chunk(context.Background(), "A short paragraph.")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0] != "A short paragraph." {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
}

func TestLongParagraphSplitsWithOverlap(t *testing.T) {
	ch := newTestChunker(t, WithMaxTokens(16), WithOverlapTokens(4))
	long := strings.Repeat("responsible systems need oversight ", 20)

	chunks, err := ch.Chunk(context.Background(), long)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
	if chunks[0] == chunks[1] {
		t.Error("expected overlapping but distinct chunks")
	}
}

func TestParagraphBoundariesRespected(t *testing.T) {
	ch := newTestChunker(t)
	chunks, err := ch.Chunk(context.Background(), "First paragraph.\n\nSecond paragraph.")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected one chunk per paragraph, got %d: %v", len(chunks), chunks)
	}
}

func TestOverlapClampedBelowWindow(t *testing.T) {
	ch := newTestChunker(t, WithMaxTokens(10), WithOverlapTokens(50))
	if ch.overlapTokens >= ch.maxTokens {
		t.Fatalf("overlap %d not clamped below window %d", ch.overlapTokens, ch.maxTokens)
	}
}
