package chunking

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func wordCount(s string) int { return len(strings.Fields(s)) }

func repeatWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestShortParagraphReturnedWhole(t *testing.T) {
	c := NewWordChunker()
	chunks, err := c.Chunk(context.Background(), "a short paragraph that fits in one chunk")
	if err != nil {
		t.Fatalf("Chunk error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "a short paragraph that fits in one chunk" {
		t.Fatalf("expected paragraph returned whole, got %q", chunks[0])
	}
}

func TestLongParagraphRespectsWordLimit(t *testing.T) {
	c := NewWordChunker(WithMaxWords(50), WithOverlap(10))
	chunks, err := c.Chunk(context.Background(), repeatWords(137))
	if err != nil {
		t.Fatalf("Chunk error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for a long paragraph, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if wc := wordCount(chunk); wc > 50 {
			t.Fatalf("chunk %d exceeds word limit: %d words", i, wc)
		}
	}
}

func TestAdjacentChunksShareOverlap(t *testing.T) {
	c := NewWordChunker(WithMaxWords(50), WithOverlap(10))
	chunks, err := c.Chunk(context.Background(), repeatWords(120))
	if err != nil {
		t.Fatalf("Chunk error: %v", err)
	}
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		cur := strings.Fields(chunks[i])
		tail := strings.Join(prev[len(prev)-10:], " ")
		head := strings.Join(cur[:10], " ")
		if tail != head {
			t.Fatalf("chunks %d and %d do not share a 10-word overlap:\n%q\n%q", i-1, i, tail, head)
		}
	}
}

func TestParagraphSplitOnBlankLines(t *testing.T) {
	text := "first paragraph\n\nsecond paragraph\n\n\n\nthird paragraph"
	paras := SplitParagraphs(text)
	if len(paras) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d: %v", len(paras), paras)
	}
}

func TestEmptyTextProducesNoChunks(t *testing.T) {
	c := NewWordChunker()
	chunks, err := c.Chunk(context.Background(), "  \n\n  ")
	if err != nil {
		t.Fatalf("Chunk error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks for blank text, got %d", len(chunks))
	}
}

func TestChunkingIsDeterministic(t *testing.T) {
	c := NewWordChunker(WithMaxWords(30), WithOverlap(5))
	text := repeatWords(100) + "\n\n" + repeatWords(20)
	first, _ := c.Chunk(context.Background(), text)
	second, _ := c.Chunk(context.Background(), text)
	if len(first) != len(second) {
		t.Fatalf("chunk count differs between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}
