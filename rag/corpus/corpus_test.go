package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	verr "github.com/veracity-ai/veracity/errors"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadReadsTxtFilesInNameOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_second.txt", "second doc")
	writeFile(t, dir, "a_first.txt", "first doc")
	writeFile(t, dir, "notes.md", "ignored extension")

	docs, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Name != "a_first.txt" || docs[1].Name != "b_second.txt" {
		t.Fatalf("expected name-sorted order, got %s, %s", docs[0].Name, docs[1].Name)
	}
	if docs[0].Content != "first doc" {
		t.Fatalf("unexpected content: %q", docs[0].Content)
	}
}

func TestLoadExtractsHTMLText(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page.html", `<html><head><style>p{}</style></head><body><h1>AI Act</h1><p>Article one text.</p><script>ignored()</script></body></html>`)

	docs, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	content := docs[0].Content
	if !strings.Contains(content, "AI Act") || !strings.Contains(content, "Article one text.") {
		t.Fatalf("expected extracted text, got %q", content)
	}
	if strings.Contains(content, "ignored()") {
		t.Fatalf("script content leaked into text: %q", content)
	}
	if !strings.Contains(content, "\n\n") {
		t.Fatalf("expected blank-line separated blocks, got %q", content)
	}
}

func TestLoadRejectsMissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, verr.ErrInvalidCorpusPath) {
		t.Fatalf("expected ErrInvalidCorpusPath, got %v", err)
	}
}

func TestLoadRejectsFileAsPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.txt", "content")
	_, err := Load(filepath.Join(dir, "doc.txt"))
	if !errors.Is(err, verr.ErrInvalidCorpusPath) {
		t.Fatalf("expected ErrInvalidCorpusPath, got %v", err)
	}
}

func TestLoadRejectsEmptyDirectory(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, verr.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
}
