package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	verr "github.com/veracity-ai/veracity/errors"
	"github.com/veracity-ai/veracity/rag/document"
)

// Load reads every eligible file in dir and returns one Document per file,
// ordered by file name so corpus builds are reproducible. Plain .txt files are
// read verbatim; .html and .htm files are reduced to their visible text.
func Load(dir string) ([]document.Document, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", verr.ErrInvalidCorpusPath, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", verr.ErrInvalidCorpusPath, dir)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".txt", ".html", ".htm":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s", verr.ErrEmptyCorpus, dir)
	}

	docs := make([]document.Document, 0, len(names))
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read corpus file %s: %w", name, err)
		}
		content := string(raw)
		if ext := strings.ToLower(filepath.Ext(name)); ext == ".html" || ext == ".htm" {
			content, err = extractText(content)
			if err != nil {
				return nil, fmt.Errorf("parse corpus file %s: %w", name, err)
			}
		}
		docs = append(docs, document.Document{Name: name, Content: content})
	}
	return docs, nil
}

// extractText strips markup and keeps block-level structure so the downstream
// paragraph splitter still sees blank-line boundaries.
func extractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript").Remove()

	var blocks []string
	doc.Find("p, h1, h2, h3, h4, h5, h6, li, pre, blockquote").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})
	if len(blocks) == 0 {
		return strings.TrimSpace(doc.Text()), nil
	}
	return strings.Join(blocks, "\n\n"), nil
}
