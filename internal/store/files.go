package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"kanban-cli/internal/collapse"
	"kanban-cli/internal/markdown"

	"github.com/natefinch/atomic"
)

// OpenFile hydrates a board file into a document. The document id is the absolute path.
func OpenFile(path string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	board, err := markdown.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d := NewDocument(abs, Snapshot{
		Board:       board.Root,
		Collapse:    collapse.Normalize(board.Collapse, len(board.Root.Children)),
		Frontmatter: board.Frontmatter,
	})
	d.Path = abs
	return d, nil
}

// FileSink writes snapshots back to the document's markdown file.
type FileSink struct{}

func (FileSink) Write(_ context.Context, doc *Document, snap Snapshot) error {
	if doc.Path == "" {
		return nil
	}
	return WriteFile(doc.Path, snap)
}

// WriteFile serializes snap and replaces path atomically.
func WriteFile(path string, snap Snapshot) error {
	b, err := markdown.Serialize(markdown.Board{
		Root:        snap.Board,
		Collapse:    snap.Collapse,
		Frontmatter: snap.Frontmatter,
	})
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(b)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
