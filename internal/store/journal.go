package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kanban-cli/internal/model"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const journalFileName = "journal.sqlite"

// Journal records committed snapshots in a local SQLite database.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

type JournalEntry struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"documentId"`
	Version     uint64    `json:"version"`
	Lanes       int       `json:"lanes"`
	Items       int       `json:"items"`
	CommittedAt time.Time `json:"committedAt"`
}

func OpenJournal(ctx context.Context, dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", filepath.Join(dir, journalFileName))
	if err != nil {
		return nil, err
	}
	// WAL enables one writer + many readers; busy_timeout helps avoid "database is locked" flakiness.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateJournal(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db, now: time.Now}, nil
}

func migrateJournal(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			entry_id TEXT NOT NULL UNIQUE,
			document_id TEXT NOT NULL,
			version INTEGER NOT NULL,
			lanes INTEGER NOT NULL,
			items INTEGER NOT NULL,
			board_json TEXT NOT NULL,
			collapse_json TEXT NOT NULL,
			committed_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS snapshots_by_doc ON snapshots(document_id, seq);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Write implements Sink.
func (j *Journal) Write(ctx context.Context, doc *Document, snap Snapshot) error {
	_, err := j.Append(ctx, doc.ID, snap)
	return err
}

// Append records snap as the next revision of docID. Entry versions count journaled revisions
// per document starting at 1, so they keep increasing across processes.
func (j *Journal) Append(ctx context.Context, docID string, snap Snapshot) (JournalEntry, error) {
	board, err := json.Marshal(snap.Board)
	if err != nil {
		return JournalEntry{}, err
	}
	flags, err := json.Marshal(snap.Collapse)
	if err != nil {
		return JournalEntry{}, err
	}
	e := JournalEntry{
		ID:          uuid.NewString(),
		DocumentID:  docID,
		Lanes:       len(snap.Board.Children),
		Items:       model.CountItems(snap.Board),
		CommittedAt: j.now().UTC(),
	}
	var version int64
	err = j.db.QueryRowContext(ctx, `INSERT INTO snapshots(entry_id, document_id, version, lanes, items, board_json, collapse_json, committed_at_unixms)
		SELECT ?, ?, COALESCE(MAX(version), 0) + 1, ?, ?, ?, ?, ? FROM snapshots WHERE document_id = ?
		RETURNING version`,
		e.ID, e.DocumentID, e.Lanes, e.Items, string(board), string(flags), e.CommittedAt.UnixMilli(), e.DocumentID).Scan(&version)
	if err != nil {
		return JournalEntry{}, fmt.Errorf("journal append: %w", err)
	}
	e.Version = uint64(version)
	return e, nil
}

// List returns the newest entries for docID first. limit <= 0 means no limit.
func (j *Journal) List(ctx context.Context, docID string, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `SELECT entry_id, document_id, version, lanes, items, committed_at_unixms
		FROM snapshots WHERE document_id = ? ORDER BY seq DESC LIMIT ?`, docID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var version int64
		var ms int64
		if err := rows.Scan(&e.ID, &e.DocumentID, &version, &e.Lanes, &e.Items, &ms); err != nil {
			return nil, err
		}
		e.Version = uint64(version)
		e.CommittedAt = time.UnixMilli(ms).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Latest returns the most recently journaled snapshot of docID.
func (j *Journal) Latest(ctx context.Context, docID string) (Snapshot, bool, error) {
	var board, flags string
	var version int64
	err := j.db.QueryRowContext(ctx, `SELECT version, board_json, collapse_json FROM snapshots
		WHERE document_id = ? ORDER BY seq DESC LIMIT 1`, docID).Scan(&version, &board, &flags)
	if err == sql.ErrNoRows {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(board), &snap.Board); err != nil {
		return Snapshot{}, false, fmt.Errorf("journal board: %w", err)
	}
	if err := json.Unmarshal([]byte(flags), &snap.Collapse); err != nil {
		return Snapshot{}, false, fmt.Errorf("journal collapse: %w", err)
	}
	snap.Version = uint64(version)
	return snap, true, nil
}
