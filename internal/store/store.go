// Package store keeps notes and their line items in a local SQLite file.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/salmonumbrella/mdoutline/internal/outline"
)

const driverName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	created_at TEXT NOT NULL,
	digest     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS records_title ON records(title);
CREATE INDEX IF NOT EXISTS records_digest ON records(digest);
CREATE TABLE IF NOT EXISTS line_items (
	id           TEXT PRIMARY KEY,
	record_id    TEXT NOT NULL,
	parent_id    TEXT NOT NULL DEFAULT '',
	position     INTEGER NOT NULL,
	type         TEXT NOT NULL,
	content      TEXT NOT NULL,
	heading_size INTEGER NOT NULL DEFAULT 0,
	checked      INTEGER NOT NULL DEFAULT 0,
	language     TEXT NOT NULL DEFAULT '',
	segments     TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS line_items_siblings ON line_items(record_id, parent_id, position);
`

// Store is a SQLite-backed notebook.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// RecordInfo summarizes a stored note.
type RecordInfo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Items     int       `json:"items"`
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// Inserts renumber siblings; one connection keeps those updates serial.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRecord inserts an empty note and returns its id.
func (s *Store) CreateRecord(ctx context.Context, title string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (id, title, created_at) VALUES (?, ?, ?)`,
		id, title, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("create record %q: %w", title, err)
	}
	return id, nil
}

// Record opens the note with id. It returns nil when the note does not exist.
func (s *Store) Record(ctx context.Context, id string) (outline.Record, error) {
	rec, err := s.record(ctx, id)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) record(ctx context.Context, id string) (*Record, error) {
	var title string
	err := s.db.QueryRowContext(ctx, `SELECT title FROM records WHERE id = ?`, id).Scan(&title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load record %s: %w", id, err)
	}
	return &Record{store: s, id: id, title: title}, nil
}

// FindRecord returns the id of the oldest note titled title, or "".
func (s *Store) FindRecord(ctx context.Context, title string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM records WHERE title = ? ORDER BY created_at, rowid LIMIT 1`, title).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find record %q: %w", title, err)
	}
	return id, nil
}

// HasDigest reports whether any note was imported with digest.
func (s *Store) HasDigest(ctx context.Context, digest string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE digest = ?`, digest).Scan(&n); err != nil {
		return false, fmt.Errorf("check digest: %w", err)
	}
	return n > 0, nil
}

// SetDigest stores the import digest of a note.
func (s *Store) SetDigest(ctx context.Context, id, digest string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE records SET digest = ? WHERE id = ?`, digest, id); err != nil {
		return fmt.Errorf("set digest of %s: %w", id, err)
	}
	return nil
}

// List returns all notes, newest first.
func (s *Store) List(ctx context.Context) ([]RecordInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.title, r.created_at, COUNT(li.id)
		FROM records r LEFT JOIN line_items li ON li.record_id = r.id
		GROUP BY r.id
		ORDER BY r.created_at DESC, r.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []RecordInfo
	for rows.Next() {
		var (
			info    RecordInfo
			created string
		)
		if err := rows.Scan(&info.ID, &info.Title, &created, &info.Items); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes a note and its items. It reports whether the note existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM line_items WHERE record_id = ?`, id); err != nil {
		return false, fmt.Errorf("delete items of %s: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete record %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, tx.Commit()
}
