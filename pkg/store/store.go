// Package store persists parsed transcripts in SQLite, keyed by content hash.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ccollicutt/chatstat/pkg/parser"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const (
	dateLayout      = time.DateOnly
	timestampLayout = "2006-01-02T15:04:05.000000000Z"
)

// ErrNotFound is returned when a transcript id is unknown.
var ErrNotFound = errors.New("transcript not found")

const schema = `
	CREATE TABLE IF NOT EXISTS transcripts (
		id TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL UNIQUE,
		source TEXT NOT NULL,
		imported_at TEXT NOT NULL,
		records INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS records (
		transcript_id TEXT NOT NULL REFERENCES transcripts(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		author TEXT,
		body TEXT NOT NULL,
		PRIMARY KEY (transcript_id, seq)
	);
`

// TranscriptInfo describes a stored transcript.
type TranscriptInfo struct {
	ID          string    `json:"id"`
	ContentHash string    `json:"content_hash"`
	Source      string    `json:"source"`
	ImportedAt  time.Time `json:"imported_at"`
	Records     int       `json:"records"`
}

// Store provides access to the transcript database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
// Use MemoryPath for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := MemoryPath
	if path != MemoryPath {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection serializes writers and keeps an in-memory database alive.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveTranscript stores records under hash and returns the transcript id.
// Callers pass a key that covers everything the records depend on, such as
// parser.CacheKey. Saving the same hash again returns the existing id.
func (s *Store) SaveTranscript(ctx context.Context, source, hash string, records []parser.Record) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT id FROM transcripts WHERE content_hash = ?`, hash).Scan(&existing)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("lookup transcript: %w", err)
	}

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transcripts (id, content_hash, source, imported_at, records)
		VALUES (?, ?, ?, ?, ?)
	`, id, hash, source, time.Now().UTC().Format(timestampLayout), len(records)); err != nil {
		return "", fmt.Errorf("insert transcript: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (transcript_id, seq, date, time, author, body)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("prepare record insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		var author sql.NullString
		if rec.Author != nil {
			author = sql.NullString{String: *rec.Author, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, id, i, rec.Date.Format(dateLayout), rec.Time, author, rec.Body); err != nil {
			return "", fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}

	return id, nil
}

// LookupByHash returns the stored transcript with the given content hash.
func (s *Store) LookupByHash(ctx context.Context, hash string) (string, []parser.Record, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM transcripts WHERE content_hash = ?`, hash).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, false, nil
	}
	if err != nil {
		return "", nil, false, fmt.Errorf("lookup transcript: %w", err)
	}

	records, err := s.Records(ctx, id)
	if err != nil {
		return "", nil, false, err
	}
	return id, records, true, nil
}

// Transcript returns the description of one stored transcript.
func (s *Store) Transcript(ctx context.Context, id string) (*TranscriptInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, content_hash, source, imported_at, records
		FROM transcripts
		WHERE id = ?
	`, id)

	info, err := scanInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Records returns the records of a transcript in their original order.
func (s *Store) Records(ctx context.Context, id string) ([]parser.Record, error) {
	if _, err := s.Transcript(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, time, author, body
		FROM records
		WHERE transcript_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []parser.Record{}
	for rows.Next() {
		var rec parser.Record
		var date string
		var author sql.NullString
		if err := rows.Scan(&date, &rec.Time, &author, &rec.Body); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Date, err = time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse record date %q: %w", date, err)
		}
		if author.Valid {
			name := author.String
			rec.Author = &name
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Transcripts lists stored transcripts, most recently imported first.
func (s *Store) Transcripts(ctx context.Context) ([]TranscriptInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content_hash, source, imported_at, records
		FROM transcripts
		ORDER BY imported_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query transcripts: %w", err)
	}
	defer rows.Close()

	list := []TranscriptInfo{}
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *info)
	}
	return list, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInfo(row scanner) (*TranscriptInfo, error) {
	var info TranscriptInfo
	var importedAt string
	if err := row.Scan(&info.ID, &info.ContentHash, &info.Source, &importedAt, &info.Records); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan transcript: %w", err)
	}
	t, err := time.Parse(timestampLayout, importedAt)
	if err != nil {
		return nil, fmt.Errorf("parse imported_at %q: %w", importedAt, err)
	}
	info.ImportedAt = t
	return &info, nil
}
