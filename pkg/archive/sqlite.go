package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	hash       TEXT PRIMARY KEY,
	template   TEXT NOT NULL,
	prompt     TEXT NOT NULL,
	raw        TEXT NOT NULL,
	normalized TEXT NOT NULL,
	degraded   INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at);
`

// SQLiteStorer persists records in a SQLite database.
type SQLiteStorer struct {
	db *sql.DB
}

// NewSQLiteStorer opens (or creates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStorer(dbPath string) (*SQLiteStorer, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStorer{db: db}, nil
}

func (s *SQLiteStorer) Put(ctx context.Context, record *Record) (bool, error) {
	if record == nil {
		return false, errors.New("cannot store nil record")
	}

	normalized, err := json.Marshal(record.Normalized)
	if err != nil {
		return false, fmt.Errorf("marshal normalized value: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO records (hash, template, prompt, raw, normalized, degraded, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.Hash, record.Template, record.Prompt, record.Raw, string(normalized),
		record.Degraded, record.CreatedAt.UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("insert record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStorer) Get(ctx context.Context, hash string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT hash, template, prompt, raw, normalized, degraded, created_at
		 FROM records WHERE hash = ?`, hash)

	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound{Hash: hash}
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStorer) List(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT hash, template, prompt, raw, normalized, degraded, created_at
		 FROM records ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteStorer) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		r          Record
		normalized string
		createdAt  int64
	)

	if err := row.Scan(&r.Hash, &r.Template, &r.Prompt, &r.Raw, &normalized, &r.Degraded, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan record: %w", err)
	}

	if err := json.Unmarshal([]byte(normalized), &r.Normalized); err != nil {
		return nil, fmt.Errorf("unmarshal normalized value: %w", err)
	}
	r.CreatedAt = time.Unix(0, createdAt).UTC()

	return &r, nil
}
