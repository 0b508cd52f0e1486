// Package accesslog persists one row per served request in SQLite.
package accesslog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// Entry is one served request.
type Entry struct {
	RequestID  string
	RemoteAddr string
	Method     string
	Path       string
	Status     int
	Bytes      int64
	Duration   time.Duration
	Time       time.Time
}

// Store is a SQLite-backed access log. It is safe for concurrent use.
type Store struct {
	conn *sql.DB
}

// Open creates the database file (and its directory) if needed and ensures the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create access log directory: %w", err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open access log: %w", err)
	}
	// Workers write concurrently; one connection serializes them without SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to access log: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create access log schema: %w", err)
	}
	return &Store{conn: db}, nil
}

// Record appends e.
func (s *Store) Record(ctx context.Context, e Entry) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO access_log (request_id, remote_addr, method, path, status, bytes, duration_ns, ts_unix_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID, e.RemoteAddr, e.Method, e.Path, e.Status, e.Bytes, int64(e.Duration), e.Time.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record access log entry: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT request_id, remote_addr, method, path, status, bytes, duration_ns, ts_unix_ns
		 FROM access_log ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query access log: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			duration int64
			ts       int64
		)
		if err := rows.Scan(&e.RequestID, &e.RemoteAddr, &e.Method, &e.Path, &e.Status, &e.Bytes, &duration, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan access log entry: %w", err)
		}
		e.Duration = time.Duration(duration)
		e.Time = time.Unix(0, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.conn.Close()
}
