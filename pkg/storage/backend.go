package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"bidindex/pkg/common"
	"bidindex/pkg/core"
	"bidindex/pkg/logging"

	_ "modernc.org/sqlite"
)

// Backend is a durable bids table. The in-memory index never persists
// itself; a Backend is only a source to load from and a sink to export to.
type Backend interface {
	Write(rec common.Record, policy common.DuplicatePolicy) error
	BatchWrite(records []common.Record, policy common.DuplicatePolicy) (int64, error)
	Read(id string) (common.Record, bool)
	Delete(id string) error
	LoadAll() ([]common.Record, error)
	Count() (int, error)
	Truncate() error
	Close() error
	Source() (core.RecordSource, error)
}

var _ Backend = (*SQLiteBackend)(nil)

type SQLiteBackend struct {
	db  *sql.DB
	mu  sync.Mutex
	log *slog.Logger
}

func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("storage: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}

	query := `
	CREATE TABLE IF NOT EXISTS bids (
		id     TEXT PRIMARY KEY,
		title  TEXT NOT NULL DEFAULT '',
		fund   TEXT NOT NULL DEFAULT '',
		amount REAL NOT NULL DEFAULT 0
	);`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: init table: %w", err)
	}

	log := logging.Component("storage").With("path", path)
	_, err = db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
	`)
	if err != nil {
		log.Warn("failed to set PRAGMA", "error", err)
	}

	return &SQLiteBackend{db: db, log: log}, nil
}

func insertVerb(policy common.DuplicatePolicy) string {
	if policy == common.PolicyReplace {
		return "INSERT OR REPLACE"
	}
	return "INSERT OR IGNORE"
}

func (s *SQLiteBackend) Write(rec common.Record, policy common.DuplicatePolicy) error {
	if !rec.Valid() {
		return core.ErrEmptyID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(insertVerb(policy)+" INTO bids (id, title, fund, amount) VALUES (?, ?, ?, ?)",
		rec.ID, rec.Title, rec.Fund, rec.Amount)
	return err
}

// BatchWrite stores records in one transaction and returns how many rows
// were written. Records without an ID are skipped.
func (s *SQLiteBackend) BatchWrite(records []common.Record, policy common.DuplicatePolicy) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(insertVerb(policy) + " INTO bids (id, title, fund, amount) VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	var written int64
	for _, rec := range records {
		if !rec.Valid() {
			continue
		}
		res, err := stmt.Exec(rec.ID, rec.Title, rec.Fund, rec.Amount)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("storage: write %q: %w", rec.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			written += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return written, nil
}

func (s *SQLiteBackend) Read(id string) (common.Record, bool) {
	rec := common.Record{ID: id}
	err := s.db.QueryRow("SELECT title, fund, amount FROM bids WHERE id = ?", id).
		Scan(&rec.Title, &rec.Fund, &rec.Amount)
	if errors.Is(err, sql.ErrNoRows) {
		return common.Record{}, false
	}
	if err != nil {
		s.log.Error("read failed", "id", id, "error", err)
		return common.Record{}, false
	}
	return rec, true
}

func (s *SQLiteBackend) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM bids WHERE id = ?", id)
	return err
}

func (s *SQLiteBackend) LoadAll() ([]common.Record, error) {
	rows, err := s.db.Query("SELECT id, title, fund, amount FROM bids ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []common.Record
	for rows.Next() {
		var r common.Record
		if err := rows.Scan(&r.ID, &r.Title, &r.Fund, &r.Amount); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteBackend) Count() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM bids").Scan(&n)
	return n, err
}

func (s *SQLiteBackend) Truncate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM bids")
	return err
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}

// Source snapshots the table, ordered by id, as a record source.
func (s *SQLiteBackend) Source() (core.RecordSource, error) {
	recs, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	return core.NewSliceSource(recs), nil
}
