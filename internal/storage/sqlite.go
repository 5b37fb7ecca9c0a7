package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// SQLiteStore implements storage using SQLite (for local use)
type SQLiteStore struct {
	sqlStore
}

// NewSQLiteStore creates a new SQLite storage
func NewSQLiteStore(path string, logger logrus.FieldLogger) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite: %w", err)
	}

	store := &SQLiteStore{sqlStore: newSQLStore(db, logger)}
	store.applyPragmas()

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// sqlitePragmas enable foreign keys and WAL mode
var sqlitePragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
}

// applyPragmas runs sqlitePragmas. A failed pragma leaves the store usable
// with sqlite's defaults, so it is logged rather than returned.
func (s *SQLiteStore) applyPragmas() {
	for _, pragma := range sqlitePragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			s.logger.WithError(err).WithField("pragma", pragma).Warn("sqlite pragma failed")
		}
	}
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		repo_id TEXT NOT NULL,
		head TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS contributions (
		run_id TEXT NOT NULL,
		repo_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		last_commit TEXT NOT NULL,
		tag_name TEXT,
		payload TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (run_id, position),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_repo ON runs(repo_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_contributions_repo ON contributions(repo_id);
	`

	_, err := s.db.Exec(schema)
	return err
}
