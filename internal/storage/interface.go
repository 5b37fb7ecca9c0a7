package storage

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/digger/internal/models"
)

// Common errors
var (
	ErrNotFound = errors.New("not found")
)

// Store persists contribution history runs
type Store interface {
	// SaveRun stores contributions, newest first, as one run and returns it
	SaveRun(ctx context.Context, repoID, head string, contributions []models.Contribution) (*models.Run, error)

	// LatestRun returns the most recent run for repoID, or ErrNotFound
	LatestRun(ctx context.Context, repoID string) (*models.Run, error)

	// ListRuns returns up to limit runs for repoID, newest first
	ListRuns(ctx context.Context, repoID string, limit int) ([]models.Run, error)

	// GetContributions returns the contributions of one run in stored order
	GetContributions(ctx context.Context, runID string) ([]models.StoredContribution, error)

	// Close connection
	Close() error
}

// Open returns the store selected by kind ("sqlite" or "postgres")
func Open(kind, sqlitePath, postgresDSN string, logger logrus.FieldLogger) (Store, error) {
	switch kind {
	case "sqlite":
		store, err := NewSQLiteStore(sqlitePath, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		store, err := NewPostgresStore(postgresDSN, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, errors.New("unknown storage type " + kind)
	}
}
