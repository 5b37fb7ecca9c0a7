package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/digger/internal/errors"
	"github.com/rohankatakam/digger/internal/models"
)

// sqlStore holds the queries shared by the sqlite and postgres stores.
// Queries are written with ? placeholders and rebound per driver.
type sqlStore struct {
	db     *sqlx.DB
	logger logrus.FieldLogger
	now    func() time.Time
}

func newSQLStore(db *sqlx.DB, logger logrus.FieldLogger) sqlStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return sqlStore{
		db:     db,
		logger: logger.WithField("component", "storage"),
		now:    time.Now,
	}
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	return s.db.Close()
}

func (s *sqlStore) SaveRun(ctx context.Context, repoID, head string, contributions []models.Contribution) (*models.Run, error) {
	run := &models.Run{
		ID:        uuid.New().String(),
		RepoID:    repoID,
		Head:      head,
		CreatedAt: s.now().UTC(),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.DatabaseError(err, "begin run transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO runs (id, repo_id, head, created_at)
		VALUES (?, ?, ?, ?)
	`), run.ID, run.RepoID, run.Head, run.CreatedAt)
	if err != nil {
		return nil, errors.DatabaseErrorf(err, "save run %s", run.ID)
	}

	query := s.db.Rebind(`
		INSERT INTO contributions
		(run_id, repo_id, position, last_commit, tag_name, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	for i, c := range contributions {
		payload, err := json.Marshal(c)
		if err != nil {
			return nil, errors.InternalErrorf("encode contribution %s: %v", c.LastCommit, err)
		}
		_, err = tx.ExecContext(ctx, query,
			run.ID, repoID, i, c.LastCommit, c.TagName, string(payload), run.CreatedAt)
		if err != nil {
			return nil, errors.DatabaseErrorf(err, "save contribution %s", c.LastCommit)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.DatabaseError(err, "commit run transaction")
	}

	s.logger.WithFields(logrus.Fields{
		"run_id":        run.ID,
		"repo_id":       repoID,
		"contributions": len(contributions),
	}).Debug("saved contribution run")

	return run, nil
}

func (s *sqlStore) LatestRun(ctx context.Context, repoID string) (*models.Run, error) {
	var run models.Run
	query := s.db.Rebind(`SELECT * FROM runs WHERE repo_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`)

	if err := s.db.GetContext(ctx, &run, query, repoID); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.DatabaseErrorf(err, "get latest run for %s", repoID)
	}
	return &run, nil
}

func (s *sqlStore) ListRuns(ctx context.Context, repoID string, limit int) ([]models.Run, error) {
	var runs []models.Run
	query := s.db.Rebind(`SELECT * FROM runs WHERE repo_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`)

	if err := s.db.SelectContext(ctx, &runs, query, repoID, limit); err != nil {
		return nil, errors.DatabaseErrorf(err, "list runs for %s", repoID)
	}
	return runs, nil
}

func (s *sqlStore) GetContributions(ctx context.Context, runID string) ([]models.StoredContribution, error) {
	var stored []models.StoredContribution
	query := s.db.Rebind(`SELECT * FROM contributions WHERE run_id = ? ORDER BY position`)

	if err := s.db.SelectContext(ctx, &stored, query, runID); err != nil {
		return nil, errors.DatabaseErrorf(err, "get contributions for run %s", runID)
	}
	return stored, nil
}

// Decode returns the contribution stored in sc
func Decode(sc models.StoredContribution) (models.Contribution, error) {
	var c models.Contribution
	if err := json.Unmarshal([]byte(sc.Payload), &c); err != nil {
		return c, fmt.Errorf("decode contribution %s: %w", sc.LastCommit, err)
	}
	return c, nil
}
