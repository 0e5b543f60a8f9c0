package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mnardelli/audimed/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5. The full job
// document lives in a JSONB column; a few columns are lifted out for indexed
// status queries.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) error {
	record, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO jobs (id, folder_id, status, record, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		job.ID, job.FolderID, job.Status, record, job.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	var record []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM jobs WHERE id = $1`, id,
	).Scan(&record)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}

	var job models.Job
	if err := json.Unmarshal(record, &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &job, nil
}

// UpdateJob loads the job record under a row lock, applies the patch and
// writes the result back. Concurrent updaters serialize on the lock, so a
// progress update never overwrites a concurrent status change.
func (s *PostgresStore) UpdateJob(ctx context.Context, id string, patch func(*models.Job)) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update job: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var record []byte
	err = tx.QueryRow(ctx,
		`SELECT record FROM jobs WHERE id = $1 FOR UPDATE`, id,
	).Scan(&record)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock job: %w", err)
	}

	var job models.Job
	if err := json.Unmarshal(record, &job); err != nil {
		return fmt.Errorf("unmarshal job: %w", err)
	}

	patch(&job)

	updated, err := json.Marshal(&job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	_, err = tx.Exec(ctx,
		`UPDATE jobs SET status = $2, record = $3, updated_at = NOW() WHERE id = $1`,
		id, job.Status, updated)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit update job: %w", err)
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
