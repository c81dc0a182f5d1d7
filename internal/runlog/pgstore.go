package runlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTable = `
CREATE TABLE IF NOT EXISTS nzcvm_runs (
	id                TEXT PRIMARY KEY,
	fingerprint       TEXT NOT NULL DEFAULT '',
	model_version     TEXT NOT NULL DEFAULT '',
	total_points      BIGINT NOT NULL DEFAULT 0,
	estimated_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
	status            TEXT NOT NULL,
	error             TEXT NOT NULL DEFAULT '',
	duration_seconds  DOUBLE PRECISION NOT NULL DEFAULT 0,
	archive_bytes     BIGINT NOT NULL DEFAULT 0,
	subject           TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL
)`

const runColumns = `id, fingerprint, model_version, total_points, estimated_seconds, status,
	error, duration_seconds, archive_bytes, subject, created_at`

// PGStore keeps runs in PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore connects to databaseURL and creates the runs table if needed.
func NewPGStore(ctx context.Context, databaseURL string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, createTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PGStore) Add(ctx context.Context, run Run) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO nzcvm_runs (`+runColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.ID, run.Fingerprint, run.ModelVersion, run.TotalPoints, run.EstimatedSeconds,
		string(run.Status), run.Error, run.DurationSeconds, run.ArchiveBytes, run.Subject, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, id string) (Run, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM nzcvm_runs WHERE id = $1`, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

func (s *PGStore) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.pool.Query(ctx, `SELECT `+runColumns+` FROM nzcvm_runs ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(row pgx.Row) (Run, error) {
	var run Run
	var status string
	err := row.Scan(
		&run.ID, &run.Fingerprint, &run.ModelVersion, &run.TotalPoints, &run.EstimatedSeconds,
		&status, &run.Error, &run.DurationSeconds, &run.ArchiveBytes, &run.Subject, &run.CreatedAt,
	)
	run.Status = Status(status)
	return run, err
}
