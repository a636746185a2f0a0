package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/cuongbtq/screenshot-service/internal/domain"
	"github.com/jmoiron/sqlx"
)

// JobStore is the durable keyed record store holding one record per job
type JobStore interface {
	// Create writes a new job record
	Create(ctx context.Context, job *domain.Job) error
	// Get reads a job record by id, returning domain.ErrNotFound when absent
	Get(ctx context.Context, jobID string) (*domain.Job, error)
	// Transition moves a job from one status to the next only if the stored
	// status still equals from
	Transition(ctx context.Context, jobID string, from, to domain.Status, outcome domain.Outcome) (*domain.Job, error)
	// ListStale returns jobs in status whose creation time is before olderThan
	ListStale(ctx context.Context, status domain.Status, olderThan time.Time, limit int) ([]*domain.Job, error)
	// Ping checks that the store is reachable
	Ping(ctx context.Context) error
}

//go:embed schema.sql
var schemaSQL string

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DefaultTable is the table used when none is configured
const DefaultTable = "screenshot_jobs"

// Storage implements JobStore on top of sqlx. It runs against PostgreSQL and
// SQLite; queries are written with ? placeholders and rebound per driver.
type Storage struct {
	db     *sqlx.DB
	table  string
	logger *slog.Logger
	now    func() time.Time
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, table string, logger *slog.Logger) (*Storage, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	return &Storage{
		db:     db,
		table:  table,
		logger: logger,
		now:    time.Now,
	}, nil
}

// EnsureSchema creates the jobs table and its index if they do not exist
func (s *Storage) EnsureSchema(ctx context.Context) error {
	ddl := strings.ReplaceAll(schemaSQL, "{{table}}", s.table)
	for _, stmt := range strings.Split(ddl, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	s.logger.Info("Job table schema ensured",
		slog.String("table", s.table),
	)
	return nil
}

func (s *Storage) query(q string) string {
	return s.db.Rebind(strings.ReplaceAll(q, "{{table}}", s.table))
}

// Create inserts a new job record
func (s *Storage) Create(ctx context.Context, job *domain.Job) error {
	query := s.query(`
		INSERT INTO {{table}} (
			id, status, source_uri, result_uri, error, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	row := toRow(job)
	_, err := s.db.ExecContext(ctx, query,
		row.ID,
		row.Status,
		row.SourceURI,
		row.ResultURI,
		row.Error,
		row.CreatedAt,
		row.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	s.logger.Debug("Job created",
		slog.String("job_id", job.ID),
		slog.String("status", string(job.Status)),
	)

	return nil
}

// Get retrieves a job by its id
func (s *Storage) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	query := s.query(`
		SELECT id, status, source_uri, result_uri, error, created_at, updated_at
		FROM {{table}}
		WHERE id = ?
	`)

	var row jobRow
	if err := s.db.GetContext(ctx, &row, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return row.toDomain(), nil
}

// Transition performs a conditional status update guarded by the expected
// prior status. A zero-row update means either the job does not exist or
// another writer already moved it.
func (s *Storage) Transition(ctx context.Context, jobID string, from, to domain.Status, outcome domain.Outcome) (*domain.Job, error) {
	if !domain.CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}
	if err := outcome.Validate(to); err != nil {
		return nil, err
	}

	query := s.query(`
		UPDATE {{table}}
		SET status = ?,
		    result_uri = ?,
		    error = ?,
		    updated_at = ?
		WHERE id = ?
		  AND status = ?
	`)

	result, err := s.db.ExecContext(ctx, query,
		string(to),
		nullString(outcome.ResultURI),
		nullString(outcome.Error),
		s.now().UTC(),
		jobID,
		string(from),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update job status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		current, getErr := s.Get(ctx, jobID)
		if getErr != nil {
			return nil, getErr
		}
		s.logger.Warn("Job status update rejected - precondition failed",
			slog.String("job_id", jobID),
			slog.String("expected", string(from)),
			slog.String("actual", string(current.Status)),
			slog.String("target", string(to)),
		)
		return nil, fmt.Errorf("%w: expected %s, found %s", domain.ErrPreconditionFailed, from, current.Status)
	}

	s.logger.Info("Job status updated",
		slog.String("job_id", jobID),
		slog.String("from", string(from)),
		slog.String("status", string(to)),
	)

	return s.Get(ctx, jobID)
}

// ListStale returns up to limit jobs in the given status created before olderThan, oldest first
func (s *Storage) ListStale(ctx context.Context, status domain.Status, olderThan time.Time, limit int) ([]*domain.Job, error) {
	query := s.query(`
		SELECT id, status, source_uri, result_uri, error, created_at, updated_at
		FROM {{table}}
		WHERE status = ?
		  AND created_at < ?
		ORDER BY created_at ASC, id ASC
		LIMIT ?
	`)

	var rows []jobRow
	if err := s.db.SelectContext(ctx, &rows, query, string(status), olderThan.UTC(), limit); err != nil {
		return nil, fmt.Errorf("failed to list stale jobs: %w", err)
	}

	jobs := make([]*domain.Job, len(rows))
	for i := range rows {
		jobs[i] = rows[i].toDomain()
	}
	return jobs, nil
}

// Ping checks the database connection
func (s *Storage) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
