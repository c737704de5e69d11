// Package results persists suite runs and per-step outcomes to MySQL so the
// dashboard can show run history. The runner treats the store as optional;
// a missing database never blocks a run.
package results

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dev/bravebird/ui-harness-go/pkg/models"

	_ "github.com/go-sql-driver/mysql"
)

// Store wraps the results database connection.
type Store struct {
	conn *sql.DB
}

// New opens a connection pool and verifies it with a ping.
func New(dsn string) (*Store, error) {
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{conn: conn}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// ==================== Suite Runs ====================

// CreateSuiteRun inserts a new run in the running state.
func (s *Store) CreateSuiteRun(ctx context.Context, run *models.SuiteRun) error {
	query := `
		INSERT INTO suite_runs (id, suite, domain, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`

	run.StartedAt = time.Now()
	run.Status = models.StatusRunning

	_, err := s.conn.ExecContext(ctx, query,
		run.ID,
		run.Suite,
		run.Domain,
		run.Status,
		run.StartedAt,
	)

	return err
}

// GetSuiteRun retrieves a run by ID. A missing run returns (nil, nil).
func (s *Store) GetSuiteRun(ctx context.Context, id string) (*models.SuiteRun, error) {
	query := `
		SELECT id, suite, domain, status, started_at, completed_at, error_message
		FROM suite_runs
		WHERE id = ?
	`

	var run models.SuiteRun
	var completedAt sql.NullTime
	var errorMessage sql.NullString
	err := s.conn.QueryRowContext(ctx, query, id).Scan(
		&run.ID,
		&run.Suite,
		&run.Domain,
		&run.Status,
		&run.StartedAt,
		&completedAt,
		&errorMessage,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	run.ErrorMessage = errorMessage.String

	return &run, nil
}

// ListSuiteRuns retrieves recent runs, optionally filtered by suite name.
func (s *Store) ListSuiteRuns(ctx context.Context, suite string, limit int) ([]models.SuiteRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, suite, domain, status, started_at, completed_at, error_message
		FROM suite_runs
	`
	args := []interface{}{}
	if suite != "" {
		query += " WHERE suite = ?"
		args = append(args, suite)
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.SuiteRun
	for rows.Next() {
		var run models.SuiteRun
		var completedAt sql.NullTime
		var errorMessage sql.NullString
		err := rows.Scan(
			&run.ID,
			&run.Suite,
			&run.Domain,
			&run.Status,
			&run.StartedAt,
			&completedAt,
			&errorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}
		run.ErrorMessage = errorMessage.String
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// UpdateSuiteRunStatus moves a run to a new status, stamping completed_at
// when the status is terminal.
func (s *Store) UpdateSuiteRunStatus(ctx context.Context, id string, status models.RunStatus, errorMsg string) error {
	query := `
		UPDATE suite_runs
		SET status = ?, error_message = ?,
		    completed_at = CASE WHEN ? IN ('success', 'failed') THEN NOW() ELSE completed_at END
		WHERE id = ?
	`

	_, err := s.conn.ExecContext(ctx, query, status, errorMsg, status, id)
	return err
}

// ==================== Step Results ====================

// CreateStepResult inserts one step outcome.
func (s *Store) CreateStepResult(ctx context.Context, result *models.StepResult) error {
	query := `
		INSERT INTO step_results (id, run_id, ordinal, step, status, duration_ms, screenshot_path, error_message, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if result.ExecutedAt.IsZero() {
		result.ExecutedAt = time.Now()
	}

	_, err := s.conn.ExecContext(ctx, query,
		result.ID,
		result.RunID,
		result.Ordinal,
		result.Step,
		result.Status,
		result.Duration,
		result.ScreenshotPath,
		result.ErrorMessage,
		result.ExecutedAt,
	)

	return err
}

// GetStepResults retrieves a run's step outcomes in ordinal order.
func (s *Store) GetStepResults(ctx context.Context, runID string) ([]models.StepResult, error) {
	query := `
		SELECT id, run_id, ordinal, step, status, duration_ms, screenshot_path, error_message, executed_at
		FROM step_results
		WHERE run_id = ?
		ORDER BY ordinal
	`

	rows, err := s.conn.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get step results: %w", err)
	}
	defer rows.Close()

	var results []models.StepResult
	for rows.Next() {
		var result models.StepResult
		var screenshot, errorMessage sql.NullString
		err := rows.Scan(
			&result.ID,
			&result.RunID,
			&result.Ordinal,
			&result.Step,
			&result.Status,
			&result.Duration,
			&screenshot,
			&errorMessage,
			&result.ExecutedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step result: %w", err)
		}
		result.ScreenshotPath = screenshot.String
		result.ErrorMessage = errorMessage.String
		results = append(results, result)
	}

	return results, rows.Err()
}
