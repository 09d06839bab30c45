package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dev/gridwatch/regulatory-automation-go/pkg/models"

	_ "github.com/go-sql-driver/mysql"
)

// DB represents the database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection
func New(dsn string) (*DB, error) {
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// ==================== Automation Runs ====================

// CreateRun inserts a new automation run
func (db *DB) CreateRun(ctx context.Context, run *models.Run) error {
	query := `
		INSERT INTO automation_runs (id, state, status, temporal_run_id, temporal_workflow_id, headless, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.conn.ExecContext(ctx, query,
		run.ID,
		run.State,
		run.Status,
		run.TemporalRunID,
		run.TemporalWorkflowID,
		run.Headless,
		run.StartedAt,
	)

	return err
}

// GetRun retrieves an automation run by ID
func (db *DB) GetRun(ctx context.Context, id string) (*models.Run, error) {
	query := `
		SELECT id, state, status, temporal_run_id, temporal_workflow_id, headless,
		       screenshot_path, order_file_path, error_message, started_at, completed_at
		FROM automation_runs
		WHERE id = ?
	`

	var run models.Run
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&run.ID,
		&run.State,
		&run.Status,
		&run.TemporalRunID,
		&run.TemporalWorkflowID,
		&run.Headless,
		&run.ScreenshotPath,
		&run.OrderFilePath,
		&run.ErrorMessage,
		&run.StartedAt,
		&run.CompletedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return &run, nil
}

// ListRuns retrieves the most recent automation runs
func (db *DB) ListRuns(ctx context.Context, limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, state, status, temporal_run_id, temporal_workflow_id, headless,
		       screenshot_path, order_file_path, error_message, started_at, completed_at
		FROM automation_runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var run models.Run
		err := rows.Scan(
			&run.ID,
			&run.State,
			&run.Status,
			&run.TemporalRunID,
			&run.TemporalWorkflowID,
			&run.Headless,
			&run.ScreenshotPath,
			&run.OrderFilePath,
			&run.ErrorMessage,
			&run.StartedAt,
			&run.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, nil
}

// UpdateRunStatus updates the status of a run and records terminal state
func (db *DB) UpdateRunStatus(ctx context.Context, id string, status models.RunStatus, errorMsg string) error {
	query := `
		UPDATE automation_runs
		SET status = ?, error_message = ?,
		    completed_at = CASE WHEN ? IN ('success', 'failed', 'canceled') THEN NOW() ELSE completed_at END
		WHERE id = ?
	`

	_, err := db.conn.ExecContext(ctx, query, status, errorMsg, status, id)
	return err
}

// UpdateRunArtifacts records the output paths of a completed run
func (db *DB) UpdateRunArtifacts(ctx context.Context, id, screenshotPath, orderFilePath string) error {
	query := `
		UPDATE automation_runs
		SET screenshot_path = ?, order_file_path = ?
		WHERE id = ?
	`

	_, err := db.conn.ExecContext(ctx, query, screenshotPath, orderFilePath, id)
	return err
}

// ==================== Step Results ====================

// CreateStepResults stores the step results of a run
func (db *DB) CreateStepResults(ctx context.Context, runID string, results []models.StepResult) error {
	query := `
		INSERT INTO step_results (id, run_id, sequence, step, status, current_url, detail, error_message, executed_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, result := range results {
		_, err := stmt.ExecContext(ctx,
			result.ID,
			runID,
			result.Sequence,
			result.Step,
			result.Status,
			result.CurrentURL,
			result.Detail,
			result.ErrorMessage,
			result.ExecutedAt,
			result.Duration,
		)
		if err != nil {
			return fmt.Errorf("failed to insert step result: %w", err)
		}
	}

	return tx.Commit()
}

// GetStepResults retrieves step results for a run
func (db *DB) GetStepResults(ctx context.Context, runID string) ([]models.StepResult, error) {
	query := `
		SELECT id, run_id, sequence, step, status, current_url, detail, error_message, executed_at, duration_ms
		FROM step_results
		WHERE run_id = ?
		ORDER BY sequence
	`

	rows, err := db.conn.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get step results: %w", err)
	}
	defer rows.Close()

	var results []models.StepResult
	for rows.Next() {
		var result models.StepResult
		err := rows.Scan(
			&result.ID,
			&result.RunID,
			&result.Sequence,
			&result.Step,
			&result.Status,
			&result.CurrentURL,
			&result.Detail,
			&result.ErrorMessage,
			&result.ExecutedAt,
			&result.Duration,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step result: %w", err)
		}
		results = append(results, result)
	}

	return results, nil
}
