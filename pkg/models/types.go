package models

import "time"

// ==================== Run Types ====================

// Run represents a single execution of the portal automation sequence.
type Run struct {
	ID                 string     `json:"id" db:"id"`
	State              string     `json:"state" db:"state"`
	Status             RunStatus  `json:"status" db:"status"`
	TemporalRunID      string     `json:"temporal_run_id" db:"temporal_run_id"`
	TemporalWorkflowID string     `json:"temporal_workflow_id" db:"temporal_workflow_id"`
	Headless           bool       `json:"headless" db:"headless"`
	ScreenshotPath     string     `json:"screenshot_path,omitempty" db:"screenshot_path"`
	OrderFilePath      string     `json:"order_file_path,omitempty" db:"order_file_path"`
	ErrorMessage       string     `json:"error_message,omitempty" db:"error_message"`
	StartedAt          *time.Time `json:"started_at" db:"started_at"`
	CompletedAt        *time.Time `json:"completed_at" db:"completed_at"`

	// Computed fields
	StepResults []StepResult `json:"step_results,omitempty"`
}

// RunStatus represents the status of an automation run
type RunStatus string

const (
	StatusPending  RunStatus = "pending"
	StatusRunning  RunStatus = "running"
	StatusSuccess  RunStatus = "success"
	StatusFailed   RunStatus = "failed"
	StatusCanceled RunStatus = "canceled"
)

// StepResult represents the outcome of a single step of the sequence
type StepResult struct {
	ID           string     `json:"id" db:"id"`
	RunID        string     `json:"run_id" db:"run_id"`
	Sequence     int        `json:"sequence" db:"sequence"`
	Step         string     `json:"step" db:"step"`
	Status       RunStatus  `json:"status" db:"status"`
	CurrentURL   string     `json:"current_url,omitempty" db:"current_url"`
	Detail       string     `json:"detail,omitempty" db:"detail"`
	ErrorMessage string     `json:"error_message,omitempty" db:"error_message"`
	ExecutedAt   *time.Time `json:"executed_at" db:"executed_at"`
	Duration     int64      `json:"duration_ms,omitempty" db:"duration_ms"`
}

// ==================== Workflow Types ====================

// RunInput is the input handed to the automation run workflow
type RunInput struct {
	RunID            string `json:"run_id"`
	Headless         bool   `json:"headless"`
	StartURL         string `json:"start_url"`
	ScreenshotPath   string `json:"screenshot_path"`
	DownloadDir      string `json:"download_dir"`
	FetchLatestOrder bool   `json:"fetch_latest_order"`
	IdleSeconds      int    `json:"idle_seconds"`
	TimeoutSeconds   int    `json:"timeout_seconds"`
}

// RunResult represents the result of an automation run workflow
type RunResult struct {
	RunID          string       `json:"run_id"`
	Status         RunStatus    `json:"status"`
	StepResults    []StepResult `json:"step_results"`
	ScreenshotPath string       `json:"screenshot_path,omitempty"`
	OrderFilePath  string       `json:"order_file_path,omitempty"`
	TotalDuration  int64        `json:"total_duration_ms"`
	ErrorMessage   string       `json:"error_message,omitempty"`
}

// ==================== Order Types ====================

// OrderDocument represents one row of the regulator's orders table
type OrderDocument struct {
	Title    string    `json:"title"`
	DateText string    `json:"date_text"`
	Date     time.Time `json:"date"`
	URL      string    `json:"url"`
}

// ==================== API Request/Response Types ====================

// ExecuteRequest represents a request to start an automation run
type ExecuteRequest struct {
	Headless         bool `json:"headless"`
	FetchLatestOrder bool `json:"fetch_latest_order"`
	IdleSeconds      int  `json:"idle_seconds"`
}

// ==================== WebSocket Message Types ====================

// WSMessage represents a WebSocket message for real-time updates
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// StepStatusUpdate represents a status update for a single step
type StepStatusUpdate struct {
	RunID    string    `json:"run_id"`
	Sequence int       `json:"sequence"`
	Step     string    `json:"step"`
	Status   RunStatus `json:"status"`
	Message  string    `json:"message,omitempty"`
}
