package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.temporal.io/sdk/client"

	"dev/gridwatch/regulatory-automation-go/pkg/assam"
	"dev/gridwatch/regulatory-automation-go/pkg/database"
	"dev/gridwatch/regulatory-automation-go/pkg/models"
)

const TaskQueue = "portal-automation"

// Handlers contains API handlers
type Handlers struct {
	db             *database.DB
	temporalClient client.Client
	screenshotDir  string
	downloadDir    string
	upgrader       websocket.Upgrader
}

// NewHandlers creates new API handlers
func NewHandlers(db *database.DB, temporalClient client.Client, screenshotDir, downloadDir string) *Handlers {
	return &Handlers{
		db:             db,
		temporalClient: temporalClient,
		screenshotDir:  screenshotDir,
		downloadDir:    downloadDir,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ==================== Run Handlers ====================

// ExecuteRun starts a new automation run
func (h *Handlers) ExecuteRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	runID := uuid.New().String()

	input := models.RunInput{
		RunID:            runID,
		Headless:         req.Headless,
		StartURL:         assam.DefaultStartURL,
		ScreenshotPath:   filepath.Join(h.screenshotDir, runID+".png"),
		DownloadDir:      h.downloadDir,
		FetchLatestOrder: req.FetchLatestOrder,
		IdleSeconds:      req.IdleSeconds,
		TimeoutSeconds:   120,
	}

	workflowOptions := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("portal-automation-%s", runID),
		TaskQueue: TaskQueue,
	}

	we, err := h.temporalClient.ExecuteWorkflow(ctx, workflowOptions, "AutomationRunWorkflow", input)
	if err != nil {
		http.Error(w, "Failed to start run: "+err.Error(), http.StatusInternalServerError)
		return
	}

	now := time.Now()
	run := &models.Run{
		ID:                 runID,
		State:              assam.StateName,
		Status:             models.StatusRunning,
		TemporalWorkflowID: we.GetID(),
		TemporalRunID:      we.GetRunID(),
		Headless:           req.Headless,
		StartedAt:          &now,
	}

	if h.db != nil {
		if err := h.db.CreateRun(ctx, run); err != nil {
			http.Error(w, "Failed to record run: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	respondJSON(w, map[string]interface{}{
		"run_id":               runID,
		"temporal_workflow_id": we.GetID(),
		"temporal_run_id":      we.GetRunID(),
		"status":               "running",
	})
}

// ListRuns lists recent automation runs
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.db == nil {
		http.Error(w, "Database not available", http.StatusServiceUnavailable)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	runs, err := h.db.ListRuns(ctx, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, runs)
}

// GetRun retrieves an automation run
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	id := vars["id"]

	if h.db == nil {
		http.Error(w, "Database not available", http.StatusServiceUnavailable)
		return
	}

	run, err := h.db.GetRun(ctx, id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	results, _ := h.db.GetStepResults(ctx, id)
	run.StepResults = results

	respondJSON(w, run)
}

// CancelRun cancels a running automation run
func (h *Handlers) CancelRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	id := vars["id"]

	if h.db == nil {
		http.Error(w, "Database not available", http.StatusServiceUnavailable)
		return
	}

	run, err := h.db.GetRun(ctx, id)
	if err != nil || run == nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	if run.TemporalWorkflowID != "" {
		err = h.temporalClient.CancelWorkflow(ctx, run.TemporalWorkflowID, run.TemporalRunID)
		if err != nil {
			http.Error(w, "Failed to cancel run: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	h.db.UpdateRunStatus(ctx, id, models.StatusCanceled, "Cancelled by user")

	respondJSON(w, map[string]string{"status": "canceled"})
}

// StreamRunUpdates streams run updates via WebSocket
func (h *Handlers) StreamRunUpdates(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	runID := vars["id"]

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx := r.Context()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastStatus := ""
	lastStepCount := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var status models.RunStatus
			var stepResults []models.StepResult

			// Query the workflow directly for real-time progress
			if h.temporalClient != nil {
				queryResp, err := h.temporalClient.QueryWorkflow(ctx, fmt.Sprintf("portal-automation-%s", runID), "", "getProgress")
				if err == nil {
					var result models.RunResult
					if queryResp.Get(&result) == nil {
						status = result.Status
						stepResults = result.StepResults
					}
				}
			}

			// Fall back to DB if the workflow query didn't work
			if status == "" && h.db != nil {
				run, err := h.db.GetRun(ctx, runID)
				if err != nil || run == nil {
					continue
				}
				status = run.Status
				results, _ := h.db.GetStepResults(ctx, runID)
				stepResults = results
			}

			if string(status) != lastStatus || len(stepResults) != lastStepCount {
				msg := models.WSMessage{
					Type: "run_update",
					Payload: map[string]interface{}{
						"run_id":       runID,
						"status":       status,
						"step_results": stepResults,
					},
				}
				conn.WriteJSON(msg)

				lastStatus = string(status)
				lastStepCount = len(stepResults)

				if status == models.StatusSuccess || status == models.StatusFailed || status == models.StatusCanceled {
					return
				}
			}
		}
	}
}

// ==================== Artifact Handlers ====================

// ServeScreenshot serves a captured screenshot
func (h *Handlers) ServeScreenshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	filename := vars["filename"]

	// Only allow files from the screenshots directory
	filePath := filepath.Join(h.screenshotDir, filepath.Base(filename))

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.Error(w, "Screenshot not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFile(w, r, filePath)
}

// ServeOrder serves a downloaded order PDF
func (h *Handlers) ServeOrder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	filename := vars["filename"]

	filePath := filepath.Join(h.downloadDir, assam.StateName, filepath.Base(filename))

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, filePath)
}

// ==================== Helpers ====================

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}
