package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"dev/gridwatch/regulatory-automation-go/pkg/assam"
	"dev/gridwatch/regulatory-automation-go/pkg/models"
)

// AutomationRunWorkflow drives one portal automation run. The navigation
// steps execute as activities against a single pooled browser session,
// which is always closed before the workflow returns.
func AutomationRunWorkflow(ctx workflow.Context, input models.RunInput) (models.RunResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting automation run", "runID", input.RunID, "headless", input.Headless)

	result := models.RunResult{
		RunID:       input.RunID,
		Status:      models.StatusRunning,
		StepResults: make([]models.StepResult, 0, 8),
	}

	// Register query handler for real-time progress
	err := workflow.SetQueryHandler(ctx, "getProgress", func() (models.RunResult, error) {
		return result, nil
	})
	if err != nil {
		logger.Error("Failed to register query handler", "error", err)
	}

	startTime := workflow.Now(ctx)

	timeout := time.Duration(input.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	// Single attempt per step. The source sequence has no retry semantics
	// and re-clicking a link on a half-navigated page is worse than failing.
	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var session RunSession
	err = workflow.ExecuteActivity(ctx, "InitializeBrowserActivity", BrowserInitInput{
		Headless: input.Headless,
	}).Get(ctx, &session)
	if err != nil {
		result.Status = models.StatusFailed
		result.ErrorMessage = "Failed to initialize browser: " + err.Error()
		return result, nil
	}

	defer func() {
		// Cleanup browser session
		_ = workflow.ExecuteActivity(ctx, "CloseBrowserActivity", session.SessionID).Get(ctx, nil)
	}()

	cfg := assam.Config{
		StartURL:       input.StartURL,
		ScreenshotPath: input.ScreenshotPath,
		DownloadDir:    input.DownloadDir,
		AlertWait:      3 * time.Second,
		IdleAfter:      time.Duration(input.IdleSeconds) * time.Second,
	}

	for i, step := range assam.Steps(cfg) {
		logger.Info("Executing step", "sequence", i+1, "step", step.Name)

		var stepResult models.StepResult
		err := workflow.ExecuteActivity(ctx, "ExecuteStepActivity", StepInput{
			SessionID: session.SessionID,
			Sequence:  i + 1,
			Step:      step,
		}).Get(ctx, &stepResult)

		stepResult.Sequence = i + 1
		stepResult.Step = step.Name
		stepResult.RunID = input.RunID

		if err != nil {
			stepResult.Status = models.StatusFailed
			if stepResult.ErrorMessage == "" {
				stepResult.ErrorMessage = err.Error()
			}
			result.StepResults = append(result.StepResults, stepResult)

			if step.Optional {
				logger.Warn("Optional step failed, continuing", "step", step.Name, "error", err.Error())
				continue
			}

			// Capture whatever the page shows for debugging
			var diagPath string
			_ = workflow.ExecuteActivity(ctx, "TakeScreenshotActivity", ScreenshotInput{
				SessionID: session.SessionID,
				Filename:  input.RunID + "_failure.png",
			}).Get(ctx, &diagPath)

			result.Status = models.StatusFailed
			result.ErrorMessage = "Step " + step.Name + " failed: " + err.Error()
			break
		}

		stepResult.Status = models.StatusSuccess
		result.StepResults = append(result.StepResults, stepResult)
	}

	if result.Status != models.StatusFailed {
		result.ScreenshotPath = input.ScreenshotPath

		if input.FetchLatestOrder {
			var orderPath string
			err := workflow.ExecuteActivity(ctx, "FetchLatestOrderActivity", OrderFetchInput{
				SessionID:   session.SessionID,
				DownloadDir: input.DownloadDir,
			}).Get(ctx, &orderPath)
			if err != nil {
				result.Status = models.StatusFailed
				result.ErrorMessage = "Order download failed: " + err.Error()
			} else {
				result.OrderFilePath = orderPath
			}
		}
	}

	result.TotalDuration = workflow.Now(ctx).Sub(startTime).Milliseconds()

	if result.Status != models.StatusFailed {
		result.Status = models.StatusSuccess
	}

	logger.Info("Run completed", "status", result.Status, "duration", result.TotalDuration)
	return result, nil
}

// RunSession holds browser session information
type RunSession struct {
	SessionID string `json:"session_id"`
	PageURL   string `json:"page_url"`
}

// BrowserInitInput is the input for browser initialization
type BrowserInitInput struct {
	Headless bool `json:"headless"`
}

// StepInput is the input for executing one sequence step
type StepInput struct {
	SessionID string     `json:"session_id"`
	Sequence  int        `json:"sequence"`
	Step      assam.Step `json:"step"`
}

// ScreenshotInput is the input for taking a screenshot
type ScreenshotInput struct {
	SessionID string `json:"session_id"`
	Filename  string `json:"filename"`
}

// OrderFetchInput is the input for the order discovery and download phase
type OrderFetchInput struct {
	SessionID   string `json:"session_id"`
	DownloadDir string `json:"download_dir"`
}
