package activities

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"

	"dev/gridwatch/regulatory-automation-go/pkg/assam"
	"dev/gridwatch/regulatory-automation-go/pkg/browser"
	"dev/gridwatch/regulatory-automation-go/pkg/models"
	"dev/gridwatch/regulatory-automation-go/pkg/temporal/workflows"
)

// SessionPool manages browser sessions across activity invocations
type SessionPool struct {
	sessions map[string]*browser.Session
	mu       sync.RWMutex
}

var sessionPool = &SessionPool{
	sessions: make(map[string]*browser.Session),
}

func (p *SessionPool) get(id string) (*browser.Session, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.sessions[id]
	return s, ok
}

// Activities holds activity implementations
type Activities struct {
	ScreenshotDir string
}

// NewActivities creates new activities
func NewActivities(screenshotDir string) *Activities {
	return &Activities{ScreenshotDir: screenshotDir}
}

// InitializeBrowserActivity launches a browser and registers the session
func (a *Activities) InitializeBrowserActivity(ctx context.Context, input workflows.BrowserInitInput) (workflows.RunSession, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Initializing browser session", "headless", input.Headless)

	opts := browser.DefaultOptions()
	opts.Headless = input.Headless

	session, err := browser.Start(opts)
	if err != nil {
		return workflows.RunSession{}, err
	}

	sessionID := uuid.New().String()
	sessionPool.mu.Lock()
	sessionPool.sessions[sessionID] = session
	sessionPool.mu.Unlock()

	logger.Info("Browser session created", "sessionID", sessionID)

	return workflows.RunSession{
		SessionID: sessionID,
		PageURL:   "about:blank",
	}, nil
}

// CloseBrowserActivity closes a browser session
func (a *Activities) CloseBrowserActivity(ctx context.Context, sessionID string) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Closing browser session", "sessionID", sessionID)

	sessionPool.mu.Lock()
	defer sessionPool.mu.Unlock()

	session, ok := sessionPool.sessions[sessionID]
	if !ok {
		return nil // Already closed
	}

	session.Close()
	delete(sessionPool.sessions, sessionID)
	return nil
}

// ExecuteStepActivity executes a single step of the fixed sequence
func (a *Activities) ExecuteStepActivity(ctx context.Context, input workflows.StepInput) (models.StepResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Executing step", "step", input.Step.Name, "sequence", input.Sequence)

	session, ok := sessionPool.get(input.SessionID)
	if !ok {
		return models.StepResult{}, fmt.Errorf("browser session not found: %s", input.SessionID)
	}

	started := time.Now()
	activity.RecordHeartbeat(ctx, fmt.Sprintf("step %d: %s", input.Sequence, input.Step.Name))

	detail, err := assam.Apply(session, input.Step)

	now := time.Now()
	result := models.StepResult{
		ID:         uuid.New().String(),
		Sequence:   input.Sequence,
		Step:       input.Step.Name,
		Status:     models.StatusSuccess,
		CurrentURL: session.CurrentURL(),
		Detail:     detail,
		ExecutedAt: &now,
		Duration:   time.Since(started).Milliseconds(),
	}

	if err != nil {
		result.Status = models.StatusFailed
		result.ErrorMessage = err.Error()
		logger.Error("Step failed", "step", input.Step.Name, "url", result.CurrentURL, "error", err.Error())
		return result, err
	}

	return result, nil
}

// FetchLatestOrderActivity discovers and downloads the newest tariff order
func (a *Activities) FetchLatestOrderActivity(ctx context.Context, input workflows.OrderFetchInput) (string, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Fetching latest order", "sessionID", input.SessionID)

	session, ok := sessionPool.get(input.SessionID)
	if !ok {
		return "", fmt.Errorf("browser session not found: %s", input.SessionID)
	}

	activity.RecordHeartbeat(ctx, "downloading latest order")

	return assam.FetchLatestOrder(ctx, session, input.DownloadDir)
}

// TakeScreenshotActivity captures the current page into the screenshot dir
func (a *Activities) TakeScreenshotActivity(ctx context.Context, input workflows.ScreenshotInput) (string, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Taking screenshot", "sessionID", input.SessionID)

	session, ok := sessionPool.get(input.SessionID)
	if !ok {
		return "", fmt.Errorf("browser session not found: %s", input.SessionID)
	}

	path := filepath.Join(a.ScreenshotDir, input.Filename)
	if err := session.Screenshot(path); err != nil {
		return "", err
	}

	return path, nil
}
