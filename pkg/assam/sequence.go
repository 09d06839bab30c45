package assam

import (
	"context"
	"log"
	"time"

	"dev/gridwatch/regulatory-automation-go/pkg/models"
)

// StateName identifies the regulator this sequence targets.
const StateName = "Assam"

// Fixed navigation targets on the government portal.
const (
	DefaultStartURL    = "https://aerc.gov.in"
	CommissionLinkText = "Assam Electricity Regulatory Commission"
	DocumentsLinkText  = "Documents"
	OrdersLinkText     = "Orders"
)

// StepKind classifies what a step does to the session
type StepKind string

const (
	StepNavigate     StepKind = "navigate"
	StepClick        StepKind = "click"
	StepDismissAlert StepKind = "dismiss_alert"
	StepScreenshot   StepKind = "screenshot"
	StepIdle         StepKind = "idle"
)

// Step is one entry of the fixed sequence. Optional steps log their failure
// and let the run continue; all others abort it.
type Step struct {
	Name     string   `json:"name"`
	Kind     StepKind `json:"kind"`
	Target   string   `json:"target,omitempty"`
	WaitMS   int64    `json:"wait_ms,omitempty"`
	Optional bool     `json:"optional,omitempty"`
}

// Config holds the knobs of a run. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	StartURL         string
	ScreenshotPath   string
	DownloadDir      string
	AlertWait        time.Duration
	IdleAfter        time.Duration
	FetchLatestOrder bool
}

// DefaultConfig returns the configuration of an unattended run
func DefaultConfig() Config {
	return Config{
		StartURL:       DefaultStartURL,
		ScreenshotPath: "orders.png",
		DownloadDir:    "downloads",
		AlertWait:      3 * time.Second,
		IdleAfter:      5 * time.Second,
	}
}

// Steps returns the fixed sequence for the given configuration. The order
// is load the portal, open the commission site, clear the entry notice,
// then Documents, then Orders, capture the page, and idle for inspection.
func Steps(cfg Config) []Step {
	return []Step{
		{Name: "open_portal", Kind: StepNavigate, Target: cfg.StartURL},
		{Name: "open_commission_site", Kind: StepClick, Target: CommissionLinkText},
		{Name: "dismiss_notice", Kind: StepDismissAlert, WaitMS: cfg.AlertWait.Milliseconds(), Optional: true},
		{Name: "open_documents", Kind: StepClick, Target: DocumentsLinkText},
		{Name: "open_orders", Kind: StepClick, Target: OrdersLinkText},
		{Name: "capture_orders_page", Kind: StepScreenshot, Target: cfg.ScreenshotPath},
		{Name: "inspect_idle", Kind: StepIdle, WaitMS: cfg.IdleAfter.Milliseconds()},
	}
}

// Apply executes a single step against the driver and returns a short
// human-readable detail for the run record.
func Apply(drv Driver, step Step) (string, error) {
	switch step.Kind {
	case StepNavigate:
		return step.Target, drv.Navigate(step.Target)

	case StepClick:
		return step.Target, drv.FindAndClick(step.Target)

	case StepDismissAlert:
		dismissed, err := drv.DismissAlertIfPresent(time.Duration(step.WaitMS) * time.Millisecond)
		if err != nil {
			return "", err
		}
		if dismissed {
			return "dialog accepted", nil
		}
		return "no dialog present", nil

	case StepScreenshot:
		return step.Target, drv.Screenshot(step.Target)

	case StepIdle:
		drv.Idle(time.Duration(step.WaitMS) * time.Millisecond)
		return "", nil

	default:
		return "", nil
	}
}

// Report is the outcome of a full run
type Report struct {
	State          string
	Steps          []models.StepResult
	ScreenshotPath string
	OrderFilePath  string
	Err            error
}

// Run drives the fixed sequence against the session. The session is
// released exactly once on every exit path, including mid-sequence aborts.
func Run(ctx context.Context, drv Driver, cfg Config) Report {
	report := Report{State: StateName}
	defer drv.Close()

	for i, step := range Steps(cfg) {
		log.Printf("[%s] %s...", StateName, step.Name)
		started := time.Now()

		detail, err := Apply(drv, step)

		res := models.StepResult{
			Sequence:   i + 1,
			Step:       step.Name,
			Status:     models.StatusSuccess,
			CurrentURL: drv.CurrentURL(),
			Detail:     detail,
			Duration:   time.Since(started).Milliseconds(),
		}

		if err != nil {
			res.Status = models.StatusFailed
			res.ErrorMessage = err.Error()
			report.Steps = append(report.Steps, res)

			if step.Optional {
				log.Printf("[%s] %s failed, continuing: %v", StateName, step.Name, err)
				continue
			}

			log.Printf("[%s] %s failed at %s: %v", StateName, step.Name, drv.CurrentURL(), err)
			report.Err = err
			return report
		}

		report.Steps = append(report.Steps, res)
	}

	report.ScreenshotPath = cfg.ScreenshotPath

	if cfg.FetchLatestOrder {
		path, err := FetchLatestOrder(ctx, drv, cfg.DownloadDir)
		if err != nil {
			log.Printf("[%s] order download failed: %v", StateName, err)
			report.Err = err
			return report
		}
		report.OrderFilePath = path
	}

	return report
}
