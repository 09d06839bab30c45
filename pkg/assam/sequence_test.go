package assam

import (
	"context"
	"errors"
	"testing"
	"time"

	"dev/gridwatch/regulatory-automation-go/pkg/browser"
	"dev/gridwatch/regulatory-automation-go/pkg/models"
)

// fakePage is one page of the simulated site, shown after the previous
// page's link was clicked.
type fakePage struct {
	url   string
	links []string
	html  string
}

type fakeDriver struct {
	pages []fakePage
	page  int

	dialog bool

	navigations []string
	clicks      []string
	screenshots []string
	dismissals  int
	closeCount  int

	navigateErr error
}

func (d *fakeDriver) current() fakePage {
	if d.page < len(d.pages) {
		return d.pages[d.page]
	}
	return fakePage{}
}

func (d *fakeDriver) Navigate(url string) error {
	if d.navigateErr != nil {
		return d.navigateErr
	}
	d.navigations = append(d.navigations, url)
	d.page = 0
	return nil
}

func (d *fakeDriver) FindAndClick(label string) error {
	page := d.current()
	for _, link := range page.links {
		if link == label {
			d.clicks = append(d.clicks, label)
			if d.page < len(d.pages)-1 {
				d.page++
			}
			return nil
		}
	}
	return &browser.ElementNotFound{
		Label:          label,
		URL:            page.url,
		AvailableLinks: page.links,
	}
}

func (d *fakeDriver) DismissAlertIfPresent(wait time.Duration) (bool, error) {
	d.dismissals++
	if d.dialog {
		d.dialog = false
		return true, nil
	}
	return false, nil
}

func (d *fakeDriver) Screenshot(path string) error {
	d.screenshots = append(d.screenshots, path)
	return nil
}

func (d *fakeDriver) Idle(time.Duration)    {}
func (d *fakeDriver) HTML() (string, error) { return d.current().html, nil }
func (d *fakeDriver) CurrentURL() string    { return d.current().url }

func (d *fakeDriver) Close() error {
	d.closeCount++
	return nil
}

// aercPages simulates the portal: entry page, commission site, Documents
// menu, Orders section.
func aercPages() []fakePage {
	return []fakePage{
		{url: "https://portal.example/", links: []string{"Home", "Assam Electricity Regulatory Commission"}},
		{url: "https://aerc.gov.in/", links: []string{"About Us", "Documents"}},
		{url: "https://aerc.gov.in/pages/documents", links: []string{"Orders", "Regulations"}},
		{url: "https://aerc.gov.in/pages/sub/orders", links: []string{"2024", "2025"}},
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.AlertWait = time.Millisecond
	cfg.IdleAfter = 0
	cfg.ScreenshotPath = "orders.png"
	return cfg
}

func TestRunClicksInOrderAndCapturesOnce(t *testing.T) {
	drv := &fakeDriver{pages: aercPages()}

	report := Run(context.Background(), drv, testConfig())

	if report.Err != nil {
		t.Fatalf("Run() error = %v, want nil", report.Err)
	}

	wantClicks := []string{"Assam Electricity Regulatory Commission", "Documents", "Orders"}
	if len(drv.clicks) != len(wantClicks) {
		t.Fatalf("clicks = %v, want %v", drv.clicks, wantClicks)
	}
	for i, want := range wantClicks {
		if drv.clicks[i] != want {
			t.Errorf("clicks[%d] = %q, want %q", i, drv.clicks[i], want)
		}
	}

	if len(drv.screenshots) != 1 {
		t.Errorf("screenshot calls = %d, want exactly 1", len(drv.screenshots))
	}
	if len(drv.screenshots) == 1 && drv.screenshots[0] != "orders.png" {
		t.Errorf("screenshot path = %q, want %q", drv.screenshots[0], "orders.png")
	}
	if drv.closeCount != 1 {
		t.Errorf("Close() called %d times, want exactly 1", drv.closeCount)
	}
	if report.ScreenshotPath != "orders.png" {
		t.Errorf("report.ScreenshotPath = %q, want %q", report.ScreenshotPath, "orders.png")
	}

	for _, step := range report.Steps {
		if step.Status != models.StatusSuccess {
			t.Errorf("step %s status = %s, want success", step.Step, step.Status)
		}
	}
}

func TestRunAbortsWhenDocumentsLinkMissing(t *testing.T) {
	pages := aercPages()
	pages[1].links = []string{"About Us", "Contact", "Tenders"}
	drv := &fakeDriver{pages: pages}

	report := Run(context.Background(), drv, testConfig())

	if report.Err == nil {
		t.Fatal("Run() error = nil, want ElementNotFound")
	}

	var notFound *browser.ElementNotFound
	if !errors.As(report.Err, &notFound) {
		t.Fatalf("Run() error = %v, want *browser.ElementNotFound", report.Err)
	}
	if notFound.Label != "Documents" {
		t.Errorf("missing element = %q, want %q", notFound.Label, "Documents")
	}

	// The diagnostic must carry the links actually present.
	if len(notFound.AvailableLinks) != 3 || notFound.AvailableLinks[1] != "Contact" {
		t.Errorf("AvailableLinks = %v, want the page's links", notFound.AvailableLinks)
	}

	if len(drv.screenshots) != 0 {
		t.Errorf("screenshot calls = %d, want 0 on aborted run", len(drv.screenshots))
	}
	if drv.closeCount != 1 {
		t.Errorf("Close() called %d times, want exactly 1", drv.closeCount)
	}
}

func TestRunShutdownOnceWhenNavigationFails(t *testing.T) {
	drv := &fakeDriver{
		pages:       aercPages(),
		navigateErr: &browser.NavigationTimeout{URL: DefaultStartURL, Timeout: time.Second},
	}

	report := Run(context.Background(), drv, testConfig())

	if report.Err == nil {
		t.Fatal("Run() error = nil, want NavigationTimeout")
	}
	var timeout *browser.NavigationTimeout
	if !errors.As(report.Err, &timeout) {
		t.Fatalf("Run() error = %v, want *browser.NavigationTimeout", report.Err)
	}
	if drv.closeCount != 1 {
		t.Errorf("Close() called %d times, want exactly 1", drv.closeCount)
	}
	if len(drv.clicks) != 0 {
		t.Errorf("clicks = %v, want none after failed navigation", drv.clicks)
	}
}

func TestDismissAlertIsNoopWithoutDialog(t *testing.T) {
	drv := &fakeDriver{pages: aercPages()}

	report := Run(context.Background(), drv, testConfig())

	if report.Err != nil {
		t.Fatalf("Run() error = %v, want nil", report.Err)
	}
	if drv.dismissals != 1 {
		t.Fatalf("dismiss calls = %d, want 1", drv.dismissals)
	}

	var notice *models.StepResult
	for i := range report.Steps {
		if report.Steps[i].Step == "dismiss_notice" {
			notice = &report.Steps[i]
		}
	}
	if notice == nil {
		t.Fatal("dismiss_notice step missing from report")
	}
	if notice.Status != models.StatusSuccess {
		t.Errorf("dismiss_notice status = %s, want success", notice.Status)
	}
	if notice.Detail != "no dialog present" {
		t.Errorf("dismiss_notice detail = %q, want %q", notice.Detail, "no dialog present")
	}
}

func TestDismissAlertAcceptsPresentDialog(t *testing.T) {
	drv := &fakeDriver{pages: aercPages(), dialog: true}

	report := Run(context.Background(), drv, testConfig())

	if report.Err != nil {
		t.Fatalf("Run() error = %v, want nil", report.Err)
	}
	for _, step := range report.Steps {
		if step.Step == "dismiss_notice" && step.Detail != "dialog accepted" {
			t.Errorf("dismiss_notice detail = %q, want %q", step.Detail, "dialog accepted")
		}
	}
}

func TestStepsOrder(t *testing.T) {
	steps := Steps(testConfig())

	wantNames := []string{
		"open_portal",
		"open_commission_site",
		"dismiss_notice",
		"open_documents",
		"open_orders",
		"capture_orders_page",
		"inspect_idle",
	}

	if len(steps) != len(wantNames) {
		t.Fatalf("len(Steps()) = %d, want %d", len(steps), len(wantNames))
	}
	for i, want := range wantNames {
		if steps[i].Name != want {
			t.Errorf("steps[%d].Name = %q, want %q", i, steps[i].Name, want)
		}
	}

	// The screenshot must come only after the Orders section is reached.
	for i, step := range steps {
		if step.Kind == StepScreenshot && i < 5 {
			t.Errorf("screenshot step at index %d, want after the Orders click", i)
		}
	}
}
