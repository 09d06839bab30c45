package assam

import "time"

// Driver is the seam between the fixed sequence and the browser runtime.
// The rod-backed browser.Session satisfies it; tests substitute a fake.
type Driver interface {
	// Navigate loads a URL and waits for the page to settle.
	Navigate(url string) error
	// FindAndClick clicks a link by visible text and returns immediately.
	FindAndClick(label string) error
	// DismissAlertIfPresent accepts a native dialog if one shows up within
	// the wait window. Absence is not an error.
	DismissAlertIfPresent(wait time.Duration) (bool, error)
	// Screenshot captures the full page as PNG, overwriting path.
	Screenshot(path string) error
	// Idle blocks for a fixed wall-clock duration.
	Idle(d time.Duration)
	// HTML returns the current page markup.
	HTML() (string, error)
	// CurrentURL returns the page's current location.
	CurrentURL() string
	// Close releases the session. Idempotent.
	Close() error
}
