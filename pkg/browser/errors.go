package browser

import (
	"fmt"
	"strings"
	"time"
)

// LaunchError indicates the browser or its driver could not be started.
// It is fatal, the run aborts immediately.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("browser launch failed: %v", e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// NavigationTimeout indicates the target page did not finish loading
// within the configured wait.
type NavigationTimeout struct {
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *NavigationTimeout) Error() string {
	return fmt.Sprintf("navigation to %s did not settle within %s: %v", e.URL, e.Timeout, e.Err)
}

func (e *NavigationTimeout) Unwrap() error { return e.Err }

// ElementNotFound indicates no element matched the requested text within
// the poll window. AvailableLinks carries the link texts actually present
// on the page to aid manual debugging after site structure changes.
type ElementNotFound struct {
	Label          string
	URL            string
	AvailableLinks []string
	Err            error
}

func (e *ElementNotFound) Error() string {
	if len(e.AvailableLinks) == 0 {
		return fmt.Sprintf("element %q not found on %s", e.Label, e.URL)
	}
	return fmt.Sprintf("element %q not found on %s (links present: %s)",
		e.Label, e.URL, strings.Join(e.AvailableLinks, ", "))
}

func (e *ElementNotFound) Unwrap() error { return e.Err }
