package browser

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Options configures a browser session
type Options struct {
	Headless     bool
	WindowWidth  int
	WindowHeight int

	// NavigateTimeout bounds page loads, FindTimeout bounds element polling.
	NavigateTimeout time.Duration
	FindTimeout     time.Duration
}

// DefaultOptions returns the options used by the fixed sequence
func DefaultOptions() Options {
	return Options{
		Headless:        true,
		WindowWidth:     1366,
		WindowHeight:    900,
		NavigateTimeout: 30 * time.Second,
		FindTimeout:     15 * time.Second,
	}
}

// Session owns one live browser instance. It is created by Start, passed
// explicitly through the sequence of steps, and released by Close. At most
// one page is driven per session.
type Session struct {
	browser *rod.Browser
	page    *rod.Page
	opts    Options

	dialogs chan *proto.PageJavascriptDialogOpening

	closeOnce sync.Once
	closeErr  error
}

// Start launches a browser under automated control and opens a blank page.
// A LaunchError is returned when the browser binary or the devtools
// connection cannot be brought up.
func Start(opts Options) (*Session, error) {
	l := launcher.New()

	// Use CHROME_BIN if set (Docker environment)
	if chromeBin := os.Getenv("CHROME_BIN"); chromeBin != "" {
		l = l.Bin(chromeBin)
	}

	l = l.Headless(opts.Headless)

	// Chrome flags for Docker compatibility
	l = l.Set("no-sandbox")
	l = l.Set("disable-gpu")
	l = l.Set("disable-dev-shm-usage")
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		l = l.Set("window-size", fmt.Sprintf("%d,%d", opts.WindowWidth, opts.WindowHeight))
	}

	url, err := l.Launch()
	if err != nil {
		return nil, &LaunchError{Err: err}
	}

	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		return nil, &LaunchError{Err: err}
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		b.Close()
		return nil, &LaunchError{Err: err}
	}

	s := &Session{
		browser: b,
		page:    page,
		opts:    opts,
		dialogs: make(chan *proto.PageJavascriptDialogOpening, 4),
	}

	// Dialog events must be collected from the moment the page exists,
	// otherwise one opening before DismissAlertIfPresent is missed and
	// every later CDP call on the page hangs.
	go page.EachEvent(func(e *proto.PageJavascriptDialogOpening) {
		select {
		case s.dialogs <- e:
		default:
		}
	})()

	return s, nil
}

// Close releases the browser session. It is idempotent and safe to call
// even if the session never fully started; the close error is recorded but
// repeat calls never re-close.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.browser != nil {
			s.closeErr = s.browser.Close()
		}
	})
	return s.closeErr
}
