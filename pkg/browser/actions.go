package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod/lib/proto"
)

// Navigate loads a URL and blocks until the page reports load-complete or
// the navigate timeout elapses.
func (s *Session) Navigate(url string) error {
	page := s.page.Timeout(s.opts.NavigateTimeout)

	if err := page.Navigate(url); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &NavigationTimeout{URL: url, Timeout: s.opts.NavigateTimeout, Err: err}
		}
		return fmt.Errorf("navigate to %s: %w", url, err)
	}

	if err := page.WaitLoad(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &NavigationTimeout{URL: url, Timeout: s.opts.NavigateTimeout, Err: err}
		}
		return fmt.Errorf("wait load for %s: %w", url, err)
	}

	return nil
}

// linkTextPattern matches the whole trimmed link text. A label like "2025"
// must not match an unrelated anchor that merely contains it, such as a
// "Tariff 2025-26" notice.
func linkTextPattern(label string) string {
	return `^\s*` + regexp.QuoteMeta(label) + `\s*$`
}

// FindAndClick locates a link whose visible text equals label, within the
// find timeout, and clicks it. It returns as soon as the click is issued,
// it does not wait for the resulting page to settle. When nothing matches,
// the link texts actually present are collected into the ElementNotFound
// error.
func (s *Session) FindAndClick(label string) error {
	page := s.page.Timeout(s.opts.FindTimeout)

	el, err := page.ElementR("a", linkTextPattern(label))
	if err != nil {
		return &ElementNotFound{
			Label:          label,
			URL:            s.CurrentURL(),
			AvailableLinks: s.linkTexts(),
			Err:            err,
		}
	}

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %q: %w", label, err)
	}

	return nil
}

// DismissAlertIfPresent polls for a native dialog for the given window and
// accepts it when one shows up. Absence of a dialog is not an error; the
// returned bool reports whether one was dismissed.
func (s *Session) DismissAlertIfPresent(wait time.Duration) (bool, error) {
	select {
	case e := <-s.dialogs:
		err := proto.PageHandleJavaScriptDialog{Accept: true}.Call(s.page)
		if err != nil {
			return false, fmt.Errorf("accept dialog %q: %w", e.Message, err)
		}
		return true, nil
	case <-time.After(wait):
		return false, nil
	}
}

// Screenshot captures the full rendered page as PNG to the given path,
// overwriting any existing file there.
func (s *Session) Screenshot(path string) error {
	data, err := s.page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	return writeImage(path, data)
}

// Idle blocks for the given wall-clock duration. Used only to let a human
// inspect the final page before teardown.
func (s *Session) Idle(d time.Duration) {
	time.Sleep(d)
}

// HTML returns the current page markup.
func (s *Session) HTML() (string, error) {
	return s.page.HTML()
}

// CurrentURL returns the page's current location, or an empty string when
// the target is gone.
func (s *Session) CurrentURL() string {
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// linkTexts lists the anchor texts present on the page right now, without
// any polling. Diagnostic only.
func (s *Session) linkTexts() []string {
	html, err := s.page.HTML()
	if err != nil {
		return nil
	}
	return anchorTexts(html)
}

func anchorTexts(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var texts []string
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if text != "" {
			texts = append(texts, text)
		}
	})
	return texts
}

// writeImage creates the parent directory if needed and overwrites any
// previous capture at path.
func writeImage(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create screenshot dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save screenshot: %w", err)
	}
	return nil
}
