package assam

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
)

const downloadTimeout = 30 * time.Second

// StateDownloadDir creates and returns the per-state directory under the
// downloads root.
func StateDownloadDir(root, state string) (string, error) {
	dir := filepath.Join(root, state)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create download dir %s: %w", dir, err)
	}
	return dir, nil
}

// DownloadOrder streams the PDF at rawURL into dir and returns the file
// path. TLS verification is disabled because the portal serves an
// incomplete certificate chain. The output file is created only after the
// status check, so a failed request leaves nothing behind in dir.
func DownloadOrder(ctx context.Context, rawURL, dir string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid order url %q: %w", rawURL, err)
	}

	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		name = "order.pdf"
	}
	out := filepath.Join(dir, name)

	log.Printf("[%s] Downloading %s...", StateName, name)

	client := resty.New()
	client.SetTimeout(downloadTimeout)
	client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})

	resp, err := client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.RawBody().Close()

	if !resp.IsSuccess() {
		return "", fmt.Errorf("download %s: status code %d", rawURL, resp.StatusCode())
	}

	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", out, err)
	}
	if _, err := io.Copy(f, resp.RawBody()); err != nil {
		f.Close()
		os.Remove(out)
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(out)
		return "", fmt.Errorf("write %s: %w", out, err)
	}

	log.Printf("[%s] File saved to %s", StateName, out)
	return out, nil
}
