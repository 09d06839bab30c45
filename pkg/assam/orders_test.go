package assam

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const ordersPageHTML = `<html><body>
<div class="years">
	<a href="/pages/sub/orders?year=2023">2023</a>
	<a href="/pages/sub/orders?year=2025">2025</a>
	<a href="/pages/sub/orders?year=2024">2024</a>
	<a href="/pages/sub/orders?year=2024">2024</a>
	<a href="/pages/sub/orders?year=all">All</a>
	<a href="/pages/about">About</a>
</div>
<table>
	<tr><th>Date</th><th>Subject</th><th>Download</th></tr>
	<tr>
		<td>12.03.2025 &amp; 20.03.2025</td>
		<td>Tariff Order for APDCL FY 2025-26</td>
		<td><a href="files/tariff_2025.pdf">PDF</a></td>
	</tr>
	<tr>
		<td>01.02.2024</td>
		<td>TARIFF ORDER of APDCL FY 2024-25</td>
		<td><a href="files/tariff_2024.pdf">PDF</a></td>
	</tr>
	<tr>
		<td>15.05.2025</td>
		<td>Transmission tariff order for AEGCL</td>
		<td><a href="files/aegcl.pdf">PDF</a></td>
	</tr>
	<tr>
		<td>NA</td>
		<td>Tariff Order APDCL corrigendum</td>
		<td><a href="files/corrigendum.pdf">PDF</a></td>
	</tr>
</table>
</body></html>`

func TestYears(t *testing.T) {
	years := Years(ordersPageHTML)

	want := []int{2025, 2024, 2023}
	if len(years) != len(want) {
		t.Fatalf("Years() = %v, want %v", years, want)
	}
	for i := range want {
		if years[i] != want[i] {
			t.Errorf("Years()[%d] = %d, want %d", i, years[i], want[i])
		}
	}
}

func TestParseOrders(t *testing.T) {
	base, _ := url.Parse("https://aerc.gov.in/pages/sub/orders?year=2025")
	orders := ParseOrders(ordersPageHTML, base)

	// The AEGCL row has no APDCL marker and must be skipped.
	if len(orders) != 3 {
		t.Fatalf("ParseOrders() returned %d orders, want 3", len(orders))
	}

	first := orders[0]
	if first.URL != "https://aerc.gov.in/pages/sub/files/tariff_2025.pdf" {
		t.Errorf("resolved URL = %q", first.URL)
	}
	if first.DateText != "12.03.2025 & 20.03.2025" {
		t.Errorf("DateText = %q", first.DateText)
	}
	wantDate := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	if !first.Date.Equal(wantDate) {
		t.Errorf("Date = %v, want %v", first.Date, wantDate)
	}

	// Unparseable date yields the zero time.
	if !orders[2].Date.IsZero() {
		t.Errorf("unparseable date = %v, want zero time", orders[2].Date)
	}
}

func TestParseOrderDate(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want time.Time
	}{
		{"12.03.2025", true, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)},
		{"12.03.2025 & 20.03.2025", true, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)},
		{" 01.02.2024 ", true, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"NA", false, time.Time{}},
		{"2025-03-12", false, time.Time{}},
		{"", false, time.Time{}},
	}

	for _, tt := range tests {
		got, ok := parseOrderDate(tt.in)
		if ok != tt.ok {
			t.Errorf("parseOrderDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("parseOrderDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLatestOrder(t *testing.T) {
	base, _ := url.Parse("https://aerc.gov.in/pages/sub/orders")
	orders := ParseOrders(ordersPageHTML, base)

	latest, ok := LatestOrder(orders)
	if !ok {
		t.Fatal("LatestOrder() found nothing")
	}
	if latest.DateText != "12.03.2025 & 20.03.2025" {
		t.Errorf("latest order = %q, want the 12.03.2025 row", latest.DateText)
	}

	if _, ok := LatestOrder(nil); ok {
		t.Error("LatestOrder(nil) ok = true, want false")
	}
}

func TestDownloadOrder(t *testing.T) {
	payload := []byte("%PDF-1.4 fake tariff order")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	path, err := DownloadOrder(context.Background(), srv.URL+"/files/tariff_2025.pdf", dir)
	if err != nil {
		t.Fatalf("DownloadOrder() error = %v", err)
	}

	if filepath.Base(path) != "tariff_2025.pdf" {
		t.Errorf("downloaded file name = %q, want tariff_2025.pdf", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("downloaded %d bytes, want %d", len(data), len(payload))
	}
}

func TestDownloadOrderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	if _, err := DownloadOrder(context.Background(), srv.URL+"/missing.pdf", dir); err == nil {
		t.Fatal("DownloadOrder() error = nil, want status error")
	}

	// The error body must not end up on disk as a fake PDF.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read download dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("download dir holds %d files after failed download, want none (first: %s)",
			len(entries), entries[0].Name())
	}
}

func TestFetchLatestOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	html := `<html><body>
		<a href="?year=2024">2024</a>
		<a href="?year=2025">2025</a>
		<table><tr>
			<td>12.03.2025</td>
			<td>Tariff Order APDCL</td>
			<td><a href="` + srv.URL + `/tariff.pdf">PDF</a></td>
		</tr></table>
	</body></html>`

	drv := &fakeDriver{pages: []fakePage{{
		url:   "https://aerc.gov.in/pages/sub/orders",
		links: []string{"2024", "2025"},
		html:  html,
	}}}

	root := t.TempDir()
	path, err := FetchLatestOrder(context.Background(), drv, root)
	if err != nil {
		t.Fatalf("FetchLatestOrder() error = %v", err)
	}

	if len(drv.clicks) != 1 || drv.clicks[0] != "2025" {
		t.Errorf("clicks = %v, want [2025]", drv.clicks)
	}
	wantPath := filepath.Join(root, StateName, "tariff.pdf")
	if path != wantPath {
		t.Errorf("downloaded path = %q, want %q", path, wantPath)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("downloaded file missing: %v", err)
	}
}

func TestFetchLatestOrderNoYears(t *testing.T) {
	drv := &fakeDriver{pages: []fakePage{{
		url:  "https://aerc.gov.in/pages/sub/orders",
		html: "<html><body><p>maintenance</p></body></html>",
	}}}

	if _, err := FetchLatestOrder(context.Background(), drv, t.TempDir()); err == nil {
		t.Fatal("FetchLatestOrder() error = nil, want no-year-links error")
	}
}
