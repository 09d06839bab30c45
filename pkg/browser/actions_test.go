package browser

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestLinkTextPattern(t *testing.T) {
	tests := []struct {
		label string
		text  string
		match bool
	}{
		{"2025", "2025", true},
		{"2025", "  2025 ", true},
		{"2025", "Tariff 2025-26 notice", false},
		{"2025", "2025-26", false},
		{"Documents", "Documents", true},
		{"Documents", "All Documents", false},
		{"Orders", "Orders & Regulations", false},
	}

	for _, tt := range tests {
		re := regexp.MustCompile(linkTextPattern(tt.label))
		if got := re.MatchString(tt.text); got != tt.match {
			t.Errorf("linkTextPattern(%q) match %q = %v, want %v", tt.label, tt.text, got, tt.match)
		}
	}
}

func TestAnchorTexts(t *testing.T) {
	html := `<html><body>
		<a href="/pages/aerc">Assam Electricity Regulatory Commission</a>
		<a href="/docs">  Documents
		</a>
		<a href="/empty"><img src="x.png"></a>
		<p>Orders</p>
	</body></html>`

	got := anchorTexts(html)
	want := []string{"Assam Electricity Regulatory Commission", "Documents"}

	if len(got) != len(want) {
		t.Fatalf("anchorTexts() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("anchorTexts()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWriteImageOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shots", "orders.png")

	if err := writeImage(path, []byte("old-bytes-old-bytes")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := writeImage(path, []byte("new")); err != nil {
		t.Fatalf("second write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "new" {
		t.Errorf("file content = %q, want %q", data, "new")
	}
	if len(data) == 0 {
		t.Error("screenshot file is empty after write")
	}
}

func TestElementNotFoundError(t *testing.T) {
	err := &ElementNotFound{
		Label:          "Documents",
		URL:            "https://aerc.gov.in/pages/aerc",
		AvailableLinks: []string{"Home", "Orders"},
	}

	msg := err.Error()
	for _, want := range []string{"Documents", "Home", "Orders", "aerc.gov.in"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q missing %q", msg, want)
		}
	}
}
