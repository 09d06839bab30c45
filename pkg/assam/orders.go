package assam

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"dev/gridwatch/regulatory-automation-go/pkg/models"
)

// The orders table prints dates as dd.mm.yyyy, sometimes suffixed with
// "& <corrigendum date>".
const orderDateLayout = "02.01.2006"

// Rows are selected when they mention both markers, case-insensitively.
const (
	orderMarker   = "TARIFF ORDER"
	utilityMarker = "APDCL"
)

const tableWaitTimeout = 15 * time.Second

// Years extracts the archive years linked from the orders page, newest
// first. Only anchors with a year= query and a 4-digit label count.
func Years(html string) []int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := make(map[int]bool)
	var years []int
	doc.Find("a[href*='year=']").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		year, err := strconv.Atoi(text)
		if err != nil || len(text) != 4 {
			return
		}
		if !seen[year] {
			seen[year] = true
			years = append(years, year)
		}
	})

	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// ParseOrders scans the orders table for rows carrying both markers and
// returns one document per row that has a date cell and a PDF anchor.
// Relative hrefs are resolved against base when it is non-nil.
func ParseOrders(html string, base *url.URL) []models.OrderDocument {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var orders []models.OrderDocument
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		rowText := strings.ToUpper(row.Text())
		if !strings.Contains(rowText, orderMarker) || !strings.Contains(rowText, utilityMarker) {
			return
		}

		cols := row.Find("td")
		if cols.Length() < 3 {
			return
		}

		href, ok := cols.Eq(2).Find("a").First().Attr("href")
		if !ok || href == "" {
			return
		}
		if base != nil {
			if resolved, err := base.Parse(href); err == nil {
				href = resolved.String()
			}
		}

		dateText := strings.TrimSpace(cols.Eq(0).Text())
		date, _ := parseOrderDate(dateText)

		orders = append(orders, models.OrderDocument{
			Title:    strings.Join(strings.Fields(cols.Eq(1).Text()), " "),
			DateText: dateText,
			Date:     date,
			URL:      href,
		})
	})

	return orders
}

// parseOrderDate reads the leading dd.mm.yyyy out of a date cell. A cell
// like "12.03.2025 & 20.03.2025" uses the first date only.
func parseOrderDate(s string) (time.Time, bool) {
	if i := strings.Index(s, "&"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)

	t, err := time.Parse(orderDateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// LatestOrder picks the newest document by order date. Documents with an
// unparseable date carry the zero time and therefore sort last.
func LatestOrder(orders []models.OrderDocument) (models.OrderDocument, bool) {
	if len(orders) == 0 {
		return models.OrderDocument{}, false
	}

	latest := orders[0]
	for _, o := range orders[1:] {
		if o.Date.After(latest.Date) {
			latest = o
		}
	}
	return latest, true
}

// FetchLatestOrder discovers the newest APDCL tariff order on the current
// orders page and downloads its PDF into the state's download directory.
// It expects the driver to already be on the Orders section.
func FetchLatestOrder(ctx context.Context, drv Driver, downloadRoot string) (string, error) {
	log.Printf("[%s] Detecting available years...", StateName)
	html, err := drv.HTML()
	if err != nil {
		return "", fmt.Errorf("read orders page: %w", err)
	}

	years := Years(html)
	if len(years) == 0 {
		return "", fmt.Errorf("no year links found on %s", drv.CurrentURL())
	}

	latestYear := years[0]
	log.Printf("[%s] Selecting latest available year: %d", StateName, latestYear)
	if err := drv.FindAndClick(strconv.Itoa(latestYear)); err != nil {
		return "", err
	}

	html, err = waitForTable(drv, tableWaitTimeout)
	if err != nil {
		return "", err
	}

	var base *url.URL
	if current := drv.CurrentURL(); current != "" {
		base, _ = url.Parse(current)
	}

	log.Printf("[%s] Searching for %s and %s in %d...", StateName, orderMarker, utilityMarker, latestYear)
	orders := ParseOrders(html, base)
	target, ok := LatestOrder(orders)
	if !ok {
		return "", fmt.Errorf("no matching order found for %d", latestYear)
	}

	log.Printf("[%s] Found most recent order from %s: %s", StateName, target.DateText, target.URL)

	dir, err := StateDownloadDir(downloadRoot, StateName)
	if err != nil {
		return "", err
	}
	return DownloadOrder(ctx, target.URL, dir)
}

// waitForTable polls the page until a table shows up instead of sleeping a
// fixed amount.
func waitForTable(drv Driver, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		html, err := drv.HTML()
		if err != nil {
			return "", fmt.Errorf("read page while waiting for table: %w", err)
		}
		if strings.Contains(html, "<table") {
			return html, nil
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("orders table did not appear within %s on %s", timeout, drv.CurrentURL())
		}
		time.Sleep(500 * time.Millisecond)
	}
}
