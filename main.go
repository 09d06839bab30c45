package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"dev/gridwatch/regulatory-automation-go/pkg/assam"
	"dev/gridwatch/regulatory-automation-go/pkg/browser"
)

func main() {
	headless := flag.Bool("headless", true, "run the browser without a visible window")
	screenshot := flag.String("screenshot", "orders.png", "screenshot output path, overwritten each run")
	downloads := flag.String("downloads", "downloads", "root directory for downloaded orders")
	idle := flag.Duration("idle", 5*time.Second, "how long to keep the final page open for inspection")
	fetchOrder := flag.Bool("fetch-order", false, "also download the latest APDCL tariff order PDF")
	navTimeout := flag.Duration("nav-timeout", 30*time.Second, "page load timeout")
	flag.Parse()

	start := time.Now()

	cfg := assam.DefaultConfig()
	cfg.ScreenshotPath = *screenshot
	cfg.DownloadDir = *downloads
	cfg.IdleAfter = *idle
	cfg.FetchLatestOrder = *fetchOrder

	opts := browser.DefaultOptions()
	opts.Headless = *headless
	opts.NavigateTimeout = *navTimeout

	log.Printf("[%s] Launching browser...", assam.StateName)
	session, err := browser.Start(opts)
	if err != nil {
		log.Printf("[%s] %v", assam.StateName, err)
		printSummary(false, time.Since(start))
		os.Exit(1)
	}

	report := assam.Run(context.Background(), session, cfg)

	ok := report.Err == nil
	if ok {
		log.Printf("[%s] Screenshot saved to %s", assam.StateName, report.ScreenshotPath)
		if report.OrderFilePath != "" {
			log.Printf("[%s] Latest order saved to %s", assam.StateName, report.OrderFilePath)
		}
	}
	log.Printf("[%s] Process complete.", assam.StateName)

	printSummary(ok, time.Since(start))
	if !ok {
		os.Exit(1)
	}
}

func printSummary(ok bool, elapsed time.Duration) {
	status := "Failed"
	if ok {
		status = "Completed"
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 40))
	fmt.Printf("%-15s | %-20s\n", "STATE", "AUTOMATION STATUS")
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("%-15s | %-20s\n", assam.StateName, status)
	fmt.Println(strings.Repeat("=", 40))
	fmt.Printf("Total time taken: %.2f seconds\n", elapsed.Seconds())
}
