package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/app"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/config"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/scraper"
)

func main() {
	// Flags
	output := flag.String("output", "", "Output file for the JSON snapshot")
	noCache := flag.Bool("no-cache", false, "Skip the snapshot cache")
	attempts := flag.Int("attempts", 0, "Scrape attempts (default: SCRAPER_MAX_ATTEMPTS)")
	timeout := flag.Duration("timeout", 5*time.Minute, "Scrape timeout")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: scrape [flags] <amazon-url>")
		os.Exit(2)
	}
	rawURL := flag.Arg(0)

	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                Amazon Product Scraper CLI                    ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var store scraper.Cache
	if !*noCache {
		s, closeStore, err := app.NewStore(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = closeStore() }()
		store = s
	}

	orch, closeScraper, err := app.NewScraper(cfg.Scraper, store, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = closeScraper() }()

	fmt.Printf("URL: %s\n", rawURL)
	fmt.Printf("Mode: %s\n", map[bool]string{true: "Headless browser", false: "HTTP"}[cfg.Scraper.BrowserEnabled])
	fmt.Println()

	startTime := time.Now()
	result, err := orch.ScrapeWithRetry(ctx, rawURL, *attempts)
	orch.FinishRun()
	elapsed := time.Since(startTime)

	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	snap := result.Snapshot
	price := "N/A"
	if snap.Price.Valid {
		price = snap.Price.Decimal.StringFixed(2) + " " + snap.Currency
	}

	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("                    RESULT (%.1fs elapsed)\n", elapsed.Seconds())
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("ASIN:         %s\n", snap.ASIN)
	fmt.Printf("Marketplace:  %s (%s)\n", snap.Marketplace, snap.Country)
	fmt.Printf("Title:        %s\n", snap.Title)
	fmt.Printf("Price:        %s\n", price)
	fmt.Printf("Availability: %s\n", snap.Availability)
	fmt.Printf("Images:       %d\n", len(snap.Images))
	fmt.Printf("Cached:       %t\n", result.Cached)
	fmt.Println("═══════════════════════════════════════════════════════════════")

	if *output != "" {
		data, _ := json.MarshalIndent(snap, "", "  ")
		if err := os.WriteFile(*output, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\n✅ Wrote snapshot to %s\n", *output)
	}
}
