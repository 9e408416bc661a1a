package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/app"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/config"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/logger"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/service"
)

func main() {
	limit := flag.Int("limit", 50, "Maximum number of products to check")
	userID := flag.Int64("user", 0, "Only check products of this user")
	productID := flag.Int64("product", 0, "Only check this product")
	flag.Parse()

	cfg := config.Load()
	log := logger.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = a.Close() }()

	opts := service.PriceCheckOptions{Limit: *limit}
	if *productID > 0 {
		opts.ProductID = productID
	} else if *userID > 0 {
		opts.UserID = userID
	}

	fmt.Println("Checking product prices...")

	report, err := a.PriceCheck.CheckPrices(ctx, opts)
	if report != nil {
		fmt.Println()
		fmt.Printf("Updated: %d\n", report.Updated)
		fmt.Printf("Price changes: %d\n", report.PriceChanges)
		fmt.Printf("Errors: %d\n", report.Errors)
		fmt.Printf("Alerts triggered: %d\n", report.Triggered)
	}
	if err != nil {
		log.Error("Price check interrupted", slog.String("error", err.Error()))
	}
}
