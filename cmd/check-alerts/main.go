package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/app"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/apperror"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/config"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/logger"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/service"
)

func main() {
	productID := flag.Int64("product-id", 0, "Only check alerts of this product")
	send := flag.Bool("send-notifications", false, "Hand off notifications for triggered alerts")
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

	opts := service.AlertCheckOptions{SendNotifications: *send}
	if *productID > 0 {
		opts.ProductID = productID
	}

	report, err := a.AlertSvc.CheckAlerts(ctx, opts)
	if err != nil {
		if apperror.IsNotFound(err) {
			fmt.Fprintf(os.Stderr, "Product %d not found\n", *productID)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		_ = a.Close()
		os.Exit(1)
	}

	fmt.Printf("Products checked: %d\n", report.ProductsChecked)
	if len(report.Triggered) == 0 {
		fmt.Println("No alerts triggered")
	}
	for _, alert := range report.Triggered {
		fmt.Printf("🎯 Alert %d (%s) triggered for product %d at target %s\n",
			alert.ID, alert.AlertType, alert.ProductID, alert.TargetPrice.StringFixed(2))
	}
	if report.Errors > 0 {
		fmt.Printf("Errors: %d\n", report.Errors)
	}
}
