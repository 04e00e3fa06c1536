package main

import (
	"context"
	"fmt"
	"os"

	"github.com/robfig/cron/v3"

	"plusauto-intel/agent"
	"plusauto-intel/config"
	"plusauto-intel/fetcher"
	"plusauto-intel/models"
	"plusauto-intel/report"
	"plusauto-intel/scraper/plusauto"
	"plusauto-intel/storage"
	"plusauto-intel/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Plus-Auto.ro Intelligence Agent starting ===")
	logger.Info("Config - target: %s | pages: %d | dealers: %d | threshold: %.2f | max insights: %d",
		cfg.TargetURL, len(cfg.PagesToAnalyze), len(cfg.DealersToTrack),
		cfg.ConfidenceThreshold, cfg.MaxInsightsPerReport)

	store, err := openStore(cfg)
	if err != nil {
		logger.Error("Failed to open record store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	var fetch fetcher.Fetcher
	switch cfg.FetcherKind {
	case "browser":
		browser := fetcher.NewBrowserFetcher(cfg, logger)
		defer browser.Close()
		fetch = browser
	default:
		fetch = fetcher.NewHTTPFetcher(cfg, logger)
	}

	extractor := plusauto.New(cfg, logger, fetch)
	renderer := report.NewRenderer()
	mailer := report.NewMailer(cfg, logger)
	a := agent.New(cfg, logger, extractor, store, renderer, mailer)

	if cfg.Schedule != "" {
		logger.Info("Running on schedule: %q", cfg.Schedule)
		c := cron.New()
		if _, err := c.AddFunc(cfg.Schedule, func() {
			printResult(a.RunSession(context.Background()))
		}); err != nil {
			logger.Error("Invalid schedule %q: %v", cfg.Schedule, err)
			os.Exit(1)
		}
		c.Run()
		return
	}

	result := a.RunSession(context.Background())
	printResult(result)
	if !result.Success {
		os.Exit(1)
	}
}

func openStore(cfg *config.Config) (storage.SessionStore, error) {
	if cfg.StorageDriver == "postgres" {
		return storage.NewPostgresStore(cfg.DSN())
	}
	return storage.NewSQLiteStore(cfg.SQLitePath)
}

func printResult(r *models.RunResult) {
	fmt.Printf("\n  SESSION RESULTS\n")
	fmt.Printf("  Success: %v\n", r.Success)
	if r.Success {
		fmt.Printf("  Session: %s\n", r.SessionID)
		fmt.Printf("  Insights generated: %d\n", r.InsightsGenerated)
		fmt.Printf("  Confidence: %.0f%%\n", r.ConfidenceAverage*100)
		fmt.Printf("  Execution time: %.1fs\n", r.ExecutionTime.Seconds())
		fmt.Printf("  Report saved: %s\n", r.ReportPath)
		fmt.Printf("  Email sent: %v\n\n", r.EmailSent)
	} else {
		fmt.Printf("  Error: %s\n", r.Error)
		if r.Validation != nil {
			fmt.Printf("  Quality score: %d/100\n\n", r.Validation.QualityScore)
		}
	}
}
