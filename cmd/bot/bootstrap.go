package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/oysmal/emoji-stock-trader/internal/budget"
	"github.com/oysmal/emoji-stock-trader/internal/engine"
	"github.com/oysmal/emoji-stock-trader/internal/engine/engineobs"
	"github.com/oysmal/emoji-stock-trader/internal/exchange"
	"github.com/oysmal/emoji-stock-trader/internal/exchange/exchangeobs"
	"github.com/oysmal/emoji-stock-trader/internal/interfaces"
	"github.com/oysmal/emoji-stock-trader/internal/logger"
	"github.com/oysmal/emoji-stock-trader/internal/news"
	"github.com/oysmal/emoji-stock-trader/internal/report"
	"github.com/oysmal/emoji-stock-trader/internal/report/reportobs"
	"github.com/oysmal/emoji-stock-trader/internal/store"
	"github.com/oysmal/emoji-stock-trader/internal/trace"
	"github.com/oysmal/emoji-stock-trader/internal/tradelog"

	"github.com/joho/godotenv"
)

// initializeSystem loads the environment and brings up logging and tracing.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	initializeReport()
	return nil
}

// initializeReport wraps the default session summarizer with observability.
func initializeReport() {
	report.SetDefaultSummarizer(reportobs.Wrap(report.NewSummarizer()))
}

// compressOldLogs gzips trade logs past the configured retention.
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("TRADER_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

// initializeExchange builds the venue client, gates it behind the request
// budget and wraps it with observability. In LIVE mode without an API key it
// registers the team first.
func initializeExchange(ctx context.Context, cfg *store.Config) (interfaces.Exchange, error) {
	apiKey := os.Getenv("EXCHANGE_API_KEY")

	base, err := exchange.New(cfg, apiKey)
	if err != nil {
		return nil, err
	}
	if cfg.Mode == "DRY_RUN" {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
	}

	window := budget.New(cfg.Exchange.RequestsPerSecond, time.Second)
	venue := exchangeobs.Wrap(exchange.WithBudget(base, window))

	if cfg.Mode == "LIVE" && apiKey == "" {
		if _, err := venue.Register(ctx, cfg.Exchange.TeamName); err != nil {
			return nil, fmt.Errorf("team registration failed: %w", err)
		}
		logger.Info(ctx, "Registered with venue", "team", cfg.Exchange.TeamName)
	}
	return venue, nil
}

// initializeSentiment builds the news sentiment source, or nothing when the
// news block is disabled. The engine treats nil as no opinion everywhere.
func initializeSentiment(ctx context.Context, cfg *store.Config) interfaces.SentimentSource {
	if !cfg.News.Enabled {
		logger.Info(ctx, "News sentiment disabled in config")
		return nil
	}
	logger.Info(ctx, "News sentiment enabled",
		"base_url", cfg.News.BaseURL,
		"cache_minutes", cfg.News.CacheMinutes,
	)
	return news.NewService(cfg)
}

// initializeEngine builds the trading engine with observability.
func initializeEngine(cfg *store.Config, venue interfaces.Exchange, sentiment interfaces.SentimentSource) interfaces.Engine {
	return engineobs.Wrap(engine.New(cfg, venue, sentiment))
}
