package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oysmal/emoji-stock-trader/internal/logger"
	"github.com/oysmal/emoji-stock-trader/internal/metrics"
	"github.com/oysmal/emoji-stock-trader/internal/report"
	"github.com/oysmal/emoji-stock-trader/internal/store"
	"github.com/oysmal/emoji-stock-trader/internal/trace"
)

func main() {
	if err := initializeSystem(); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		os.Exit(1)
	}

	compressOldLogs(ctx)

	venue, err := initializeExchange(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to initialize exchange", err)
		os.Exit(1)
	}
	sentiment := initializeSentiment(ctx, cfg)
	eng := initializeEngine(cfg, venue, sentiment)

	metricsSrv := metrics.Serve(cfg.MetricsAddr)
	logger.Info(ctx, "Metrics listening", "addr", cfg.MetricsAddr)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	if err := eng.Start(ctx); err != nil {
		logger.ErrorWithErr(ctx, "Failed to start session", err)
		os.Exit(1)
	}

	statusTick := time.NewTicker(60 * time.Second)
	defer statusTick.Stop()

	for running := true; running; {
		select {
		case <-statusTick.C:
			status := eng.Status()
			logger.Info(ctx, "Session status",
				"orders_placed", status.OrdersPlaced,
				"elapsed", status.Elapsed.Round(time.Second),
				"pnl", status.PnL,
				"pnl_valid", status.PnLValid,
				"running", status.Running,
			)
			// The session halts itself at the order limit.
			if !status.Running {
				logger.Info(ctx, "Session ended on its own, shutting down")
				running = false
			}
		case <-sigc:
			logger.Info(ctx, "Shutdown signal received")
			running = false
		}
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	eng.Stop(stopCtx)

	if p, err := report.SummarizeToday(); err == nil && p != "" {
		logger.Info(ctx, "Session report written", "path", p)
	}

	_ = metricsSrv.Shutdown(stopCtx)
	_ = trace.Shutdown(stopCtx)

	status := eng.Status()
	logger.Info(ctx, "Final session status",
		"orders_placed", status.OrdersPlaced,
		"pnl", status.PnL,
		"pnl_valid", status.PnLValid,
	)
}
