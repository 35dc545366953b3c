package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "bazaar-ads/internal/adapter/http"
	"bazaar-ads/internal/adapter/notify"
	"bazaar-ads/internal/adapter/postgres"
	"bazaar-ads/internal/adapter/usecase"
	"bazaar-ads/internal/config"
	"bazaar-ads/internal/core/domain"
	"bazaar-ads/internal/db"
)

// main is the entry point of the bazaar-ads engine. It loads configuration,
// optionally runs database migrations and demo seeding, wires the campaign
// store, event notifier, budget ledger and placement selector, then starts
// the HTTP server. On receiving a termination signal it gracefully shuts
// down the server and drains the notifier.
func main() {
	exitCode := 1
	defer func() {
		if r := recover(); r != nil {
			panic(r)
		} else {
			os.Exit(exitCode)
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	var logger *slog.Logger
	{
		var handler slog.Handler
		level := cfg.Log.SlogLevel()
		switch cfg.Log.SlogFormat() {
		case "json":
			handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		default:
			handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		}
		logger = slog.New(handler)
	}

	if cfg.Psql.RunMigrations {
		if err = db.Migrate(cfg.Psql.Addr.String()); err != nil {
			logger.Error("migration error", slog.Any("error", err))
		} else {
			logger.Info("migrations applied successfully")
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.Psql)
	if err != nil {
		logger.Error("database connection error", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Psql.SeedDemoData {
		if err = db.Seed(ctx, pool); err != nil {
			logger.Error("seed error", slog.Any("error", err))
		}
	}

	// Downstream analytics and suppression consumers are out of process; the
	// default sink just logs what would be delivered to them.
	notifier := notify.NewChannelNotifier(cfg.Ads.EventBufferSize, logger, func(e domain.AdEvent) {
		logger.Debug("ad event",
			slog.String("type", string(e.Type)),
			slog.String("campaign_id", e.CampaignID),
			slog.String("merchant_id", e.MerchantID))
	})
	notifier.Start()
	defer notifier.Close()

	store := postgres.NewCampaignStore(pool)
	ledger := usecase.NewBudgetLedger(store, notifier, cfg.Ads, logger)
	scorer := usecase.NewRelevanceScorer()
	selector := usecase.NewPlacementSelector(store, ledger, scorer, notifier, cfg.Ads, logger)

	handler := httpadapter.NewHandler(selector, ledger, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("server listening", slog.Int("port", int(cfg.HTTP.Port)))
		if err = srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	value := <-quit
	exitCode = 128 + int(value.(syscall.Signal))

	ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	} else {
		logger.Info("server gracefully stopped")
	}
}
