package main

import (
	"NoticeBoard/internal/adapters/eventbus"
	"NoticeBoard/internal/adapters/metrics"
	"NoticeBoard/internal/adapters/postgres"
	"NoticeBoard/internal/adapters/security"
	"NoticeBoard/internal/adapters/telegram"
	"NoticeBoard/internal/core/ports"
	"NoticeBoard/internal/listener"
	"NoticeBoard/internal/shared/config"
	"NoticeBoard/internal/shared/logger"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Deferred first so it runs after every other deferred cleanup
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	event := flag.String("event", listener.LiveScoreAlerts, "event name to publish")
	payload := flag.String("payload", "Can be anything", "payload to publish")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	baseLogger := logger.New(cfg.IsDev())
	baseLogger.Info().
		Str("app_env", cfg.AppEnv).
		Bool("isolate_panics", cfg.Registry.IsolatePanics).
		Bool("metrics", cfg.Metrics.Enabled).
		Bool("journal", cfg.Postgres.URL != "").
		Bool("telegram", cfg.Telegram.Token != "").
		Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []eventbus.Option{eventbus.WithPanicIsolation(cfg.Registry.IsolatePanics)}
	var serveErr chan error // nil unless metrics are enabled

	// 3. Metrics (optional)
	if cfg.Metrics.Enabled {
		promRegistry := prometheus.NewRegistry()
		obs, err := metrics.NewPrometheusObserver(promRegistry)
		if err != nil {
			baseLogger.Fatal().Err(err).Msg("Failed to register metrics")
		}
		opts = append(opts, eventbus.WithObserver(obs))
		serveErr = make(chan error, 1)
		go func() {
			serveErr <- metrics.Serve(ctx, cfg.Metrics.ListenAddr, promRegistry, &baseLogger)
		}()
	}

	// 4. Publication journal (optional)
	if cfg.Postgres.URL != "" {
		var sealer ports.PayloadSealer
		if cfg.EncryptionKey != "" {
			sealer, err = security.NewAESSealerFromHex(cfg.EncryptionKey, &baseLogger)
			if err != nil {
				baseLogger.Fatal().Err(err).Msg("Failed to initialize payload sealer")
			}
		}

		db, err := postgres.NewDB(ctx, cfg.Postgres.URL, &baseLogger)
		if err != nil {
			baseLogger.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer db.Close()

		journal := postgres.NewJournalRepository(db, sealer, &baseLogger)
		if err := journal.EnsureSchema(ctx); err != nil {
			baseLogger.Fatal().Err(err).Msg("Failed to prepare journal schema")
		}
		opts = append(opts, eventbus.WithObserver(postgres.NewJournalObserver(journal, postgres.DefaultAppendTimeout, &baseLogger)))
	}

	// 5. Registry
	registry := eventbus.NewRegistry(&baseLogger, opts...)

	// 6. Telegram forwarder (optional)
	if cfg.Telegram.Token != "" {
		api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			baseLogger.Fatal().Err(err).Msg("Failed to connect Telegram bot")
		}
		baseLogger.Info().Str("username", api.Self.UserName).Msg("Bot API connected")

		fwd := telegram.NewForwarder(telegram.NewClient(api, &baseLogger), cfg.Telegram.ChatID, &baseLogger)
		fwd.Attach(registry, cfg.Telegram.Events...)
		defer fwd.Detach(registry)
	}

	// 7. Demo: listen, publish, stop listening
	scores := listener.NewScoreListener(registry, &baseLogger)
	scores.Listen()

	pub, err := registry.Publish(*event, *payload)
	if err != nil {
		baseLogger.Error().Err(err).Msg("Some handlers failed")
	}
	baseLogger.Info().
		Str("publication_id", pub.ID.String()).
		Str("event", pub.Event).
		Int("delivered", pub.Delivered).
		Int("failed", len(pub.Failures)).
		Msg("Publication finished")

	scores.StopListening()

	if serveErr != nil {
		baseLogger.Info().Msg("Serving metrics until interrupted")
		if err := waitForShutdown(ctx, serveErr); err != nil {
			baseLogger.Error().Err(err).Msg("Metrics server stopped")
			exitCode = 1
		}
	}
}

// waitForShutdown blocks until ctx is cancelled or the metrics server stops
// on its own. It returns the server's error, or nil on a normal shutdown.
func waitForShutdown(ctx context.Context, serveErr <-chan error) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-serveErr:
		if err == nil {
			return errors.New("metrics server exited unexpectedly")
		}
		return fmt.Errorf("metrics server failed: %w", err)
	}
}
