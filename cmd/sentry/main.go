// Package main runs the wallet tracker service: webhook ingestion, the
// Telegram command bot, and upstream subscription sync in one process.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"wallet-sentry/internal/dedup"
	"wallet-sentry/internal/helius"
	"wallet-sentry/internal/observability"
	"wallet-sentry/internal/pipeline"
	"wallet-sentry/internal/registry"
	"wallet-sentry/internal/storage"
	"wallet-sentry/internal/storage/memory"
	"wallet-sentry/internal/storage/migrations"
	pgstore "wallet-sentry/internal/storage/postgres"
	"wallet-sentry/internal/syncer"
	"wallet-sentry/internal/telegram"
	"wallet-sentry/internal/tokeninfo"
	"wallet-sentry/internal/webhook"
)

func main() {
	// Load .env if present; system env vars win.
	_ = godotenv.Load()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address for webhook deliveries")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	heliusAPIKey := flag.String("helius-api-key", os.Getenv("HELIUS_API_KEY"), "Helius API key")
	webhookURL := flag.String("webhook-url", os.Getenv("WEBHOOK_URL"), "Public URL Helius delivers transactions to")
	webhookAuth := flag.String("webhook-auth-token", os.Getenv("WEBHOOK_AUTH_TOKEN"), "Authorization header value required on deliveries")
	telegramToken := flag.String("telegram-token", os.Getenv("TELEGRAM_BOT_TOKEN"), "Telegram bot token")
	telegramChatID := flag.Int64("telegram-chat-id", envInt64("TELEGRAM_CHAT_ID"), "Telegram chat that receives alerts and issues commands")
	dedupWindow := flag.Duration("dedup-window", 24*time.Hour, "How long a (signature, wallet) pair suppresses re-delivered alerts")
	syncInterval := flag.Duration("sync-interval", 10*time.Minute, "Periodic subscription reconciliation interval")

	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if *heliusAPIKey == "" {
		logger.Fatal("--helius-api-key is required")
	}
	if *webhookURL == "" {
		logger.Fatal("--webhook-url is required")
	}
	if *telegramToken == "" || *telegramChatID == 0 {
		logger.Fatal("--telegram-token and --telegram-chat-id are required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	walletStore, cleanup, err := createWalletStore(ctx, *postgresDSN, *useMemory)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer cleanup()

	metrics := observability.NewMetrics("", prometheus.DefaultRegisterer)

	heliusClient := helius.NewClient(*heliusAPIKey, *webhookURL)
	sub := syncer.New(walletStore, heliusClient, logger,
		syncer.WithReconcileInterval(*syncInterval),
		syncer.WithMetrics(metrics))

	reg := registry.New(walletStore, sub, logger)

	botAPI, err := tgbotapi.NewBotAPI(*telegramToken)
	if err != nil {
		logger.Fatal("telegram auth failed", zap.Error(err))
	}
	logger.Info("telegram bot authorized", zap.String("username", botAPI.Self.UserName))

	sink := telegram.NewSink(botAPI, *telegramChatID, logger)
	bot := telegram.NewBot(botAPI, *telegramChatID, reg, logger)

	processor := pipeline.NewProcessor(
		reg,
		dedup.NewGate(*dedupWindow),
		tokeninfo.NewResolver(),
		sink,
		logger,
		pipeline.WithMetrics(metrics),
	)

	handler := webhook.NewHandler(processor, logger,
		webhook.WithAuthToken(*webhookAuth),
		webhook.WithHandlerMetrics(metrics))

	srv := &http.Server{
		Addr:              *listenAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("webhook server listening", zap.String("addr", *listenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("webhook server failed", zap.Error(err))
		}
	}()

	go sub.Run(ctx)
	go bot.Run(ctx)

	// Reconcile the upstream subscription with whatever the store already
	// holds before the first command arrives.
	sub.Trigger()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("webhook server shutdown", zap.Error(err))
	}

	logger.Info("shutdown complete")
}

// createWalletStore builds the durable wallet store, running migrations
// for the PostgreSQL path.
func createWalletStore(ctx context.Context, dsn string, useMemory bool) (storage.WalletStore, func(), error) {
	if useMemory {
		return memory.NewWalletStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pgstore.NewWalletStore(pool), pool.Close, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string) int64 {
	v, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
