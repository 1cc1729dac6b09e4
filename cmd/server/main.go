package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mailrelay/backend/internal/bot"
	"mailrelay/backend/internal/config"
	"mailrelay/backend/internal/extractor"
	"mailrelay/backend/internal/health"
	"mailrelay/backend/internal/logger"
	"mailrelay/backend/internal/monitoring"
	"mailrelay/backend/internal/storage"
	httptransport "mailrelay/backend/internal/transport/http"
	"mailrelay/backend/internal/upstream"
	"mailrelay/backend/internal/wizard"
)

const (
	telegramTimeout = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// main 启动 Telegram 机器人与邮件通知 Webhook 服务。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	gin.SetMode(cfg.Server.Mode)

	// 初始化日志系统
	log, err := logger.NewLogger(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting mail relay server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
		zap.Strings("domains", cfg.Mailbox.Domains),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化状态存储
	store, storeMode, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open state store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("state store close warning", zap.Error(err))
		}
	}()
	log.Info("state store ready", zap.String("mode", string(storeMode)))

	metrics := monitoring.NewMetrics()

	client := upstream.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout,
		upstream.WithMetrics(metrics),
		upstream.WithLogger(log),
	)

	codes := extractor.New(cfg.OpenAI, metrics, log)
	if codes.Enabled() {
		log.Info("verification code extraction enabled", zap.String("model", cfg.OpenAI.Model))
	} else {
		log.Info("verification code extraction disabled, openai.api_key not set")
	}

	// Telegram 客户端，创建时会调用 getMe 校验令牌
	_ = tgbotapi.SetLogger(zap.NewStdLog(log.Named("telegram")))
	api, err := tgbotapi.NewBotAPIWithClient(cfg.Telegram.BotToken, cfg.Telegram.APIEndpoint, &http.Client{Timeout: telegramTimeout})
	if err != nil {
		log.Fatal("failed to initialize telegram bot", zap.Error(err))
	}
	log.Info("telegram bot authorized", zap.String("username", api.Self.UserName))

	creation := wizard.New(store, client, cfg.Mailbox.Domains, metrics, log)
	handler := bot.New(bot.Dependencies{
		Sender:    api,
		Store:     store,
		Mailboxes: client,
		Extractor: codes,
		Wizard:    creation,
		PublicURL: cfg.Server.PublicURL,
		Domains:   cfg.Mailbox.Domains,
		Location:  cfg.Mailbox.Location,
		Model:     cfg.OpenAI.Model,
		Metrics:   metrics,
		Logger:    log,
	})

	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:    cfg,
		Updates:   handler,
		Notifier:  handler,
		Store:     store,
		StoreMode: storeMode,
		Mailboxes: client,
		AIEnabled: codes.Enabled(),
		Health:    health.NewHealthChecker(store, log),
		Metrics:   metrics,
		Logger:    log,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("starting HTTP server",
			zap.String("address", httpServer.Addr),
			zap.String("telegram_webhook_path", cfg.Telegram.WebhookPath),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}

		log.Info("server stopped")
		return nil
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Error("server error", zap.Error(err))
		return
	}

	log.Info("server exited cleanly")
}
