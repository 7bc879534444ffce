package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"github.com/tedinroc/line-gpt-bot/internal/api/router"
	appconfig "github.com/tedinroc/line-gpt-bot/internal/config"
	"github.com/tedinroc/line-gpt-bot/internal/conversation"
	"github.com/tedinroc/line-gpt-bot/internal/line"
	"github.com/tedinroc/line-gpt-bot/internal/observability/metrics"
	"github.com/tedinroc/line-gpt-bot/internal/webhook"
	"github.com/tedinroc/line-gpt-bot/pkg/logging"
)

func main() {
	// Load .env if present; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel, cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting line-gpt-bot relay",
		"env", cfg.Env,
		"port", cfg.Port,
		"model", cfg.OpenAIModel,
	)

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancelPing()
		logger.Error("failed to reach redis", "error", err, "addr", cfg.RedisAddr)
		os.Exit(1)
	}
	cancelPing()

	lineClient, err := line.NewClient(line.Config{
		AccessToken:    cfg.LineChannelAccessToken,
		APIBaseURL:     cfg.LineAPIBaseURL,
		DataAPIBaseURL: cfg.LineDataAPIBaseURL,
		Logger:         logger,
	})
	if err != nil {
		logger.Error("failed to build messaging client", "error", err)
		os.Exit(1)
	}

	openaiCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		openaiCfg.BaseURL = cfg.OpenAIBaseURL
	}
	llmClient := conversation.NewOpenAIClient(openai.NewClientWithConfig(openaiCfg), cfg.OpenAIModel, logger)

	relayMetrics := metrics.NewRelayMetrics(nil)
	store := conversation.NewRedisTranscriptStore(redisClient)
	orchestrator := conversation.NewOrchestrator(store, llmClient, lineClient, lineClient, cfg.TranscriptMaxChars, relayMetrics, logger)
	webhookHandler := webhook.NewHandler(cfg.LineChannelSecret, orchestrator, relayMetrics, logger)

	r := router.New(&router.Config{
		Logger:         logger,
		WebhookHandler: webhookHandler,
		MetricsHandler: promhttp.Handler(),
		StorePinger:    redisPinger{redisClient},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		logger.Error("failed to close redis client", "error", err)
	}

	logger.Info("server stopped")
}

// redisPinger adapts the redis client to the router's health probe.
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
