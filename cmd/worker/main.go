package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"pullwatch.app/pullwatch/common/id"
	"pullwatch.app/pullwatch/common/llm"
	"pullwatch.app/pullwatch/common/logger"
	"pullwatch.app/pullwatch/common/otel"
	"pullwatch.app/pullwatch/core/config"
	"pullwatch.app/pullwatch/core/db"
	"pullwatch.app/pullwatch/internal/feed"
	"pullwatch.app/pullwatch/internal/github"
	"pullwatch.app/pullwatch/internal/notify"
	"pullwatch.app/pullwatch/internal/review"
	"pullwatch.app/pullwatch/internal/scanner"
	"pullwatch.app/pullwatch/internal/store"
	"pullwatch.app/pullwatch/internal/worker"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "pullwatch worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Feed.Group,
		"consumer_name", cfg.Feed.Consumer)

	// Different node ID than the server so ids never collide
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	if !cfg.Review.Enabled() {
		slog.ErrorContext(ctx, "OPENAI_API_KEY is required")
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Feed.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Feed.Stream)

	consumer, err := feed.NewRedisConsumer(redisClient, feed.ConsumerConfig{
		Stream:    cfg.Feed.Stream,
		Group:     cfg.Feed.Group,
		Consumer:  cfg.Feed.Consumer,
		DLQStream: cfg.Feed.DLQStream,
		BatchSize: 10,
		Block:     5 * time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	llmClient, err := llm.New(llm.Config{
		APIKey:  cfg.Review.APIKey,
		BaseURL: cfg.Review.BaseURL,
		Model:   cfg.Review.Model,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create llm client", "error", err)
		os.Exit(1)
	}

	githubClient := github.NewClient(cfg.GitHub.Token, cfg.GitHub.BaseURL)
	notifier := notify.NewSMSNotifier(cfg.SMS.GatewayURL, cfg.SMS.To)
	reviews := review.NewGenerator(llmClient, cfg.Review.MaxTokens)

	processor := worker.NewProcessor(reviews, githubClient, githubClient, notifier)
	w := worker.New(consumer, processor)

	records := store.NewRecordStore(database.Pool())
	staleScanner := scanner.New(records, notifier, cfg.Scanner.Interval, cfg.Scanner.StaleThreshold)

	errCh := make(chan error, 2)
	go func() {
		errCh <- w.Run(ctx)
	}()
	go func() {
		errCh <- staleScanner.Run(ctx)
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Scanner stops quickly; the worker may be mid-batch
	staleScanner.Stop()
	w.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
██╗    ██╗ ██████╗ ██████╗ ██╗  ██╗███████╗██████╗
██║    ██║██╔═══██╗██╔══██╗██║ ██╔╝██╔════╝██╔══██╗
██║ █╗ ██║██║   ██║██████╔╝█████╔╝ █████╗  ██████╔╝
██║███╗██║██║   ██║██╔══██╗██╔═██╗ ██╔══╝  ██╔══██╗
╚███╔███╔╝╚██████╔╝██║  ██║██║  ██╗███████╗██║  ██║
 ╚══╝╚══╝  ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝
`
