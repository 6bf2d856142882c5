// cmd/wizard-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"formation-wizard/internal/activities"
	"formation-wizard/internal/api"
	"formation-wizard/internal/audit"
	awsclients "formation-wizard/internal/common/aws"
	"formation-wizard/internal/common/config"
	"formation-wizard/internal/common/database"
	"formation-wizard/internal/common/logger"
	"formation-wizard/internal/common/observability"
	"formation-wizard/internal/licensing"
	"formation-wizard/internal/notify"
	"formation-wizard/internal/session"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting wizard server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Upstream licensing client ---
	licensingClient := licensing.NewClient(
		cfg.Licensing.BaseURL,
		cfg.Licensing.APIToken,
		time.Duration(cfg.Licensing.Timeout)*time.Millisecond,
		log,
	)

	// --- Session store ---
	store := session.NewStore(
		redisClient.Client,
		cfg.Session.KeyPrefix,
		time.Duration(cfg.Session.TTLHours)*time.Hour,
		log,
	)

	// --- Activity catalog ---
	catalog := activities.NewService(
		esClient.Client,
		licensingClient,
		cfg.Activities.Index,
		cfg.Activities.SyncPageSize,
		log,
	)

	// --- Submission notifier (optional) ---
	var notifier api.SubmissionNotifier
	if cfg.Notifications.Email.Enabled {
		sesClient, err := awsclients.NewSESClient(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.AWS.Endpoint)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		var snsService notify.SNSService
		if cfg.Notifications.SMS.Enabled {
			snsClient, err := awsclients.NewSNSClient(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.AWS.Endpoint)
			if err != nil {
				zapLog.Fatal("sns client init failed", zap.Error(err))
			}
			snsService = snsClient
		}
		notifier = notify.NewNotifier(sesClient, snsService, cfg.Notifications.Email.FromEmail, log)
		zapLog.Info("Submission notifications enabled")
	}

	// --- HTTP surface ---
	handlers := api.NewHandlers(store, licensingClient, catalog, notifier, log)

	recorder := audit.NewRecorder(pg.DB, log)
	handlers.OnStepChanged(recorder.Hook())

	router := api.NewRouter(handlers, cfg.Server.CORSOrigins)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.RequestTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}
	zapLog.Info("Shutdown complete")
}
