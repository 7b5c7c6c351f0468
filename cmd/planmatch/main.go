package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/planmatch/planmatch/internal/cache"
	"github.com/planmatch/planmatch/internal/config"
	"github.com/planmatch/planmatch/internal/coreapi"
	"github.com/planmatch/planmatch/internal/httpserver"
	"github.com/planmatch/planmatch/internal/interfaces"
	"github.com/planmatch/planmatch/internal/realtime"
	"github.com/planmatch/planmatch/internal/session"
	"github.com/planmatch/planmatch/internal/telemetry"
)

const serviceName = "planmatch"

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logConfig := telemetry.DefaultLogConfig()
	logConfig.Level = cfg.LogLevel
	if cfg.LogFile != "" {
		logConfig.Output = cfg.LogFile
		logConfig.Rotation = true
	}
	if cfg.IsDevelopment() {
		logConfig.Format = "text"
	}
	if err := telemetry.InitGlobalLogger(logConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger := telemetry.GetGlobalLogger()

	shutdownTracing, err := telemetry.InitTracing(telemetry.LoadOTelConfigFromEnv())
	if err != nil {
		logger.WithError(err).Warn("Tracing disabled: initialization failed")
	} else {
		defer shutdownTracing()
	}

	transport, err := realtime.NewNATSTransport(cfg.NATSURL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to push bus")
	}
	defer transport.Close()

	var snapshotCache interfaces.SnapshotCache
	var healthCache httpserver.HealthChecker
	if cfg.CacheEnabled() {
		redisCache, err := cache.NewSnapshotCache(&cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to snapshot cache")
		}
		defer redisCache.Close()
		snapshotCache = redisCache
		healthCache = redisCache
	} else {
		logger.Info("Snapshot cache disabled, sessions always cold-start")
	}

	apiClient := coreapi.NewClient(cfg.CoreAPIBaseURL, cfg.CoreAPITimeout)
	sessions := session.NewManager(apiClient, snapshotCache, transport)
	server := httpserver.New(serviceName, sessions, healthCache)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.Handler(),
	}

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	sessions.CloseAll()

	logger.Info("Server exited")
}
