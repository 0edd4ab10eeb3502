package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/credo-news/credo/app/aggregator"
	"github.com/credo-news/credo/app/api"
	"github.com/credo-news/credo/app/cache"
	"github.com/credo-news/credo/app/cfg"
	"github.com/credo-news/credo/app/config"
	"github.com/credo-news/credo/app/database"
	"github.com/credo-news/credo/app/factcheck"
	"github.com/credo-news/credo/app/orchestrator"
	"github.com/credo-news/credo/app/scoring"
	"github.com/credo-news/credo/app/tasks"
)

func main() {
	appConfig, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appConfig == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appConfig.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Credo server", "version", appConfig.Version)

	// Database connection and migrations
	db, err := database.NewConnection(appConfig.DBHost, appConfig.DBPort,
		appConfig.DBUser, appConfig.DBPassword, appConfig.DBName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	// Repositories
	factCheckRepo := database.NewFactCheckRepo(db)
	articleRepo := database.NewArticleRepo(db)
	sourceRepo := database.NewSourceRepo(db)

	// Scoring profile and engine
	profile, err := config.Load(appConfig.ScoringProfile)
	if err != nil {
		log.Fatalf("Failed to load scoring profile: %v", err)
	}

	engine := scoring.NewEngine()
	if len(profile.Scoring.VerdictScores) > 0 {
		overrides := make(map[scoring.Verdict]int, len(profile.Scoring.VerdictScores))
		for verdict, score := range profile.Scoring.VerdictScores {
			overrides[scoring.Verdict(verdict)] = score
		}
		engine = scoring.NewEngineWithScores(overrides)
		slog.Info("Scoring profile applied", "path", appConfig.ScoringProfile, "overrides", len(overrides))
	}

	// External fact-check service client
	client := factcheck.NewHTTPClient(appConfig.FactCheckURL, appConfig.FactCheckAPIKey,
		appConfig.UserAgent, nil)

	// Orchestrator and aggregator
	orch := orchestrator.New(client, factCheckRepo, articleRepo, engine,
		time.Duration(appConfig.PollIntervalSeconds)*time.Second, appConfig.MaxPollAttempts)
	agg := aggregator.New(sourceRepo, factCheckRepo, engine)

	// Optional Redis cache for credibility reads
	var apiCache cache.Cache = cache.NoopCache{}
	if appConfig.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(appConfig.RedisAddr)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisCache.Close()
		apiCache = redisCache
	}

	// Background scheduler
	slog.Info("Starting background scheduler", "workers", appConfig.WorkerCount)
	scheduler := tasks.NewScheduler(orch, agg, articleRepo)
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP server
	handler := api.NewHandler(factCheckRepo, articleRepo, sourceRepo, orch,
		scheduler, apiCache, profile.Aggregation.HighRiskMaxScore)
	server := api.NewServer(handler, appConfig.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler and connections are stopped via defer
	slog.Info("Shutdown complete")
}
