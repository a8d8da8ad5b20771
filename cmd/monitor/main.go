package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"process-monitor/internal/common/config"
	"process-monitor/internal/common/logger"
	"process-monitor/internal/common/middleware"
	"process-monitor/internal/monitor/handlers"
	"process-monitor/internal/monitor/llm"
	"process-monitor/internal/monitor/repository"
	"process-monitor/internal/monitor/service"
	"process-monitor/internal/monitor/storage"
)

// ============================================================
// Process Monitor Service
// ============================================================

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Fatal("Service stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, dialect, err := repository.Open(cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	repo := repository.New(db, dialect)
	if err := repo.Init(ctx, cfg.MigrationsPath); err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	log.Info("Database ready", zap.String("dialect", dialect.String()))

	artifacts, err := openArtifacts(cfg)
	if err != nil {
		return fmt.Errorf("open artifact store: %w", err)
	}

	diag, err := llm.Open(ctx, llm.Settings{
		APIKey:    cfg.GeminiAPIKey,
		Model:     cfg.GeminiModel,
		Timeout:   cfg.LLMTimeout,
		CacheSize: cfg.AnalysisCacheSize,
	}, log)
	if err != nil {
		return fmt.Errorf("init diagnostician: %w", err)
	}
	if _, disabled := diag.(llm.Disabled); disabled {
		log.Warn("GEMINI_API_KEY is not set; analysis and chat are disabled")
	}

	manager := service.NewManager(repo, diag, log.Named("workspace"))
	monitorHandler := handlers.New(manager, artifacts, log.Named("http"))
	healthHandler := handlers.NewHealthHandler(repo)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Process Monitor",
		ErrorHandler: middleware.ErrorHandler(log),
		BodyLimit:    16 * 1024 * 1024,
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger(cfg.IsProduction()))
	app.Use(middleware.CORS(cfg.CORSOrigins))
	app.Use(middleware.Metrics())

	// ============================================================
	// Routes
	// ============================================================

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	handlers.Register(app.Group("/api/v1"), monitorHandler, healthHandler)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Info("Starting Process Monitor",
		zap.String("addr", addr),
		zap.String("env", cfg.Environment),
		zap.String("artifacts", cfg.ArtifactBackend),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func openArtifacts(cfg *config.Config) (storage.ArtifactStore, error) {
	if cfg.ArtifactBackend == "s3" {
		s3, err := storage.NewS3Store(storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	return storage.NewFileStore(cfg.ArtifactDir), nil
}
