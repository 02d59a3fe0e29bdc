package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"invoice-scanner/internal/api"
	"invoice-scanner/internal/api/handlers"
	"invoice-scanner/internal/cache"
	"invoice-scanner/internal/extractor"
	"invoice-scanner/internal/repository"
	"invoice-scanner/internal/service"
	"invoice-scanner/pkg/auth"
	"invoice-scanner/pkg/config"
	"invoice-scanner/pkg/logger"
	"invoice-scanner/pkg/postgres"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// @title Invoice Scanner API
// @version 1.0
// @description Extracts vendor, totals and line items from invoices and receipts and tracks spending.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	logger.Info("Starting invoice scanner",
		zap.String("version", cfg.Server.Version),
		zap.String("provider", cfg.Extraction.Provider),
		zap.Bool("atomic_ingest", cfg.Database.AtomicIngest),
	)

	// Amounts go out as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	docRepo := repository.NewDocumentRepository(db, cfg.Database.AtomicIngest, appLogger)
	categoryRepo := repository.NewCategoryRepository(db, appLogger)
	dashboardRepo := repository.NewDashboardRepository(db, appLogger)

	dashboardCache := cache.New(ctx, cfg.Redis, appLogger)
	defer dashboardCache.Close()

	ext, err := extractor.New(ctx, cfg, appLogger)
	if err != nil {
		logger.Fatal("Failed to initialize extractor", zap.Error(err))
	}
	if closer, ok := ext.(io.Closer); ok {
		defer closer.Close()
	}

	var jwtManager *auth.JWTManager
	if cfg.Auth.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	} else {
		logger.Warn("AUTH_JWT_SECRET not set, mutating routes are open")
	}

	ingestService := service.NewIngestService(ext, docRepo, dashboardCache, cfg.Upload, appLogger)
	docService := service.NewDocumentService(docRepo, categoryRepo, dashboardCache, appLogger)
	dashboardService := service.NewDashboardService(dashboardRepo, docRepo, dashboardCache, appLogger)
	exportService := service.NewExportService(docRepo, appLogger)

	app := api.SetupRouter(api.Handlers{
		Analyze:   handlers.NewAnalyzeHandler(ingestService, cfg.Upload.MaxBytes, appLogger),
		Documents: handlers.NewDocumentHandler(docService, exportService, appLogger),
		Dashboard: handlers.NewDashboardHandler(dashboardService, appLogger),
		Health:    handlers.NewHealthHandler(cfg.Server.Version),
	}, jwtManager, api.Options{
		MaxUploadBytes: cfg.Upload.MaxBytes,
		BodyLimit:      cfg.Server.BodyLimit,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
	}, appLogger)

	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
}
