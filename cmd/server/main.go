package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bachkhoacons/asset-approval/internal/application/service"
	"github.com/bachkhoacons/asset-approval/internal/config"
	httpserver "github.com/bachkhoacons/asset-approval/internal/interfaces/http"
	"github.com/bachkhoacons/asset-approval/internal/repository"
	"github.com/bachkhoacons/asset-approval/internal/sse"
	"github.com/bachkhoacons/asset-approval/pkg/database"
	"github.com/bachkhoacons/asset-approval/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Asset Approval System",
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	txManager := repository.NewTxManager(db)
	transferRepo := repository.NewTransferRepository(db, logger)
	requestRepo := repository.NewRequestRepository(db, logger)
	reportRepo := repository.NewReportRepository(db, logger)
	departmentRepo := repository.NewDepartmentRepository(db, logger)
	leadershipRepo := repository.NewLeadershipRepository(db, logger)
	assetRepo := repository.NewAssetRepository(db, logger)
	userRepo := repository.NewUserRepository(db, logger)
	auditRepo := repository.NewAuditLogRepository(db, logger)

	// Initialize SSE hub for UI push
	hub := sse.NewHub(logger)

	// Initialize services
	directoryService := service.NewDirectoryService(departmentRepo, leadershipRepo, logger)
	approvalService := service.NewApprovalService(
		transferRepo, requestRepo, reportRepo, assetRepo, auditRepo,
		directoryService, txManager, hub, logger,
	)
	transferService := service.NewTransferService(
		transferRepo, assetRepo, auditRepo, directoryService, txManager, hub, logger,
	)
	requestService := service.NewRequestService(
		requestRepo, assetRepo, auditRepo, directoryService, txManager, hub, logger,
	)
	reportService := service.NewReportService(
		reportRepo, assetRepo, auditRepo, directoryService, txManager, hub, logger,
	)

	// Initialize HTTP server
	server := httpserver.NewServer(
		cfg.Server,
		approvalService,
		transferService,
		requestService,
		reportService,
		directoryService,
		auditRepo,
		leadershipRepo,
		userRepo,
		hub,
		logger,
	)

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	case sig := <-quit:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Failed to shut down server cleanly", zap.Error(err))
	}

	logger.Info("Server stopped")
}
