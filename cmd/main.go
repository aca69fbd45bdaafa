package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/tournament-hub/config"
	"github.com/Dosada05/tournament-hub/db"
	"github.com/Dosada05/tournament-hub/handlers"
	"github.com/Dosada05/tournament-hub/middleware"
	"github.com/Dosada05/tournament-hub/repositories"
	api "github.com/Dosada05/tournament-hub/routes"
	"github.com/Dosada05/tournament-hub/services"
	"github.com/Dosada05/tournament-hub/storage"
	"github.com/Dosada05/tournament-hub/ws"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(dbConn, cfg.MigrationsPath); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migrations applied")

	// Banner uploads are optional; without R2 credentials the admin
	// banner endpoint rejects uploads but everything else works.
	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("R2 credentials not set, banner uploads disabled")
	}

	jwtSecret := []byte(cfg.JWTSecretKey)
	wsHub := ws.NewHub(func(token string) (int, error) {
		return middleware.VerifyToken(jwtSecret, token)
	}, logger)
	notifier := ws.NewNotifier(wsHub)
	logger.Info("WebSocket hub initialized")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	walletRepo := repositories.NewPostgresWalletRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	transactionRepo := repositories.NewPostgresTransactionRepository(dbConn)
	txRunner := repositories.NewTxRunner(dbConn)
	logger.Info("repositories initialized")

	authService := services.NewAuthService(txRunner, userRepo, walletRepo)
	walletService := services.NewWalletService(txRunner, walletRepo, transactionRepo)
	tournamentService := services.NewTournamentService(
		txRunner,
		tournamentRepo,
		participantRepo,
		walletRepo,
		transactionRepo,
		uploader,
		notifier,
	)
	settlementService := services.NewSettlementService(txRunner, walletRepo, transactionRepo, notifier)
	adminService := services.NewAdminService(
		txRunner,
		transactionRepo,
		participantRepo,
		walletRepo,
		settlementService,
		notifier,
	)
	logger.Info("services initialized")

	settlementWorker := services.NewSettlementWorker(settlementService, transactionRepo, services.SettlementWorkerConfig{
		Interval:            cfg.SettlementInterval,
		Delay:               cfg.SettlementDelay,
		AutoApproveDeposits: cfg.AutoApproveDeposits,
	}, logger)
	if err := settlementWorker.Start(); err != nil {
		logger.Error("failed to start settlement worker", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := settlementWorker.Stop(); err != nil {
			logger.Error("failed to stop settlement worker", slog.Any("error", err))
		}
	}()

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	walletHandler := handlers.NewWalletHandler(walletService)
	adminHandler := handlers.NewAdminHandler(adminService, tournamentService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		jwtSecret,
		authHandler,
		tournamentHandler,
		walletHandler,
		adminHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
