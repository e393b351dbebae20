package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/balogunquadri/banshee-bn-backend/pkg/config"
	"github.com/balogunquadri/banshee-bn-backend/pkg/db"
	"github.com/balogunquadri/banshee-bn-backend/pkg/log"
	"github.com/balogunquadri/banshee-bn-backend/pkg/providers"
	"github.com/balogunquadri/banshee-bn-backend/pkg/queue"
	"github.com/balogunquadri/banshee-bn-backend/pkg/webserver"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := log.Init(&cfg.Logging); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger := log.GetLogger()

	logger.Info("Starting Banshee API Server")

	logger.Info("Connecting to database...")
	database, err := db.New(&cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.WithError(err).Error("Failed to close database connection")
		}
	}()

	logger.Info("Running database migrations...")
	if err := database.Migrate(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	logger.Info("Seeding initial data...")
	if err := database.SeedInitialData(&cfg.Seed); err != nil {
		logger.WithError(err).Fatal("Failed to seed initial data")
	}
	logger.LogSystem("database", "seed", true, map[string]interface{}{
		"company": cfg.Seed.CompanyName,
		"admin":   cfg.Seed.AdminEmail != "",
	})

	// Outbound notification channels and their delivery workers
	providerManager := providers.NewProviderManager(&cfg.Notify, logger)
	channels := providerManager.Names()
	logger.LogSystem("notifications", "configure", true, map[string]interface{}{
		"channels": channels,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queueManager := queue.NewManager(&cfg.Queue, database, providerManager, logger)
	if len(channels) > 0 {
		logger.Info("Starting queue manager...")
		queueManager.Start(ctx)
	}

	server := webserver.New(cfg, database, logger, channels)

	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	logger.WithField("address", cfg.Server.GetServerAddr()).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.GracefulStop)*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	} else {
		logger.Info("Web server exited gracefully")
	}

	queueManager.Stop()

	logger.Info("Application exited gracefully")
}
