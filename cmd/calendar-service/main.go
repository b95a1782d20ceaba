package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-market-calendar/internal/calendar/config"
	delivery "golang-market-calendar/internal/calendar/delivery/http"
	"golang-market-calendar/internal/calendar/repository"
	"golang-market-calendar/internal/calendar/service"
	"golang-market-calendar/pkg/logger"
	"golang-market-calendar/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the market calendar service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Market Calendar Service", logger.Field("name", cfg.App.Name))

	// Initialize repositories
	emRepo := repository.NewEastmoneyRepository(cfg, appLogger)
	watchlistRepo := repository.NewWatchlistRepository(cfg.Storage.WatchlistFile, appLogger)
	snapshotRepo := repository.NewSnapshotRepository(cfg.Storage.EventCacheFile)

	// Optional Telegram notifier
	var notifier telegram.Notifier
	if cfg.Telegram.BotToken != "" {
		notifier, err = telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Error("Failed to initialize Telegram notifier, continuing without it", logger.ErrorField(err))
			notifier = nil
		}
	}

	// Initialize services
	store := service.NewSnapshotStore()
	normalizer := service.NewNormalizer(appLogger)
	forecaster := service.NewForecaster()
	refreshSvc := service.NewRefreshService(cfg, appLogger, emRepo, watchlistRepo, snapshotRepo, store, normalizer, forecaster, notifier)
	eventSvc := service.NewEventService(store, watchlistRepo, appLogger)
	watchlistSvc := service.NewWatchlistService(watchlistRepo, refreshSvc, appLogger)
	resolverSvc := service.NewResolverService(emRepo, appLogger)

	// Start the refresh loop
	go refreshSvc.Start(ctx)

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// Initialize handlers and routes
	api := e.Group("/api")

	eventHandler := delivery.NewEventHandler(eventSvc, refreshSvc, appLogger)
	eventHandler.RegisterRoutes(api)

	watchlistHandler := delivery.NewWatchlistHandler(watchlistSvc, resolverSvc, appLogger)
	watchlistHandler.RegisterRoutes(api)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	// Gracefully shutdown the server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

func main() {
	rootCmd := &cobra.Command{Use: "calendar-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing calendar-service CLI: %s\n", err)
		os.Exit(1)
	}
}
