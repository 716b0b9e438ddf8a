package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quotedesk/quotedesk/internal/annotation"
	"github.com/quotedesk/quotedesk/internal/config"
	"github.com/quotedesk/quotedesk/internal/database"
	"github.com/quotedesk/quotedesk/internal/events"
	"github.com/quotedesk/quotedesk/internal/http/handler"
	"github.com/quotedesk/quotedesk/internal/http/router"
	"github.com/quotedesk/quotedesk/internal/jobs"
	"github.com/quotedesk/quotedesk/internal/logger"
	"github.com/quotedesk/quotedesk/internal/repository"
	"github.com/quotedesk/quotedesk/internal/service"
	"github.com/quotedesk/quotedesk/internal/worker"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.Int("port", cfg.App.Port),
	)

	// Connect to the order store
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Wire the desk core: gateway, annotation store, event bus, worker
	// pool, and the apply-loop service on top of them
	orderRepo := repository.NewOrderRepository(db)
	annotations := annotation.NewStore(cfg.Annotation.Path, log)
	bus := events.NewBus(log)
	pool := worker.NewPool(cfg.Refresh.Workers, cfg.Refresh.QueueSize, log)

	desk := service.NewDeskService(orderRepo, annotations, bus, pool, &cfg.Refresh, log)
	desk.Start()

	// Initialize handlers
	orderHandler := handler.NewOrderHandler(desk, log)
	statusHandler := handler.NewStatusHandler(desk, &cfg.Statuses, log)
	eventHandler := handler.NewEventHandler(bus, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		orderHandler,
		statusHandler,
		eventHandler,
	)

	// Schedule the background refresh jobs
	scheduler := jobs.NewScheduler(log)
	if err := jobs.RegisterRefreshJobs(scheduler, desk, &cfg.Refresh, log); err != nil {
		return fmt.Errorf("failed to register refresh jobs: %w", err)
	}
	scheduler.Start()

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop the refresh timers first so no new work is dispatched
		stopCtx := scheduler.Stop()
		<-stopCtx.Done()
		log.Info("Scheduler stopped")

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		// Then drain the core: apply loop, worker pool, event bus
		desk.Stop()
		pool.Stop()
		bus.Close()

		log.Info("Server stopped gracefully")
	}

	return nil
}
