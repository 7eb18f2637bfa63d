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

	"github.com/mateusmanuel/roteirizador/internal/api"
	"github.com/mateusmanuel/roteirizador/internal/config"
	"github.com/mateusmanuel/roteirizador/internal/metrics"
	"github.com/mateusmanuel/roteirizador/internal/planner"
	"github.com/mateusmanuel/roteirizador/internal/routing"
	"github.com/mateusmanuel/roteirizador/internal/service"
	"github.com/mateusmanuel/roteirizador/internal/store"
	"github.com/mateusmanuel/roteirizador/internal/tracker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Initialize the session store backend.
	sessionStore, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create session store: %v", err)
	}
	logger.InfoContext(ctx, "Session store initialized", "type", cfg.StoreType)

	// Create the delivery tracker and rehydrate any previous session.
	deliveryTracker := tracker.New(logger, sessionStore, cfg.SessionKey)
	if err = deliveryTracker.Load(ctx); err != nil {
		logger.WarnContext(ctx, "Could not rehydrate delivery session, starting empty", "error", err)
	}

	// Create the sequencing oracle using the factory pattern based on configuration.
	// This allows runtime selection between different oracles (OSRM, Google).
	sequencer, err := routing.NewSequencer(routing.ProviderConfig{
		Type:      routing.ProviderType(cfg.ProviderType),
		APIKey:    cfg.APIKey,
		RateLimit: cfg.RateLimit,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("Failed to create sequencing provider: %v", err)
	}
	logger.InfoContext(ctx, "Sequencing provider initialized", "type", cfg.ProviderType)

	// Init the planner service using the oracle and tracker.
	plannerService := service.NewPlannerService(
		logger,
		sequencer,
		cfg.ProviderType, // Provider name for metrics
		planner.NewEpsilonMatcher(),
		deliveryTracker,
		appMetrics,
	)

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Start the HTTP server in a goroutine to allow main to listen for signals.
	go startServer(ctx, logger, reg, plannerService, cfg.Port)

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	// Log graceful shutdown completion.
	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// newSessionStore creates the configured SessionStore backend. The memory
// store is the default and needs no configuration; postgres and redis
// require their respective connection settings.
func newSessionStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.SessionStore, error) {
	switch cfg.StoreType {
	case "postgres":
		dtb, err := store.NewDatabase(
			ctx, cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if err != nil {
			return nil, err
		}
		return store.NewPostgresStore(dtb, logger), nil
	case "redis":
		return store.NewRedisStore(ctx, cfg.RedisURL, logger)
	case "memory", "":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.StoreType)
	}
}

// startServer starts the HTTP server carrying the route API plus health
// check and metrics endpoints. It listens on the specified port and logs
// the server's status and any errors encountered.
func startServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	plannerService *service.PlannerService,
	port int,
) {
	mux := http.NewServeMux()
	mux.Handle("/", api.NewRouter(log, plannerService))
	mux.HandleFunc("/healthz", func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
		if _, err := writer.Write([]byte("OK")); err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.InfoContext(ctx, "Starting HTTP server", "port", port)
	readTimeout := 5
	writeTimeout := 30
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.ErrorContext(ctx, "HTTP server failed", "error", err)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var logger *slog.Logger

	switch env {
	case envLocal:
		logger = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelWarn,
			}),
		)
	default:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelError,
			}),
		)

		logger.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return logger
}
