// Package main is the entrypoint for dispatchd, the route resolution
// service. It loads route definitions from PostgreSQL, compiles them into
// a router and answers which handler serves a given method and path.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/saidutt46/switchboard-router/internal/config"
	"github.com/saidutt46/switchboard-router/internal/database"
	"github.com/saidutt46/switchboard-router/internal/gateway"
	"github.com/saidutt46/switchboard-router/internal/health"
	"github.com/saidutt46/switchboard-router/internal/logging"
	"github.com/saidutt46/switchboard-router/internal/stats"
)

// Version information (set during build via ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Application failed to start")
	}
}

// changeWatcher is implemented by both change feeds.
type changeWatcher interface {
	Start(ctx context.Context) error
}

func run() error {
	// .env is optional; production uses real environment variables
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	} else {
		log.Debug().Msg("Loaded configuration from .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	log.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Str("environment", cfg.Environment).
		Msg("dispatchd starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}()

	if err := db.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to prepare schema: %w", err)
	}

	dispatcher := gateway.New(database.NewRepository(db), cfg.RouterOptions())
	if _, err := dispatcher.Reload(ctx); err != nil {
		return fmt.Errorf("failed to load routes: %w", err)
	}

	var redisClient *redis.Client
	if cfg.ChangeFeed == config.FeedRedis || cfg.StatsInterval > 0 {
		redisClient, err = stats.NewRedisClient(ctx, stats.DefaultRedisConfig(cfg.RedisURL))
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
	}

	var wg sync.WaitGroup
	bgCtx, cancelBackground := context.WithCancel(ctx)
	defer func() {
		cancelBackground()
		wg.Wait()
	}()

	if w := newChangeWatcher(cfg, redisClient, dispatcher); w != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Start(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Change watcher stopped")
			}
		}()
	}

	if cfg.StatsInterval > 0 {
		publisher := stats.NewPublisher(redisClient, dispatcher, instanceName(cfg), cfg.StatsInterval)
		wg.Add(1)
		go func() {
			defer wg.Done()
			publisher.Run(bgCtx)
		}()
	}

	server := &http.Server{
		Addr:         cfg.ServerAddress(),
		Handler:      recoverPanics(setupRoutes(db, dispatcher)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().
			Str("address", cfg.ServerAddress()).
			Msg("HTTP server starting")

		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received, starting graceful shutdown...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error during graceful shutdown, forcing shutdown")
			if err := server.Close(); err != nil {
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
		}

		log.Info().Msg("Server stopped gracefully")
	}

	return nil
}

func newChangeWatcher(cfg *config.Config, client *redis.Client, handler config.ConfigChangeHandler) changeWatcher {
	switch cfg.ChangeFeed {
	case config.FeedRedis:
		return config.NewWatcher(client, handler)
	case config.FeedKafka:
		return config.NewKafkaWatcher(cfg.KafkaBrokerList(), cfg.KafkaTopic, cfg.KafkaGroupID, handler)
	default:
		log.Info().Msg("Route change feed disabled")
		return nil
	}
}

// setupRoutes wires the service endpoints. Everything else is resolved
// against the route table.
func setupRoutes(db *database.DB, dispatcher *gateway.Dispatcher) *http.ServeMux {
	mux := http.NewServeMux()

	healthHandler := health.NewHandler(db, dispatcher)
	mux.HandleFunc("/health", healthHandler.Health)
	mux.HandleFunc("/ready", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/stats", dispatcher.StatsHandler)
	mux.Handle("/", dispatcher)

	return mux
}

func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.LogPanic(rec)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func instanceName(cfg *config.Config) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return fmt.Sprintf("%s:%d", host, cfg.ServerPort)
}
