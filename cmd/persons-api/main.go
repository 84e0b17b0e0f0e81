// main is the entry point of the Persons API.
//
// STARTUP SEQUENCE:
//  1. Load configuration from the environment (and optional YAML file)
//  2. Initialise the logger
//  3. Open the database and ensure the person table exists
//  4. Register all HTTP routes
//  5. Start the HTTP server in a separate goroutine
//  6. Block until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, then exit
//
// RUNNING THE SERVER:
//
//	DB_HOST=localhost DB_PASSWORD=secret go run ./cmd/persons-api
//
// or against a local SQLite file:
//
//	DB_DRIVER=sqlite STORAGE_PATH=storage/persons.db go run ./cmd/persons-api
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heptiolabs/healthcheck"

	"github.com/aanand-mishra/persons-api/internal/config"
	"github.com/aanand-mishra/persons-api/internal/http/router"
	"github.com/aanand-mishra/persons-api/internal/service"
	"github.com/aanand-mishra/persons-api/internal/storage"
	"github.com/aanand-mishra/persons-api/internal/storage/postgres"
	"github.com/aanand-mishra/persons-api/internal/storage/sqlite"
)

func main() {
	cfg := config.MustLoad()

	reload := cfg.HTTPServer.ReloadEnabled()
	log := setupLogger(cfg.Env, reload)
	slog.SetDefault(log)

	log.Info("starting persons-api",
		slog.String("env", cfg.Env),
		slog.String("version", "1.0.0"),
		slog.Bool("reload", reload),
	)
	if reload {
		log.Debug("reload enabled: run under a file watcher to restart on change")
	}

	store, err := openStorage(cfg)
	if err != nil {
		log.Error("failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
	err = store.Init(initCtx)
	cancelInit()
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		store.Close()
		os.Exit(1)
	}

	log.Info("storage initialised", slog.String("driver", cfg.Database.Driver))

	health := healthcheck.NewHandler()
	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(10000))
	health.AddReadinessCheck("database", healthcheck.Timeout(func() error {
		return store.Ping(context.Background())
	}, time.Second))

	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr(),
		Handler: router.New(service.New(store), health),

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server started", slog.String("address", server.Addr))

		if err := server.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			// os.Exit skips deferred calls, so release the pool here.
			store.Close()
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		return
	}

	log.Info("server stopped gracefully")
}

// openStorage returns the backend selected by DB_DRIVER.
func openStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.Database.Driver == config.DriverSQLite {
		return sqlite.New(cfg)
	}
	return postgres.New(cfg)
}

// setupLogger returns a *slog.Logger configured for the given environment.
// Reload forces debug output, since it only makes sense while developing.
func setupLogger(env string, reload bool) *slog.Logger {
	switch {
	case env == "prod" && !reload:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	case env == "prod" || env == "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}
}
