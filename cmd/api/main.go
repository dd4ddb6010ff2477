package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"carsapi/pkg/car"
	"carsapi/pkg/car/memory"
	"carsapi/pkg/car/postgres"
	"carsapi/pkg/config"
	"carsapi/pkg/httpapi"
	"carsapi/pkg/logger"
	"carsapi/pkg/otel"
	"carsapi/pkg/uploadlog"
)

// @title Cars CRUD API
// @version 1.0
// @description API for managing cars with CSV bulk upload
// @host localhost:8000
// @BasePath /
func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel), "carsapi", otel.GetTraceID)
	if err := run(log, cfg); err != nil {
		log.Error(context.Background(), "startup", "error", err)
		os.Exit(1)
	}
}

func run(log *logger.Logger, cfg config.Config) error {
	ctx := context.Background()

	tp, shutdown, err := otel.InitTracing(log, otel.Config{ServiceName: "carsapi", Host: cfg.OtelHost, Probability: cfg.OtelSampleRatio})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdown(context.Background())

	repo, closeRepo, err := openRepository(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	if cfg.Seed {
		for _, c := range car.Seed() {
			if err := repo.Upsert(ctx, c); err != nil {
				return fmt.Errorf("seed car %d: %w", c.ID, err)
			}
		}
		log.Info(ctx, "seeded cars", "count", len(car.Seed()))
	}

	journal, closeJournal, err := openJournal(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer closeJournal()

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.New(httpapi.Options{
			Service:        car.NewService(repo),
			Journal:        journal,
			Logger:         log,
			Tracer:         tp.Tracer("carsapi"),
			MaxUploadBytes: cfg.UploadMaxBytes,
			CORSOrigins:    cfg.CORSOrigins,
		}),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(log.Slog().Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", cfg.HTTPAddr, "tls", cfg.TLS(), "backend", cfg.StoreBackend)
		if cfg.TLS() {
			serverErrors <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		serverErrors <- srv.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case s := <-sig:
		log.Info(ctx, "shutdown started", "signal", s.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			srv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		log.Info(ctx, "shutdown complete")
	}
	return nil
}

func openRepository(ctx context.Context, log *logger.Logger, cfg config.Config) (car.Repository, func(), error) {
	if cfg.StoreBackend != config.BackendPostgres {
		return memory.New(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}
	repo := postgres.New(db)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create table: %w", err)
	}
	log.Info(ctx, "connected to postgres")
	return repo, func() { db.Close() }, nil
}

func openJournal(ctx context.Context, log *logger.Logger, cfg config.Config) (uploadlog.Journal, func(), error) {
	if cfg.RedisAddr == "" {
		return uploadlog.NewMemory(cfg.UploadHistorySize), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info(ctx, "upload journal on redis", "addr", cfg.RedisAddr, "key", cfg.UploadHistoryKey)
	return uploadlog.NewRedis(client, cfg.UploadHistoryKey, cfg.UploadHistorySize), func() { client.Close() }, nil
}
