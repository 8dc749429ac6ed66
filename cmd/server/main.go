package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hongminglow/spamid-be/internal/config"
	"github.com/hongminglow/spamid-be/internal/logger"
	"github.com/hongminglow/spamid-be/internal/server"
	"github.com/hongminglow/spamid-be/internal/storage"
	"github.com/hongminglow/spamid-be/internal/storage/memory"
	postgres "github.com/hongminglow/spamid-be/internal/storage/postgres"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	envLoaded := loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()
	if !envLoaded {
		zl.Info("no .env file found; relying on existing environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init %s storage: %w", cfg.StorageDriver, err)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := server.New(cfg, server.Deps{Store: store, Logger: zl, Registry: reg})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zl.Info("spamid backend listening", zap.String("addr", cfg.HTTPAddress()), zap.String("storage", cfg.StorageDriver))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	zl.Info("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	if cfg.StorageDriver == config.DriverMemory {
		return memory.New(), nil
	}
	return postgres.NewStore(ctx, cfg.DatabaseURL)
}

func loadLocalEnv() bool {
	return godotenv.Load() == nil
}
