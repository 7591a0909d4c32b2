package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/library-manager/internal/config"
	httpserver "github.com/Clark-Hu/library-manager/internal/http"
	"github.com/Clark-Hu/library-manager/internal/logger"
	"github.com/Clark-Hu/library-manager/internal/recommend"
	"github.com/Clark-Hu/library-manager/internal/repository"
	"github.com/Clark-Hu/library-manager/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Development(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 log.Named("store"),
	}

	st, err := store.New(dbCtx, cfg.DBURL, storeOpts)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer st.Close()

	if cfg.AutoMigrate {
		if err := st.Migrate(dbCtx); err != nil {
			log.Fatal("migrate database", zap.Error(err))
		}
	}

	repo := repository.New(st)
	rec := recommend.New(repo.Recommendations, recommend.Config{
		DefaultLimit:  cfg.RecommendLimit,
		LikeThreshold: cfg.LikeThreshold,
	}, log.Named("recommend"))
	server := httpserver.New(cfg, st, repo, rec, log)

	log.Info("starting library manager",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
		zap.Bool("admin_token", cfg.AdminToken != ""))

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			log.Error("server error", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("graceful shutdown error", zap.Error(err))
	}
}
