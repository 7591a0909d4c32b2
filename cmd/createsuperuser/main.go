// Command createsuperuser creates an admin account (and its profile) in the
// database named by DB_URL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/library-manager/internal/config"
	"github.com/Clark-Hu/library-manager/internal/logger"
	"github.com/Clark-Hu/library-manager/internal/repository"
	"github.com/Clark-Hu/library-manager/internal/store"
)

func main() {
	username := flag.String("username", "admin", "account username")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "account password (defaults to $ADMIN_PASSWORD)")
	flag.Parse()

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

	err = run(cfg, log, *username, *password)
	if err != nil {
		log.Error("create superuser failed", zap.Error(err))
	}
	_ = log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger, username, password string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := store.New(ctx, cfg.DBURL, store.Options{
		MaxConns:    2,
		ConnTimeout: time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		Logger:      log.Named("store"),
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer st.Close()

	if cfg.AutoMigrate {
		if err := st.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	profile, err := repository.New(st).Users.Create(ctx, repository.UserCreateParams{
		Username:    username,
		Password:    password,
		IsSuperuser: true,
	})
	switch {
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("username %q already taken", username)
	case err != nil:
		return fmt.Errorf("create superuser: %w", err)
	}

	log.Info("superuser created",
		zap.String("username", profile.User.Username),
		zap.String("user_id", profile.UserID.String()))
	return nil
}
