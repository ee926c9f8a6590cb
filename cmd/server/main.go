package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yusufekamaulana/rsua-akreditasi/config"
	"github.com/yusufekamaulana/rsua-akreditasi/core/appbootstrap"
	"github.com/yusufekamaulana/rsua-akreditasi/core/store"
	"github.com/yusufekamaulana/rsua-akreditasi/core/utils"
)

func main() {
	_ = godotenv.Load()

	configPath := os.Getenv("RSUA_CONFIG")
	if configPath == "" {
		configPath = "config.yml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		utils.NewLogger().Errorf("config: %v", err)
		os.Exit(1)
	}

	logger := utils.NewLoggerWith(utils.LogOptions{
		Level:      cfg.Log.Level,
		FilePath:   cfg.Log.FilePath,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Console:    cfg.Log.Console,
	})

	if err := run(cfg, logger); err != nil {
		logger.Errorf("server: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, logger *utils.Logger) error {
	ctx := context.Background()

	db, err := store.NewDB(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.DBDriver, logger); err != nil {
		return err
	}

	rt, err := appbootstrap.Compose(cfg, db, logger)
	if err != nil {
		return err
	}
	if err := appbootstrap.EnsureAdminUser(ctx, rt.Users, cfg, logger); err != nil {
		return err
	}

	rt.Sweeper.Start()
	defer rt.Sweeper.Stop()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           rt.Server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("server: listening on %s", cfg.ListenAddr)
		if cfg.TLSEnabled {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		logger.Printf("server: received %s, shutting down", sig)
		shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
