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

	"github.com/spf13/cobra"

	"github.com/conorfennell/flashlearn/internal/auth"
	"github.com/conorfennell/flashlearn/internal/generator"
	"github.com/conorfennell/flashlearn/internal/importer"
	"github.com/conorfennell/flashlearn/internal/learn"
	"github.com/conorfennell/flashlearn/internal/storage"
	"github.com/conorfennell/flashlearn/internal/web"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web interface and JSON API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := storage.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.DB)

	gen, err := generator.New(generator.Config{
		Provider: cfg.Generator.Provider,
		OpenAI: generator.OpenAIConfig{
			APIKey:  cfg.Generator.APIKey,
			BaseURL: cfg.Generator.BaseURL,
			Model:   cfg.Generator.Model,
		},
	}, logger)
	if err != nil {
		return err
	}
	costs := generator.NewCostTracker(db, cfg.Generator.DailyLimitUSD, cfg.Generator.MonthlyLimitUSD, logger)

	srv, err := web.NewServer(web.Options{
		DB:            db,
		Auth:          auth.NewService(db, auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL), logger),
		Learn:         learn.NewService(db, db, learn.WithLogger(logger)),
		Generator:     generator.NewService(gen, costs, db, logger),
		Importer:      importer.New(db, cfg.ReposDir, logger),
		RatePerMinute: cfg.Generator.RatePerMinute,
		SecureCookies: cfg.SecureCookies,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Addr, "generator", gen.ModelID())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
