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

	"github.com/star/exoview/internal/api"
	"github.com/star/exoview/internal/dataset"
	"github.com/star/exoview/internal/errorpage"
	"github.com/star/exoview/internal/health"
	"github.com/star/exoview/internal/i18n"
	"github.com/star/exoview/internal/session"
	"github.com/star/exoview/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(os.Stdout)
	if err != nil {
		return err
	}
	cfg.Log(logger)

	bundle, err := i18n.LoadEmbedded()
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}
	lang := i18n.NewService(bundle, cfg.DefaultLang, logger)

	fetcher, backend, err := newFetcher(cfg, logger)
	if err != nil {
		return err
	}

	var checks []health.Check
	if backend != nil {
		checks = append(checks, health.Check{Name: "backend", Fn: backend.Ping})
	}

	sessions := session.NewStore(cfg.SessionTTL, cfg.SessionMax, func() *dataset.Loader {
		return dataset.NewLoader(fetcher, cfg.FetchTimeout, logger)
	}, logger)

	srv := api.NewServer(cfg.HTTPAddr, logger, api.Deps{
		Sessions:   sessions,
		Lang:       lang,
		ErrorPage:  errorpage.New(lang, logger),
		Static:     web.Content,
		Checks:     checks,
		TrustProxy: cfg.TrustProxy,
	})

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sessions.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
