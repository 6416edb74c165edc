package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/star/exoview/internal/config"
	"github.com/star/exoview/internal/dataset"
	"github.com/star/exoview/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:          "exoview",
	Short:        "Exoplanet dataset table viewer",
	Long:         "Exoview serves a per-telescope table of exoplanet rows fetched from a dataset backend.",
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and builds a logger writing to w.
func setup(w io.Writer) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(w, cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// newFetcher selects the HTTP backend when one is configured and the fixture
// otherwise. The returned fetcher is non-nil only for the HTTP backend.
func newFetcher(cfg config.Config, logger *slog.Logger) (dataset.Fetcher, *dataset.HTTPFetcher, error) {
	if cfg.BackendURL != "" {
		f := dataset.NewHTTPFetcher(cfg.BackendURL, cfg.FetchTimeout, logger)
		return f, f, nil
	}
	f, err := dataset.LoadStaticFetcher(cfg.FixtureFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load fixture: %w", err)
	}
	return f, nil, nil
}
