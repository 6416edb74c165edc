// Package config loads the service configuration from EXOVIEW_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/star/exoview/internal/logging"
)

// Prefix is prepended to every environment variable name.
const Prefix = "EXOVIEW_"

// Config holds runtime configuration.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BackendURL is the dataset API base URL. When empty, rows are served
	// from FixtureFile or the embedded fixture.
	BackendURL   string        `env:"BACKEND_URL"`
	FixtureFile  string        `env:"FIXTURE_FILE"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`

	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	SessionMax  int           `env:"SESSION_MAX" envDefault:"10000"`
	TrustProxy  bool          `env:"TRUST_PROXY" envDefault:"false"`
	DefaultLang string        `env:"DEFAULT_LANG" envDefault:"en-US"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads the process environment.
func Load() (Config, error) {
	return load(env.Options{Prefix: Prefix})
}

// LoadFrom reads configuration from environ instead of the process
// environment. Keys carry the EXOVIEW_ prefix.
func LoadFrom(environ map[string]string) (Config, error) {
	return load(env.Options{Prefix: Prefix, Environment: environ})
}

func load(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges that env tags cannot express.
func (c Config) Validate() error {
	var errs []error
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%sFETCH_TIMEOUT must be positive, got %s", Prefix, c.FetchTimeout))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("%sSESSION_TTL must be positive, got %s", Prefix, c.SessionTTL))
	}
	if c.SessionMax <= 0 {
		errs = append(errs, fmt.Errorf("%sSESSION_MAX must be positive, got %d", Prefix, c.SessionMax))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%sLOG_LEVEL: %w", Prefix, err))
	}
	if c.BackendURL != "" {
		u, err := url.Parse(c.BackendURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("%sBACKEND_URL must be an absolute http(s) URL, got %q", Prefix, c.BackendURL))
		}
	}
	return errors.Join(errs...)
}

// Log writes the effective configuration.
func (c Config) Log(logger *slog.Logger) {
	source := "backend"
	if c.BackendURL == "" {
		source = "fixture"
	}
	logger.Info("config",
		"component", "config",
		"http_addr", c.HTTPAddr,
		"dataset_source", source,
		"backend_url", c.BackendURL,
		"fixture_file", c.FixtureFile,
		"fetch_timeout_seconds", c.FetchTimeout.Seconds(),
		"session_ttl_seconds", c.SessionTTL.Seconds(),
		"session_max", c.SessionMax,
		"trust_proxy", c.TrustProxy,
		"default_lang", c.DefaultLang,
		"log_level", c.LogLevel,
	)
}
