// Package config assembles the pipeline configuration from defaults, an optional
// YAML settings file, the environment (including a .env file) and CLI overrides.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/ochairo/specfetch/internal/domain/entities"
	"github.com/ochairo/specfetch/internal/domain/services"
	"github.com/ochairo/specfetch/internal/external-adapters/logging"
	"github.com/ochairo/specfetch/internal/external-adapters/yaml"
)

// Environment variable names
const (
	EnvToken        = "GITHUB_API_KEY"
	EnvQuery        = "SEARCH_QUERY"
	EnvDestDir      = "DEST_DIR"
	EnvIgnoreRepos  = "IGNORE_REPOS"
	EnvIgnoreFiles  = "IGNORE_FILES"
	EnvConcurrency  = "RESOLVE_CONCURRENCY"
	EnvAPIBaseURL   = "GITHUB_API_URL"
	EnvManifestPath = "MANIFEST_PATH"
	EnvLogLevel     = "LOG_LEVEL"
	EnvLockTimeout  = "LOCK_TIMEOUT"
	EnvHTTPTimeout  = "HTTP_TIMEOUT"
)

// Defaults
const (
	DefaultConcurrency = 8
	DefaultAPIBaseURL  = "https://api.github.com"
	DefaultLogLevel    = "info"
	DefaultLockTimeout = 30 * time.Second
)

// tokenFallbacks are consulted in order when GITHUB_API_KEY is unset
var tokenFallbacks = []string{"GITHUB_TOKEN", "GH_TOKEN"}

// Config is everything a pipeline run needs
type Config struct {
	Token        string
	Query        string
	DestDir      string
	IgnoreRepos  string
	IgnoreFiles  string
	Concurrency  int // 0 means unlimited
	APIBaseURL   string
	ManifestPath string // empty disables the manifest
	LogLevel     string
	LockTimeout  time.Duration // 0 waits indefinitely
	HTTPTimeout  time.Duration // 0 means no client timeout
}

// LoadOptions controls where Load reads from
type LoadOptions struct {
	// EnvFile is an explicit dotenv file; when empty ".env" is loaded if present
	EnvFile string
	// SettingsFile is an optional YAML settings file
	SettingsFile string
	// Getenv defaults to os.Getenv
	Getenv func(string) string
}

// Default returns a Config holding only default values
func Default() *Config {
	return &Config{
		Concurrency: DefaultConcurrency,
		APIBaseURL:  DefaultAPIBaseURL,
		LogLevel:    DefaultLogLevel,
		LockTimeout: DefaultLockTimeout,
	}
}

// Load builds a Config: defaults, then the settings file, then the environment.
// The result is not validated; call Validate after applying CLI overrides.
func Load(opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, entities.NewError(entities.KindConfig, errors.Wrapf(err, "failed to load env file %s", opts.EnvFile))
		}
	} else {
		_ = godotenv.Load()
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := Default()

	if opts.SettingsFile != "" {
		settings, err := yaml.ParseSettingsFile(opts.SettingsFile)
		if err != nil {
			return nil, entities.NewError(entities.KindConfig, errors.Wrap(err, "failed to load settings file"))
		}
		if err := cfg.applySettings(settings); err != nil {
			return nil, entities.NewError(entities.KindConfig, errors.Wrapf(err, "invalid settings file %s", opts.SettingsFile))
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, entities.NewError(entities.KindConfig, err)
	}

	return cfg, nil
}

func (c *Config) applySettings(s *yaml.Settings) error {
	setString(&c.Query, s.Query)
	setString(&c.DestDir, s.DestDir)
	setString(&c.IgnoreRepos, s.IgnoreRepos)
	setString(&c.IgnoreFiles, s.IgnoreFiles)
	setString(&c.APIBaseURL, s.APIBaseURL)
	setString(&c.ManifestPath, s.ManifestPath)
	setString(&c.LogLevel, s.LogLevel)
	if s.Concurrency != nil {
		c.Concurrency = *s.Concurrency
	}

	var result *multierror.Error
	if s.LockTimeout != nil {
		d, err := time.ParseDuration(*s.LockTimeout)
		if err != nil {
			result = multierror.Append(result, errors.Wrap(err, "lock_timeout"))
		}
		c.LockTimeout = d
	}
	if s.HTTPTimeout != nil {
		d, err := time.ParseDuration(*s.HTTPTimeout)
		if err != nil {
			result = multierror.Append(result, errors.Wrap(err, "http_timeout"))
		}
		c.HTTPTimeout = d
	}
	return result.ErrorOrNil()
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if token := firstNonEmpty(envValues(getenv, append([]string{EnvToken}, tokenFallbacks...))...); token != "" {
		c.Token = token
	}

	setFromEnv(&c.Query, getenv(EnvQuery))
	setFromEnv(&c.DestDir, getenv(EnvDestDir))
	setFromEnv(&c.IgnoreRepos, getenv(EnvIgnoreRepos))
	setFromEnv(&c.IgnoreFiles, getenv(EnvIgnoreFiles))
	setFromEnv(&c.APIBaseURL, strings.TrimSpace(getenv(EnvAPIBaseURL)))
	setFromEnv(&c.ManifestPath, getenv(EnvManifestPath))
	setFromEnv(&c.LogLevel, strings.TrimSpace(getenv(EnvLogLevel)))

	var result *multierror.Error
	if raw := strings.TrimSpace(getenv(EnvConcurrency)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			result = multierror.Append(result, errors.Wrap(err, EnvConcurrency))
		}
		c.Concurrency = n
	}
	if raw := strings.TrimSpace(getenv(EnvLockTimeout)); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			result = multierror.Append(result, errors.Wrap(err, EnvLockTimeout))
		}
		c.LockTimeout = d
	}
	if raw := strings.TrimSpace(getenv(EnvHTTPTimeout)); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			result = multierror.Append(result, errors.Wrap(err, EnvHTTPTimeout))
		}
		c.HTTPTimeout = d
	}
	return result.ErrorOrNil()
}

// Validate reports every configuration problem at once as a KindConfig error
func (c *Config) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(c.Token) == "" {
		result = multierror.Append(result, errors.Errorf("access token is required (set %s)", EnvToken))
	}
	if strings.TrimSpace(c.Query) == "" {
		result = multierror.Append(result, errors.Errorf("search query is required (set %s)", EnvQuery))
	}
	if strings.TrimSpace(c.DestDir) == "" {
		result = multierror.Append(result, errors.Errorf("destination directory is required (set %s)", EnvDestDir))
	}
	if c.Concurrency < 0 {
		result = multierror.Append(result, errors.Errorf("concurrency must be >= 0, got %d", c.Concurrency))
	}
	if c.LockTimeout < 0 {
		result = multierror.Append(result, errors.Errorf("lock timeout must be >= 0, got %s", c.LockTimeout))
	}
	if c.HTTPTimeout < 0 {
		result = multierror.Append(result, errors.Errorf("http timeout must be >= 0, got %s", c.HTTPTimeout))
	}
	if _, err := services.CompilePattern(c.IgnoreRepos); err != nil {
		result = multierror.Append(result, errors.Wrapf(err, "invalid %s pattern %q", EnvIgnoreRepos, c.IgnoreRepos))
	}
	if _, err := services.CompilePattern(c.IgnoreFiles); err != nil {
		result = multierror.Append(result, errors.Wrapf(err, "invalid %s pattern %q", EnvIgnoreFiles, c.IgnoreFiles))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, err)
	}

	if err := result.ErrorOrNil(); err != nil {
		return entities.NewError(entities.KindConfig, err)
	}
	return nil
}

// AbsDestDir resolves DestDir against the working directory
func (c *Config) AbsDestDir() (string, error) {
	abs, err := filepath.Abs(c.DestDir)
	if err != nil {
		return "", entities.NewError(entities.KindConfig, errors.Wrapf(err, "failed to resolve destination %s", c.DestDir))
	}
	return abs, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setFromEnv(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func envValues(getenv func(string) string, keys []string) []string {
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = strings.TrimSpace(getenv(k))
	}
	return values
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
