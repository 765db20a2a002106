package main

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ochairo/specfetch/internal/config"
	"github.com/ochairo/specfetch/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/specfetch/internal/domain-orchestrators"
	"github.com/ochairo/specfetch/internal/domain/services"
	"github.com/ochairo/specfetch/internal/external-adapters/logging"
	"github.com/ochairo/specfetch/internal/external-adapters/yaml"
)

// app carries flag values and output streams shared by every subcommand
type app struct {
	out    io.Writer
	errOut io.Writer
	getenv func(string) string

	envFile      string
	settingsFile string
	overrides    config.Config
}

func (a *app) addFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&a.envFile, "env-file", "", "dotenv file to load (default .env when present)")
	f.StringVar(&a.settingsFile, "config", "", "YAML settings file")

	f.StringVar(&a.overrides.Token, "token", "", "GitHub access token (env "+config.EnvToken+")")
	f.StringVarP(&a.overrides.Query, "query", "q", "", "code search query (env "+config.EnvQuery+")")
	f.StringVarP(&a.overrides.DestDir, "dest", "d", "", "destination directory (env "+config.EnvDestDir+")")
	f.StringVar(&a.overrides.IgnoreRepos, "ignore-repos", "", "exclude results whose repository name matches this regex (env "+config.EnvIgnoreRepos+")")
	f.StringVar(&a.overrides.IgnoreFiles, "ignore-files", "", "exclude results whose file name matches this regex (env "+config.EnvIgnoreFiles+")")
	f.IntVar(&a.overrides.Concurrency, "concurrency", config.DefaultConcurrency, "maximum concurrent detail lookups, 0 for unlimited (env "+config.EnvConcurrency+")")
	f.StringVar(&a.overrides.APIBaseURL, "api-url", config.DefaultAPIBaseURL, "GitHub API base URL (env "+config.EnvAPIBaseURL+")")
	f.StringVar(&a.overrides.ManifestPath, "manifest", "", "write a YAML manifest of downloaded specs to this path (env "+config.EnvManifestPath+")")
	f.StringVar(&a.overrides.LogLevel, "log-level", config.DefaultLogLevel, "debug, info, warn or error (env "+config.EnvLogLevel+")")
	f.DurationVar(&a.overrides.LockTimeout, "lock-timeout", config.DefaultLockTimeout, "how long to wait for the {dest}.lock file lock, 0 waits forever (env "+config.EnvLockTimeout+")")
	f.DurationVar(&a.overrides.HTTPTimeout, "http-timeout", 0, "per-request HTTP timeout, 0 for none (env "+config.EnvHTTPTimeout+")")
}

// loadConfig reads defaults, settings file and environment, then applies the
// flags the user actually set
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		EnvFile:      a.envFile,
		SettingsFile: a.settingsFile,
		Getenv:       a.getenv,
	})
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	overrideString := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	overrideDuration := func(name string, dst *time.Duration, v time.Duration) {
		if flags.Changed(name) {
			*dst = v
		}
	}

	overrideString("token", &cfg.Token, a.overrides.Token)
	overrideString("query", &cfg.Query, a.overrides.Query)
	overrideString("dest", &cfg.DestDir, a.overrides.DestDir)
	overrideString("ignore-repos", &cfg.IgnoreRepos, a.overrides.IgnoreRepos)
	overrideString("ignore-files", &cfg.IgnoreFiles, a.overrides.IgnoreFiles)
	overrideString("api-url", &cfg.APIBaseURL, a.overrides.APIBaseURL)
	overrideString("manifest", &cfg.ManifestPath, a.overrides.ManifestPath)
	overrideString("log-level", &cfg.LogLevel, a.overrides.LogLevel)
	overrideDuration("lock-timeout", &cfg.LockTimeout, a.overrides.LockTimeout)
	overrideDuration("http-timeout", &cfg.HTTPTimeout, a.overrides.HTTPTimeout)
	if flags.Changed("concurrency") {
		cfg.Concurrency = a.overrides.Concurrency
	}

	return cfg, nil
}

// newPipeline validates cfg and wires the gateway, filter, resolver, downloader, lock and manifest
func (a *app) newPipeline(cfg *config.Config) (*orchestrators.FetchOrchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	destDir, err := cfg.AbsDestDir()
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogrusLogger(cfg.LogLevel, a.errOut)
	if err != nil {
		return nil, err
	}

	gateway, err := gateways.NewHTTPGitHubGateway(cfg.Token,
		gateways.WithBaseURL(cfg.APIBaseURL),
		gateways.WithTimeout(cfg.HTTPTimeout),
		gateways.WithUserAgent("specfetch/"+version),
		gateways.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	filter, err := services.NewResultFilter(cfg.IgnoreRepos, cfg.IgnoreFiles)
	if err != nil {
		return nil, err
	}

	resolver, err := gateways.NewArtifactResolver(gateway, gateways.ResolverConfig{Concurrency: cfg.Concurrency}, logger)
	if err != nil {
		return nil, err
	}

	opts := []orchestrators.FetchOption{
		orchestrators.WithLogger(logger),
		orchestrators.WithDestinationLock(gateways.NewDestinationLock(cfg.LockTimeout)),
	}
	if cfg.ManifestPath != "" {
		opts = append(opts, orchestrators.WithManifest(yaml.NewManifestWriter(cfg.ManifestPath)))
	}

	return orchestrators.NewFetchOrchestrator(
		gateway,
		filter,
		resolver,
		gateways.NewDownloader(gateway, logger),
		orchestrators.FetchOrchestratorConfig{Query: cfg.Query, DestDir: destDir},
		opts...,
	), nil
}
