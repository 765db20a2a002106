// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ochairo/specfetch/internal/domain/entities"
	"github.com/ochairo/specfetch/internal/domain/interfaces"
	"github.com/ochairo/specfetch/internal/domain/interfaces/gateways"
	"github.com/ochairo/specfetch/internal/domain/interfaces/repositories"
	"github.com/ochairo/specfetch/internal/domain/services"
)

// Resolver interface for turning search results into downloadable specs
type Resolver interface {
	Resolve(ctx context.Context, results []*entities.SearchResult) ([]*entities.SpecMetadata, error)
}

// Downloader interface for writing specs into the destination directory
type Downloader interface {
	Prepare(destDir string) error
	DownloadAll(ctx context.Context, destDir string, specs []*entities.SpecMetadata) ([]string, error)
}

// DestinationLocker interface for serializing runs against one directory
type DestinationLocker interface {
	Acquire(ctx context.Context, destDir string) (func(), error)
}

// FetchOrchestrator coordinates the search, filter, resolve and download workflow
type FetchOrchestrator struct {
	searcher   gateways.CodeSearcher
	filter     *services.ResultFilter
	resolver   Resolver
	downloader Downloader
	lock       DestinationLocker
	manifest   repositories.ManifestRepository
	logger     interfaces.Logger
	query      string
	destDir    string
}

// FetchOrchestratorConfig holds configuration for the orchestrator
type FetchOrchestratorConfig struct {
	Query   string
	DestDir string
}

// FetchOption wires optional collaborators
type FetchOption func(*FetchOrchestrator)

// WithDestinationLock guards the destination directory for the duration of the download
func WithDestinationLock(lock DestinationLocker) FetchOption {
	return func(o *FetchOrchestrator) {
		o.lock = lock
	}
}

// WithManifest records every run in a manifest
func WithManifest(manifest repositories.ManifestRepository) FetchOption {
	return func(o *FetchOrchestrator) {
		o.manifest = manifest
	}
}

// WithLogger sets the progress logger
func WithLogger(logger interfaces.Logger) FetchOption {
	return func(o *FetchOrchestrator) {
		o.logger = interfaces.OrNoOp(logger)
	}
}

// NewFetchOrchestrator creates a new fetch orchestrator. A nil filter keeps every result.
func NewFetchOrchestrator(
	searcher gateways.CodeSearcher,
	filter *services.ResultFilter,
	resolver Resolver,
	downloader Downloader,
	config FetchOrchestratorConfig,
	opts ...FetchOption,
) *FetchOrchestrator {
	o := &FetchOrchestrator{
		searcher:   searcher,
		filter:     filter,
		resolver:   resolver,
		downloader: downloader,
		logger:     &interfaces.NoOpLogger{},
		query:      config.Query,
		destDir:    config.DestDir,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// FetchResult contains the result of a fetch run
type FetchResult struct {
	Query            string
	DestDir          string
	Found            int
	Matched          int
	Resolved         int
	Downloaded       int
	Files            []string
	Collisions       []services.Collision
	ManifestPath     string
	SearchDuration   time.Duration
	ResolveDuration  time.Duration
	DownloadDuration time.Duration
	TotalDuration    time.Duration
	Success          bool
	Error            error
}

// GetSummary returns a one-line human readable summary of the run
func (r *FetchResult) GetSummary() string {
	var b strings.Builder
	if r.Success {
		fmt.Fprintf(&b, "Downloaded %d specs to %s", r.Downloaded, r.DestDir)
	} else {
		fmt.Fprintf(&b, "Fetch failed after %d of %d downloads", r.Downloaded, r.Resolved)
	}
	fmt.Fprintf(&b, " (found %d, matched %d", r.Found, r.Matched)
	if len(r.Collisions) > 0 {
		fmt.Fprintf(&b, ", %d name collisions", len(r.Collisions))
	}
	fmt.Fprintf(&b, ") in %s", r.TotalDuration.Round(time.Millisecond))
	return b.String()
}

// Search runs the query and applies the exclusion filter without downloading anything
func (o *FetchOrchestrator) Search(ctx context.Context) ([]*entities.SearchResult, error) {
	_, matched, err := o.search(ctx)
	return matched, err
}

func (o *FetchOrchestrator) search(ctx context.Context) (found, matched []*entities.SearchResult, err error) {
	if strings.TrimSpace(o.query) == "" {
		return nil, nil, entities.NewError(entities.KindConfig, errors.New("search query must not be empty"))
	}

	found, err = o.searcher.SearchCode(ctx, o.query)
	if err != nil {
		return nil, nil, err
	}
	o.logger.Debug("Found results", interfaces.F("count", len(found)), interfaces.F("query", o.query))

	matched = o.filter.Apply(found)
	o.logger.Info(fmt.Sprintf("Matched %d results", len(matched)))
	return found, matched, nil
}

// Run executes the complete fetch workflow. Every stage error is returned as is.
func (o *FetchOrchestrator) Run(ctx context.Context) (*FetchResult, error) {
	startTime := time.Now()
	result := &FetchResult{Query: o.query, DestDir: o.destDir}
	fail := func(err error) (*FetchResult, error) {
		result.Error = err
		result.TotalDuration = time.Since(startTime)
		return result, err
	}

	if strings.TrimSpace(o.query) != "" && strings.TrimSpace(o.destDir) == "" {
		return fail(entities.NewError(entities.KindConfig, errors.New("destination directory must not be empty")))
	}

	// Step 1: Search and filter
	searchStart := time.Now()
	found, matched, err := o.search(ctx)
	if err != nil {
		return fail(err)
	}
	result.Found = len(found)
	result.Matched = len(matched)
	result.SearchDuration = time.Since(searchStart)

	// Step 2: Resolve download URLs
	resolveStart := time.Now()
	specs, err := o.resolver.Resolve(ctx, matched)
	if err != nil {
		return fail(err)
	}
	result.Resolved = len(specs)
	result.ResolveDuration = time.Since(resolveStart)

	// Step 3: Flag specs that will overwrite each other
	result.Collisions = services.FindCollisions(specs)
	for _, c := range result.Collisions {
		o.logger.Warn("destination name collision, last download wins",
			interfaces.F("file", c.FileName),
			interfaces.F("sources", strings.Join(c.Sources, ", ")))
	}

	// Step 4: Lock and prepare the destination
	if o.lock != nil {
		release, err := o.lock.Acquire(ctx, o.destDir)
		if err != nil {
			return fail(err)
		}
		defer release()
	}

	if err := o.downloader.Prepare(o.destDir); err != nil {
		return fail(err)
	}

	// Step 5: Download
	downloadStart := time.Now()
	files, err := o.downloader.DownloadAll(ctx, o.destDir, specs)
	result.Files = files
	result.Downloaded = len(files)
	result.DownloadDuration = time.Since(downloadStart)
	if err != nil {
		return fail(err)
	}

	// Step 6: Manifest
	if o.manifest != nil {
		if err := o.manifest.WriteManifest(o.query, specs, files); err != nil {
			return fail(entities.NewError(entities.KindFilesystem, errors.Wrap(err, "failed to write manifest")))
		}
		result.ManifestPath = o.manifest.Path()
	}

	result.Success = true
	result.TotalDuration = time.Since(startTime)
	o.logger.Info(fmt.Sprintf("Downloaded %d specs to %s", result.Downloaded, o.destDir))
	return result, nil
}
