package gateways

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ochairo/specfetch/internal/domain/entities"
	"github.com/ochairo/specfetch/internal/domain/interfaces"
	"github.com/ochairo/specfetch/internal/domain/interfaces/gateways"
)

// resolverCacheSize bounds the lookup URL -> download URL memo
const resolverCacheSize = 1024

// ResolverConfig holds configuration for the artifact resolver
type ResolverConfig struct {
	// Concurrency caps in-flight detail lookups; 0 or less means unlimited
	Concurrency int
}

// ArtifactResolver turns search results into downloadable spec metadata
type ArtifactResolver struct {
	details     gateways.DetailResolver
	concurrency int
	cache       *lru.Cache[string, string]
	inflight    singleflight.Group
	logger      interfaces.Logger
}

// NewArtifactResolver creates a resolver backed by the given detail lookup
func NewArtifactResolver(details gateways.DetailResolver, config ResolverConfig, logger interfaces.Logger) (*ArtifactResolver, error) {
	cache, err := lru.New[string, string](resolverCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create resolver cache")
	}

	return &ArtifactResolver{
		details:     details,
		concurrency: config.Concurrency,
		cache:       cache,
		logger:      interfaces.OrNoOp(logger),
	}, nil
}

// Resolve looks up every result concurrently and returns one SpecMetadata per
// result, in input order. The first failed lookup cancels the rest and fails the batch.
func (r *ArtifactResolver) Resolve(ctx context.Context, results []*entities.SearchResult) ([]*entities.SpecMetadata, error) {
	specs := make([]*entities.SpecMetadata, len(results))
	if len(results) == 0 {
		return specs, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}

	for i, result := range results {
		i, result := i, result
		g.Go(func() error {
			downloadURL, err := r.lookup(gCtx, result.URL)
			if err != nil {
				return errors.Wrapf(err, "failed to fetch details for result %s", result.URL)
			}
			specs[i] = entities.NewSpecMetadata(result, downloadURL)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Debug("resolved download locations", interfaces.F("count", len(specs)))
	return specs, nil
}

// lookup resolves one lookup URL, sharing in-flight and completed lookups
func (r *ArtifactResolver) lookup(ctx context.Context, lookupURL string) (string, error) {
	if downloadURL, ok := r.cache.Get(lookupURL); ok {
		return downloadURL, nil
	}

	v, err, shared := r.inflight.Do(lookupURL, func() (interface{}, error) {
		if downloadURL, ok := r.cache.Get(lookupURL); ok {
			return downloadURL, nil
		}
		downloadURL, err := r.details.GetDownloadURL(ctx, lookupURL)
		if err != nil {
			return "", err
		}
		r.cache.Add(lookupURL, downloadURL)
		return downloadURL, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		r.logger.Debug("collapsed duplicate detail lookup", interfaces.F("url", lookupURL))
	}

	return v.(string), nil
}
