// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"
	"io"

	"github.com/ochairo/specfetch/internal/domain/entities"
)

// CodeSearcher runs code search queries against the hosting platform
type CodeSearcher interface {
	// SearchCode returns every result for query, following pagination in server order
	SearchCode(ctx context.Context, query string) ([]*entities.SearchResult, error)
}

// DetailResolver performs the per-result detail lookup
type DetailResolver interface {
	// GetDownloadURL fetches lookupURL and returns the direct download location
	GetDownloadURL(ctx context.Context, lookupURL string) (string, error)
}

// ArtifactSource opens the raw content behind a download location
type ArtifactSource interface {
	// OpenDownload starts an authenticated streamed request; the caller closes the body
	OpenDownload(ctx context.Context, downloadURL string) (io.ReadCloser, error)
}

// CodeHostGateway is the full set of operations the pipeline needs from the platform
type CodeHostGateway interface {
	CodeSearcher
	DetailResolver
	ArtifactSource
}
