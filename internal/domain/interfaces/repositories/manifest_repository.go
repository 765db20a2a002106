// Package repositories defines interfaces for data access layers.
package repositories

import "github.com/ochairo/specfetch/internal/domain/entities"

// ManifestRepository records what a run downloaded
type ManifestRepository interface {
	// WriteManifest stores the fetched specs and where each one was written.
	// specs and localPaths are parallel slices.
	WriteManifest(query string, specs []*entities.SpecMetadata, localPaths []string) error

	// Path returns the manifest location
	Path() string
}
