package yaml

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ochairo/specfetch/internal/domain/entities"
)

// Manifest records what a run downloaded
type Manifest struct {
	Query       string          `yaml:"query"`
	GeneratedAt time.Time       `yaml:"generated_at"`
	Count       int             `yaml:"count"`
	Entries     []ManifestEntry `yaml:"entries"`
}

// ManifestEntry describes one downloaded spec
type ManifestEntry struct {
	Owner       string `yaml:"owner"`
	Repo        string `yaml:"repo"`
	Path        string `yaml:"path"`
	File        string `yaml:"file"`
	DownloadURL string `yaml:"download_url"`
	LocalPath   string `yaml:"local_path"`
	SHA256      string `yaml:"sha256"`
	Size        int64  `yaml:"size"`
}

// ManifestWriter writes run manifests as YAML files
type ManifestWriter struct {
	path string
	now  func() time.Time
}

// NewManifestWriter creates a writer targeting path
func NewManifestWriter(path string) *ManifestWriter {
	return &ManifestWriter{path: path, now: time.Now}
}

// Path returns the manifest location
func (w *ManifestWriter) Path() string {
	return w.path
}

// WriteManifest writes specs, their local paths and the SHA-256 of each written file.
// specs and localPaths are parallel slices.
func (w *ManifestWriter) WriteManifest(query string, specs []*entities.SpecMetadata, localPaths []string) error {
	if len(specs) != len(localPaths) {
		return fmt.Errorf("manifest has %d specs but %d local paths", len(specs), len(localPaths))
	}

	manifest := Manifest{
		Query:       query,
		GeneratedAt: w.now().UTC(),
		Count:       len(specs),
		Entries:     make([]ManifestEntry, len(specs)),
	}
	for i, spec := range specs {
		sum, size, err := fileDigest(localPaths[i])
		if err != nil {
			return fmt.Errorf("failed to checksum %s: %w", localPaths[i], err)
		}
		manifest.Entries[i] = ManifestEntry{
			Owner:       spec.Owner,
			Repo:        spec.Repo,
			Path:        spec.Path,
			File:        spec.File,
			DownloadURL: spec.DownloadURL,
			LocalPath:   localPaths[i],
			SHA256:      sum,
			Size:        size,
		}
	}

	data, err := yaml.Marshal(&manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0750); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	if err := os.WriteFile(w.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", w.path, err)
	}

	return nil
}

// ReadManifest loads a manifest written by WriteManifest
func ReadManifest(path string) (*Manifest, error) {
	//nolint:gosec // G304: path is the manifest location chosen by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &manifest, nil
}
