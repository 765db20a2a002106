// Package yaml provides YAML-based settings parsing and manifest writing.
package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings is the on-disk form of a specfetch settings file.
// Pointer fields distinguish "absent" from an explicit zero value.
type Settings struct {
	Query        *string `yaml:"query"`
	DestDir      *string `yaml:"dest_dir"`
	IgnoreRepos  *string `yaml:"ignore_repos"`
	IgnoreFiles  *string `yaml:"ignore_files"`
	Concurrency  *int    `yaml:"concurrency"`
	APIBaseURL   *string `yaml:"api_url"`
	ManifestPath *string `yaml:"manifest"`
	LogLevel     *string `yaml:"log_level"`
	LockTimeout  *string `yaml:"lock_timeout"`
	HTTPTimeout  *string `yaml:"http_timeout"`
}

// ParseSettingsFile reads and decodes a settings file. Unknown keys are rejected.
// The access token is deliberately not a settings key; it only comes from the environment.
func ParseSettingsFile(filePath string) (*Settings, error) {
	//nolint:gosec // G304: filePath is the settings file named by the user
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return ParseSettings(data)
}

// ParseSettings decodes settings from YAML bytes
func ParseSettings(data []byte) (*Settings, error) {
	var settings Settings
	if len(bytes.TrimSpace(data)) == 0 {
		return &settings, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&settings); err != nil {
		if errors.Is(err, io.EOF) {
			return &settings, nil // comments only
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &settings, nil
}
