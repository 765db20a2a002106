// Package entities defines core domain models and data structures.
package entities

// SpecMetadata describes one resolved search hit that can be downloaded
type SpecMetadata struct {
	Owner       string // Repository owner login (user or organization)
	Repo        string
	Path        string // File path within the repository
	File        string
	DownloadURL string
}

// FileName returns the local file name for the spec: "{repo}-{file}".
// Two specs from the same repository sharing a file name map to the same name.
func (s SpecMetadata) FileName() string {
	return s.Repo + "-" + s.File
}

// NewSpecMetadata builds the metadata for a search result and its resolved download URL
func NewSpecMetadata(result *SearchResult, downloadURL string) *SpecMetadata {
	return &SpecMetadata{
		Owner:       result.RepoOwner,
		Repo:        result.RepoName,
		Path:        result.Path,
		File:        result.Name,
		DownloadURL: downloadURL,
	}
}
