// Package services implements domain business logic: result filtering and destination naming.
package services

import (
	"github.com/coregx/coregex"
	"github.com/pkg/errors"

	"github.com/ochairo/specfetch/internal/domain/entities"
)

// ResultFilter drops search results whose repository or file name matches an exclusion pattern
type ResultFilter struct {
	ignoreRepos *coregex.Regexp
	ignoreFiles *coregex.Regexp
}

// NewResultFilter compiles the exclusion patterns. An empty pattern disables that side.
func NewResultFilter(ignoreRepos, ignoreFiles string) (*ResultFilter, error) {
	repoRe, err := CompilePattern(ignoreRepos)
	if err != nil {
		return nil, entities.NewError(entities.KindConfig, errors.Wrap(err, "invalid repository exclusion pattern"))
	}

	fileRe, err := CompilePattern(ignoreFiles)
	if err != nil {
		return nil, entities.NewError(entities.KindConfig, errors.Wrap(err, "invalid file exclusion pattern"))
	}

	return &ResultFilter{
		ignoreRepos: repoRe,
		ignoreFiles: fileRe,
	}, nil
}

// CompilePattern compiles a non-empty exclusion pattern; "" yields a nil matcher
func CompilePattern(pattern string) (*coregex.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return coregex.Compile(pattern)
}

// Apply returns the results that match neither pattern, preserving order
func (f *ResultFilter) Apply(results []*entities.SearchResult) []*entities.SearchResult {
	if f == nil || (f.ignoreRepos == nil && f.ignoreFiles == nil) {
		return results
	}

	filtered := make([]*entities.SearchResult, 0, len(results))
	for _, r := range results {
		if f.Excludes(r) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

// Excludes reports whether a single result is dropped by the filter
func (f *ResultFilter) Excludes(r *entities.SearchResult) bool {
	if f.ignoreRepos != nil && f.ignoreRepos.MatchString(r.RepoName) {
		return true
	}
	if f.ignoreFiles != nil && f.ignoreFiles.MatchString(r.Name) {
		return true
	}
	return false
}
