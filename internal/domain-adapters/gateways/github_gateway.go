// Package gateways provides implementations of domain gateway interfaces.
package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"github.com/pkg/errors"

	"github.com/ochairo/specfetch/internal/domain/entities"
	"github.com/ochairo/specfetch/internal/domain/interfaces"
	"github.com/ochairo/specfetch/internal/domain/interfaces/gateways"
)

const (
	// DefaultAPIBaseURL is the public GitHub REST endpoint
	DefaultAPIBaseURL = "https://api.github.com"

	searchPageSize    = 100
	lowRateLimitLevel = 10
	defaultUserAgent  = "specfetch/1.0"
)

var _ gateways.CodeHostGateway = (*HTTPGitHubGateway)(nil)

// HTTPGitHubGateway implements code search and detail lookups on go-github and
// streams raw downloads over plain HTTP
type HTTPGitHubGateway struct {
	api       *github.Client
	raw       *http.Client
	token     string
	baseURL   string
	userAgent string
	timeout   time.Duration
	logger    interfaces.Logger
}

// GatewayOption customizes an HTTPGitHubGateway
type GatewayOption func(*HTTPGitHubGateway)

// WithBaseURL points the gateway at another API root (GitHub Enterprise, tests)
func WithBaseURL(baseURL string) GatewayOption {
	return func(g *HTTPGitHubGateway) {
		if baseURL != "" {
			g.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTimeout sets an overall per-request timeout; zero means none
func WithTimeout(timeout time.Duration) GatewayOption {
	return func(g *HTTPGitHubGateway) {
		g.timeout = timeout
	}
}

// WithLogger sets the logger used for rate limit and pagination warnings
func WithLogger(logger interfaces.Logger) GatewayOption {
	return func(g *HTTPGitHubGateway) {
		g.logger = interfaces.OrNoOp(logger)
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(userAgent string) GatewayOption {
	return func(g *HTTPGitHubGateway) {
		if userAgent != "" {
			g.userAgent = userAgent
		}
	}
}

// NewHTTPGitHubGateway creates a new GitHub gateway. Each gateway owns its HTTP clients.
func NewHTTPGitHubGateway(token string, opts ...GatewayOption) (*HTTPGitHubGateway, error) {
	g := &HTTPGitHubGateway{
		token:     token,
		baseURL:   DefaultAPIBaseURL,
		userAgent: defaultUserAgent,
		logger:    &interfaces.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(g)
	}

	base, err := url.Parse(g.baseURL + "/")
	if err != nil {
		return nil, entities.NewError(entities.KindConfig, errors.Wrapf(err, "invalid API base URL %q", g.baseURL))
	}

	g.raw = &http.Client{Timeout: g.timeout}
	g.api = github.NewClient(&http.Client{Timeout: g.timeout}).WithAuthToken(token)
	g.api.BaseURL = base
	g.api.UserAgent = g.userAgent

	return g, nil
}

// warnOnLowRateLimit logs when the quota reported by a response is nearly spent.
// Exhausted quotas surface as *github.RateLimitError on the failing call instead.
func (g *HTTPGitHubGateway) warnOnLowRateLimit(resp *github.Response) {
	if resp == nil || resp.Response == nil || resp.Header.Get("X-RateLimit-Remaining") == "" {
		return
	}
	if resp.Rate.Remaining > lowRateLimitLevel {
		return
	}

	fields := []interfaces.Field{interfaces.F("remaining", resp.Rate.Remaining)}
	if !resp.Rate.Reset.IsZero() {
		fields = append(fields, interfaces.F("resets_at", resp.Rate.Reset.Format(time.RFC3339)))
	}
	g.logger.Warn("GitHub API rate limit low", fields...)
}

// apiError tags a go-github error with its failure kind
func apiError(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, io.ErrUnexpectedEOF):
		return entities.NewError(entities.KindData, fmt.Errorf("failed to decode response: %w", err))
	default:
		// *github.ErrorResponse, *github.RateLimitError, network and context errors
		return entities.NewError(entities.KindTransport, err)
	}
}

// SearchCode runs a code search and accumulates every result page
func (g *HTTPGitHubGateway) SearchCode(ctx context.Context, query string) ([]*entities.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, entities.NewError(entities.KindConfig, errors.New("search query must not be empty"))
	}

	opts := &github.SearchOptions{ListOptions: github.ListOptions{PerPage: searchPageSize}}

	var results []*entities.SearchResult
	for page := 1; ; page++ {
		found, resp, err := g.api.Search.Code(ctx, query, opts)
		if err != nil {
			return nil, errors.Wrapf(apiError(err), "failed to search code for %q (page %d)", query, page)
		}
		g.warnOnLowRateLimit(resp)

		if found.GetIncompleteResults() {
			g.logger.Warn("code search returned incomplete results", interfaces.F("page", page))
		}
		for _, item := range found.CodeResults {
			results = append(results, toSearchResult(item))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return results, nil
}

func toSearchResult(item *github.CodeResult) *entities.SearchResult {
	repo := item.GetRepository()
	return &entities.SearchResult{
		RepoName:  repo.GetName(),
		RepoOwner: repo.GetOwner().GetLogin(),
		Name:      item.GetName(),
		Path:      item.GetPath(),
		URL:       contentsLookupURL(item),
		HTMLURL:   item.GetHTMLURL(),
	}
}

// contentsLookupURL returns the contents API location of a search hit, pinned to the
// commit the hit was indexed at. Relative locations resolve against the API base URL.
func contentsLookupURL(item *github.CodeResult) string {
	repo := item.GetRepository()

	segments := strings.Split(item.GetPath(), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	escapedPath := strings.Join(segments, "/")

	lookup := fmt.Sprintf("repos/%s/%s/contents/%s",
		url.PathEscape(repo.GetOwner().GetLogin()), url.PathEscape(repo.GetName()), escapedPath)
	if contents := repo.GetContentsURL(); contents != "" {
		lookup = strings.Replace(contents, "{+path}", escapedPath, 1)
	}

	if ref := blobRef(item.GetHTMLURL()); ref != "" {
		lookup += "?ref=" + url.QueryEscape(ref)
	}
	return lookup
}

// blobRef extracts the commit from ".../{owner}/{repo}/blob/{ref}/{path}"
func blobRef(htmlURL string) string {
	_, rest, ok := strings.Cut(htmlURL, "/blob/")
	if !ok {
		return ""
	}
	ref, _, _ := strings.Cut(rest, "/")
	return ref
}

// GetDownloadURL performs the detail lookup for one search result
func (g *HTTPGitHubGateway) GetDownloadURL(ctx context.Context, lookupURL string) (string, error) {
	req, err := g.api.NewRequest(http.MethodGet, lookupURL, nil)
	if err != nil {
		return "", entities.NewError(entities.KindConfig, fmt.Errorf("failed to create request: %w", err))
	}

	var content github.RepositoryContent
	resp, err := g.api.Do(ctx, req, &content)
	if err != nil {
		return "", apiError(err)
	}
	g.warnOnLowRateLimit(resp)

	if content.GetDownloadURL() == "" {
		return "", entities.NewError(entities.KindData, errors.New("response has no download_url"))
	}

	return content.GetDownloadURL(), nil
}

// OpenDownload starts a streamed, authenticated download. The caller must close the body.
func (g *HTTPGitHubGateway) OpenDownload(ctx context.Context, downloadURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, entities.NewError(entities.KindConfig, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.raw.Do(req)
	if err != nil {
		return nil, entities.NewError(entities.KindTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		//nolint:errcheck // Best effort close on failed download
		defer resp.Body.Close()
		return nil, entities.NewError(entities.KindTransport, fmt.Errorf("unexpected response %s", resp.Status))
	}

	return resp.Body, nil
}
