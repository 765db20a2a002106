package entities

// SearchResult represents a single code search hit
type SearchResult struct {
	RepoName  string
	RepoOwner string
	Name      string // File name
	Path      string
	URL       string // API location used for the detail lookup
	HTMLURL   string // Browser location, shown by the search command
}
