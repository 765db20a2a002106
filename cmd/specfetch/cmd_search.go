package main

import (
	"fmt"
	"io"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/ochairo/specfetch/internal/domain/entities"
)

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search",
		Short: "List the results a fetch would download, without downloading",
		Example: `  specfetch search -q "openapi in:file" --ignore-files '\.test\.'`,
		Args: cobra.NoArgs,
		RunE: a.runSearch,
	}
}

func (a *app) runSearch(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	// Nothing is written, so any destination will do
	if cfg.DestDir == "" {
		cfg.DestDir = "."
	}

	orch, err := a.newPipeline(cfg)
	if err != nil {
		return err
	}

	results, err := orch.Search(cmd.Context())
	if err != nil {
		return err
	}

	return writeResultsTable(a.out, results)
}

func writeResultsTable(out io.Writer, results []*entities.SearchResult) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(out, "No matching results")
		return err
	}

	tbl := uitable.New()
	tbl.MaxColWidth = 120
	tbl.AddRow("OWNER", "REPO", "FILE", "PATH", "SAVED AS", "URL")
	for _, r := range results {
		tbl.AddRow(r.RepoOwner, r.RepoName, r.Name, r.Path, entities.NewSpecMetadata(r, "").FileName(), r.HTMLURL)
	}
	_, err := fmt.Fprintln(out, tbl)
	return err
}
