package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFetchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Search, resolve and download matching specs",
		Example: `  specfetch fetch -q "openapi in:file language:yaml" -d ./specs
  specfetch -q "openapi in:file" -d ./specs --ignore-repos '-archive$' --manifest specs.yml`,
		Args: cobra.NoArgs,
		RunE: a.runFetch,
	}
}

func (a *app) runFetch(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}

	orch, err := a.newPipeline(cfg)
	if err != nil {
		return err
	}

	result, err := orch.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, result.GetSummary())
	for _, c := range result.Collisions {
		fmt.Fprintf(a.out, "  overwritten: %s (from %d sources)\n", c.FileName, len(c.Sources))
	}
	return nil
}
