package main

import (
	"io"

	"github.com/spf13/cobra"
)

func newRootCmd(out, errOut io.Writer, getenv func(string) string) *cobra.Command {
	app := &app{out: out, errOut: errOut, getenv: getenv}

	cmd := &cobra.Command{
		Use:   "specfetch",
		Short: "Download API specifications found by GitHub code search",
		Long: `specfetch runs a GitHub code search, drops results whose repository or file
name matches an exclusion pattern, resolves each remaining result to a raw
download URL and saves it as {repo}-{file} in the destination directory.

Runs writing to the same directory are serialized with a lock file next to it,
{dest}.lock, which is left in place after the run.

Without a subcommand specfetch runs "fetch".`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		RunE: app.runFetch,
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	app.addFlags(cmd)
	cmd.AddCommand(newFetchCmd(app))
	cmd.AddCommand(newSearchCmd(app))
	cmd.AddCommand(newVersionCmd(out))
	return cmd
}
