// specfetch searches GitHub code for API specifications and downloads every match
// into one local directory.
//
// Usage:
//
//	specfetch [fetch] -q <query> -d <dir> [--ignore-repos=<re>] [--ignore-files=<re>]
//	specfetch search -q <query> [--ignore-repos=<re>] [--ignore-files=<re>]
//	specfetch version
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ochairo/specfetch/internal/domain/entities"
	"github.com/ochairo/specfetch/internal/domain/interfaces"
	"github.com/ochairo/specfetch/internal/external-adapters/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code
func run(ctx context.Context, args []string, out, errOut io.Writer, getenv func(string) string) int {
	root := newRootCmd(out, errOut, getenv)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		reportError(errOut, err)
		return 1
	}
	return 0
}

func reportError(errOut io.Writer, err error) {
	logger, logErr := logging.NewLogrusLogger("error", errOut)
	if logErr != nil {
		return
	}
	logger.Error("specfetch failed",
		interfaces.F("kind", entities.KindOf(err)),
		interfaces.F("error", err.Error()))
}
