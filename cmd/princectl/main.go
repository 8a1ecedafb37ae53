package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches to a command and returns the process exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}
	cmd, rest := args[1], args[2:]

	setMaxProcs(isVerbose(rest), env.Stderr)

	ctx, stop := notifyContext(context.Background())
	defer stop()

	var err error
	switch cmd {
	case "convert":
		err = runConvert(ctx, rest, env)
	case "config":
		err = runConfig(rest, env)
	case "version", "--version":
		err = runVersion(ctx, rest, env)
	case "help", "-h", "--help":
		runHelp(rest, env)
		return ExitSuccess
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}

	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, flag.ErrHelp):
		return ExitSuccess
	}

	configName, enginePath := commandContext(err)
	fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err, enginePath, configName))
	return exitCodeFor(err)
}

// setMaxProcs configures GOMAXPROCS from the container CPU quota.
// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
// in which case Go runtime defaults apply and the program continues safely.
func setMaxProcs(verbose bool, w io.Writer) {
	logf := func(string, ...any) {}
	if verbose {
		logf = func(format string, args ...any) {
			fmt.Fprintf(w, format+"\n", args...)
		}
	}
	_, _ = maxprocs.Set(maxprocs.Logger(logf))
}

// isVerbose reports whether args ask for verbose output, before flags are parsed.
func isVerbose(args []string) bool {
	return slices.Contains(args, "-v") || slices.Contains(args, "--verbose")
}
