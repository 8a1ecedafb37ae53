package main

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	prince "github.com/alnah/go-prince"
)

// Version is set at build time via ldflags.
var Version = "dev"

// runVersion prints the CLI version and, with --engine, the version the
// engine reports in its control handshake.
func runVersion(ctx context.Context, args []string, env *Environment) (err error) {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	enginePath := fs.StringP("engine", "e", "", "engine executable to query")
	fs.Usage = func() { printVersionUsage(env.Stderr) }
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	fmt.Fprintf(env.Stdout, "princectl %s\n", Version)
	if !fs.Changed("engine") {
		return nil
	}

	path := *enginePath
	if path == "" {
		path = prince.DefaultEnginePath
	}
	defer func() { err = annotate(err, "", path) }()

	ctl, err := prince.NewControl(prince.WithEnginePath(path), prince.WithLauncher(env.Launcher))
	if err != nil {
		return err
	}
	if err := ctl.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = ctl.Close() }()

	fmt.Fprintf(env.Stdout, "engine %s\n", ctl.Version())
	return nil
}
