package main

import (
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-prince/internal/yamlutil"
)

// runConfig prints the configuration after the config file and the
// environment are merged, in the config file format.
func runConfig(args []string, env *Environment) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	var common commonFlags
	fs.StringVarP(&common.config, "config", "c", "", "config file name or path")
	fs.StringVar(&common.envFile, "env-file", ".env", "dotenv file loaded before reading PRINCECTL_* variables")
	fs.Usage = func() { printConfigUsage(env.Stderr) }
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	cfg, name, err := loadConfig(common, env)
	if err != nil {
		return annotate(err, name, "")
	}
	data, err := yamlutil.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if _, err := env.Stdout.Write(data); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return nil
}
