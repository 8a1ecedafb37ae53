package main

import (
	"io"
	"os"
	"time"

	prince "github.com/alnah/go-prince"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now      func() time.Time
	Stdout   io.Writer
	Stderr   io.Writer
	Getenv   func(string) string
	Environ  func() []string
	Launcher prince.Launcher // nil uses the default os/exec launcher
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:     time.Now,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Getenv:  os.Getenv,
		Environ: os.Environ,
	}
}
