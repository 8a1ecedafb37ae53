package main

import (
	"context"
	"errors"
	"os"

	prince "github.com/alnah/go-prince"
	"github.com/alnah/go-prince/internal/config"
	"github.com/alnah/go-prince/internal/fileutil"
	"github.com/alnah/go-prince/internal/hints"
	"github.com/alnah/go-prince/internal/markdown"
)

// Exit codes for princectl.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error, or the engine rejected a document
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitEngine  = 4 // Engine could not run or broke the protocol
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Engine errors (exit 4). Checked first: spawn failures also wrap fs errors.
	if errors.Is(err, prince.ErrStartup) ||
		errors.Is(err, prince.ErrProtocol) ||
		errors.Is(err, prince.ErrIO) {
		return ExitEngine
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrOutputDir) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrInvalidEnv) ||
		errors.Is(err, ErrUnsupportedInput) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, prince.ErrInvalidOption) ||
		errors.Is(err, prince.ErrInputTypeRequired) ||
		errors.Is(err, prince.ErrRasterPageRequired) ||
		errors.Is(err, prince.ErrRasterFormatRequired) ||
		errors.Is(err, markdown.ErrUnknownStyle) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "" when none applies.
// enginePath and configName describe what the failing command tried to use.
func hintFor(err error, enginePath, configName string) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, prince.ErrEnginePathNotFound):
		return hints.ForEnginePathNotFound()
	case errors.Is(err, prince.ErrEngineNotFound):
		return hints.ForEngineNotFound(enginePath)
	case errors.Is(err, prince.ErrEnginePermission):
		return hints.ForEnginePermission()
	case errors.Is(err, prince.ErrStartup):
		return hints.ForStartup(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, ErrOutputDir):
		return hints.ForOutputDirectory()
	case errors.Is(err, config.ErrConfigNotFound):
		if configName != "" && !fileutil.IsFilePath(configName) {
			return hints.ForConfigNotFound(config.SearchPaths(configName))
		}
	}
	return ""
}
