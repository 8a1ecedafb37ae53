// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os/exec"
	"strings"

	"github.com/alnah/go-prince/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// ForEngineNotFound returns hints when the engine executable is missing.
// Suggests the engine flag and, inside containers, installing the engine in
// the image.
func ForEngineNotFound(path string) string {
	var hints []string

	if !fileutil.IsFilePath(path) {
		if _, err := lookPath(path); err != nil {
			hints = append(hints, path+" is not in PATH")
		}
	}
	hints = append(hints, "use --engine /path/to/prince or set PRINCECTL_ENGINE")

	if IsInContainer() {
		hints = append(hints, "install the engine in the container image")
	}
	return formatHints(hints)
}

// ForEnginePathNotFound returns a hint when a directory of the engine path is missing.
func ForEnginePathNotFound() string {
	return format("check the directories in --engine exist")
}

// ForEnginePermission returns a hint for permission errors when spawning the engine.
func ForEnginePermission() string {
	return format("make the engine executable (chmod +x) and check directory permissions")
}

// ForStartup returns a hint when the engine refused to start.
func ForStartup(message string) string {
	if strings.Contains(strings.ToLower(message), "licen") {
		return format("check --license-file or PRINCECTL_LICENSE_FILE")
	}
	return format("rerun with --verbose to see engine diagnostics")
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for large documents, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/princectl/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	// Find a user config path (contains .config/princectl) to suggest
	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/princectl") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
