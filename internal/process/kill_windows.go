//go:build windows

// Package process terminates engine process trees.
package process

import (
	"os/exec"
	"strconv"
)

// KillProcessGroup kills pid and its children with taskkill.
// /F forces termination, /T walks the process tree.
func KillProcessGroup(pid int) {
	// Best-effort: callers still kill the leader through os.Process.
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run() // #nosec G204 -- pid is numeric
}
