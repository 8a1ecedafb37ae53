//go:build !windows

// Package process terminates engine process trees.
package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group led by pid. The engine
// is started as a group leader, so this also reaches helper processes it
// spawned for downloads or rasterization.
func KillProcessGroup(pid int) {
	// Best-effort: callers still kill the leader through os.Process.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
