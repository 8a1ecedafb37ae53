//go:build !windows

package prince

import (
	"os/exec"
	"syscall"
)

// configureProcAttr puts the engine in its own process group so that
// process.KillProcessGroup reaches the children it spawns.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
