//go:build windows

package prince

import (
	"os/exec"
	"syscall"
)

// configureProcAttr starts the engine without a console window in a new
// process group; taskkill /T reaches its children.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
