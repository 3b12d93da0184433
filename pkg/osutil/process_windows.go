//go:build windows

package osutil

import (
	"os/exec"
	"syscall"
)

// SetProcessGroup starts the command in a new process group
func SetProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// SetProcessGroupKill makes context cancellation terminate the process and
// every descendant. Windows has no Unix-style process groups to signal, so the
// tree is walked explicitly.
func SetProcessGroupKill(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		return KillProcessTree(cmd.Process.Pid)
	}
}
