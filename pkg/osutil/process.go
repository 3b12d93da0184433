// Package osutil contains operating system helpers for running entry scripts
// as subprocesses: process groups and process tree termination.
package osutil

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/process"
)

// GracefulShutdownDelay is how long Wait keeps waiting for output pipes to
// close after a killed process, before giving up on them
const GracefulShutdownDelay = 2 * time.Second

// IsProcessAlive checks if a process with the given PID is still running
func IsProcessAlive(pid int) bool {
	found, _ := process.PidExists(int32(pid))
	return found
}

// KillProcessTree kills pid and all of its descendants, children first.
// A process that is already gone is not an error.
func KillProcessTree(pid int) error {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return nil
		}
		return errors.Wrapf(err, "failed to find process %d", pid)
	}

	children, _ := proc.Children()
	for _, child := range children {
		if err := KillProcessTree(int(child.Pid)); err != nil {
			return err
		}
	}

	if err := proc.Kill(); err != nil && IsProcessAlive(pid) {
		return errors.Wrapf(err, "failed to kill process %d", pid)
	}
	return nil
}
