//go:build !windows

package browser

import (
	"errors"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setChromeProcessGroup configures the browser to run in its own process
// group so renderers, GPU and utility processes can be killed together.
func setChromeProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// killProcessTree kills descendants first, then the whole process group,
// then the leader.
func killProcessTree(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	pid := cmd.Process.Pid

	children := descendants(pid)
	for i := len(children) - 1; i >= 0; i-- {
		_ = unix.Kill(children[i], unix.SIGKILL)
	}

	// Negative PID targets the entire process group
	groupErr := unix.Kill(-pid, unix.SIGKILL)
	leaderErr := unix.Kill(pid, unix.SIGKILL)

	if groupErr == nil || leaderErr == nil {
		return nil
	}
	if errors.Is(groupErr, unix.ESRCH) && errors.Is(leaderErr, unix.ESRCH) {
		// already gone
		return nil
	}
	return leaderErr
}
