//go:build linux || darwin

package workspace

import (
	"fmt"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

const procGroupsSupported = true

// setupProcessGroup starts the command in a new session so the whole tree
// can be signalled through its process group.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

func killGroup(pgid int) error {
	if pgid <= 1 {
		return fmt.Errorf("refusing to signal process group %d", pgid)
	}
	if err := unix.Kill(-pgid, unix.SIGKILL); err != nil && err != unix.ESRCH {
		return fmt.Errorf("failed to kill process group %d: %w", pgid, err)
	}
	return nil
}

func groupAlive(pgid int) bool {
	if pgid <= 1 {
		return false
	}
	return unix.Kill(-pgid, 0) != unix.ESRCH
}
