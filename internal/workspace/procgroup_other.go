//go:build !linux && !darwin

package workspace

import (
	"fmt"
	"os/exec"
)

const procGroupsSupported = false

func setupProcessGroup(cmd *exec.Cmd) {}

func killGroup(pgid int) error {
	return fmt.Errorf("process groups are not supported on this platform")
}

func groupAlive(pgid int) bool {
	return false
}
