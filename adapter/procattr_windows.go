//go:build windows

package adapter

import (
	"errors"
	"os/exec"
)

func setProcAttr(cmd *exec.Cmd) {}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}

// exitSignal is always empty on Windows: there is no POSIX wait-status to
// inspect for a signal.
func exitSignal(err error) string { return "" }

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}
