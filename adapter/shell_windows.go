//go:build windows

package adapter

import (
	"fmt"
	"strings"
)

// spawnArgs on Windows never wraps the command in cmd.exe: a cmd wrapper
// leaves an unkillable shell parent behind when the child is force-killed.
// command must already resolve to an .exe.
func spawnArgs(command string, args []string) (string, []string, error) {
	if !strings.HasSuffix(strings.ToLower(command), ".exe") {
		return "", nil, fmt.Errorf("adapter: windows cli command must resolve to an .exe, got %q", command)
	}
	return command, args, nil
}
