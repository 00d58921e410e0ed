//go:build !windows

package adapter

import (
	"os"
	"os/exec"

	"al.essio.dev/pkg/shellescape"
)

// isPackagedBuild marks a darwin build that bundles its own runtime and
// must not trust the interactive user's shell. The reference host never
// sets this; it exists so an embedding host that does package a bundled
// runtime can flip it before constructing adapters.
var isPackagedBuild = false

// resolveShell picks the shell POSIX children are spawned under: a
// bundled /bin/sh on a packaged darwin build, otherwise the user's own
// $SHELL, falling back through bash, zsh, sh.
func resolveShell() string {
	if isPackagedBuild {
		return "/bin/sh"
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		if _, err := exec.LookPath(sh); err == nil {
			return sh
		}
	}
	for _, candidate := range []string{"bash", "zsh", "sh"} {
		if path, err := exec.LookPath(candidate); err == nil {
			return path
		}
	}
	return "/bin/sh"
}

// spawnArgs builds the exec.Command name and args that run command+args
// under a shell: a single quoted command line so the child ends up with
// no intermediate process-group surprises.
func spawnArgs(command string, args []string) (string, []string, error) {
	full := append([]string{command}, args...)
	return resolveShell(), []string{"-c", shellescape.QuoteCommand(full)}, nil
}
