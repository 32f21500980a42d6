// Package venv provisions and activates per-project virtual environments
// using an installed interpreter. The interpreter's own venv machinery does
// the actual work; lilyenv only locates the binary and execs it.
package venv

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/frederic-klein/lilyenv/internal/python"
)

// InterpreterPath locates the python3 binary inside an installed
// distribution. Archives unpack with a single top-level wrapper directory;
// the binary lives at <wrapper>/bin/python3.
func InterpreterPath(installDir string) (string, error) {
	entries, err := os.ReadDir(installDir)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", installDir, err)
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("installation at %s is empty", installDir)
	}
	return filepath.Join(installDir, entries[0].Name(), "bin", "python3"), nil
}

// Create invokes the interpreter's venv module to materialize a virtualenv
// at venvDir.
func Create(interpreter, venvDir string) error {
	cmd := exec.Command(interpreter, "-m", "venv", venvDir)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("creating virtualenv: %w: %s", err, out)
	}
	return nil
}

// Activate spawns an interactive shell with the virtualenv's environment
// set: VIRTUAL_ENV, VIRTUAL_ENV_PROMPT, the venv bin directory prepended to
// PATH, and a fixed TERMINFO_DIRS. It blocks until the shell exits.
func Activate(venvDir, project string, version python.Version) error {
	path := fmt.Sprintf("%s:%s", filepath.Join(venvDir, "bin"), os.Getenv("PATH"))

	cmd := exec.Command("bash")
	cmd.Env = append(os.Environ(),
		"VIRTUAL_ENV="+venvDir,
		fmt.Sprintf("VIRTUAL_ENV_PROMPT=%s (%s) ", project, version),
		"PATH="+path,
		"TERMINFO_DIRS=/etc/terminfo:/lib/terminfo:/usr/share/terminfo",
	)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running shell: %w", err)
	}
	return nil
}
