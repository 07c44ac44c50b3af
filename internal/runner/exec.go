package runner

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// GatekeeperEnvVar is set before invoking the harness. The gatekeeper
// test fails unless it is present, which proves the suite was run
// through the ratchet and not bypassed.
const GatekeeperEnvVar = "TDD_RATCHET"

// Run invokes the harness in dir and returns its captured stdout.
// Harness stderr is streamed through so test output stays visible.
// A non-zero harness exit is not an error: failing tests are data the
// evaluator consumes. Only failure to start the harness is an error.
func (h Harness) Run(dir string, environ []string) (string, error) {
	cmd := exec.Command(h.Command, h.Args...)
	cmd.Dir = dir
	cmd.Env = append(append([]string{}, environ...), GatekeeperEnvVar+"=1")
	cmd.Stderr = os.Stderr

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", fmt.Errorf("cannot run test harness '%s': %w", h.Command, err)
		}
	}

	return stdout.String(), nil
}
