//go:build !unix

package interp

import "os/exec"

// exitCodeFromError is the non-unix fallback: tinysh targets POSIX-like
// systems (spec.md §1), so signal-based exit codes are not decoded here.
func exitCodeFromError(err error) (int, bool) {
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return 0, false
	}
	return exitErr.ExitCode(), true
}
