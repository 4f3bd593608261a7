//go:build unix

package interp

import (
	"os/exec"

	"golang.org/x/sys/unix"
)

// exitCodeFromError decodes the error returned by exec.Cmd.Run into an
// exit code, following the POSIX convention spec'd for signal
// termination: 128 + signal number. Grounded on the teacher's own
// unix-specific wait-status decoding (interp/os_unix.go's waitStatus
// alias), using golang.org/x/sys/unix here for the same purpose.
func exitCodeFromError(err error) (int, bool) {
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return 0, false
	}
	ws, ok := exitErr.Sys().(unix.WaitStatus)
	if !ok {
		return exitErr.ExitCode(), true
	}
	if ws.Signaled() {
		return 128 + int(ws.Signal()), true
	}
	return ws.ExitStatus(), true
}
