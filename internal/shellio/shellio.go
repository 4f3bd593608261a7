// Package shellio reads command lines from standard input, printing a
// prompt only when it is worth printing one.
package shellio

import (
	"bufio"
	"errors"
	"io"

	"golang.org/x/term"
)

// ErrEOF is returned by ReadLine once the input stream is exhausted.
var ErrEOF = errors.New("shellio: end of input")

// InputHandler reads one logical command line at a time, printing prompt
// before each read when the underlying input is a terminal — batch or
// piped input (a script, `-c`, or redirected stdin) gets no prompt noise,
// matching common shell behavior.
type InputHandler struct {
	r        *bufio.Reader
	w        io.Writer
	isTTY    bool
	fallback bool // not set by New and not read by ReadLine; prompting depends on isTTY alone
}

// New builds an InputHandler reading from r and, when interactive,
// printing prompts to w. fd is the file descriptor backing r (e.g.
// os.Stdin.Fd()) used to detect whether a prompt should be printed at
// all.
func New(r io.Reader, w io.Writer, fd uintptr) *InputHandler {
	return &InputHandler{
		r:     bufio.NewReader(r),
		w:     w,
		isTTY: term.IsTerminal(int(fd)),
	}
}

// IsInteractive reports whether prompts are being printed.
func (h *InputHandler) IsInteractive() bool { return h.isTTY }

// ReadLine prints prompt (if interactive) and reads one line, with its
// trailing newline stripped. It returns ErrEOF once the stream ends.
func (h *InputHandler) ReadLine(prompt string) (string, error) {
	if h.isTTY {
		io.WriteString(h.w, prompt)
	}
	line, err := h.r.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			if line == "" {
				return "", ErrEOF
			}
			return line, nil
		}
		return "", err
	}
	return line[:len(line)-1], nil
}
