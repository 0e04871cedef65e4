package review

import (
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether the file descriptor is attached to a terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// IsInteractive reports whether stdin is a terminal. It gates the
// confirmation prompts; piped input and CI runs proceed without asking.
func IsInteractive() bool {
	return IsTTY(os.Stdin.Fd())
}
