package util

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/pgsync/pgsync/internal/errs"
)

// ReadPassword prompts on stderr and reads a password from the terminal
// without echoing it. The prompt names the connection when a command holds
// more than one.
func ReadPassword(prompt string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", prompt)
	pass, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errs.Wrap(errs.KindConfig, "failed to read password", err)
	}
	return string(pass), nil
}
