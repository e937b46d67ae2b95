package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readLine prompts on stderr and returns one line of input without its
// line ending.
func (a *app) readLine(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := a.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readPassword does not echo when stdin is a terminal.
func (a *app) readPassword(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		return string(b), err
	}
	return a.readLine(cmd, "Password: ")
}

func (a *app) credentials(cmd *cobra.Command, email string) (string, string, error) {
	var err error
	if email == "" {
		if email, err = a.readLine(cmd, "Email: "); err != nil {
			return "", "", err
		}
	}
	password, err := a.readPassword(cmd)
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(email), password, nil
}
