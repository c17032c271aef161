package keystore

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// PromptPassphrase reads a passphrase from the terminal without echo. With
// confirm set it asks twice and requires both entries to match.
func PromptPassphrase(confirm bool) (string, error) {
	fmt.Fprint(os.Stderr, "Passphrase: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "reading passphrase")
	}

	if len(first) == 0 {
		return "", errors.New("passphrase must not be empty")
	}

	if confirm {
		fmt.Fprint(os.Stderr, "Repeat passphrase: ")
		second, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", errors.Wrap(err, "reading passphrase")
		}

		if string(first) != string(second) {
			return "", errors.New("passphrases do not match")
		}
	}

	return string(first), nil
}
