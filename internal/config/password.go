package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoPassword is returned when no password source is configured and no prompt is available.
var ErrNoPassword = errors.New("no password provided: use --password, --password-file or QTDFP_PASSWORD")

// Prompter asks the user for a password interactively.
type Prompter func(prompt string) (string, error)

// ResolvePassword returns the password from --password, then --password-file,
// then the prompter. A trailing newline in the password file is dropped.
func (c *Config) ResolvePassword(prompt Prompter) (string, error) {
	switch {
	case c.Password != "":
		return c.Password, nil
	case c.PasswordFile != "":
		data, err := os.ReadFile(c.PasswordFile)
		if err != nil {
			return "", fmt.Errorf("reading password file: %w", err)
		}

		return strings.TrimRight(string(data), "\r\n"), nil
	case prompt != nil:
		password, err := prompt("Password: ")
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}

		return password, nil
	default:
		return "", ErrNoPassword
	}
}
