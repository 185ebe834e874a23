// Copyright (c) 2025 ToeiRei
// Lockbox - encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/toeirei/lockbox/internal/i18n"
	"golang.org/x/term"
)

// stdin is shared by every prompt so buffered read-ahead is never lost
// between consecutive line reads on piped input.
var stdin = bufio.NewReader(os.Stdin)

// terminalPrompter implements auth.Prompter on the controlling terminal.
// Password input is hidden when stdin is a TTY and falls back to a plain
// line read otherwise (pipes, tests).
type terminalPrompter struct {
	tty    *os.File
	reader *bufio.Reader
	out    io.Writer
}

func newTerminalPrompter() *terminalPrompter {
	return &terminalPrompter{tty: os.Stdin, reader: stdin, out: os.Stdout}
}

// NewPassword runs the create-password flow: intro, prompt, confirmation.
func (p *terminalPrompter) NewPassword() (string, error) {
	fmt.Fprintln(p.out, i18n.T("auth.create_intro"))
	fmt.Fprintln(p.out, i18n.T("auth.cancel_hint"))
	fmt.Fprintln(p.out)
	password, err := p.newPassword(i18n.T("auth.create_prompt"))
	if err != nil {
		return "", err
	}
	fmt.Fprintln(p.out, i18n.T("auth.saved"))
	return password, nil
}

// newPassword prompts for a password twice and insists the entries match.
func (p *terminalPrompter) newPassword(prompt string) (string, error) {
	password, err := p.readSecret(prompt)
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", errors.New(i18n.T("auth.empty"))
	}

	confirm, err := p.readSecret(i18n.T("auth.confirm_prompt"))
	if err != nil {
		return "", err
	}
	if confirm != password {
		return "", errors.New(i18n.T("auth.mismatch"))
	}
	return password, nil
}

// Password runs the verify flow intro and reads one candidate.
func (p *terminalPrompter) Password() (string, error) {
	fmt.Fprintln(p.out, i18n.T("auth.verify_intro"))
	fmt.Fprintln(p.out, i18n.T("auth.cancel_hint"))
	fmt.Fprintln(p.out)
	return p.readSecret(i18n.T("auth.password_prompt"))
}

// readSecret reads a password without echo when possible.
func (p *terminalPrompter) readSecret(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)

	if p.tty != nil && term.IsTerminal(int(p.tty.Fd())) {
		raw, err := term.ReadPassword(int(p.tty.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", errors.New(i18n.T("auth.error_read_password", err))
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := readTrimmedLine(p.reader)
	if err != nil {
		return "", errors.New(i18n.T("auth.error_read_password", err))
	}
	return line, nil
}

func readTrimmedLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptLine reads one trimmed line from stdin after printing the prompt.
func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	return readTrimmedLine(stdin)
}

// promptItems interactively collects key/value pairs until the user submits
// an empty key. Duplicate keys are rejected on the spot.
func promptItems() (map[string]string, error) {
	items := map[string]string{}
	fmt.Println(i18n.T("add.key_instruction"))
	for {
		key, err := promptLine(i18n.T("add.key_prompt"))
		if err != nil {
			return nil, err
		}
		if key == "" {
			if len(items) == 0 {
				fmt.Println(i18n.T("add.need_items"))
				continue
			}
			return items, nil
		}
		if _, dup := items[key]; dup {
			fmt.Println(i18n.T("add.key_duplicate", key))
			continue
		}

		value, err := promptLine(i18n.T("add.value_prompt"))
		if err != nil {
			return nil, err
		}
		items[key] = value
	}
}

// confirm asks a yes/no question; defaultYes controls the empty answer.
func confirm(prompt string, defaultYes bool) (bool, error) {
	answer, err := promptLine(prompt)
	if err != nil {
		return false, err
	}
	if answer == "" {
		return defaultYes, nil
	}
	switch strings.ToLower(answer) {
	case "y", "yes", "j", "ja":
		return true, nil
	default:
		return false, nil
	}
}
