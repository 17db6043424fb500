// Package prompt asks the user for missing command input.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

var (
	// ErrNotInteractive is returned when input is required but stdin is not a terminal.
	ErrNotInteractive = errors.New("input required but stdin is not a terminal")
	// ErrCancelled is returned when the user interrupts a prompt.
	ErrCancelled = errors.New("prompt cancelled")
)

// Prompter asks questions.
type Prompter interface {
	Text(label string) (string, error)
	Confirm(label string) (bool, error)
	Select(label string, options []string) (string, error)
}

// Terminal prompts on the controlling terminal with line editing.
type Terminal struct {
	in          *os.File
	out         io.Writer
	interactive bool
	rl          *readline.Instance
}

func NewTerminal() *Terminal {
	return &Terminal{
		in:          os.Stdin,
		out:         os.Stderr,
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}
}

func (t *Terminal) readLine(prompt string) (string, error) {
	if !t.interactive {
		return "", ErrNotInteractive
	}
	if t.rl == nil {
		rl, err := readline.NewEx(&readline.Config{
			Stdin:  t.in,
			Stdout: t.out,
			Stderr: t.out,
		})
		if err != nil {
			return "", fmt.Errorf("init prompt failed: %w", err)
		}
		t.rl = rl
	}
	t.rl.SetPrompt(prompt)
	line, err := t.rl.Readline()
	switch {
	case errors.Is(err, readline.ErrInterrupt), errors.Is(err, io.EOF):
		return "", ErrCancelled
	case err != nil:
		return "", fmt.Errorf("read input failed: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (t *Terminal) Text(label string) (string, error) {
	return t.readLine("? " + label + ": ")
}

func (t *Terminal) Confirm(label string) (bool, error) {
	answer, err := t.readLine("? " + label + " (y/N) ")
	if err != nil {
		return false, err
	}
	return ParseConfirm(answer), nil
}

func (t *Terminal) Select(label string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("%s: nothing to choose from", label)
	}
	for i, opt := range options {
		fmt.Fprintf(t.out, "  %d) %s\n", i+1, opt)
	}
	for {
		answer, err := t.readLine("? " + label + ": ")
		if err != nil {
			return "", err
		}
		if choice, ok := MatchOption(answer, options); ok {
			return choice, nil
		}
		fmt.Fprintf(t.out, "  enter a number between 1 and %d\n", len(options))
	}
}

// Close releases the terminal.
func (t *Terminal) Close() error {
	if t.rl == nil {
		return nil
	}
	return t.rl.Close()
}

// ParseConfirm treats y and yes, in any case, as consent.
func ParseConfirm(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// MatchOption accepts a 1-based index or the option itself.
func MatchOption(answer string, options []string) (string, bool) {
	answer = strings.TrimSpace(answer)
	if n, err := strconv.Atoi(answer); err == nil {
		if n >= 1 && n <= len(options) {
			return options[n-1], true
		}
		return "", false
	}
	for _, opt := range options {
		if opt == answer {
			return opt, true
		}
	}
	return "", false
}
