// Package prompt provides the interactive-input capabilities the
// destructive workflows depend on. The core tools take a Prompter so
// they stay testable without a terminal attached.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the operator a question and returns their answer.
type Prompter interface {
	// Ask prints msg and returns one trimmed line of input.
	Ask(msg string) (string, error)
	// Confirm prints msg and returns true only for an explicit
	// affirmative answer.
	Confirm(msg string) (bool, error)
}

// TermPrompter reads line-by-line answers from In, writing questions to Out.
type TermPrompter struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// NewTermPrompter returns a Prompter bound to stdin/stdout.
func NewTermPrompter() *TermPrompter {
	return &TermPrompter{In: os.Stdin, Out: os.Stdout}
}

func (p *TermPrompter) Ask(msg string) (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	fmt.Fprint(p.Out, msg)
	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *TermPrompter) Confirm(msg string) (bool, error) {
	answer, err := p.Ask(msg)
	if err != nil {
		return false, err
	}
	return Affirmative(answer), nil
}

// Affirmative reports whether answer is an explicit yes.
// Anything other than "yes" or "y" (case-insensitive) is a no.
func Affirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y":
		return true
	}
	return false
}

// Secret prompts for a value without echoing it, for API keys typed at
// the terminal. Falls back to a plain line read when stdin is not a TTY
// (piped input in CI).
func Secret(msg string) (string, error) {
	fmt.Fprint(os.Stderr, msg)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
