package browser

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the user questions on an interactive terminal.
type Prompter interface {
	// Ask prints question and returns the answer line. Any error,
	// including io.EOF, means the user cancelled.
	Ask(question string) (string, error)

	// Say prints a line.
	Say(msg string)
}

// TerminalPrompter reads answers from In and writes prompts to Out.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalPrompter returns a Prompter over the given streams. A
// *bufio.Reader is used as is, so callers can keep reading the same stream
// after the prompter without losing buffered input.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	br, ok := in.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(in)
	}
	return &TerminalPrompter{in: br, out: out}
}

func (t *TerminalPrompter) Ask(question string) (string, error) {
	fmt.Fprint(t.out, question)
	line, err := t.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		fmt.Fprintln(t.out)
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (t *TerminalPrompter) Say(msg string) {
	fmt.Fprintln(t.out, msg)
}

// Confirm asks a yes/no question. Only "y" and "yes" count as yes.
func Confirm(p Prompter, question string) bool {
	answer, err := p.Ask(question)
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
