// Package ui covers blocking console interaction: multiline task entry,
// yes/no confirmation, and severity-tagged output. The Interactor interface
// exists so the agent loop and patch workflow can be driven by scripted
// input in tests.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Interrupt is the distinguished input value that cancels the current task.
// It is the only cancellation channel and is checked only at input points.
const Interrupt = "__interrupt__"

// Interactor is the blocking user-interaction surface.
type Interactor interface {
	// ReadMultiline collects lines until an empty line. Returns "" when the
	// user submits nothing, or Interrupt on EOF/interrupt.
	ReadMultiline(prompt string) string

	// ReadLine reads one line of input.
	ReadLine(prompt string) string

	// Confirm asks a yes/no question with a default.
	Confirm(prompt string, def bool) bool
}

// Console is the stdin/stdout Interactor.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConsole() *Console {
	return &Console{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

// NewConsoleWith builds a console over arbitrary streams.
func NewConsoleWith(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

func (c *Console) ReadMultiline(prompt string) string {
	fmt.Fprintln(c.out, prompt)
	var lines []string
	for {
		line, err := c.in.ReadString('\n')
		if err != nil {
			if len(lines) == 0 {
				return Interrupt
			}
			break
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (c *Console) ReadLine(prompt string) string {
	fmt.Fprint(c.out, prompt)
	line, err := c.in.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimRight(line, "\r\n")
}

func (c *Console) Confirm(prompt string, def bool) bool {
	hint := "[Y/n]"
	if !def {
		hint = "[y/N]"
	}
	answer := strings.ToLower(strings.TrimSpace(c.ReadLine(prompt + " " + hint + ": ")))
	if answer == "" {
		return def
	}
	return answer == "y" || answer == "yes"
}

// Severity tags for user-visible output. Every error is printed with its
// tag before being folded back into conversation state, so a supervising
// human sees the same failure text the model receives.
type Severity string

const (
	Info    Severity = "INFO"
	Success Severity = "OK"
	Warning Severity = "WARN"
	Error   Severity = "ERROR"
	System  Severity = "SYSTEM"
)

var output io.Writer = os.Stdout

// SetOutput redirects tagged printing, primarily for tests.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	output = w
}

// Print writes a tagged message to the configured output.
func Print(sev Severity, format string, args ...any) {
	fmt.Fprintf(output, "[%s] %s\n", sev, fmt.Sprintf(format, args...))
}
