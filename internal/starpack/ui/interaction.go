package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ErrNoInteraction is returned by Prompter.Confirm when input is closed
// before an answer was given.
var ErrNoInteraction = errors.New("ui: no answer on input")

// ConfigureColor picks the lipgloss color profile. Non-terminal output and
// NO_COLOR get plain ASCII so piped output stays clean.
func ConfigureColor(out io.Writer) {
	f, ok := out.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" || !isTerminal(f) {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.NewOutput(f).EnvColorProfile())
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// Prompter asks yes/no questions on a line-oriented terminal.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads answers from in and writes questions to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Confirm prints question and reads one answer. Only y or yes accepts; an
// empty answer declines.
func (p *Prompter) Confirm(question string) (bool, error) {
	fmt.Fprint(p.out, AccentStyle.Render("?")+" "+question+" "+MutedStyle.Render("[y/N]")+" ")
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		fmt.Fprintln(p.out)
		if err == io.EOF {
			return false, ErrNoInteraction
		}
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
