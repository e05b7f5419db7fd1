package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/plan"
)

// ErrNoInteraction is returned when a prompt needs an answer and the console can't ask for it.
var ErrNoInteraction = errors.New("user interaction required but the console is not interactive")

var (
	green  = lipgloss.Color("76")
	red    = lipgloss.Color("204")
	yellow = lipgloss.Color("214")
	purple = lipgloss.Color("99")
	dim    = lipgloss.Color("243")
)

// ConsoleConfig is the configuration of the console UI.
type ConsoleConfig struct {
	In  io.Reader
	Out io.Writer
	// AcceptDefaults answers every prompt with its default value.
	AcceptDefaults bool
	// AssumeInteractive prompts even if the input is not a terminal.
	AssumeInteractive bool
	NoColor           bool
}

func (c *ConsoleConfig) defaults() error {
	if c.In == nil {
		c.In = os.Stdin
	}
	if c.Out == nil {
		c.Out = os.Stderr
	}
	return nil
}

// Console is a line based terminal UI for plan runs.
type Console struct {
	in             *bufio.Reader
	inFd           int
	inIsTerminal   bool
	out            io.Writer
	acceptDefaults bool
	interactive    bool

	okStyle    lipgloss.Style
	errStyle   lipgloss.Style
	skipStyle  lipgloss.Style
	runStyle   lipgloss.Style
	mutedStyle lipgloss.Style

	mu sync.Mutex
}

var _ plan.UI = (*Console)(nil)

// NewConsole returns a new console UI.
func NewConsole(cfg ConsoleConfig) (*Console, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Console{
		in:             bufio.NewReader(cfg.In),
		inFd:           -1,
		out:            cfg.Out,
		acceptDefaults: cfg.AcceptDefaults,
	}
	if f, ok := cfg.In.(*os.File); ok {
		c.inFd = int(f.Fd())
		c.inIsTerminal = term.IsTerminal(c.inFd)
	}
	c.interactive = !cfg.AcceptDefaults && (c.inIsTerminal || cfg.AssumeInteractive)

	style := func(color lipgloss.TerminalColor) lipgloss.Style {
		if cfg.NoColor {
			return lipgloss.NewStyle()
		}
		return lipgloss.NewStyle().Foreground(color)
	}
	c.okStyle = style(green)
	c.errStyle = style(red)
	c.skipStyle = style(yellow)
	c.runStyle = style(purple)
	c.mutedStyle = style(dim)

	return c, nil
}

// Interactive returns true when the console will prompt the user.
func (c *Console) Interactive() bool { return c.interactive }

// Ask asks a question, an empty answer is the default value.
func (c *Console) Ask(ctx context.Context, question, defaultValue string) (string, error) {
	if !c.interactive {
		return defaultValue, nil
	}

	c.printf("%s %s: ", c.runStyle.Render("?"), questionWithDefault(question, defaultValue))
	answer, err := c.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return defaultValue, nil
	}
	return answer, nil
}

// AskSecret asks a question without echoing the answer. Secrets have no defaults.
func (c *Console) AskSecret(ctx context.Context, question string) (string, error) {
	if !c.interactive {
		return "", fmt.Errorf("could not ask %q: %w", question, ErrNoInteraction)
	}

	c.printf("%s %s: ", c.runStyle.Render("?"), question)
	if !c.inIsTerminal {
		return c.readLine()
	}

	b, err := term.ReadPassword(c.inFd)
	c.printf("\n")
	if err != nil {
		return "", fmt.Errorf("could not read secret: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// Confirm asks a yes/no question.
func (c *Console) Confirm(ctx context.Context, question string, defaultValue bool) (bool, error) {
	if !c.interactive {
		return defaultValue, nil
	}

	hint := "y/N"
	if defaultValue {
		hint = "Y/n"
	}
	for {
		c.printf("%s %s [%s]: ", c.runStyle.Render("?"), question, hint)
		answer, err := c.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return defaultValue, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		c.printf("%s\n", c.mutedStyle.Render("Please answer yes or no."))
	}
}

// StartStatus starts the status of a step.
func (c *Console) StartStatus(msg string) plan.StatusHandle {
	c.printf("%s %s\n", c.runStyle.Render("●"), msg)
	return &status{console: c, msg: msg}
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("no answer: %w", ErrNoInteraction)
		}
		return "", fmt.Errorf("could not read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func questionWithDefault(question, defaultValue string) string {
	if defaultValue == "" {
		return question
	}
	return fmt.Sprintf("%s [%s]", question, defaultValue)
}

type status struct {
	console *Console
	msg     string
	paused  bool
	mu      sync.Mutex
}

func (s *status) Update(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		return
	}
	s.console.printf("  %s\n", s.console.mutedStyle.Render(msg))
}

func (s *status) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
}

func (s *status) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
}

func (s *status) Done(res model.Result) {
	c := s.console
	switch res.Type {
	case model.ResultSkipped:
		line := c.skipStyle.Render("-") + " " + s.msg + " " + c.mutedStyle.Render("(skipped)")
		if text := res.Text(); text != "" {
			line += " " + c.mutedStyle.Render(text)
		}
		c.printf("%s\n", line)
	case model.ResultFailed:
		line := c.errStyle.Render("✗") + " " + s.msg
		if text := res.Text(); text != "" {
			line += ": " + text
		}
		c.printf("%s\n", line)
	default:
		c.printf("%s %s\n", c.okStyle.Render("✓"), s.msg)
	}
}
