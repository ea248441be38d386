package prompt

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	answerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ECE6A"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

// Terminal asks questions on a terminal with bubbletea.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

// NewTerminal returns a Terminal bound to stdin and stderr, so prompts do
// not mix with --json output on stdout.
func NewTerminal() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stderr}
}

func (t *Terminal) run(ctx context.Context, m tea.Model) (tea.Model, error) {
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithInput(t.In), tea.WithOutput(t.Out))
	return p.Run()
}

// Select implements Prompter.
func (t *Terminal) Select(ctx context.Context, message string, options []Option, def int) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("%s: nothing to choose from", message)
	}
	final, err := t.run(ctx, newSelectModel(message, options, def))
	if err != nil {
		return "", err
	}
	m := final.(selectModel)
	if m.cancelled {
		return "", ErrCancelled
	}
	return m.options[m.cursor].Value, nil
}

// Input implements Prompter.
func (t *Terminal) Input(ctx context.Context, message, def string, validate Validator) (string, error) {
	final, err := t.run(ctx, newInputModel(message, def, validate))
	if err != nil {
		return "", err
	}
	m := final.(inputModel)
	if m.cancelled {
		return "", ErrCancelled
	}
	return m.value(), nil
}

// Confirm implements Prompter.
func (t *Terminal) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	final, err := t.run(ctx, confirmModel{message: message, value: def})
	if err != nil {
		return false, err
	}
	m := final.(confirmModel)
	if m.cancelled {
		return false, ErrCancelled
	}
	return m.value, nil
}

type selectModel struct {
	message   string
	options   []Option
	cursor    int
	done      bool
	cancelled bool
}

func newSelectModel(message string, options []Option, def int) selectModel {
	if def < 0 || def >= len(options) {
		def = 0
	}
	return selectModel{message: message, options: options, cursor: def}
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "enter":
		m.done = true
		return m, tea.Quit
	case "ctrl+c", "esc":
		m.cancelled = true
		return m, tea.Quit
	}
	return m, nil
}

func (m selectModel) View() string {
	var b strings.Builder
	b.WriteString(questionStyle.Render("? "+m.message) + " ")
	if m.done {
		b.WriteString(answerStyle.Render(m.options[m.cursor].Label))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(hintStyle.Render("(use arrow keys)"))
	b.WriteString("\n")
	for i, o := range m.options {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + o.Label))
		} else {
			b.WriteString("  " + o.Label)
		}
		b.WriteString("\n")
	}
	return b.String()
}

type inputModel struct {
	message   string
	input     textinput.Model
	validate  Validator
	err       error
	done      bool
	cancelled bool
}

func newInputModel(message, def string, validate Validator) inputModel {
	ti := textinput.New()
	ti.Placeholder = def
	ti.Focus()
	return inputModel{message: message, input: ti, validate: validate}
}

// value falls back to the placeholder so pressing enter accepts the default.
func (m inputModel) value() string {
	if v := strings.TrimSpace(m.input.Value()); v != "" {
		return v
	}
	return m.input.Placeholder
}

func (m inputModel) Init() tea.Cmd { return textinput.Blink }

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			if m.validate != nil {
				if err := m.validate(m.value()); err != nil {
					m.err = err
					return m, nil
				}
			}
			m.err = nil
			m.done = true
			return m, tea.Quit
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	q := questionStyle.Render("? " + m.message)
	if m.done {
		return q + " " + answerStyle.Render(m.value()) + "\n"
	}
	view := q + " " + m.input.View() + "\n"
	if m.err != nil {
		view += errorStyle.Render(">> "+m.err.Error()) + "\n"
	}
	return view
}

type confirmModel struct {
	message   string
	value     bool
	done      bool
	cancelled bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch strings.ToLower(key.String()) {
	case "y":
		m.value = true
	case "n":
		m.value = false
	case "enter":
	case "ctrl+c", "esc":
		m.cancelled = true
		return m, tea.Quit
	default:
		return m, nil
	}
	m.done = true
	return m, tea.Quit
}

func (m confirmModel) View() string {
	q := questionStyle.Render("? " + m.message)
	if m.done {
		answer := "No"
		if m.value {
			answer = "Yes"
		}
		return q + " " + answerStyle.Render(answer) + "\n"
	}
	hint := "(y/N)"
	if m.value {
		hint = "(Y/n)"
	}
	return q + " " + hintStyle.Render(hint) + "\n"
}
