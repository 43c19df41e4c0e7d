package ui

import (
	"context"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// interactive reports whether stderr is a terminal the spinner may draw on.
var interactive = func() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

type doneMsg struct{}

type spinModel struct {
	spinner spinner.Model
	title   string
	cancel  context.CancelFunc
	done    bool
}

func newSpinModel(title string, cancel context.CancelFunc) spinModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return spinModel{spinner: s, title: title, cancel: cancel}
}

func (m spinModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "esc" {
			m.cancel()
			m.done = true
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m spinModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.title + "\n"
}

// Spin runs fn while showing a spinner on stderr. Ctrl+C cancels the context
// passed to fn. Without a terminal fn simply runs.
func Spin(ctx context.Context, title string, fn func(context.Context) error) error {
	if !interactive() {
		return fn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newSpinModel(title, cancel), tea.WithOutput(os.Stderr), tea.WithContext(ctx))

	errCh := make(chan error, 1)
	go func() {
		errCh <- fn(ctx)
		p.Send(doneMsg{})
	}()

	// The program also stops when ctx is cancelled; fn still decides the result.
	_, _ = p.Run()
	return <-errCh
}
