package tui

import (
	"context"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type spinnerDoneMsg struct{}

// spinnerModel shows a spinner and label until the work finishes.
type spinnerModel struct {
	spinner spinner.Model
	label   string
	cancel  context.CancelFunc
	done    bool
}

func newSpinnerModel(label string, cancel context.CancelFunc) spinnerModel {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = titleStyle
	return spinnerModel{spinner: s, label: label, cancel: cancel}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerDoneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancel()
			m.done = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.label + "\n"
}

// RunWithSpinner runs fn while showing label with a spinner on w. On
// non-terminals fn runs without any animation. Ctrl+C cancels the
// context passed to fn.
func RunWithSpinner[T any](ctx context.Context, w io.Writer, label string, fn func(context.Context) (T, error)) (T, error) {
	if !IsTerminal(w) {
		return fn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newSpinnerModel(label, cancel), tea.WithOutput(w), tea.WithContext(ctx))

	var (
		result T
		err    error
	)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		result, err = fn(ctx)
		p.Send(spinnerDoneMsg{})
	}()

	// The program exits on completion, Ctrl+C or context cancellation;
	// the result is read only after fn returns.
	_, _ = p.Run()
	<-finished
	return result, err
}
