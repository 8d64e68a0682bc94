package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gatekeep-ai/gatekeep/internal/catalog"
)

// ChatBackend answers chat questions. *persona.Engine satisfies it.
type ChatBackend interface {
	Route(question string) string
	Consult(ctx context.Context, name, question, contextText string) (string, error)
	Catalog() *catalog.Catalog
}

// CatalogReloadedMsg reports a catalog reload to the chat session.
type CatalogReloadedMsg struct {
	Err error
}

type answerMsg struct {
	persona string
	content string
	err     error
}

// ChatModel is an interactive session: each question is routed to a
// persona (or sent to the pinned one) and the answer is appended to the
// transcript.
type ChatModel struct {
	ctx      context.Context
	backend  ChatBackend
	renderer *Renderer

	input   textinput.Model
	spinner spinner.Model

	pinned     string
	busy       string
	transcript []string
	width      int
}

// NewChatModel creates a chat session.
func NewChatModel(ctx context.Context, backend ChatBackend, renderer *Renderer) *ChatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask a question, /ask <persona>, /auto, /personas or /quit"
	ti.Prompt = "> "
	ti.PromptStyle = titleStyle
	ti.CharLimit = 4000
	ti.Width = 80
	ti.Focus()

	return &ChatModel{
		ctx:      ctx,
		backend:  backend,
		renderer: renderer,
		input:    ti,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		width:    defaultWidth,
	}
}

// Pinned returns the persona every question goes to, or "" when routing.
func (m *ChatModel) Pinned() string {
	return m.pinned
}

// Transcript returns the rendered conversation so far.
func (m *ChatModel) Transcript() []string {
	return m.transcript
}

// Busy reports whether a consultation is in flight.
func (m *ChatModel) Busy() bool {
	return m.busy != ""
}

func (m *ChatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.Busy() {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if text == "" {
				return m, nil
			}
			return m.submit(text)
		}

	case answerMsg:
		m.busy = ""
		p, _ := m.backend.Catalog().Persona(msg.persona)
		if p.Name == "" {
			p.Name = msg.persona
		}
		if msg.err != nil {
			m.appendLine(errorStyle.Render(fmt.Sprintf("%s: Error: %v", PersonaTitle(p), msg.err)))
			return m, nil
		}
		m.appendLine(Panel(PersonaTitle(p), m.renderer.Render(msg.content), m.width))
		return m, nil

	case CatalogReloadedMsg:
		if msg.Err != nil {
			m.appendLine(errorStyle.Render("catalog reload failed: " + msg.Err.Error()))
		} else {
			m.appendLine(noticeStyle.Render("catalog reloaded"))
		}
		return m, nil

	case spinner.TickMsg:
		if !m.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit handles a slash command or starts a consultation.
func (m *ChatModel) submit(text string) (tea.Model, tea.Cmd) {
	if strings.HasPrefix(text, "/") {
		fields := strings.Fields(text)
		switch fields[0] {
		case "/quit", "/exit":
			return m, tea.Quit
		case "/auto":
			m.pinned = ""
			m.appendLine(noticeStyle.Render("routing each question automatically"))
		case "/personas":
			names := make([]string, 0)
			for _, p := range m.backend.Catalog().Personas() {
				names = append(names, p.Name)
			}
			m.appendLine(Dim(strings.Join(names, ", ")))
		case "/ask":
			if len(fields) < 2 {
				m.appendLine(errorStyle.Render("usage: /ask <persona>"))
				break
			}
			name := strings.ToLower(fields[1])
			p, ok := m.backend.Catalog().Persona(name)
			if !ok {
				m.appendLine(errorStyle.Render("Unknown persona: " + fields[1]))
				break
			}
			m.pinned = name
			m.appendLine(noticeStyle.Render("talking to " + PersonaTitle(p)))
		default:
			m.appendLine(errorStyle.Render("unknown command " + fields[0]))
		}
		return m, nil
	}

	name := m.pinned
	if name == "" {
		name = m.backend.Route(text)
	}
	p, _ := m.backend.Catalog().Persona(name)
	p.Name = name
	m.busy = name
	m.appendLine(titleStyle.Render("> ") + text)
	m.appendLine(Dim(fmt.Sprintf("%s Consulting %s...", Emoji(p), p.DisplayName())))

	ctx, backend := m.ctx, m.backend
	consult := func() tea.Msg {
		content, err := backend.Consult(ctx, name, text, "")
		return answerMsg{persona: name, content: content, err: err}
	}
	return m, tea.Batch(m.spinner.Tick, consult)
}

func (m *ChatModel) appendLine(s string) {
	m.transcript = append(m.transcript, s)
}

func (m *ChatModel) View() string {
	var sb strings.Builder
	for _, line := range m.transcript {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if m.Busy() {
		sb.WriteString(m.spinner.View() + " thinking...\n")
	}
	sb.WriteString("\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n")
	if m.pinned != "" {
		sb.WriteString(Dim("pinned: " + m.pinned + " · esc to quit"))
	} else {
		sb.WriteString(Dim("auto-routing · esc to quit"))
	}
	return sb.String()
}

// RunChat runs the chat session on the terminal until the user quits.
// Messages sent on notify (such as CatalogReloadedMsg) are forwarded to
// the session.
func RunChat(ctx context.Context, backend ChatBackend, renderer *Renderer, notify <-chan tea.Msg) error {
	p := tea.NewProgram(NewChatModel(ctx, backend, renderer), tea.WithContext(ctx))
	if notify != nil {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-notify:
					if !ok {
						return
					}
					p.Send(msg)
				}
			}
		}()
	}
	_, err := p.Run()
	return err
}
