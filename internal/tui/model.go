package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"studymate/internal/chat"
	"studymate/internal/domain"
)

// HealthFunc checks that the backend is reachable.
type HealthFunc func(ctx context.Context) error

// Options configures the chat UI.
type Options struct {
	Title string
	// Health is run once at startup; nil skips the check.
	Health HealthFunc
	// Markdown renders assistant replies with glamour.
	Markdown bool
	// RequestTimeout bounds a single question; zero means no extra bound.
	RequestTimeout time.Duration
}

type answerMsg struct {
	resp domain.ChatResponse
	err  error
}

type healthMsg struct{ err error }

// Model is the Bubble Tea model for the chat client.
type Model struct {
	session  *chat.Session
	opts     Options
	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer MarkdownRenderer
	status   string
	backend  string
	width    int
	ready    bool
}

// New creates a chat model around session.
func New(session *chat.Session, opts Options) Model {
	if opts.Title == "" {
		opts.Title = "StudyMate"
	}
	ta := textarea.New()
	ta.Placeholder = "Ask a question (Enter to send, Alt+Enter for a new line)"
	ta.Prompt = "┃ "
	ta.ShowLineNumbers = false
	ta.CharLimit = 4096
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = busyStyle

	vp := viewport.New(80, 20)
	m := Model{
		session:  session,
		opts:     opts,
		input:    ta,
		viewport: vp,
		spinner:  sp,
		backend:  "checking backend...",
	}
	if opts.Health == nil {
		m.backend = ""
	}
	m.refresh()
	return m
}

// Init starts the cursor blink and the health check.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if m.opts.Health != nil {
		health := m.opts.Health
		cmds = append(cmds, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return healthMsg{err: health(ctx)}
		})
	}
	return tea.Batch(cmds...)
}

// Update handles key and window events and backend results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc:
			return m, tea.Quit
		case msg.Type == tea.KeyPgUp || msg.Type == tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case msg.Type == tea.KeyEnter && !msg.Alt:
			return m.submit()
		}
		if m.session.Input().Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case answerMsg:
		reply := m.session.Complete(msg.resp, msg.err)
		if reply.Failed {
			m.status = "Request failed. You can try again."
		} else {
			m.status = ""
		}
		m.input.Focus()
		m.refresh()
		return m, textarea.Blink

	case healthMsg:
		if msg.err != nil {
			m.backend = "backend unreachable"
		} else {
			m.backend = "backend online"
		}
		return m, nil

	case spinner.TickMsg:
		if !m.session.Input().Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.session.Input().Busy() {
		return m, nil
	}
	m.session.Input().SetValue(m.input.Value())
	question, err := m.session.Begin()
	if err != nil {
		if errors.Is(err, chat.ErrEmptyInput) {
			m.status = "Type a question first."
		}
		return m, nil
	}
	m.input.Reset()
	m.input.Blur()
	m.status = ""
	m.refresh()
	return m, tea.Batch(m.spinner.Tick, m.ask(question))
}

func (m Model) ask(question string) tea.Cmd {
	session, timeout := m.session, m.opts.RequestTimeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		resp, err := session.Send(ctx, question)
		return answerMsg{resp: resp, err: err}
	}
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.ready = true
	frameW, frameH := inputBoxStyle.GetFrameSize()
	m.input.SetWidth(max(20, width-frameW))
	reserved := 1 + m.input.Height() + frameH + 1 // header, input box, footer
	m.viewport.Width = max(20, width)
	m.viewport.Height = max(3, height-reserved)
	if m.opts.Markdown {
		if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(max(20, width-4))); err == nil {
			m.renderer = r
		}
	}
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(RenderConversation(m.session.Conversation().Messages(), m.renderer))
	m.viewport.GotoBottom()
}

// View renders the header, conversation, input box and footer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		m.viewport.View(),
		inputBoxStyle.Render(m.input.View()),
		m.footer(),
	)
}

func (m Model) header() string {
	title := headerStyle.Render(m.opts.Title)
	var state string
	switch {
	case m.session.Input().Busy():
		state = busyStyle.Render("● answering")
	case m.backend == "backend unreachable":
		state = offlineStyle.Render("● " + m.backend)
	case m.backend != "":
		state = onlineStyle.Render("● " + m.backend)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", state)
}

func (m Model) footer() string {
	if m.session.Input().Busy() {
		return m.spinner.View() + " Thinking..."
	}
	if m.status != "" {
		return mutedStyle.Render(m.status)
	}
	n := m.session.Conversation().Count(domain.RoleUser)
	return mutedStyle.Render(fmt.Sprintf("%d questions · Enter send · Alt+Enter newline · PgUp/PgDn scroll · Esc quit", n))
}
