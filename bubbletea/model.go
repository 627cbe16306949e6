package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/afilimonchyk/ai-goals-assistant"
	"github.com/afilimonchyk/ai-goals-assistant/goldmark"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var _ tea.Model = Model{}

const idleHint = "Enter to send · Ctrl+L to clear · /help for goals · Ctrl+C to quit"

// Model is the Bubble Tea model for the assistant TUI.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model
	// Spinner animates the typing indicator.
	Spinner spinner.Model

	session  Session
	goals    assistant.GoalStore
	events   <-chan assistant.Event
	styles   Styles
	renderer *goldmark.Renderer
	now      func() time.Time

	blocks       []MessageBlock
	typing       bool
	confirmClear bool

	running bool
	cancel  context.CancelFunc
	notice  string
	err     error
	ready   bool
}

// Option configures a Model.
type Option func(*Model)

// WithGoals enables the /goal commands.
func WithGoals(g assistant.GoalStore) Option {
	return func(m *Model) { m.goals = g }
}

// WithClock sets the clock used to decide which goals are urgent.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// New creates a Model that drives session and renders the events that
// arrive on events.
func New(session Session, events <-chan assistant.Event, theme assistant.Theme, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about your goals..."
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 0

	styles := NewStyles(theme)
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Assistant))

	m := Model{
		Input:    ti,
		Spinner:  sp,
		session:  session,
		events:   events,
		styles:   styles,
		renderer: goldmark.New(theme),
		now:      time.Now,
	}
	for _, o := range opts {
		o(&m)
	}
	return m
}

// Running returns whether a submission is in flight.
func (m Model) Running() bool { return m.running }

// Typing returns whether the typing indicator is shown.
func (m Model) Typing() bool { return m.typing }

// Confirming returns whether the model is asking to confirm a clear.
func (m Model) Confirming() bool { return m.confirmClear }

// Err returns the last error, if any.
func (m Model) Err() error { return m.err }

// Notice returns the last informational message, if any.
func (m Model) Notice() string { return m.notice }

// Init implements tea.Model. It replays stored history and starts listening
// for session events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, listenForEvent(m.events), openSession(m.session))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case EventMsg:
		var cmd tea.Cmd
		m, cmd = m.processEvent(msg.Event)
		m = m.refresh()
		return m, tea.Batch(cmd, listenForEvent(m.events))

	case OpenDoneMsg:
		if msg.Err != nil {
			m.err = msg.Err
		}
		return m, nil

	case SubmitDoneMsg:
		if m.cancel != nil {
			m.cancel()
		}
		m.running = false
		m.cancel = nil
		if msg.Err != nil && !shownInline(msg.Err) {
			m.err = msg.Err
		}
		return m, m.Input.Focus()

	case ClearDoneMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.notice = "History cleared"
		return m, nil

	case GoalsMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.notice = msg.Notice
		m.blocks = append(m.blocks, NewGoalsBlock(msg.Goals, m.now(), m.styles))
		m = m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.typing {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		if m.ready {
			m.Viewport.SetContent(m.renderContent())
		}
		return m, cmd
	}

	// Viewport always receives messages for scrolling (keyboard and mouse).
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := msg.Height - inputH - statusHeight - borderHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmClear {
		m.confirmClear = false
		if msg.Type == tea.KeyRunes && strings.EqualFold(string(msg.Runes), "y") {
			return m, clearHistory(m.session)
		}
		m.notice = "Clear cancelled"
		return m, nil
	}

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyCtrlL:
		if m.running {
			m.err = fmt.Errorf("wait for the reply before clearing: %w", assistant.ErrBusy)
			return m, nil
		}
		m.err = nil
		m.notice = ""
		m.confirmClear = true
		return m, nil

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		m.Input.SetValue("")
		m.err = nil
		m.notice = ""
		if strings.HasPrefix(text, "/") {
			return m.runCommand(text)
		}
		return m.submitInput(text)
	}

	// Only forward non-character keys to viewport to avoid conflicts
	// (e.g. 'j'/'k' are viewport scroll AND text characters).
	if !m.running {
		var cmd tea.Cmd
		var cmds []tea.Cmd

		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)

		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true
	m.Input.Blur()
	return m, submit(ctx, m.session, text)
}

// processEvent applies a session event to the block list.
func (m Model) processEvent(evt assistant.Event) (Model, tea.Cmd) {
	switch e := evt.(type) {
	case assistant.EventTurnRendered:
		if e.Turn.Role == assistant.RoleUser {
			m.blocks = append(m.blocks, NewUserBlock(e.Turn, m.styles))
		} else {
			m.blocks = append(m.blocks, NewAssistantBlock(e.Turn, m.renderer, m.styles))
		}
	case assistant.EventTypingStarted:
		m.typing = true
		return m, m.Spinner.Tick
	case assistant.EventTypingStopped:
		m.typing = false
	case assistant.EventError:
		m.blocks = append(m.blocks, NewErrorBlock(e.Turn, m.styles))
	case assistant.EventHistoryCleared:
		m.blocks = nil
	case assistant.EventHistoryTruncated:
		m.notice = fmt.Sprintf("History trimmed to the last %d messages", e.Kept)
	case assistant.EventPersistFailed:
		m.err = fmt.Errorf("history not saved: %w", e.Err)
	}
	return m, nil
}

func (m Model) refresh() Model {
	if !m.ready {
		return m
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) renderContent() string {
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	if m.typing {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Spinner.View() + " " + m.styles.Muted.Render("Assistant is typing..."))
	}
	return b.String()
}

func (m Model) statusLine() string {
	var (
		text  string
		style lipgloss.Style
	)
	switch {
	case m.confirmClear:
		text, style = "Clear chat history? (y/n)", m.styles.Warning
	case m.err != nil:
		text, style = "Error: "+m.err.Error(), m.styles.Error
	case m.running:
		text, style = "Waiting for reply · Ctrl+C to cancel", m.styles.Muted
	case m.notice != "":
		text, style = m.notice, m.styles.Muted
	default:
		text, style = idleHint, m.styles.Muted
	}
	if m.Viewport.Width > 0 {
		text = runewidth.Truncate(text, m.Viewport.Width, "…")
	}
	return style.Render(text)
}

// shownInline reports whether err has already been surfaced in the
// conversation or needs no surfacing at all.
func shownInline(err error) bool {
	var te *assistant.TransportError
	return errors.As(err, &te) || errors.Is(err, assistant.ErrValidation)
}
