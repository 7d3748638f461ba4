package tui

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/diogo/tripchat/internal/api"
	"github.com/diogo/tripchat/internal/chat"
	apierrors "github.com/diogo/tripchat/internal/errors"
	"github.com/diogo/tripchat/internal/history"
	"github.com/diogo/tripchat/internal/itinerary"
	"github.com/diogo/tripchat/internal/models"
	"github.com/diogo/tripchat/internal/render"
)

// Animation tick message
type animationTickMsg time.Time

// Stream messages, one per StreamEvent
type (
	streamDeltaMsg struct {
		delta string
	}
	streamDoneMsg struct {
		reply *models.Reply
	}
	streamErrMsg struct {
		err error
	}
)

// HistoryStore is the part of the history store the chat writes to
type HistoryStore interface {
	AddMessage(id string, msg models.ChatMessage) error
	SetItinerary(id string, raw json.RawMessage) error
}

// copyToClipboard is replaced in tests
var copyToClipboard = clipboard.WriteAll

// Layout
const (
	headerHeight = 3 // header panel with border
	tabBarHeight = 1
	inputHeight  = 6 // input panel with border
	statusHeight = 1
	panelBorder  = 2
)

// Model represents the TUI state. The controller holds the conversation;
// the model owns the widgets and the in-flight stream.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	session    *api.ChatSession
	controller *chat.Controller
	logger     *zap.Logger
	renderOpts render.Options

	modelName   string
	personaName string

	// UI components
	viewport viewport.Model
	itinView viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// Stream state
	events         <-chan api.StreamEvent
	pending        string
	started        time.Time
	animationFrame int

	ready  bool
	notice string

	// History/conversation state
	conversation *history.Conversation // nil when history is disabled
	historyStore HistoryStore

	// Dimensions
	width  int
	height int
}

// Option configures a Model
type Option func(*Model)

// WithConversation persists the chat into conv and restores its messages
// and itinerary
func WithConversation(conv *history.Conversation, store HistoryStore) Option {
	return func(m *Model) {
		m.conversation = conv
		m.historyStore = store
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithRenderOptions sets the markdown options for bubbles and the itinerary
func WithRenderOptions(o render.Options) Option {
	return func(m *Model) {
		m.renderOpts = o
	}
}

// WithContext sets the parent context of every request
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// NewChatModel creates a new chat TUI model
func NewChatModel(session *api.ChatSession, opts ...Option) Model {
	m := Model{
		ctx:        context.Background(),
		session:    session,
		logger:     zap.NewNop(),
		renderOpts: render.DefaultOptions(),
		modelName:  session.GetModel(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.ctx, m.cancel = context.WithCancel(m.ctx)

	if p := session.Persona(); p != nil {
		m.personaName = p.Name
	}

	ctrlOpts := []chat.Option{chat.WithLogger(m.logger)}
	if conv := m.conversation; conv != nil {
		ctrlOpts = append(ctrlOpts, chat.WithHistory(conv.ChatMessages()))
		if conv.HasItinerary() {
			if it, err := itinerary.FromRaw(conv.Itinerary); err == nil {
				ctrlOpts = append(ctrlOpts, chat.WithItinerary(it))
			} else {
				m.logger.Warn("stored itinerary could not be loaded",
					zap.String("conversation", conv.ID), zap.Error(err))
			}
		}
	}
	m.controller = chat.NewController(ctrlOpts...)

	m.textarea = newInput()

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle
	m.spinner = s

	return m
}

func newInput() textarea.Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about destinations, food, festivals..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	return ta
}

// scrollKeys keeps letters free for typing
func scrollKeys() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		Up:           key.NewBinding(key.WithKeys("up")),
		Down:         key.NewBinding(key.WithKeys("down")),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

// animationTick returns a command that sends animation tick messages
func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// waitForEvent turns the next stream event into a message
func waitForEvent(events <-chan api.StreamEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		switch {
		case !ok:
			return streamErrMsg{err: apierrors.ErrNoContent}
		case ev.Err != nil:
			return streamErrMsg{err: ev.Err}
		case ev.Reply != nil:
			return streamDoneMsg{reply: ev.Reply}
		default:
			return streamDeltaMsg{delta: ev.Delta}
		}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		m.notice = ""

		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.controller.Busy() {
				return m, nil
			}
			m.cancel()
			return m, tea.Quit

		case "tab":
			if err := m.controller.ToggleTab(); err != nil {
				m.notice = "No itinerary yet. Ask for a plan first"
			}
			m.syncFocus()
			return m, nil

		case "ctrl+y":
			m.copyItinerary()
			return m, nil

		case "enter":
			if m.controller.ActiveTab() == chat.TabChat {
				return m.submit()
			}
			return m, nil

		case "alt+1", "alt+2", "alt+3", "alt+4", "alt+5", "alt+6":
			if m.controller.ActiveTab() == chat.TabChat && !m.controller.Busy() {
				idx := int(msg.String()[len("alt+")] - '1')
				if m.controller.ApplySuggestion(idx) {
					m.textarea.SetValue(m.controller.Input())
					m.textarea.CursorEnd()
				}
			}
			return m, nil
		}

	case streamDeltaMsg:
		m.pending += msg.delta
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, waitForEvent(m.events)

	case streamDoneMsg:
		m.finish(msg.reply)
		return m, nil

	case streamErrMsg:
		m.fail(msg.err)
		return m, nil

	case spinner.TickMsg:
		if m.controller.Busy() {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
			if m.pending == "" {
				m.updateViewport()
			}
		}

	case animationTickMsg:
		if m.controller.Busy() {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Only pass KeyMsg to the textarea to prevent escape sequence leaks
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if m.controller.ActiveTab() == chat.TabChat {
			if !m.controller.Busy() {
				m.textarea, cmd = m.textarea.Update(keyMsg)
				cmds = append(cmds, cmd)
				m.controller.SetInput(m.textarea.Value())
			}
			m.viewport, cmd = m.viewport.Update(keyMsg)
		} else {
			m.itinView, cmd = m.itinView.Update(keyMsg)
		}
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	vpHeight := max(height-headerHeight-tabBarHeight-inputHeight-statusHeight-panelBorder, 5)
	contentWidth := max(width-4, 20)

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.viewport.KeyMap = scrollKeys()
		m.itinView = viewport.New(contentWidth, vpHeight)
		m.itinView.KeyMap = scrollKeys()
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
		m.itinView.Width = contentWidth
		m.itinView.Height = vpHeight
	}
	m.textarea.SetWidth(contentWidth - 4)

	m.updateViewport()
	m.refreshItinerary()
}

// isExitCommand reports whether the input asks to leave the chat
func isExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit", "/exit", "/quit":
		return true
	}
	return false
}

// submit hands the input to the controller and starts streaming the reply
func (m Model) submit() (tea.Model, tea.Cmd) {
	if isExitCommand(m.textarea.Value()) && !m.controller.Busy() {
		m.cancel()
		return m, tea.Quit
	}

	m.controller.SetInput(m.textarea.Value())
	msg, ok := m.controller.Submit()
	if !ok {
		return m, nil
	}
	m.textarea.Reset()
	m.persist(msg)

	m.pending = ""
	m.started = time.Now()
	m.animationFrame = 0
	m.events = m.session.Stream(m.ctx, m.controller.Messages())

	m.logger.Debug("stream started", zap.String("model", m.modelName))

	m.updateViewport()
	m.viewport.GotoBottom()

	return m, tea.Batch(
		waitForEvent(m.events),
		m.spinner.Tick,
		animationTick(),
	)
}

// finish records a completed reply
func (m *Model) finish(reply *models.Reply) {
	before := m.controller.Itinerary()
	msg := m.controller.Complete(reply)
	m.events = nil
	m.pending = ""

	m.logger.Info("reply received",
		zap.Duration("elapsed", time.Since(m.started)),
		zap.String("model", reply.Model),
		zap.String("finish_reason", reply.FinishReason),
		zap.Int("length", len(reply.Text)))

	m.persist(msg)
	if it := m.controller.Itinerary(); it != nil && it != before {
		m.persistItinerary(it)
		m.refreshItinerary()
	}
	m.syncFocus()

	m.updateViewport()
	m.viewport.GotoBottom()
}

// fail records a transport error. The partial reply is dropped.
func (m *Model) fail(err error) {
	m.controller.Fail(err)
	m.events = nil
	m.pending = ""

	m.logger.Error("stream failed",
		zap.Duration("elapsed", time.Since(m.started)),
		zap.Error(err))

	m.updateViewport()
}

// syncFocus blurs the input while the itinerary tab is shown
func (m *Model) syncFocus() {
	if m.controller.ActiveTab() == chat.TabChat {
		m.textarea.Focus()
	} else {
		m.textarea.Blur()
	}
}

func (m *Model) copyItinerary() {
	it := m.controller.Itinerary()
	if it == nil {
		m.notice = "No itinerary to copy"
		return
	}
	if err := copyToClipboard(string(it.JSON())); err != nil {
		m.logger.Warn("clipboard copy failed", zap.Error(err))
		m.notice = "Copy failed: " + err.Error()
		return
	}
	m.notice = "Itinerary JSON copied to clipboard"
}

func (m *Model) persist(msg models.ChatMessage) {
	if m.historyStore == nil || m.conversation == nil {
		return
	}
	if err := m.historyStore.AddMessage(m.conversation.ID, msg); err != nil {
		m.logger.Warn("failed to save message",
			zap.String("conversation", m.conversation.ID), zap.Error(err))
	}
}

func (m *Model) persistItinerary(it *itinerary.Itinerary) {
	if m.historyStore == nil || m.conversation == nil {
		return
	}
	if err := m.historyStore.SetItinerary(m.conversation.ID, it.Raw()); err != nil {
		m.logger.Warn("failed to save itinerary",
			zap.String("conversation", m.conversation.ID), zap.Error(err))
	}
}

// Controller exposes the conversation state
func (m Model) Controller() *chat.Controller {
	return m.controller
}

// RunChat starts the chat TUI
func RunChat(session *api.ChatSession, opts ...Option) error {
	m := NewChatModel(session, opts...)
	defer m.cancel()

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
