package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/tripchat/internal/history"
)

// ConversationLister lists saved conversations for the selector
type ConversationLister interface {
	ListConversations() ([]*history.Conversation, error)
}

// historyLoadedMsg is sent when conversations are loaded
type historyLoadedMsg struct {
	conversations []*history.Conversation
	err           error
}

// HistorySelectorModel lets the user resume a saved conversation or start
// a new one
type HistorySelectorModel struct {
	store     ConversationLister
	modelName string

	conversations []*history.Conversation
	cursor        int // 0 is "New conversation"

	loading   bool
	err       error
	confirmed bool

	selectedConv *history.Conversation // nil means new conversation

	width  int
	height int
	ready  bool
}

// NewHistorySelectorModel creates a new history selector model
func NewHistorySelectorModel(store ConversationLister, modelName string) HistorySelectorModel {
	return HistorySelectorModel{
		store:     store,
		modelName: modelName,
		loading:   true,
	}
}

// Init starts loading conversations
func (m HistorySelectorModel) Init() tea.Cmd {
	return m.loadConversations()
}

func (m HistorySelectorModel) loadConversations() tea.Cmd {
	return func() tea.Msg {
		conversations, err := m.store.ListConversations()
		return historyLoadedMsg{conversations: conversations, err: err}
	}
}

// Update handles messages and updates the model
func (m HistorySelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case historyLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.conversations = msg.conversations

	case tea.KeyMsg:
		if m.loading {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit

		case "up", "k":
			m.cursor--
			if m.cursor < 0 {
				m.cursor = len(m.conversations)
			}

		case "down", "j":
			m.cursor++
			if m.cursor > len(m.conversations) {
				m.cursor = 0
			}

		case "home", "g":
			m.cursor = 0

		case "end", "G":
			m.cursor = len(m.conversations)

		case "enter":
			m.confirmed = true
			if m.cursor > 0 {
				m.selectedConv = m.conversations[m.cursor-1]
			}
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the selector
func (m HistorySelectorModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}
	if m.loading {
		return loadingStyle.Render("  Loading conversations...")
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("  Error: %v", m.err))
	}

	contentWidth := max(m.width-4, 40)

	title := titleStyle.Render("Resume a trip chat")
	subtitle := hintStyle.Render("  model: " + m.modelName)
	header := headerStyle.Width(contentWidth).Render(lipgloss.JoinHorizontal(lipgloss.Center, title, subtitle))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.renderList(contentWidth),
		m.renderStatusBar(contentWidth),
	)
}

func (m HistorySelectorModel) renderList(width int) string {
	items := []string{m.renderItem(0, "+ New conversation", "")}

	if len(m.conversations) == 0 {
		items = append(items, hintStyle.Render("  No saved conversations"))
	} else {
		maxItems := max(5, m.height-10)

		scrollOffset := 0
		if m.cursor >= maxItems {
			scrollOffset = m.cursor - maxItems + 1
		}
		endIdx := min(scrollOffset+maxItems, len(m.conversations)+1)

		for i := max(scrollOffset, 1); i < endIdx; i++ {
			conv := m.conversations[i-1]
			items = append(items, m.renderItem(i, conv.Title, describeConversation(conv)))
		}

		if scrollOffset > 0 {
			items = append([]string{hintStyle.Render("  ...")}, items...)
		}
		if endIdx < len(m.conversations)+1 {
			items = append(items, hintStyle.Render("  ..."))
		}
	}

	return messagesAreaStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

// describeConversation summarizes a saved conversation for the list
func describeConversation(conv *history.Conversation) string {
	parts := []string{history.FormatRelativeTime(conv.UpdatedAt)}
	parts = append(parts, fmt.Sprintf("%d msgs", len(conv.Messages)))
	if conv.HasItinerary() {
		parts = append(parts, "✈ itinerary")
	}
	return strings.Join(parts, " · ")
}

func (m HistorySelectorModel) renderItem(index int, title, detail string) string {
	cursor := "  "
	style := lipgloss.NewStyle().Foreground(colorText)
	if index == m.cursor {
		cursor = suggestionKeyStyle.Render("▸ ")
		style = assistantLabelStyle
	}

	line := cursor + style.Render(title)
	if detail != "" {
		line += hintStyle.Render("  " + detail)
	}
	return line
}

func (m HistorySelectorModel) renderStatusBar(width int) string {
	items := []string{
		statusKeyStyle.Render("↑↓") + statusDescStyle.Render(" Navigate"),
		statusKeyStyle.Render("Enter") + statusDescStyle.Render(" Select"),
		statusKeyStyle.Render("Esc") + statusDescStyle.Render(" Quit"),
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// HistorySelectorResult contains the result of running the history selector
type HistorySelectorResult struct {
	Conversation *history.Conversation // nil for new conversation
	Confirmed    bool
}

// Result returns the selection
func (m HistorySelectorModel) Result() HistorySelectorResult {
	return HistorySelectorResult{Conversation: m.selectedConv, Confirmed: m.confirmed}
}

// RunHistorySelector starts the history selector TUI and returns the result
func RunHistorySelector(store ConversationLister, modelName string) (HistorySelectorResult, error) {
	p := tea.NewProgram(
		NewHistorySelectorModel(store, modelName),
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return HistorySelectorResult{}, err
	}

	if hm, ok := finalModel.(HistorySelectorModel); ok {
		return hm.Result(), nil
	}
	return HistorySelectorResult{}, nil
}
