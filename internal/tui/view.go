package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/diogo/tripchat/internal/chat"
	"github.com/diogo/tripchat/internal/itinerary"
	"github.com/diogo/tripchat/internal/models"
	"github.com/diogo/tripchat/internal/render"
)

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	contentWidth := m.viewport.Width
	sections := []string{
		m.renderHeader(contentWidth),
		m.renderTabs(),
	}

	if m.controller.ActiveTab() == chat.TabItinerary {
		sections = append(sections, itineraryPanelStyle.
			Width(contentWidth).
			Height(m.itinView.Height).
			Render(m.itinView.View()))
	} else {
		sections = append(sections, messagesAreaStyle.
			Width(contentWidth).
			Height(m.viewport.Height).
			Render(m.viewport.View()))
	}

	sections = append(sections,
		inputPanelStyle.Width(contentWidth).Render(m.renderInput(contentWidth)),
		m.renderStatusBar(contentWidth),
	)

	if err := m.controller.Err(); err != nil {
		sections = append(sections, FormatError(err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader(width int) string {
	parts := []string{
		titleStyle.Render("✦ TripChat"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.modelName),
	}
	if m.personaName != "" {
		parts = append(parts,
			hintStyle.Render("  •  "),
			subtitleStyle.Render(m.personaName),
		)
	}
	content := lipgloss.JoinHorizontal(lipgloss.Center, parts...)
	return headerStyle.Width(width).Render(content)
}

type tabItem struct {
	tab   chat.Tab
	label string
}

var tabItems = []tabItem{
	{chat.TabChat, "Chat"},
	{chat.TabItinerary, "Itinerary"},
}

// renderTabs draws the tab bar. The itinerary tab is dimmed until an
// itinerary exists.
func (m Model) renderTabs() string {
	rendered := lo.Map(tabItems, func(t tabItem, _ int) string {
		switch {
		case m.controller.ActiveTab() == t.tab:
			return tabActiveStyle.Render(t.label)
		case !m.controller.TabEnabled(t.tab):
			return tabDisabledStyle.Render(t.label)
		default:
			return tabInactiveStyle.Render(t.label)
		}
	})

	if it := m.controller.Itinerary(); it != nil {
		rendered = append(rendered, hintStyle.Render("  "+it.Label()))
	}

	return lipgloss.JoinHorizontal(lipgloss.Bottom, rendered...)
}

func (m Model) renderInput(width int) string {
	if m.controller.ActiveTab() == chat.TabItinerary {
		return lipgloss.JoinVertical(lipgloss.Left,
			inputLabelStyle.Render("Itinerary"),
			hintStyle.Render("Press Tab to return to the chat, ctrl+y to copy the plan as JSON"),
			"",
			"",
		)
	}

	if m.controller.Busy() {
		return lipgloss.JoinVertical(lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.renderLoadingAnimation(),
			"",
			"",
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		inputLabelStyle.Render("You"),
		m.textarea.View(),
		m.renderSuggestions(width-4),
	)
}

// renderSuggestions lists the canned prompts that fit on one line
func (m Model) renderSuggestions(width int) string {
	var sb strings.Builder
	used := 0
	for i, s := range m.controller.Suggestions() {
		chip := fmt.Sprintf("alt+%d %s", i+1, s)
		if used+len(chip)+3 > width {
			break
		}
		if used > 0 {
			sb.WriteString(hintStyle.Render(" · "))
			used += 3
		}
		sb.WriteString(suggestionKeyStyle.Render(fmt.Sprintf("alt+%d", i+1)))
		sb.WriteString(suggestionChipStyle.Render(" " + s))
		used += len(chip)
	}
	return sb.String()
}

// renderLoadingAnimation renders the animated "Thinking..." indicator
func (m Model) renderLoadingAnimation() string {
	barChars := []string{"█", "█", "█", "█", "▓", "▒", "░"}
	frame := m.animationFrame

	barWidth := 16
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + frame) % len(gradientColors)
		charIdx := (i + frame/2) % len(barChars)
		bar.WriteString(lipgloss.NewStyle().Foreground(gradientColors[colorIdx]).Render(barChars[charIdx]))
	}

	text := lipgloss.NewStyle().Foreground(colorText).Render(" Thinking...")
	return fmt.Sprintf("%s %s%s", m.spinner.View(), bar.String(), text)
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	if m.notice != "" {
		return statusBarStyle.Width(width).Align(lipgloss.Center).Render(statusNoticeStyle.Render(m.notice))
	}

	type shortcut struct {
		key  string
		desc string
	}
	shortcuts := []shortcut{{"Enter", "Send"}}
	if m.controller.TabEnabled(chat.TabItinerary) {
		shortcuts = append(shortcuts, shortcut{"Tab", "Switch tab"}, shortcut{"ctrl+y", "Copy plan"})
	}
	shortcuts = append(shortcuts, shortcut{"↑↓", "Scroll"})
	if !m.controller.Busy() {
		shortcuts = append(shortcuts, shortcut{"Esc", "Quit"})
	}

	items := lo.Map(shortcuts, func(s shortcut, _ int) string {
		return statusKeyStyle.Render(s.key) + statusDescStyle.Render(" "+s.desc)
	})

	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// updateViewport refreshes the thread shown in the chat tab
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	var content strings.Builder
	bubbleWidth := max(m.viewport.Width-6, 10)

	for i, msg := range m.controller.Messages() {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(m.renderMessage(msg, bubbleWidth))
		content.WriteString("\n")
	}

	if m.controller.Busy() {
		content.WriteString("\n")
		content.WriteString(assistantLabelStyle.Render("✦ Guide"))
		content.WriteString("\n")
		body := m.spinner.View() + " Thinking..."
		if m.pending != "" {
			body = itinerary.TrimPending(m.pending)
		}
		content.WriteString(pendingBubbleStyle.Width(bubbleWidth).Render(body))
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

func (m Model) renderMessage(msg models.ChatMessage, width int) string {
	if msg.Role == models.RoleUser {
		label := userLabelStyle.Render("● You")
		if msg.IsImage() {
			return label + "\n" + lipgloss.NewStyle().MarginLeft(4).Render(renderImageCard(msg.Content, width))
		}
		return label + "\n" + userBubbleStyle.Width(width).Render(msg.Content)
	}

	label := assistantLabelStyle.Render("✦ Guide")
	if msg.IsImage() {
		return label + "\n" + renderImageCard(msg.Content, width)
	}

	display := itinerary.StripPayload(msg.Content)
	rendered := render.MarkdownOrPlain(display, m.renderOpts.WithWidth(width-4))
	rendered = strings.TrimRight(rendered, "\n")

	return label + "\n" + assistantBubbleStyle.Width(width).Render(rendered)
}

// renderImageCard shows an image reference as a link card
func renderImageCard(path string, width int) string {
	path = strings.TrimSpace(path)
	name := path[strings.LastIndex(path, "/")+1:]

	content := lipgloss.JoinVertical(lipgloss.Left,
		imageTitleStyle.Render("🖼  "+name),
		imageLinkStyle.Render(path),
	)
	return imageCardStyle.Width(min(width, max(lipgloss.Width(path)+6, 24))).Render(content)
}
