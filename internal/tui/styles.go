// Package tui provides the terminal user interface for tripchat.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/tripchat/internal/errors"
	"github.com/diogo/tripchat/internal/render"
)

// Color variables (updated from theme)
var (
	// Base colors
	colorSurface lipgloss.Color
	colorBorder  lipgloss.Color

	// Accent colors
	colorPrimary   lipgloss.Color
	colorSecondary lipgloss.Color
	colorAccent    lipgloss.Color
	colorWarning   lipgloss.Color
	colorError     lipgloss.Color

	// Text colors
	colorText     lipgloss.Color
	colorTextDim  lipgloss.Color
	colorTextMute lipgloss.Color
)

// Style variables (rebuilt when theme changes)
var (
	headerStyle   lipgloss.Style
	titleStyle    lipgloss.Style
	subtitleStyle lipgloss.Style
	hintStyle     lipgloss.Style

	// Tab bar
	tabActiveStyle   lipgloss.Style
	tabInactiveStyle lipgloss.Style
	tabDisabledStyle lipgloss.Style

	messagesAreaStyle lipgloss.Style

	userBubbleStyle      lipgloss.Style
	userLabelStyle       lipgloss.Style
	assistantBubbleStyle lipgloss.Style
	assistantLabelStyle  lipgloss.Style
	pendingBubbleStyle   lipgloss.Style

	// Image card
	imageCardStyle  lipgloss.Style
	imageLinkStyle  lipgloss.Style
	imageTitleStyle lipgloss.Style

	// Suggestion chips
	suggestionKeyStyle  lipgloss.Style
	suggestionChipStyle lipgloss.Style

	inputPanelStyle lipgloss.Style
	inputLabelStyle lipgloss.Style
	loadingStyle    lipgloss.Style

	statusBarStyle    lipgloss.Style
	statusKeyStyle    lipgloss.Style
	statusDescStyle   lipgloss.Style
	statusNoticeStyle lipgloss.Style

	errorStyle lipgloss.Style

	// Itinerary tab
	itineraryPanelStyle lipgloss.Style
	itineraryEmptyStyle lipgloss.Style
)

// Gradient colors for the loading bar (fixed colors)
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#f59e0b"), // Saffron
	lipgloss.Color("#fbbf24"), // Marigold
	lipgloss.Color("#f97316"), // Orange
	lipgloss.Color("#e11d48"), // Rose
	lipgloss.Color("#0ea5e9"), // Peacock blue
	lipgloss.Color("#14b8a6"), // Teal
	lipgloss.Color("#22c55e"), // Leaf
	lipgloss.Color("#84cc16"), // Lime
}

func init() {
	UpdateTheme()
}

// UpdateTheme refreshes all styles based on the current TUI theme
func UpdateTheme() {
	theme := render.GetTUITheme()

	colorSurface = theme.Surface
	colorBorder = theme.Border
	colorPrimary = theme.Primary
	colorSecondary = theme.Secondary
	colorAccent = theme.Accent
	colorWarning = theme.Warning
	colorError = theme.Error
	colorText = theme.Text
	colorTextDim = theme.TextDim
	colorTextMute = theme.TextMute

	rebuildStyles()
}

// rebuildStyles creates all lipgloss styles with current color values
func rebuildStyles() {
	headerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	subtitleStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	hintStyle = lipgloss.NewStyle().
		Foreground(colorTextMute).
		Italic(true)

	tabActiveStyle = lipgloss.NewStyle().
		Foreground(colorSurface).
		Background(colorPrimary).
		Bold(true).
		Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Background(colorSurface).
		Padding(0, 2)

	tabDisabledStyle = lipgloss.NewStyle().
		Foreground(colorTextMute).
		Padding(0, 2).
		Faint(true)

	messagesAreaStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	userBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorSecondary).
		Padding(0, 1).
		MarginLeft(4)

	userLabelStyle = lipgloss.NewStyle().
		Foreground(colorSecondary).
		Bold(true).
		MarginLeft(4)

	assistantBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Foreground(colorText).
		Padding(0, 1).
		MarginRight(4)

	assistantLabelStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	pendingBubbleStyle = assistantBubbleStyle.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorTextDim)

	imageCardStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(colorAccent).
		Padding(0, 2).
		MarginRight(4)

	imageLinkStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Underline(true)

	imageTitleStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Italic(true)

	suggestionKeyStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	suggestionChipStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	inputPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	inputLabelStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		MarginRight(1)

	loadingStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	statusKeyStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Bold(true)

	statusDescStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	statusNoticeStyle = lipgloss.NewStyle().
		Foreground(colorWarning).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(colorError).
		Bold(true)

	itineraryPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(0, 1)

	itineraryEmptyStyle = lipgloss.NewStyle().
		Foreground(colorTextMute).
		Italic(true).
		Align(lipgloss.Center)
}

// FormatError returns a styled error message with additional context
// taken from the structured error types.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	errStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errStyle.Render(fmt.Sprintf("✗ %v", err)))

	if status := errors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	if endpoint := errors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	if body := errors.GetResponseBody(err); body != "" {
		sb.WriteString(dimStyle.Render("\n\n  " + strings.ReplaceAll(body, "\n", "\n  ")))
	}

	if hint := errorHint(err); hint != "" {
		sb.WriteString(dimStyle.Render("\n  Hint: " + hint))
	}

	return sb.String()
}

// errorHint suggests a next step for the known failure kinds
func errorHint(err error) string {
	switch {
	case errors.IsAuthError(err):
		return "Check your API key with 'tripchat config show' or pass --api-key"
	case errors.IsRateLimitError(err):
		return "You've hit the usage limit. Try again later or use a different model"
	case errors.IsTimeoutError(err):
		return "Request timed out. Try again or check your connection"
	case errors.IsNetworkError(err):
		return "Check your internet connection and try again"
	default:
		return ""
	}
}
