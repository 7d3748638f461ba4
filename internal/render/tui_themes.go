package render

import (
	"github.com/charmbracelet/lipgloss"
)

// TUITheme defines the color scheme for the TUI interface
type TUITheme struct {
	Name        string
	Description string

	// Base colors
	Background lipgloss.Color
	Surface    lipgloss.Color
	Border     lipgloss.Color

	// Accent colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color

	// Text colors
	Text     lipgloss.Color
	TextDim  lipgloss.Color
	TextMute lipgloss.Color
}

// Built-in TUI themes
var (
	// SaffronTheme is the default: saffron user bubbles, green assistant accents
	SaffronTheme = TUITheme{
		Name:        "saffron",
		Description: "Saffron - warm dark theme with marigold and leaf green",

		Background: lipgloss.Color("#1c1917"),
		Surface:    lipgloss.Color("#292524"),
		Border:     lipgloss.Color("#57534e"),

		Primary:   lipgloss.Color("#ff9933"), // Saffron
		Secondary: lipgloss.Color("#4caf50"), // Green
		Accent:    lipgloss.Color("#f5c16c"), // Marigold
		Warning:   lipgloss.Color("#fbbf24"),
		Error:     lipgloss.Color("#ef4444"),

		Text:     lipgloss.Color("#f5f5f4"),
		TextDim:  lipgloss.Color("#a8a29e"),
		TextMute: lipgloss.Color("#57534e"),
	}

	// MonsoonTheme uses the cool blues and greens of the rainy season
	MonsoonTheme = TUITheme{
		Name:        "monsoon",
		Description: "Monsoon - cool dark theme with teal and slate",

		Background: lipgloss.Color("#0f172a"),
		Surface:    lipgloss.Color("#1e293b"),
		Border:     lipgloss.Color("#334155"),

		Primary:   lipgloss.Color("#38bdf8"),
		Secondary: lipgloss.Color("#2dd4bf"),
		Accent:    lipgloss.Color("#a78bfa"),
		Warning:   lipgloss.Color("#facc15"),
		Error:     lipgloss.Color("#f87171"),

		Text:     lipgloss.Color("#e2e8f0"),
		TextDim:  lipgloss.Color("#64748b"),
		TextMute: lipgloss.Color("#334155"),
	}

	// TokyoNightTheme is based on the Tokyo Night color scheme
	TokyoNightTheme = TUITheme{
		Name:        "tokyonight",
		Description: "Tokyo Night - dark theme with blue accents",

		Background: lipgloss.Color("#1a1b26"),
		Surface:    lipgloss.Color("#24283b"),
		Border:     lipgloss.Color("#414868"),

		Primary:   lipgloss.Color("#7aa2f7"),
		Secondary: lipgloss.Color("#9ece6a"),
		Accent:    lipgloss.Color("#bb9af7"),
		Warning:   lipgloss.Color("#e0af68"),
		Error:     lipgloss.Color("#f7768e"),

		Text:     lipgloss.Color("#c0caf5"),
		TextDim:  lipgloss.Color("#565f89"),
		TextMute: lipgloss.Color("#3b4261"),
	}

	// LotusTheme is a light theme for bright terminals
	LotusTheme = TUITheme{
		Name:        "lotus",
		Description: "Lotus - light theme with pink and teal",

		Background: lipgloss.Color("#fdf6f0"),
		Surface:    lipgloss.Color("#f3e8e0"),
		Border:     lipgloss.Color("#d6c4b8"),

		Primary:   lipgloss.Color("#c2185b"),
		Secondary: lipgloss.Color("#00796b"),
		Accent:    lipgloss.Color("#7b1fa2"),
		Warning:   lipgloss.Color("#b45309"),
		Error:     lipgloss.Color("#b91c1c"),

		Text:     lipgloss.Color("#292524"),
		TextDim:  lipgloss.Color("#78716c"),
		TextMute: lipgloss.Color("#d6d3d1"),
	}
)

// currentTUITheme holds the currently active TUI theme
var currentTUITheme = SaffronTheme

// GetTUITheme returns the currently active TUI theme
func GetTUITheme() TUITheme {
	return currentTUITheme
}

// SetTUITheme sets the active TUI theme by name
func SetTUITheme(name string) bool {
	theme, ok := GetTUIThemeByName(name)
	if ok {
		currentTUITheme = theme
	}
	return ok
}

// GetTUIThemeByName returns a TUI theme by its name
func GetTUIThemeByName(name string) (TUITheme, bool) {
	for _, t := range AvailableTUIThemes() {
		if t.Name == name {
			return t, true
		}
	}
	return TUITheme{}, false
}

// AvailableTUIThemes returns a list of all available TUI themes
func AvailableTUIThemes() []TUITheme {
	return []TUITheme{SaffronTheme, MonsoonTheme, TokyoNightTheme, LotusTheme}
}

// TUIThemeNames returns just the theme names for selection
func TUIThemeNames() []string {
	themes := AvailableTUIThemes()
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
