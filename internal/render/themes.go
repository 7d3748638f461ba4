package render

import (
	"strings"

	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// StyleSaffron is the default markdown style: glamour's dark style with
// saffron headings and green links.
const StyleSaffron = "saffron"

// StyleInfo describes a markdown style for display
type StyleInfo struct {
	Name        string
	Description string
}

// AvailableStyles lists the markdown styles accepted by Options.Style
func AvailableStyles() []StyleInfo {
	return []StyleInfo{
		{Name: StyleSaffron, Description: "Dark with saffron headings (default)"},
		{Name: styles.DarkStyle, Description: "Glamour dark"},
		{Name: styles.LightStyle, Description: "For bright terminals"},
		{Name: styles.DraculaStyle, Description: "Dracula color scheme"},
		{Name: styles.TokyoNightStyle, Description: "Tokyo Night color scheme"},
		{Name: styles.PinkStyle, Description: "Pink accents"},
		{Name: styles.NoTTYStyle, Description: "Plain text (no styling)"},
		{Name: styles.AsciiStyle, Description: "ASCII-only output"},
	}
}

// StyleNames returns just the style names
func StyleNames() []string {
	all := AvailableStyles()
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.Name
	}
	return names
}

// NormalizeStyle maps aliases to glamour's names
func NormalizeStyle(style string) string {
	switch s := strings.ToLower(strings.TrimSpace(style)); s {
	case "":
		return StyleSaffron
	case "tokyonight", "tokyo_night":
		return styles.TokyoNightStyle
	case "plain", "none":
		return styles.NoTTYStyle
	default:
		if strings.HasSuffix(s, ".json") {
			return style
		}
		return s
	}
}

// IsBuiltinStyle reports whether style needs no file on disk
func IsBuiltinStyle(style string) bool {
	if style == StyleSaffron {
		return true
	}
	_, ok := styles.DefaultStyles[style]
	return ok
}

func strPtr(s string) *string { return &s }

// saffronStyleConfig derives the default style from glamour's dark style
func saffronStyleConfig() ansi.StyleConfig {
	s := styles.DarkStyleConfig

	s.H1.StylePrimitive.Color = strPtr("#1c1917")
	s.H1.StylePrimitive.BackgroundColor = strPtr("#ff9933")
	s.H2.StylePrimitive.Color = strPtr("#ff9933")
	s.H3.StylePrimitive.Color = strPtr("#f5c16c")
	s.Strong.Color = strPtr("#ffd7a0")
	s.Link.Color = strPtr("#4caf50")
	s.LinkText.Color = strPtr("#81c784")
	s.Image.Color = strPtr("#4caf50")
	s.ImageText.Color = strPtr("#81c784")

	return s
}
