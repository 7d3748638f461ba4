// Package render turns markdown into styled terminal output and holds the
// color palettes of the TUI.
package render

import (
	"os"

	"github.com/diogo/tripchat/internal/config"
)

// Width bounds for rendered replies and plans
const (
	MinWidth          = 20
	MaxItineraryWidth = 116
)

// StyleEnv overrides the configured style, following glamour's convention
const StyleEnv = "GLAMOUR_STYLE"

// Options configures the markdown renderer.
type Options struct {
	Width int

	// Style is a glamour style name, "saffron", or a path to a JSON style file
	Style string

	EnableEmoji      bool
	PreserveNewLines bool
	TableWrap        bool
	InlineTableLinks bool
}

// DefaultOptions returns the options used for replies when no config is loaded.
func DefaultOptions() Options {
	return Options{
		Width:            80,
		Style:            StyleSaffron,
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
	}
}

// OptionsFromConfig builds render options from the markdown section of the
// user configuration. GLAMOUR_STYLE wins over the file.
func OptionsFromConfig(cfg config.Config) Options {
	md := cfg.Markdown
	opts := DefaultOptions()
	opts.EnableEmoji = md.EnableEmoji
	opts.PreserveNewLines = md.PreserveNewLines
	opts.TableWrap = md.TableWrap
	opts.InlineTableLinks = md.InlineTableLinks

	for _, style := range []string{md.Style, os.Getenv(StyleEnv)} {
		if style != "" {
			opts.Style = NormalizeStyle(style)
		}
	}
	return opts
}

// WithWidth returns Options wrapping at width, never narrower than MinWidth.
func (o Options) WithWidth(width int) Options {
	o.Width = max(width, MinWidth)
	return o
}

// ForItinerary returns Options for a day-by-day plan shown in a pane of the
// given width. Plans keep their tables wrapped and stop growing past
// MaxItineraryWidth so activity lines stay readable on wide terminals.
func (o Options) ForItinerary(width int) Options {
	o.TableWrap = true
	return o.WithWidth(min(width, MaxItineraryWidth))
}

// WithStyle returns Options with the specified style.
func (o Options) WithStyle(style string) Options {
	o.Style = NormalizeStyle(style)
	return o
}
