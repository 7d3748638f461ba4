package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/tripchat/internal/itinerary"
	"github.com/diogo/tripchat/internal/render"
)

// refreshItinerary re-renders the itinerary tab content
func (m *Model) refreshItinerary() {
	if !m.ready {
		return
	}
	m.itinView.SetContent(renderItinerary(m.controller.Itinerary(), m.itinView.Width-2, m.renderOpts))
	m.itinView.GotoTop()
}

// renderItinerary renders the plan as markdown, or a placeholder when
// there is none
func renderItinerary(it *itinerary.Itinerary, width int, opts render.Options) string {
	if it == nil {
		return itineraryEmptyStyle.Width(width).Render(
			"\nNo itinerary yet.\n\nAsk the guide for a day-by-day plan and it will appear here.")
	}

	md := it.Markdown()
	out, err := render.Markdown(md, opts.ForItinerary(width))
	if err != nil {
		out = lipgloss.NewStyle().Width(width).Render(md)
	}
	return strings.TrimRight(out, "\n")
}
