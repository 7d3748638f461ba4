package itinerary

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Markdown renders the plan for display. Documents without a day list are
// shown as a fenced JSON block.
func (it *Itinerary) Markdown() string {
	var sb strings.Builder
	caser := cases.Title(language.English)

	sb.WriteString("# ")
	sb.WriteString(it.Label())
	sb.WriteString("\n\n")

	if d := it.Destination(); d != "" {
		fmt.Fprintf(&sb, "**Destination:** %s  \n", d)
	}
	if d := it.Duration(); d != "" {
		fmt.Fprintf(&sb, "**Duration:** %s  \n", d)
	}

	days := it.Days()
	if len(days) == 0 {
		sb.WriteString("\n```json\n")
		sb.Write(it.JSON())
		sb.WriteString("\n```\n")
		return sb.String()
	}

	for _, day := range days {
		fmt.Fprintf(&sb, "\n## Day %d", day.Number)
		if day.Title != "" {
			sb.WriteString(": ")
			sb.WriteString(caser.String(day.Title))
		}
		if day.Date != "" {
			fmt.Fprintf(&sb, " (%s)", day.Date)
		}
		sb.WriteString("\n\n")

		for _, a := range day.Activities {
			sb.WriteString(a.markdownLine())
		}
	}

	if tips := it.Tips(); len(tips) > 0 {
		sb.WriteString("\n## Tips\n\n")
		for _, tip := range tips {
			fmt.Fprintf(&sb, "- %s\n", tip)
		}
	}

	return sb.String()
}

func (a Activity) markdownLine() string {
	var sb strings.Builder
	sb.WriteString("- ")
	if a.Time != "" {
		fmt.Fprintf(&sb, "**%s** ", a.Time)
	}
	sb.WriteString(a.Name)
	if a.Location != "" {
		fmt.Fprintf(&sb, " _(%s)_", a.Location)
	}
	if a.Description != "" {
		sb.WriteString(": ")
		sb.WriteString(a.Description)
	}
	sb.WriteString("\n")
	if a.Image != "" {
		fmt.Fprintf(&sb, "  ![%s](%s)\n", a.Name, a.Image)
	}
	return sb.String()
}

// summaryLine is the plain text form used in calendar descriptions
func (a Activity) summaryLine() string {
	parts := make([]string, 0, 3)
	if a.Time != "" {
		parts = append(parts, a.Time)
	}
	parts = append(parts, a.Name)
	line := strings.Join(parts, " ")
	if a.Location != "" {
		line += " @ " + a.Location
	}
	if a.Description != "" {
		line += ": " + a.Description
	}
	return line
}
