package itinerary

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// ErrNoDays is returned by exports that need a day list
var ErrNoDays = errors.New("itinerary has no days to schedule")

// Format is an export format
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatICS      Format = "ics"
	FormatMarkdown Format = "markdown"
)

// Formats lists the supported export formats
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatICS, FormatMarkdown}
}

// ParseFormat accepts a format name or a common file extension
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "ics", "ical", "calendar":
		return FormatICS, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("invalid format %q: use json, yaml, ics or markdown", s)
	}
}

// Ext returns the file extension for the format
func (f Format) Ext() string {
	switch f {
	case FormatYAML:
		return ".yaml"
	case FormatICS:
		return ".ics"
	case FormatMarkdown:
		return ".md"
	default:
		return ".json"
	}
}

// Render exports the plan in the given format. start anchors calendar
// events and is ignored by the other formats.
func (it *Itinerary) Render(f Format, start time.Time) ([]byte, error) {
	switch f {
	case FormatJSON:
		return it.JSON(), nil
	case FormatYAML:
		return it.YAML()
	case FormatICS:
		s, err := it.ICS(start)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	case FormatMarkdown:
		return []byte(it.Markdown()), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", f)
	}
}

// JSON returns the document indented for reading
func (it *Itinerary) JSON() []byte {
	pretty := gjson.GetBytes(it.raw, "@pretty").Raw
	return bytes.TrimRight([]byte(pretty), "\n")
}

// YAML converts the document to block style YAML keeping key order
func (it *Itinerary) YAML() ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(it.raw, &node); err != nil {
		return nil, fmt.Errorf("failed to read itinerary as YAML: %w", err)
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// blockStyle drops the flow and quoting styles inherited from JSON
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// ICS builds a calendar with one all-day event per day, starting at start
func (it *Itinerary) ICS(start time.Time) (string, error) {
	days := it.Days()
	if len(days) == 0 {
		return "", ErrNoDays
	}

	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	planID := uuid.NewSHA1(uuid.NameSpaceURL, it.raw).String()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//tripchat//itinerary//EN")
	cal.SetXWRCalName(it.Label())

	stamp := time.Now().UTC()
	dest := it.Destination()

	for i, day := range days {
		date := start.AddDate(0, 0, i)

		ev := cal.AddEvent(fmt.Sprintf("%s-day-%d@tripchat", planID, i+1))
		ev.SetDtStampTime(stamp)
		ev.SetAllDayStartAt(date)
		ev.SetAllDayEndAt(date.AddDate(0, 0, 1))

		summary := fmt.Sprintf("Day %d", day.Number)
		if day.Title != "" {
			summary += ": " + day.Title
		}
		ev.SetSummary(summary)

		if len(day.Activities) > 0 {
			lines := make([]string, len(day.Activities))
			for j, a := range day.Activities {
				lines[j] = a.summaryLine()
			}
			ev.SetDescription(strings.Join(lines, "\n"))
		}
		if dest != "" {
			ev.SetLocation(dest)
		}
	}

	return cal.Serialize(), nil
}
