// Package itinerary detects, parses and exports the structured trip plan an
// assistant reply may carry.
//
// A reply embeds the plan between two literal markers:
//
//	ITINERARY_DATA:{"title": "..."}END_ITINERARY_DATA
//
// The enclosed text is a JSON document. Only the first marker pair counts.
package itinerary

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	apierrors "github.com/diogo/tripchat/internal/errors"
	"github.com/diogo/tripchat/internal/models"
)

// Payload markers
const (
	StartMarker = "ITINERARY_DATA:"
	EndMarker   = "END_ITINERARY_DATA"
)

// Notes substituted for the payload when a reply is displayed
const (
	PayloadNote = "_(itinerary attached, press Tab to view it)_"
	PendingNote = "_(building itinerary...)_"
)

var payloadPattern = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(StartMarker) + `(.*?)` + regexp.QuoteMeta(EndMarker))

// HasPayload reports whether text contains a complete marker pair
func HasPayload(text string) bool {
	return payloadPattern.MatchString(text)
}

// Extract finds the first marker pair in text and parses what it encloses.
// It returns nil, nil when text carries no payload and a *errors.ParseError
// when the payload is not valid JSON.
func Extract(text string) (*Itinerary, error) {
	m := payloadPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	return Parse([]byte(m[1]))
}

// ExtractReply prefers the typed payload of a reply and falls back to the
// markers in its text.
func ExtractReply(reply *models.Reply) (*Itinerary, error) {
	if reply == nil {
		return nil, nil
	}
	if !reply.HasStructured() {
		return Extract(reply.Text)
	}
	it, err := Parse(reply.Structured)
	if err == nil {
		return it, nil
	}
	if fallback, ferr := Extract(reply.Text); ferr == nil && fallback != nil {
		return fallback, nil
	}
	return nil, err
}

// Parse validates data as a JSON document and wraps it. A null document
// is rejected since it carries no plan.
func Parse(data []byte) (*Itinerary, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, apierrors.NewParseError("empty itinerary payload", StartMarker)
	}

	if !json.Valid(data) {
		var v any
		err := json.Unmarshal(data, &v)
		return nil, &apierrors.ParseError{
			Message: "itinerary payload is not valid JSON",
			Path:    StartMarker,
			Err:     err,
		}
	}

	if bytes.Equal(data, []byte("null")) {
		return nil, apierrors.NewParseError("itinerary payload is null", StartMarker)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, &apierrors.ParseError{Message: "itinerary payload is not valid JSON", Path: StartMarker, Err: err}
	}
	return &Itinerary{raw: buf.Bytes()}, nil
}

// StripPayload replaces the marker block with a short note. The stored
// message is left alone; this is for display only.
func StripPayload(text string) string {
	if !HasPayload(text) {
		return text
	}
	out := payloadPattern.ReplaceAllLiteralString(text, "\n\n"+PayloadNote+"\n")
	return strings.TrimSpace(out)
}

// TrimPending hides a payload that is still streaming in: everything after
// an unmatched start marker is replaced by a note.
func TrimPending(text string) string {
	text = StripPayload(text)
	idx := strings.Index(text, StartMarker)
	if idx < 0 {
		return text
	}
	head := strings.TrimSpace(text[:idx])
	if head == "" {
		return PendingNote
	}
	return head + "\n\n" + PendingNote
}
