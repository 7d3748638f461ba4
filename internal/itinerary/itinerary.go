package itinerary

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// Itinerary is an opaque, validated JSON document. Accessors read the common
// shapes models produce and return zero values for anything else.
type Itinerary struct {
	raw []byte
}

// Day is one day of a plan
type Day struct {
	Number     int
	Title      string
	Date       string
	Activities []Activity
}

// Activity is one stop of a day
type Activity struct {
	Time        string
	Name        string
	Description string
	Location    string
	Image       string
}

// FromRaw wraps a previously stored document. It validates like Parse.
func FromRaw(raw json.RawMessage) (*Itinerary, error) {
	return Parse(raw)
}

// Raw returns the compact JSON document
func (it *Itinerary) Raw() json.RawMessage {
	if it == nil {
		return nil
	}
	return json.RawMessage(it.raw)
}

// MarshalJSON embeds the document as-is
func (it *Itinerary) MarshalJSON() ([]byte, error) {
	if it == nil {
		return []byte("null"), nil
	}
	return it.raw, nil
}

func (it *Itinerary) root() gjson.Result {
	return gjson.ParseBytes(it.raw)
}

// firstOf returns the first existing, non-empty value among paths
func firstOf(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.String() != "" {
			return v
		}
	}
	return gjson.Result{}
}

// Title returns the plan title
func (it *Itinerary) Title() string {
	return firstOf(it.root(), "title", "name", "trip_name", "tripName").String()
}

// Destination returns the place the plan covers
func (it *Itinerary) Destination() string {
	return firstOf(it.root(), "destination", "city", "location", "region").String()
}

// Duration returns the stated duration, or one derived from the day count
func (it *Itinerary) Duration() string {
	if d := firstOf(it.root(), "duration", "length").String(); d != "" {
		return d
	}
	switch n := len(it.Days()); n {
	case 0:
		return ""
	case 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", n)
	}
}

func (it *Itinerary) dayArray() []gjson.Result {
	root := it.root()
	if root.IsArray() {
		return root.Array()
	}
	for _, p := range []string{"days", "itinerary", "schedule", "plan"} {
		if v := root.Get(p); v.IsArray() {
			return v.Array()
		}
	}
	return nil
}

// Days returns the days of the plan in document order
func (it *Itinerary) Days() []Day {
	days := lo.Filter(it.dayArray(), func(r gjson.Result, _ int) bool {
		return r.IsObject()
	})
	return lo.Map(days, func(r gjson.Result, i int) Day {
		num := int(r.Get("day").Int())
		if num <= 0 {
			num = i + 1
		}
		var acts []gjson.Result
		if v := firstOf(r, "activities", "items", "schedule", "stops"); v.IsArray() {
			acts = v.Array()
		}
		return Day{
			Number:     num,
			Title:      firstOf(r, "title", "theme", "name", "summary").String(),
			Date:       r.Get("date").String(),
			Activities: lo.Map(acts, toActivity),
		}
	})
}

func toActivity(r gjson.Result, _ int) Activity {
	if !r.IsObject() {
		return Activity{Name: strings.TrimSpace(r.String())}
	}
	return Activity{
		Time:        firstOf(r, "time", "start", "when").String(),
		Name:        firstOf(r, "name", "title", "activity", "place").String(),
		Description: firstOf(r, "description", "details", "notes").String(),
		Location:    firstOf(r, "location", "address", "area").String(),
		Image:       firstOf(r, "image", "imageUrl", "image_url").String(),
	}
}

// Tips returns free-form advice attached to the plan
func (it *Itinerary) Tips() []string {
	v := firstOf(it.root(), "tips", "notes", "advice")
	if !v.IsArray() {
		if s := strings.TrimSpace(v.String()); s != "" {
			return []string{s}
		}
		return nil
	}
	tips := lo.Map(v.Array(), func(r gjson.Result, _ int) string {
		return strings.TrimSpace(r.String())
	})
	return lo.Compact(tips)
}

// Structured reports whether the document has a recognizable day list
func (it *Itinerary) Structured() bool {
	return len(it.Days()) > 0
}

// Label returns a short human name for the plan
func (it *Itinerary) Label() string {
	if t := it.Title(); t != "" {
		return t
	}
	if d := it.Destination(); d != "" {
		return "Trip to " + d
	}
	return "Itinerary"
}
