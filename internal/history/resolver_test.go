package history

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/diogo/tripchat/internal/models"
)

// seedConversations creates conversations titled by their first message,
// oldest first, with distinct update times
func seedConversations(t *testing.T, store *Store, titles ...string) []*Conversation {
	t.Helper()
	convs := make([]*Conversation, 0, len(titles))
	for _, title := range titles {
		conv, err := store.CreateConversation("m", "")
		if err != nil {
			t.Fatalf("CreateConversation failed: %v", err)
		}
		if err := store.AddMessage(conv.ID, models.NewUserMessage(title)); err != nil {
			t.Fatalf("AddMessage failed: %v", err)
		}
		convs = append(convs, conv)
		time.Sleep(10 * time.Millisecond)
	}
	return convs
}

func TestResolver_Aliases(t *testing.T) {
	store := newTestStore(t)
	convs := seedConversations(t, store, "Jaipur weekend", "Kerala backwaters", "Varanasi ghats")
	resolver := NewResolver(store)

	tests := []struct {
		ref  string
		want string
	}{
		{"@last", convs[2].ID},
		{"@LAST", convs[2].ID},
		{"@first", convs[0].ID},
		{"1", convs[2].ID},
		{"3", convs[0].ID},
		{convs[1].ID, convs[1].ID},
		{"kerala", convs[1].ID},
		{"  ghats ", convs[2].ID},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			id, err := resolver.Resolve(tt.ref)
			if err != nil {
				t.Fatalf("Resolve(%q) failed: %v", tt.ref, err)
			}
			if id != tt.want {
				t.Errorf("Resolve(%q) = %s, want %s", tt.ref, id, tt.want)
			}
		})
	}
}

func TestResolver_Errors(t *testing.T) {
	store := newTestStore(t)
	resolver := NewResolver(store)

	if _, err := resolver.Resolve("@last"); err == nil || !strings.Contains(err.Error(), "no conversations") {
		t.Errorf("expected no conversations error, got %v", err)
	}

	seedConversations(t, store, "Goa beaches", "Goa churches")

	tests := map[string]string{
		"":             "empty reference",
		"0":            "out of range",
		"9":            "out of range",
		"conv-unknown": "not found",
		"Ladakh":       "no conversation matching",
		"goa":          "multiple conversations",
		"@trip":        "no conversation has an itinerary",
	}
	for ref, want := range tests {
		_, err := resolver.Resolve(ref)
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("Resolve(%q) error = %v, want containing %q", ref, err, want)
		}
	}
}

func TestResolver_Trip(t *testing.T) {
	store := newTestStore(t)
	convs := seedConversations(t, store, "Hampi", "Mysore", "Coorg")
	store.SetItinerary(convs[1].ID, json.RawMessage(`{"destination":"Mysore"}`))
	time.Sleep(10 * time.Millisecond)
	store.AddMessage(convs[2].ID, models.NewUserMessage("still deciding"))

	id, err := NewResolver(store).Resolve("@trip")
	if err != nil {
		t.Fatalf("Resolve @trip failed: %v", err)
	}
	if id != convs[1].ID {
		t.Errorf("@trip = %s, want %s", id, convs[1].ID)
	}
}

func TestResolver_MatchesDestination(t *testing.T) {
	store := newTestStore(t)
	convs := seedConversations(t, store, "Weekend ideas", "Where should I go in March?")
	store.SetItinerary(convs[0].ID, json.RawMessage(`{"title":"Pink City","destination":"Jaipur, Rajasthan"}`))
	store.SetItinerary(convs[1].ID, json.RawMessage(`{"title":"Blue City","destination":"Jodhpur, Rajasthan"}`))
	resolver := NewResolver(store)

	id, err := resolver.Resolve("jaipur")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if id != convs[0].ID {
		t.Errorf("Resolve(jaipur) = %s, want %s", id, convs[0].ID)
	}

	_, err = resolver.Resolve("rajasthan")
	if err == nil || !strings.Contains(err.Error(), "(Jodhpur, Rajasthan)") {
		t.Errorf("ambiguous destination error should list destinations, got %v", err)
	}
}

func TestConversation_Destination(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{``, ""},
		{`null`, ""},
		{`{"title":"No place"}`, ""},
		{`{"destination":"Hampi"}`, "Hampi"},
	}
	for _, tt := range tests {
		conv := &Conversation{Itinerary: json.RawMessage(tt.raw)}
		if got := conv.Destination(); got != tt.want {
			t.Errorf("Destination(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestResolver_ResolveWithInfo(t *testing.T) {
	store := newTestStore(t)
	seedConversations(t, store, "Sikkim monasteries")

	conv, err := NewResolver(store).ResolveWithInfo("@last")
	if err != nil {
		t.Fatalf("ResolveWithInfo failed: %v", err)
	}
	if conv.Title != "Sikkim monasteries" {
		t.Errorf("Title = %q", conv.Title)
	}
}

func TestListAliases(t *testing.T) {
	out := ListAliases()
	for _, alias := range []string{"@last", "@first", "@trip", "conv-"} {
		if !strings.Contains(out, alias) {
			t.Errorf("ListAliases() missing %s", alias)
		}
	}
}
