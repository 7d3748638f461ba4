package history

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// Destination returns where the saved itinerary goes, or "" without one
func (c *Conversation) Destination() string {
	if !c.HasItinerary() {
		return ""
	}
	return gjson.GetBytes(c.Itinerary, "destination").String()
}

// mentions reports whether the title or the trip destination contains text
func (c *Conversation) mentions(text string) bool {
	return lo.SomeBy([]string{c.Title, c.Destination()}, func(s string) bool {
		return s != "" && strings.Contains(strings.ToLower(s), text)
	})
}

// Resolver resolves user-friendly references to conversation IDs
type Resolver struct {
	store *Store
}

// NewResolver creates a new alias resolver
func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve converts a user-friendly reference to a conversation ID
//
// Supported references:
//   - "@last" - most recently modified conversation
//   - "@first" - oldest conversation
//   - "@trip" - most recent conversation holding an itinerary
//   - "1", "2", "3" - by index (1-based, newest first)
//   - "conv-..." - direct ID
//   - "substring" - match on title or itinerary destination (error if several match)
func (r *Resolver) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty reference")
	}

	conversations, err := r.store.ListConversations()
	if err != nil {
		return "", fmt.Errorf("failed to list conversations: %w", err)
	}
	if len(conversations) == 0 {
		return "", fmt.Errorf("no conversations found")
	}

	switch strings.ToLower(ref) {
	case "@last":
		return conversations[0].ID, nil
	case "@first":
		return conversations[len(conversations)-1].ID, nil
	case "@trip":
		conv, ok := lo.Find(conversations, (*Conversation).HasItinerary)
		if !ok {
			return "", fmt.Errorf("no conversation has an itinerary yet")
		}
		return conv.ID, nil
	}

	if index, err := strconv.Atoi(ref); err == nil {
		if index < 1 || index > len(conversations) {
			return "", fmt.Errorf("index %d out of range (1-%d)", index, len(conversations))
		}
		return conversations[index-1].ID, nil
	}

	if strings.HasPrefix(ref, convIDPrefix) {
		if conv, ok := lo.Find(conversations, func(c *Conversation) bool { return c.ID == ref }); ok {
			return conv.ID, nil
		}
		return "", fmt.Errorf("conversation not found: %s", ref)
	}

	refLower := strings.ToLower(ref)
	matches := lo.Filter(conversations, func(c *Conversation, _ int) bool {
		return c.mentions(refLower)
	})

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no conversation matching '%s'", ref)
	case 1:
		return matches[0].ID, nil
	default:
		titles := lo.Map(matches, func(c *Conversation, _ int) string {
			if dest := c.Destination(); dest != "" {
				return fmt.Sprintf("'%s' (%s)", c.Title, dest)
			}
			return fmt.Sprintf("'%s'", c.Title)
		})
		return "", fmt.Errorf("multiple conversations match '%s': %s. Use ID or be more specific",
			ref, strings.Join(titles, ", "))
	}
}

// ResolveWithInfo resolves a reference and returns the conversation
func (r *Resolver) ResolveWithInfo(ref string) (*Conversation, error) {
	id, err := r.Resolve(ref)
	if err != nil {
		return nil, err
	}

	return r.store.GetConversation(id)
}

// ListAliases returns information about supported aliases
func ListAliases() string {
	return `Supported references:
  @last          Most recently modified conversation
  @first         Oldest conversation
  @trip          Most recent conversation with an itinerary
  1, 2, 3        By index (1-based, from most recent)
  conv-...       Direct conversation ID
  "text"         Search titles and itinerary destinations`
}
