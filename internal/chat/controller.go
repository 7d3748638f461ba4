// Package chat holds the conversation state of a session: the message
// thread, the input buffer, the busy flag, the active tab and the itinerary
// extracted from the latest reply that carried one.
//
// A Controller is owned by a single event loop and is not safe for
// concurrent use. It performs no I/O.
package chat

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/diogo/tripchat/internal/itinerary"
	"github.com/diogo/tripchat/internal/models"
)

// Tab identifies a view of the session
type Tab int

const (
	TabChat Tab = iota
	TabItinerary
)

func (t Tab) String() string {
	switch t {
	case TabChat:
		return "chat"
	case TabItinerary:
		return "itinerary"
	default:
		return "unknown"
	}
}

// ErrItineraryUnavailable is returned when the itinerary tab is selected
// before any itinerary was extracted.
var ErrItineraryUnavailable = errors.New("no itinerary available yet")

// ErrUnknownTab is returned for tabs outside the known set
var ErrUnknownTab = errors.New("unknown tab")

// Controller manages one conversation
type Controller struct {
	messages  []models.ChatMessage
	input     string
	busy      bool
	activeTab Tab
	itinerary *itinerary.Itinerary
	lastErr   error
	logger    *zap.Logger
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger used for submit and extraction events
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHistory restores a previous thread. The welcome message is kept
// first and not duplicated.
func WithHistory(msgs []models.ChatMessage) Option {
	return func(c *Controller) {
		for _, m := range msgs {
			if m.IsWelcome() {
				continue
			}
			c.messages = append(c.messages, m)
		}
	}
}

// WithItinerary restores a previously extracted itinerary without
// switching tabs.
func WithItinerary(it *itinerary.Itinerary) Option {
	return func(c *Controller) {
		c.itinerary = it
	}
}

// NewController creates a controller seeded with the welcome message
func NewController(opts ...Option) *Controller {
	c := &Controller{
		messages:  []models.ChatMessage{models.WelcomeMessage()},
		activeTab: TabChat,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetInput replaces the input buffer
func (c *Controller) SetInput(text string) {
	c.input = text
}

// Input returns the input buffer
func (c *Controller) Input() string {
	return c.input
}

// Suggestions returns the canned prompts
func (c *Controller) Suggestions() []string {
	return models.Suggestions
}

// ApplySuggestion copies suggestion i into the input buffer. It reports
// false when i is out of range.
func (c *Controller) ApplySuggestion(i int) bool {
	if i < 0 || i >= len(models.Suggestions) {
		return false
	}
	c.input = models.Suggestions[i]
	return true
}

// CanSubmit reports whether Submit would append a message
func (c *Controller) CanSubmit() bool {
	return !c.busy && strings.TrimSpace(c.input) != ""
}

// Submit appends the trimmed input as a user message, clears the input and
// marks the controller busy. It is a no-op while busy or when the input is
// blank.
func (c *Controller) Submit() (models.ChatMessage, bool) {
	if !c.CanSubmit() {
		return models.ChatMessage{}, false
	}

	msg := models.NewUserMessage(strings.TrimSpace(c.input))
	c.messages = append(c.messages, msg)
	c.input = ""
	c.busy = true
	c.lastErr = nil

	c.logger.Debug("message submitted",
		zap.String("id", msg.ID),
		zap.Int("length", len(msg.Content)),
		zap.Int("thread", len(c.messages)))

	return msg, true
}

// Complete appends the assistant reply, clears the busy flag and runs
// itinerary extraction on it once. Extraction failures are logged and
// otherwise ignored. It returns the appended message.
func (c *Controller) Complete(reply *models.Reply) models.ChatMessage {
	msg := reply.Message()
	c.messages = append(c.messages, msg)
	c.busy = false
	c.lastErr = nil

	it, err := itinerary.ExtractReply(reply)
	switch {
	case err != nil:
		c.logger.Warn("itinerary payload could not be parsed",
			zap.String("message_id", msg.ID),
			zap.Error(err))
	case it != nil:
		c.itinerary = it
		c.activeTab = TabItinerary
		c.logger.Info("itinerary extracted",
			zap.String("message_id", msg.ID),
			zap.String("title", it.Label()),
			zap.Int("days", len(it.Days())))
	}

	return msg
}

// Fail clears the busy flag and records err for display. Nothing is
// appended and the request is not retried.
func (c *Controller) Fail(err error) {
	c.busy = false
	c.lastErr = err
	c.logger.Debug("request failed", zap.Error(err))
}

// Err returns the last transport error, cleared by the next Submit or Complete
func (c *Controller) Err() error {
	return c.lastErr
}

// ClearErr forgets the last transport error
func (c *Controller) ClearErr() {
	c.lastErr = nil
}

// TabEnabled reports whether tab can be selected
func (c *Controller) TabEnabled(tab Tab) bool {
	switch tab {
	case TabChat:
		return true
	case TabItinerary:
		return c.itinerary != nil
	default:
		return false
	}
}

// SelectTab switches the active view
func (c *Controller) SelectTab(tab Tab) error {
	if tab != TabChat && tab != TabItinerary {
		return ErrUnknownTab
	}
	if !c.TabEnabled(tab) {
		return ErrItineraryUnavailable
	}
	c.activeTab = tab
	return nil
}

// ToggleTab switches between chat and itinerary when possible
func (c *Controller) ToggleTab() error {
	if c.activeTab == TabItinerary {
		return c.SelectTab(TabChat)
	}
	return c.SelectTab(TabItinerary)
}

// ActiveTab returns the active view
func (c *Controller) ActiveTab() Tab {
	return c.activeTab
}

// Messages returns a copy of the thread
func (c *Controller) Messages() []models.ChatMessage {
	out := make([]models.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Busy reports whether a reply is pending
func (c *Controller) Busy() bool {
	return c.busy
}

// Itinerary returns the extracted itinerary, or nil
func (c *Controller) Itinerary() *itinerary.Itinerary {
	return c.itinerary
}
