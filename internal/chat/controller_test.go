package chat

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/diogo/tripchat/internal/models"
)

func submit(t *testing.T, c *Controller, text string) models.ChatMessage {
	t.Helper()
	c.SetInput(text)
	msg, ok := c.Submit()
	require.True(t, ok)
	return msg
}

func TestNewController_SeedsWelcome(t *testing.T) {
	c := NewController()

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, models.WelcomeMessageID, msgs[0].ID)
	assert.Equal(t, models.RoleAssistant, msgs[0].Role)
	assert.Equal(t, TabChat, c.ActiveTab())
	assert.False(t, c.Busy())
	assert.Nil(t, c.Itinerary())
}

func TestSubmit_BlankInputIsNoop(t *testing.T) {
	c := NewController()

	for _, in := range []string{"", "   ", "\n\t "} {
		c.SetInput(in)
		_, ok := c.Submit()
		assert.False(t, ok, "%q", in)
	}
	assert.Len(t, c.Messages(), 1)
	assert.False(t, c.Busy())
}

func TestSubmit_AppendsTrimmedAndMarksBusy(t *testing.T) {
	c := NewController()

	msg := submit(t, c, "  Plan Jaipur  ")
	assert.Equal(t, "Plan Jaipur", msg.Content)
	assert.Equal(t, models.RoleUser, msg.Role)
	assert.Empty(t, c.Input())
	assert.True(t, c.Busy())

	c.SetInput("again")
	_, ok := c.Submit()
	assert.False(t, ok, "submit while busy must be a no-op")
	assert.Len(t, c.Messages(), 2)
}

func TestComplete_WithoutMarkers(t *testing.T) {
	c := NewController()
	submit(t, c, "hi")

	c.Complete(&models.Reply{Text: "Namaste! Where would you like to go?"})

	assert.False(t, c.Busy())
	assert.Len(t, c.Messages(), 3)
	assert.Equal(t, TabChat, c.ActiveTab())
	assert.Nil(t, c.Itinerary())
	assert.False(t, c.TabEnabled(TabItinerary))
}

func TestComplete_WithItinerary(t *testing.T) {
	c := NewController()
	submit(t, c, "plan")

	msg := c.Complete(&models.Reply{Text: `ITINERARY_DATA:{"a":1}END_ITINERARY_DATA`})

	require.NotNil(t, c.Itinerary())
	assert.JSONEq(t, `{"a":1}`, string(c.Itinerary().Raw()))
	assert.Equal(t, TabItinerary, c.ActiveTab())
	assert.True(t, c.TabEnabled(TabItinerary))
	assert.Equal(t, `ITINERARY_DATA:{"a":1}END_ITINERARY_DATA`, msg.Content, "stored content is not modified")
}

func TestComplete_InvalidPayloadIsLoggedAndSwallowed(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c := NewController(WithLogger(zap.New(core)))
	submit(t, c, "plan")

	assert.NotPanics(t, func() {
		c.Complete(&models.Reply{Text: `ITINERARY_DATA:{"a":}END_ITINERARY_DATA`})
	})

	assert.Nil(t, c.Itinerary())
	assert.Equal(t, TabChat, c.ActiveTab())
	assert.NoError(t, c.Err())
	assert.Len(t, c.Messages(), 3)
	assert.Equal(t, 1, logs.FilterMessage("itinerary payload could not be parsed").Len())
}

func TestComplete_InvalidPayloadKeepsEarlierItinerary(t *testing.T) {
	c := NewController()
	submit(t, c, "plan")
	c.Complete(&models.Reply{Text: `ITINERARY_DATA:{"v":1}END_ITINERARY_DATA`})
	require.NoError(t, c.SelectTab(TabChat))

	submit(t, c, "again")
	c.Complete(&models.Reply{Text: `ITINERARY_DATA:oops END_ITINERARY_DATA`})

	assert.JSONEq(t, `{"v":1}`, string(c.Itinerary().Raw()))
	assert.Equal(t, TabChat, c.ActiveTab())
}

func TestComplete_NullPayloadLeavesTabDisabled(t *testing.T) {
	c := NewController()
	submit(t, c, "plan")

	c.Complete(&models.Reply{Text: "here ITINERARY_DATA: null END_ITINERARY_DATA"})

	assert.Nil(t, c.Itinerary())
	assert.Equal(t, TabChat, c.ActiveTab())
	assert.False(t, c.TabEnabled(TabItinerary))
	assert.ErrorIs(t, c.SelectTab(TabItinerary), ErrItineraryUnavailable)
}

func TestComplete_BrokenStructuredFallsBackToMarkers(t *testing.T) {
	c := NewController()
	submit(t, c, "plan")

	c.Complete(&models.Reply{
		Text:       `ITINERARY_DATA:{"a":1}END_ITINERARY_DATA`,
		Structured: json.RawMessage(`{"a":`),
	})

	require.NotNil(t, c.Itinerary())
	assert.JSONEq(t, `{"a":1}`, string(c.Itinerary().Raw()))
	assert.Equal(t, TabItinerary, c.ActiveTab())
}

func TestComplete_StructuredReply(t *testing.T) {
	c := NewController()
	submit(t, c, "plan")

	c.Complete(&models.Reply{Text: "Here you go", Structured: json.RawMessage(`{"title":"Goa"}`)})

	require.NotNil(t, c.Itinerary())
	assert.Equal(t, "Goa", c.Itinerary().Title())
	assert.Equal(t, TabItinerary, c.ActiveTab())
}

func TestFail(t *testing.T) {
	c := NewController()
	submit(t, c, "hi")

	boom := errors.New("boom")
	c.Fail(boom)

	assert.False(t, c.Busy())
	assert.Len(t, c.Messages(), 2)
	assert.ErrorIs(t, c.Err(), boom)

	submit(t, c, "retry by hand")
	assert.NoError(t, c.Err())
}

func TestSelectTab(t *testing.T) {
	c := NewController()

	assert.ErrorIs(t, c.SelectTab(TabItinerary), ErrItineraryUnavailable)
	assert.Equal(t, TabChat, c.ActiveTab())
	assert.ErrorIs(t, c.SelectTab(Tab(7)), ErrUnknownTab)

	submit(t, c, "plan")
	c.Complete(&models.Reply{Text: `ITINERARY_DATA:[]END_ITINERARY_DATA`})

	require.NoError(t, c.SelectTab(TabChat))
	assert.Equal(t, TabChat, c.ActiveTab())
	require.NoError(t, c.ToggleTab())
	assert.Equal(t, TabItinerary, c.ActiveTab())
}

func TestApplySuggestion(t *testing.T) {
	c := NewController()

	require.True(t, c.ApplySuggestion(0))
	assert.Equal(t, models.Suggestions[0], c.Input())
	assert.False(t, c.ApplySuggestion(len(models.Suggestions)))
	assert.False(t, c.ApplySuggestion(-1))
}

func TestMessages_ReturnsCopy(t *testing.T) {
	c := NewController()
	msgs := c.Messages()
	msgs[0].Content = "changed"
	assert.Equal(t, models.WelcomeText, c.Messages()[0].Content)
}

func TestWithHistory(t *testing.T) {
	prior := []models.ChatMessage{
		models.WelcomeMessage(),
		models.NewUserMessage("hello"),
		models.NewAssistantMessage("hi"),
	}
	c := NewController(WithHistory(prior))

	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.True(t, msgs[0].IsWelcome())
	assert.Equal(t, "hello", msgs[1].Content)
}

func TestTabString(t *testing.T) {
	assert.Equal(t, "chat", TabChat.String())
	assert.Equal(t, "itinerary", TabItinerary.String())
}
