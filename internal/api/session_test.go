package api

import (
	"context"
	"strings"
	"testing"

	"github.com/diogo/tripchat/internal/config"
	"github.com/diogo/tripchat/internal/models"
)

func TestChatSession_BuildRequest(t *testing.T) {
	persona := &config.Persona{Name: "guide", SystemPrompt: "Be helpful.", Temperature: 0.3}
	session := NewChatSession(&MockClient{}, persona)

	history := []models.ChatMessage{
		models.WelcomeMessage(),
		models.NewUserMessage("Plan Jaipur"),
	}
	req := session.BuildRequest(history)

	if len(req.Messages) != 1 {
		t.Fatalf("expected welcome message to be dropped, got %d messages", len(req.Messages))
	}
	if req.Messages[0].Content != "Plan Jaipur" {
		t.Errorf("Messages[0] = %q", req.Messages[0].Content)
	}
	if !strings.HasPrefix(req.SystemPrompt, "Be helpful.") {
		t.Errorf("SystemPrompt = %q", req.SystemPrompt)
	}
	if !strings.Contains(req.SystemPrompt, "END_ITINERARY_DATA") {
		t.Error("planning personas should carry the itinerary instructions")
	}
	if req.Temperature != 0.3 {
		t.Errorf("Temperature = %v", req.Temperature)
	}
	if req.Model != "" {
		t.Errorf("Model = %q, want client default", req.Model)
	}
}

func TestChatSession_PersonaWithoutItineraries(t *testing.T) {
	persona := &config.Persona{Name: "chat", SystemPrompt: "Be brief.", Region: "Kerala", NoItinerary: true}
	req := NewChatSession(&MockClient{}, persona).BuildRequest([]models.ChatMessage{models.NewUserMessage("hi")})

	want := "Be brief.\n\nFocus your suggestions on Kerala unless the traveller asks about somewhere else."
	if req.SystemPrompt != want {
		t.Errorf("SystemPrompt = %q, want %q", req.SystemPrompt, want)
	}
}

func TestChatSession_NilPersona(t *testing.T) {
	session := NewChatSession(&MockClient{}, nil)
	req := session.BuildRequest([]models.ChatMessage{models.NewUserMessage("hi")})
	if req.SystemPrompt != "" {
		t.Errorf("SystemPrompt = %q", req.SystemPrompt)
	}
}

func TestChatSession_Model(t *testing.T) {
	client := &MockClient{ModelVal: "base"}
	session := NewChatSession(client, &config.Persona{Name: "p", Model: "persona-model"})

	if got := session.GetModel(); got != "persona-model" {
		t.Errorf("GetModel() = %s", got)
	}

	session.SetModel("")
	if got := session.GetModel(); got != "base" {
		t.Errorf("GetModel() = %s, want client default", got)
	}

	session.SetPersona(&config.Persona{Name: "q", Model: "other"})
	if got := session.GetModel(); got != "other" {
		t.Errorf("GetModel() = %s", got)
	}
	if session.Persona().Name != "q" {
		t.Errorf("Persona() = %s", session.Persona().Name)
	}
}

func TestChatSession_SendMessage(t *testing.T) {
	client := &MockClient{Deltas: []string{"Namaste", "!"}}
	session := NewChatSession(client, nil)

	reply, err := session.SendMessage(context.Background(), []models.ChatMessage{models.NewUserMessage("hi")})
	if err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}
	if reply.Text != "Namaste!" {
		t.Errorf("Text = %q", reply.Text)
	}
	if client.LastRequest() == nil || len(client.LastRequest().Messages) != 1 {
		t.Error("request was not recorded")
	}
}
