package models

import "testing"

func TestIsImageContent(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"/images/jaipur.jpg", true},
		{"  https://cdn.example.com/images/taj.png\n", true},
		{"see /images/jaipur.jpg for a photo", false},
		{"/img/jaipur.jpg", false},
		{"", false},
		{"Plain text reply", false},
	}

	for _, tt := range tests {
		if got := IsImageContent(tt.content); got != tt.want {
			t.Errorf("IsImageContent(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}

func TestNewMessagesHaveUniqueIDs(t *testing.T) {
	a := NewUserMessage("hi")
	b := NewUserMessage("hi")

	if a.ID == "" || b.ID == "" {
		t.Fatal("expected non-empty IDs")
	}
	if a.ID == b.ID {
		t.Errorf("expected unique IDs, both were %s", a.ID)
	}
	if a.Role != RoleUser {
		t.Errorf("Role = %s, want user", a.Role)
	}
}

func TestWelcomeMessage(t *testing.T) {
	w := WelcomeMessage()
	if !w.IsWelcome() {
		t.Error("welcome message should report IsWelcome")
	}
	if w.Role != RoleAssistant {
		t.Errorf("Role = %s, want assistant", w.Role)
	}
	if NewAssistantMessage("x").IsWelcome() {
		t.Error("regular assistant message should not be the welcome message")
	}
}

func TestModelFromName(t *testing.T) {
	if m := ModelFromName("gemini-2.5-pro", ProviderOpenAI); m.Provider != ProviderGemini {
		t.Errorf("known gemini model resolved to provider %s", m.Provider)
	}

	m := ModelFromName("llama3.1:8b", ProviderOpenAI)
	if m.Name != "llama3.1:8b" || m.Provider != ProviderOpenAI {
		t.Errorf("unexpected passthrough model %+v", m)
	}

	if m := ModelFromName("custom", ""); m.Provider != ProviderOpenAI {
		t.Errorf("empty fallback should default to openai, got %s", m.Provider)
	}
}

func TestParseProvider(t *testing.T) {
	if _, ok := ParseProvider("gemini"); !ok {
		t.Error("gemini should be a valid provider")
	}
	if _, ok := ParseProvider("bard"); ok {
		t.Error("bard should not be a valid provider")
	}
}

func TestReplyMessage(t *testing.T) {
	var nilReply *Reply
	if nilReply.HasStructured() {
		t.Error("nil reply should not have structured payload")
	}

	r := &Reply{Text: "Namaste"}
	msg := r.Message()
	if msg.Role != RoleAssistant || msg.Content != "Namaste" {
		t.Errorf("unexpected message %+v", msg)
	}
}
