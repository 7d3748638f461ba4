package models

import (
	"strings"

	"github.com/google/uuid"
)

// Role is the author of a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single entry of the conversation thread. Messages are
// never mutated after they are appended.
type ChatMessage struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a user message with a fresh ID
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{ID: uuid.NewString(), Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message with a fresh ID
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{ID: uuid.NewString(), Role: RoleAssistant, Content: content}
}

// WelcomeMessage returns the greeting that seeds every conversation
func WelcomeMessage() ChatMessage {
	return ChatMessage{ID: WelcomeMessageID, Role: RoleAssistant, Content: WelcomeText}
}

// IsWelcome reports whether the message is the seeded greeting
func (m ChatMessage) IsWelcome() bool {
	return m.ID == WelcomeMessageID
}

// IsImage reports whether the message content should be shown as an image
func (m ChatMessage) IsImage() bool {
	return IsImageContent(m.Content)
}

// IsImageContent reports whether content is a bare path pointing into an
// images directory, e.g. "/images/jaipur/hawa-mahal.jpg".
func IsImageContent(content string) bool {
	content = strings.TrimSpace(content)
	if content == "" || strings.ContainsAny(content, " \t\r\n") {
		return false
	}
	return strings.Contains(content, "/images/")
}
