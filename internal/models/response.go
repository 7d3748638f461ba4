package models

import "encoding/json"

// Reply is the completed answer of the chat endpoint for one request
type Reply struct {
	Text string
	// Structured carries a typed payload delivered alongside the text, when
	// the provider supports one. Empty for plain text replies.
	Structured   json.RawMessage
	Model        string
	FinishReason string
}

// HasStructured reports whether the reply carries a typed payload
func (r *Reply) HasStructured() bool {
	return r != nil && len(r.Structured) > 0
}

// Message converts the reply into an assistant chat message
func (r *Reply) Message() ChatMessage {
	if r == nil {
		return NewAssistantMessage("")
	}
	return NewAssistantMessage(r.Text)
}
