package api

import (
	"context"
	"sync"

	"github.com/diogo/tripchat/internal/config"
	"github.com/diogo/tripchat/internal/models"
)

// ChatSession binds a client to a persona and turns a conversation thread
// into requests
type ChatSession struct {
	client  Client
	mu      sync.RWMutex // Protects persona and model
	persona *config.Persona
	model   string
}

// NewChatSession creates a session. persona may be nil.
func NewChatSession(client Client, persona *config.Persona) *ChatSession {
	s := &ChatSession{client: client, persona: persona}
	if persona != nil && persona.Model != "" {
		s.model = persona.Model
	}
	return s
}

// Client returns the underlying client
func (s *ChatSession) Client() Client {
	return s.client
}

// SetPersona changes the system prompt used for later turns
func (s *ChatSession) SetPersona(p *config.Persona) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persona = p
	if p != nil && p.Model != "" {
		s.model = p.Model
	}
}

// Persona returns the active persona, or nil
func (s *ChatSession) Persona() *config.Persona {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persona
}

// GetModel returns the model used for requests
func (s *ChatSession) GetModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.model != "" {
		return s.model
	}
	return s.client.Model()
}

// SetModel overrides the client's default model
func (s *ChatSession) SetModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
}

// BuildRequest turns history into a request. The welcome message is local
// and is never sent.
func (s *ChatSession) BuildRequest(history []models.ChatMessage) *ChatRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req := &ChatRequest{Model: s.model}
	if s.persona != nil {
		req.SystemPrompt = s.persona.Prompt()
		req.Temperature = s.persona.Temperature
	}

	req.Messages = make([]models.ChatMessage, 0, len(history))
	for _, m := range history {
		if m.IsWelcome() {
			continue
		}
		req.Messages = append(req.Messages, m)
	}
	return req
}

// Stream sends history and returns the reply stream
func (s *ChatSession) Stream(ctx context.Context, history []models.ChatMessage) <-chan StreamEvent {
	return s.client.StreamChat(ctx, s.BuildRequest(history))
}

// SendMessage sends history and waits for the whole reply
func (s *ChatSession) SendMessage(ctx context.Context, history []models.ChatMessage) (*models.Reply, error) {
	return Collect(s.Stream(ctx, history), nil)
}
