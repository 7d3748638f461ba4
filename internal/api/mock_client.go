package api

import (
	"context"
	"strings"
	"sync"

	"github.com/diogo/tripchat/internal/models"
)

// MockClient is a scripted Client for testing. It streams Deltas, then
// ends with Err when set, otherwise with Reply (or a reply built from the
// deltas).
type MockClient struct {
	Deltas   []string
	Reply    *models.Reply
	Err      error
	ModelVal string

	// Block, when not nil, holds the stream open until it is closed or the
	// context ends.
	Block chan struct{}

	mu          sync.Mutex
	Requests    []*ChatRequest
	CloseCalled bool
}

// NewMockClient returns a mock that replies with text in one delta
func NewMockClient(text string) *MockClient {
	return &MockClient{Deltas: []string{text}}
}

// StreamChat records req and replays the script
func (m *MockClient) StreamChat(ctx context.Context, req *ChatRequest) <-chan StreamEvent {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	ch := make(chan StreamEvent, len(m.Deltas)+1)
	go func() {
		defer close(ch)
		out := emitter{ctx: ctx, ch: ch}

		for _, d := range m.Deltas {
			if !out.send(StreamEvent{Delta: d}) {
				return
			}
		}

		if m.Block != nil {
			select {
			case <-m.Block:
			case <-ctx.Done():
				ch <- StreamEvent{Err: ctx.Err()}
				return
			}
		}

		// The buffer always has room for the final event
		if m.Err != nil {
			ch <- StreamEvent{Err: m.Err}
			return
		}

		reply := m.Reply
		if reply == nil {
			reply = &models.Reply{Text: strings.Join(m.Deltas, ""), Model: m.Model(), FinishReason: "stop"}
		}
		ch <- StreamEvent{Reply: reply}
	}()
	return ch
}

// Model returns ModelVal or a fixed name
func (m *MockClient) Model() string {
	if m.ModelVal != "" {
		return m.ModelVal
	}
	return "mock-model"
}

// Close records the call
func (m *MockClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
}

// LastRequest returns the most recent request, or nil
func (m *MockClient) LastRequest() *ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return nil
	}
	return m.Requests[len(m.Requests)-1]
}
