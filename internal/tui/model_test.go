package tui

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/tripchat/internal/api"
	"github.com/diogo/tripchat/internal/chat"
	"github.com/diogo/tripchat/internal/config"
	apierrors "github.com/diogo/tripchat/internal/errors"
	"github.com/diogo/tripchat/internal/history"
	"github.com/diogo/tripchat/internal/models"
)

const planReply = "Here is your Jaipur plan.\n\nITINERARY_DATA:\n" +
	`{"title":"Jaipur in 2 days","destination":"Jaipur","days":[{"day":1,"title":"forts","activities":["Amber Fort"]},{"day":2,"title":"bazaars","activities":["Johari Bazaar"]}]}` +
	"\nEND_ITINERARY_DATA"

type recordingStore struct {
	mu        sync.Mutex
	messages  []models.ChatMessage
	itinerary json.RawMessage
	addErr    error
	convID    string
}

func (s *recordingStore) AddMessage(id string, msg models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convID = id
	if s.addErr != nil {
		return s.addErr
	}
	s.messages = append(s.messages, msg)
	return nil
}

func (s *recordingStore) SetItinerary(id string, raw json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itinerary = raw
	return nil
}

func newTestModel(t *testing.T, client api.Client, opts ...Option) Model {
	t.Helper()
	m := NewChatModel(api.NewChatSession(client, nil), opts...)
	t.Cleanup(m.cancel)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model)
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

// drain feeds stream events back into the model until the stream ends
func drain(t *testing.T, m Model) Model {
	t.Helper()
	for i := 0; m.events != nil; i++ {
		if i > 100 {
			t.Fatal("stream did not finish")
		}
		m, _ = send(t, m, waitForEvent(m.events)())
	}
	return m
}

func TestNewChatModel_SeedsWelcome(t *testing.T) {
	m := newTestModel(t, api.NewMockClient("hi"))

	msgs := m.controller.Messages()
	if len(msgs) != 1 || !msgs[0].IsWelcome() {
		t.Fatalf("expected welcome message, got %+v", msgs)
	}
	if m.modelName != "mock-model" {
		t.Errorf("modelName = %s", m.modelName)
	}

	view := m.View()
	for _, want := range []string{"TripChat", "Cultural", "Planner", "Chat", "Itinerary", "alt+1"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_ViewBeforeResize(t *testing.T) {
	m := NewChatModel(api.NewChatSession(api.NewMockClient("x"), nil))
	defer m.cancel()

	if !strings.Contains(m.View(), "Initializing") {
		t.Error("expected initializing view before the first resize")
	}
}

func TestModel_SubmitAndStream(t *testing.T) {
	client := &api.MockClient{Deltas: []string{"Namaste! ", "Jaipur is lovely."}}
	m := newTestModel(t, client)

	m = typeText(t, m, "Tell me about Jaipur")
	if m.controller.Input() != "Tell me about Jaipur" {
		t.Fatalf("controller input = %q", m.controller.Input())
	}

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("submit should start the stream")
	}
	if !m.controller.Busy() {
		t.Error("controller should be busy while streaming")
	}
	if m.textarea.Value() != "" {
		t.Error("input should be cleared after submit")
	}
	if !strings.Contains(m.View(), "Thinking...") {
		t.Error("busy view should show the thinking indicator")
	}

	m, _ = send(t, m, waitForEvent(m.events)())
	if m.pending != "Namaste! " {
		t.Errorf("pending = %q", m.pending)
	}

	m = drain(t, m)
	if m.controller.Busy() {
		t.Error("controller should be idle after the reply")
	}

	msgs := m.controller.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[2].Content != "Namaste! Jaipur is lovely." {
		t.Errorf("assistant content = %q", msgs[2].Content)
	}

	req := client.LastRequest()
	if req == nil || len(req.Messages) != 1 || req.Messages[0].Content != "Tell me about Jaipur" {
		t.Errorf("request should carry only the user message, got %+v", req)
	}
	if m.controller.ActiveTab() != chat.TabChat {
		t.Error("plain replies should not switch tabs")
	}
}

func TestModel_BlankInputIgnored(t *testing.T) {
	client := api.NewMockClient("x")
	m := newTestModel(t, client)

	m = typeText(t, m, "   ")
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if cmd != nil {
		t.Error("blank input should not start a request")
	}
	if len(m.controller.Messages()) != 1 {
		t.Error("blank input should not append a message")
	}
	if client.LastRequest() != nil {
		t.Error("no request expected")
	}
}

func TestModel_ItineraryReplySwitchesTab(t *testing.T) {
	store := &recordingStore{}
	conv := &history.Conversation{ID: "conv-test"}
	m := newTestModel(t, &api.MockClient{Deltas: []string{planReply}}, WithConversation(conv, store))

	if m.controller.TabEnabled(chat.TabItinerary) {
		t.Fatal("itinerary tab should start disabled")
	}
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.controller.ActiveTab() != chat.TabChat || m.notice == "" {
		t.Error("tab without itinerary should stay on chat with a notice")
	}

	m = typeText(t, m, "Plan 2 days in Jaipur")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m)

	if m.controller.ActiveTab() != chat.TabItinerary {
		t.Fatal("itinerary reply should switch to the itinerary tab")
	}
	if m.controller.Itinerary().Title() != "Jaipur in 2 days" {
		t.Errorf("itinerary title = %q", m.controller.Itinerary().Title())
	}

	view := m.View()
	if !strings.Contains(view, "Amber") || !strings.Contains(view, "Johari") {
		t.Error("itinerary tab should render the plan")
	}

	// Stored content keeps the payload; the bubble hides it
	last := m.controller.Messages()[2]
	if !strings.Contains(last.Content, "ITINERARY_DATA:") {
		t.Error("stored message must keep the raw payload")
	}
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.controller.ActiveTab() != chat.TabChat {
		t.Fatal("tab should toggle back to chat")
	}
	if strings.Contains(m.viewport.View(), "END_ITINERARY_DATA") {
		t.Error("chat bubble should not show the raw payload")
	}

	if len(store.messages) != 2 || store.convID != "conv-test" {
		t.Errorf("stored messages = %+v", store.messages)
	}
	if !json.Valid(store.itinerary) {
		t.Errorf("stored itinerary = %s", store.itinerary)
	}
}

func TestModel_InvalidPayloadKeepsState(t *testing.T) {
	reply := "Oops ITINERARY_DATA:{not json}END_ITINERARY_DATA"
	m := newTestModel(t, api.NewMockClient(reply))

	m = typeText(t, m, "plan")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m)

	if m.controller.ActiveTab() != chat.TabChat {
		t.Error("invalid payload should not switch tabs")
	}
	if m.controller.Itinerary() != nil {
		t.Error("invalid payload should not set an itinerary")
	}
	if m.controller.Err() != nil {
		t.Error("parse failures should not surface as errors")
	}
	if len(m.controller.Messages()) != 3 {
		t.Error("reply should still be appended")
	}
}

func TestModel_TransportError(t *testing.T) {
	client := &api.MockClient{
		Deltas: []string{"partial "},
		Err:    apierrors.NewUsageLimitError("quota exceeded"),
	}
	m := newTestModel(t, client)

	m = typeText(t, m, "hello")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m)

	if m.controller.Busy() {
		t.Error("error should clear busy")
	}
	if len(m.controller.Messages()) != 2 {
		t.Errorf("partial reply should be dropped, got %d messages", len(m.controller.Messages()))
	}
	if !apierrors.IsRateLimitError(m.controller.Err()) {
		t.Errorf("Err() = %v", m.controller.Err())
	}

	view := m.View()
	if !strings.Contains(view, "quota exceeded") || !strings.Contains(view, "Hint:") {
		t.Error("view should show the error with a hint")
	}

	// Next submit clears the error
	client.Err = nil
	m = typeText(t, m, "again")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m)
	if m.controller.Err() != nil {
		t.Error("error should clear after a successful exchange")
	}
}

func TestModel_ApplySuggestion(t *testing.T) {
	m := newTestModel(t, api.NewMockClient("x"))

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}, Alt: true})
	if m.textarea.Value() != models.Suggestions[1] {
		t.Errorf("textarea = %q, want %q", m.textarea.Value(), models.Suggestions[1])
	}
	if m.controller.Input() != models.Suggestions[1] {
		t.Error("controller input should follow the suggestion")
	}
}

func TestModel_CopyItinerary(t *testing.T) {
	var copied string
	orig := copyToClipboard
	copyToClipboard = func(s string) error {
		copied = s
		return nil
	}
	defer func() { copyToClipboard = orig }()

	m := newTestModel(t, api.NewMockClient(planReply))

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if copied != "" || m.notice != "No itinerary to copy" {
		t.Errorf("copy without itinerary: notice=%q copied=%q", m.notice, copied)
	}

	m = typeText(t, m, "plan")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if !json.Valid([]byte(copied)) || !strings.Contains(copied, "Jaipur") {
		t.Errorf("copied = %q", copied)
	}
	if !strings.Contains(m.View(), "copied") {
		t.Error("status bar should confirm the copy")
	}
}

func TestModel_CopyFailure(t *testing.T) {
	orig := copyToClipboard
	copyToClipboard = func(string) error { return errors.New("no clipboard") }
	defer func() { copyToClipboard = orig }()

	m := newTestModel(t, api.NewMockClient(planReply))
	m = typeText(t, m, "plan")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if !strings.Contains(m.notice, "no clipboard") {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t, api.NewMockClient("x"))

	_, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc should quit when idle")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("esc should return tea.Quit")
	}
	if m.ctx.Err() == nil {
		t.Error("quitting should cancel the context")
	}
}

func TestModel_EscWhileBusyKeepsRunning(t *testing.T) {
	client := &api.MockClient{Deltas: []string{"x"}, Block: make(chan struct{})}
	m := newTestModel(t, client)

	m = typeText(t, m, "hello")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd != nil {
		t.Error("esc should be ignored while a reply is pending")
	}
	if !m.controller.Busy() {
		t.Error("request should still be pending")
	}

	close(client.Block)
	m = drain(t, m)
	if m.controller.Busy() {
		t.Error("reply should complete")
	}
}

func TestModel_CtrlCCancelsStream(t *testing.T) {
	client := &api.MockClient{Block: make(chan struct{})}
	m := newTestModel(t, client)

	m = typeText(t, m, "hello")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}

	msg := waitForEvent(m.events)()
	errMsg, ok := msg.(streamErrMsg)
	if !ok || !errors.Is(errMsg.err, context.Canceled) {
		t.Errorf("expected cancellation, got %#v", msg)
	}
}

func TestModel_ExitCommand(t *testing.T) {
	m := newTestModel(t, api.NewMockClient("x"))

	m = typeText(t, m, "/quit")
	_, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("exit command should quit")
	}
	if len(m.controller.Messages()) != 1 {
		t.Error("exit command should not be sent")
	}
}

func TestModel_RestoresConversation(t *testing.T) {
	conv := &history.Conversation{
		ID: "conv-old",
		Messages: []history.Message{
			{ID: "u1", Role: models.RoleUser, Content: "Plan Goa"},
			{ID: "a1", Role: models.RoleAssistant, Content: "/images/goa/beach.jpg"},
		},
		Itinerary: json.RawMessage(`{"destination":"Goa","days":[{"activities":["Baga beach"]}]}`),
	}
	m := newTestModel(t, api.NewMockClient("x"), WithConversation(conv, &recordingStore{}))

	msgs := m.controller.Messages()
	if len(msgs) != 3 || !msgs[0].IsWelcome() || msgs[2].ID != "a1" {
		t.Fatalf("restored thread = %+v", msgs)
	}
	if !m.controller.TabEnabled(chat.TabItinerary) {
		t.Error("stored itinerary should enable the tab")
	}
	if m.controller.ActiveTab() != chat.TabChat {
		t.Error("restoring should not switch tabs")
	}
	if !strings.Contains(m.View(), "beach.jpg") {
		t.Error("image message should render as a card")
	}
}

func TestModel_PersonaInHeader(t *testing.T) {
	persona := &config.Persona{Name: "budget", SystemPrompt: "be frugal", Temperature: 0.5}
	m := NewChatModel(api.NewChatSession(api.NewMockClient("x"), persona))
	defer m.cancel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(Model)

	if !strings.Contains(m.View(), "budget") {
		t.Error("header should show the persona")
	}
}

func TestModel_HistoryErrorsAreLoggedOnly(t *testing.T) {
	store := &recordingStore{addErr: errors.New("read-only")}
	m := newTestModel(t, api.NewMockClient("ok"), WithConversation(&history.Conversation{ID: "c"}, store))

	m = typeText(t, m, "hello")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m)

	if m.controller.Err() != nil {
		t.Error("history failures should not reach the UI")
	}
	if len(m.controller.Messages()) != 3 {
		t.Error("conversation should continue")
	}
}

func TestIsExitCommand(t *testing.T) {
	for _, in := range []string{"exit", " QUIT ", "/exit", "/quit"} {
		if !isExitCommand(in) {
			t.Errorf("isExitCommand(%q) = false", in)
		}
	}
	if isExitCommand("exit plan") {
		t.Error("longer input is not an exit command")
	}
}
