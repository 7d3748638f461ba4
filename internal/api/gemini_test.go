package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/tripchat/internal/errors"
	"github.com/diogo/tripchat/internal/models"
)

type geminiStub struct {
	mu       sync.Mutex
	path     string
	apiKey   string
	body     string
	status   int
	response string
}

func (s *geminiStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.path = r.URL.Path
	s.apiKey = r.Header.Get("x-goog-api-key")
	s.body = string(data)
	s.mu.Unlock()

	if s.status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.status)
		_, _ = io.WriteString(w, s.response)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	_, _ = io.WriteString(w, s.response)
}

func newGeminiTestClient(t *testing.T, stub *geminiStub) *GeminiClient {
	t.Helper()
	server := httptest.NewServer(stub)
	t.Cleanup(server.Close)

	client, err := NewGeminiClient(context.Background(),
		WithAPIKey("g-test"),
		WithBaseURL(server.URL),
		WithModel("gemini-2.5-flash"),
		WithTemperature(0.5),
	)
	if err != nil {
		t.Fatalf("NewGeminiClient() error: %v", err)
	}
	return client
}

func TestGeminiClient_Stream(t *testing.T) {
	stub := &geminiStub{response: "" +
		`data: {"candidates":[{"content":{"role":"model","parts":[{"text":"Namaste, "}]}}],"modelVersion":"gemini-2.5-flash-001"}` + "\n\n" +
		`data: {"candidates":[{"content":{"role":"model","parts":[{"text":"welcome to Jaipur."}]},"finishReason":"STOP"}],"modelVersion":"gemini-2.5-flash-001"}` + "\n\n",
	}
	client := newGeminiTestClient(t, stub)

	req := &ChatRequest{
		SystemPrompt: "You are a guide.",
		Messages: []models.ChatMessage{
			models.NewUserMessage("Hi"),
			models.NewAssistantMessage("Hello!"),
			models.NewUserMessage("Plan Jaipur"),
		},
	}

	var deltas []string
	reply, err := Collect(client.StreamChat(context.Background(), req), func(d string) {
		deltas = append(deltas, d)
	})
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}

	if reply.Text != "Namaste, welcome to Jaipur." {
		t.Errorf("Text = %q", reply.Text)
	}
	if len(deltas) != 2 {
		t.Errorf("expected 2 deltas, got %v", deltas)
	}
	if reply.FinishReason != "STOP" {
		t.Errorf("FinishReason = %q", reply.FinishReason)
	}
	if reply.Model != "gemini-2.5-flash-001" {
		t.Errorf("Model = %q", reply.Model)
	}

	stub.mu.Lock()
	defer stub.mu.Unlock()
	if !strings.Contains(stub.path, "gemini-2.5-flash:streamGenerateContent") {
		t.Errorf("path = %s", stub.path)
	}
	if stub.apiKey != "g-test" {
		t.Errorf("api key header = %q", stub.apiKey)
	}
	sent := gjson.Parse(stub.body)
	roles := []string{}
	for _, c := range sent.Get("contents").Array() {
		roles = append(roles, c.Get("role").String())
	}
	if strings.Join(roles, ",") != "user,model,user" {
		t.Errorf("roles = %v", roles)
	}
	if sent.Get("systemInstruction.parts.0.text").String() != "You are a guide." {
		t.Errorf("systemInstruction = %s", sent.Get("systemInstruction").Raw)
	}
}

func TestGeminiClient_AuthError(t *testing.T) {
	stub := &geminiStub{
		status:   401,
		response: `{"error":{"code":401,"message":"API key not valid","status":"UNAUTHENTICATED"}}`,
	}
	client := newGeminiTestClient(t, stub)

	_, err := Collect(client.StreamChat(context.Background(), userThread("hi")), nil)
	if !apierrors.IsAuthError(err) {
		t.Errorf("expected auth error, got %v", err)
	}
}

func TestGeminiClient_RateLimit(t *testing.T) {
	stub := &geminiStub{
		status:   429,
		response: `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`,
	}
	client := newGeminiTestClient(t, stub)

	_, err := Collect(client.StreamChat(context.Background(), userThread("hi")), nil)
	if !apierrors.IsRateLimitError(err) {
		t.Errorf("expected rate limit error, got %v", err)
	}
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	if _, err := NewGeminiClient(context.Background()); !errors.Is(err, apierrors.ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestToGeminiContents(t *testing.T) {
	contents := toGeminiContents([]models.ChatMessage{
		models.NewUserMessage("a"),
		models.NewAssistantMessage("b"),
	})
	if len(contents) != 2 {
		t.Fatalf("len = %d", len(contents))
	}
	if contents[0].Role != "user" || contents[1].Role != "model" {
		t.Errorf("roles = %s, %s", contents[0].Role, contents[1].Role)
	}
	if contents[1].Parts[0].Text != "b" {
		t.Errorf("text = %s", contents[1].Parts[0].Text)
	}
}
