package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/tripchat/internal/api"
	"github.com/diogo/tripchat/internal/config"
	"github.com/diogo/tripchat/internal/history"
	"github.com/diogo/tripchat/internal/models"
	"github.com/diogo/tripchat/internal/tui"
)

const jaipurReply = "Here is a relaxed plan for Jaipur.\n\nITINERARY_DATA:\n" +
	`{"title":"Jaipur in 2 days","destination":"Jaipur","days":[` +
	`{"day":1,"title":"forts","activities":[{"time":"09:00","name":"Amber Fort"}]},` +
	`{"day":2,"title":"bazaars","activities":[{"time":"17:00","name":"Johari Bazaar"}]}]}` +
	"\nEND_ITINERARY_DATA"

const jaipurPlan = `{"title":"Jaipur in 2 days","destination":"Jaipur","days":[` +
	`{"day":1,"title":"forts","activities":[{"time":"09:00","name":"Amber Fort"}]},` +
	`{"day":2,"title":"bazaars","activities":[{"time":"17:00","name":"Johari Bazaar"}]}]}`

// setupTestHome points the config directory at a temp dir, clears the
// API key variables and resets every package flag.
func setupTestHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.HomeEnv, dir)
	t.Setenv(config.APIKeyEnv, "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GLAMOUR_STYLE", "")
	resetFlags()
	t.Cleanup(resetFlags)
	return dir
}

func resetFlags() {
	modelFlag, personaFlag, apiKeyFlag, outputFlag, fileFlag = "", "", "", "", ""
	resumeFlag, pickFlag = "", false
	historyOutputFlag, historyFormatFlag = "", ""
	historyRawFlag, historyNoPlanFlag, historyContentFlag = false, false, false
	historyFavoritesFlag, historyForceFlag = false, false
	itineraryFormatFlag, itineraryOutputFlag, itineraryStartFlag = "", "", ""
}

// newTestCmd returns a command whose output is captured
func newTestCmd() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{Use: "test"}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(&bytes.Buffer{})
	return cmd, &stdout, &stderr
}

type fakeTUI struct {
	session *api.ChatSession
	opts    []tui.Option
	chatErr error

	selection      tui.HistorySelectorResult
	selectorErr    error
	selectorCalled bool
}

func (f *fakeTUI) RunChat(session *api.ChatSession, opts ...tui.Option) error {
	f.session = session
	f.opts = opts
	return f.chatErr
}

func (f *fakeTUI) RunHistorySelector(store tui.ConversationLister, modelName string) (tui.HistorySelectorResult, error) {
	f.selectorCalled = true
	return f.selection, f.selectorErr
}

// model builds the chat model the way the real TUI would
func (f *fakeTUI) model() tui.Model {
	return tui.NewChatModel(f.session, f.opts...)
}

type testDeps struct {
	*Dependencies
	tui       *fakeTUI
	apiKey    string
	clipboard []string
}

func newTestDeps(client api.Client) *testDeps {
	td := &testDeps{tui: &fakeTUI{}}
	td.Dependencies = &Dependencies{
		NewClient: func(ctx context.Context, cfg config.Config, apiKey string, logger *zap.Logger) (api.Client, error) {
			td.apiKey = apiKey
			return client, nil
		},
		TUI: td.tui,
		Clipboard: func(s string) error {
			td.clipboard = append(td.clipboard, s)
			return nil
		},
	}
	return td
}

// seedConversation stores a conversation with one exchange and, when plan
// is not empty, an itinerary
func seedConversation(t *testing.T, title, plan string) *history.Conversation {
	t.Helper()
	store, err := history.DefaultStore()
	if err != nil {
		t.Fatalf("DefaultStore: %v", err)
	}
	conv, err := store.CreateConversation("gpt-4o-mini", config.DefaultPersonaName)
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if err := store.AddMessage(conv.ID, models.NewUserMessage("Plan "+title)); err != nil {
		t.Fatalf("AddMessage: %v", err)
	}
	reply := "Sure, here you go."
	if plan != "" {
		reply = jaipurReply
	}
	if err := store.AddMessage(conv.ID, models.NewAssistantMessage(reply)); err != nil {
		t.Fatalf("AddMessage: %v", err)
	}
	if plan != "" {
		if err := store.SetItinerary(conv.ID, []byte(plan)); err != nil {
			t.Fatalf("SetItinerary: %v", err)
		}
	}
	if err := store.UpdateTitle(conv.ID, title); err != nil {
		t.Fatalf("UpdateTitle: %v", err)
	}
	out, err := store.GetConversation(conv.ID)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	return out
}
