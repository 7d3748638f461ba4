package commands

import (
	"context"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"github.com/diogo/tripchat/internal/api"
	"github.com/diogo/tripchat/internal/config"
	"github.com/diogo/tripchat/internal/tui"
)

// ClientFactory builds the chat client for a resolved configuration
type ClientFactory func(ctx context.Context, cfg config.Config, apiKey string, logger *zap.Logger) (api.Client, error)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(session *api.ChatSession, opts ...tui.Option) error
	RunHistorySelector(store tui.ConversationLister, modelName string) (tui.HistorySelectorResult, error)
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewClient creates the chat endpoint client.
	NewClient ClientFactory

	// TUI is the terminal user interface.
	TUI TUIInterface

	// Clipboard copies one-shot replies when copy_to_clipboard is set.
	Clipboard func(string) error
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(session *api.ChatSession, opts ...tui.Option) error {
	return tui.RunChat(session, opts...)
}

func (d *DefaultTUI) RunHistorySelector(store tui.ConversationLister, modelName string) (tui.HistorySelectorResult, error) {
	return tui.RunHistorySelector(store, modelName)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewClient: api.NewClientFromConfig,
		TUI:       &DefaultTUI{},
		Clipboard: clipboard.WriteAll,
	}
}

// withDefaults fills the fields a test left empty
func (d *Dependencies) withDefaults() *Dependencies {
	if d == nil {
		return NewDependencies()
	}
	out := *d
	if out.NewClient == nil {
		out.NewClient = api.NewClientFromConfig
	}
	if out.TUI == nil {
		out.TUI = &DefaultTUI{}
	}
	if out.Clipboard == nil {
		out.Clipboard = clipboard.WriteAll
	}
	return &out
}
