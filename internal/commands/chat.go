package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/tripchat/internal/api"
	"github.com/diogo/tripchat/internal/history"
	"github.com/diogo/tripchat/internal/render"
	"github.com/diogo/tripchat/internal/tui"
)

var (
	resumeFlag string
	pickFlag   bool
)

// errSelectionCancelled ends the chat command quietly
var errSelectionCancelled = errors.New("selection cancelled")

// NewChatCmd creates the chat command
func NewChatCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive travel chat.

Ask about destinations, food and festivals. When the assistant drafts an
itinerary the view switches to the Itinerary tab; press Tab to go back.
Type 'exit' or 'quit', press Esc when idle, or Ctrl+C to end the session.

` + history.ListAliases(),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runChat(cmd, deps)
			if errors.Is(err, errSelectionCancelled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&resumeFlag, "resume", "r", "", "Resume a conversation (@last, @trip, index, title or ID)")
	cmd.Flags().BoolVar(&pickFlag, "pick", false, "Choose a conversation to resume from a list")

	return cmd
}

var chatCmd = NewChatCmd(defaultDeps)

func runChat(cmd *cobra.Command, deps *Dependencies) error {
	deps = deps.withDefaults()
	ctx := commandContext(cmd)

	cfg := loadConfig()
	render.SetTUITheme(cfg.TUITheme)
	tui.UpdateTheme()

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	persona, err := resolvePersona()
	if err != nil {
		return err
	}

	client, err := newClient(ctx, deps, cfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	session := api.NewChatSession(client, persona)
	if modelFlag != "" {
		session.SetModel(modelFlag)
	}

	opts := []tui.Option{
		tui.WithContext(ctx),
		tui.WithLogger(logger),
		tui.WithRenderOptions(render.OptionsFromConfig(cfg)),
	}

	if !cfg.HistoryEnabled {
		if resumeFlag != "" || pickFlag {
			return fmt.Errorf("history is disabled: run 'tripchat config set history_enabled true'")
		}
		return deps.TUI.RunChat(session, opts...)
	}

	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	conv, err := chooseConversation(deps, store, session)
	if err != nil {
		return err
	}
	logger.Info("chat started",
		zap.String("conversation", conv.ID),
		zap.String("model", session.GetModel()),
		zap.Int("messages", len(conv.Messages)))

	opts = append(opts, tui.WithConversation(conv, store))
	return deps.TUI.RunChat(session, opts...)
}

// chooseConversation resolves --resume, runs the picker for --pick, and
// otherwise starts a new conversation
func chooseConversation(deps *Dependencies, store *history.Store, session *api.ChatSession) (*history.Conversation, error) {
	if resumeFlag != "" {
		conv, err := history.NewResolver(store).ResolveWithInfo(resumeFlag)
		if err != nil {
			return nil, fmt.Errorf("cannot resume '%s': %w", resumeFlag, err)
		}
		return conv, nil
	}

	if pickFlag {
		result, err := deps.TUI.RunHistorySelector(store, session.GetModel())
		if err != nil {
			return nil, fmt.Errorf("history selector failed: %w", err)
		}
		if !result.Confirmed {
			return nil, errSelectionCancelled
		}
		if result.Conversation != nil {
			return result.Conversation, nil
		}
	}

	return store.CreateConversation(session.GetModel(), personaName(session))
}

func personaName(session *api.ChatSession) string {
	if p := session.Persona(); p != nil {
		return p.Name
	}
	return ""
}
