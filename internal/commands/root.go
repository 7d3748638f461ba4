// Package commands provides CLI commands for tripchat.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/tripchat/internal/api"
	"github.com/diogo/tripchat/internal/config"
	"github.com/diogo/tripchat/internal/logging"
)

var (
	// Global flags
	modelFlag   string
	personaFlag string
	apiKeyFlag  string
	outputFlag  string
	fileFlag    string

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// defaultDeps backs the package level commands
var defaultDeps = NewDependencies()

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tripchat [prompt]",
	Short: "Terminal travel planner for India",
	Long: `tripchat is a terminal travel assistant. Chat with a hosted language model
about destinations, food and festivals; when the assistant drafts an
itinerary it shows up in its own tab and can be exported.

Examples:
  tripchat chat                                  Start interactive chat
  tripchat chat --resume @last                   Continue the last conversation
  tripchat "Create a 2-day itinerary for Jaipur" Send a single query
  tripchat -f request.md                         Read prompt from file
  cat request.md | tripchat                      Read prompt from stdin
  tripchat itinerary export @trip --format ics   Export the latest plan`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Check for version flag
		if v, _ := cmd.Flags().GetBool("version"); v {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "tripchat %s (built %s)\n", Version, BuildTime)
			return nil
		}

		// Check for file input
		if fileFlag != "" {
			data, err := os.ReadFile(fileFlag)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			return runQuery(cmd, defaultDeps, string(data), !isStdoutTTY())
		}

		// Check for stdin
		stat, _ := os.Stdin.Stat()
		if stat != nil && (stat.Mode()&os.ModeCharDevice) == 0 {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			return runQuery(cmd, defaultDeps, string(data), !isStdoutTTY())
		}

		// Check for positional argument
		if len(args) > 0 {
			return runQuery(cmd, defaultDeps, args[0], !isStdoutTTY())
		}

		// No input - show help
		return cmd.Help()
	},
}

// Execute runs the root command. Interrupts cancel the in-flight request.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "Model to use (e.g., gpt-4o-mini, gemini-2.5-flash)")
	rootCmd.PersistentFlags().StringVarP(&personaFlag, "persona", "p", "", "Persona (system prompt) to use")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "API key for the chat endpoint (overrides environment and config)")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save response to file")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read prompt from file")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	// Add subcommands
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(itineraryCmd)
	rootCmd.AddCommand(personaCmd)
}

// loadConfig reads the config file and applies the global flags. A broken
// config file falls back to defaults.
func loadConfig() config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using defaults\n", err)
	}
	if modelFlag != "" {
		cfg.DefaultModel = modelFlag
	}
	return cfg
}

// newLogger builds the file logger, degrading to a no-op logger
func newLogger(cfg config.Config) *zap.Logger {
	logger, err := logging.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		return zap.NewNop()
	}
	return logger
}

// resolvePersona returns the --persona persona or the configured default.
// The "default" persona carries no system prompt and maps to nil.
func resolvePersona() (*config.Persona, error) {
	persona, err := config.ResolvePersona(personaFlag)
	if err != nil {
		if personaFlag != "" {
			return nil, fmt.Errorf("failed to load persona '%s': %w", personaFlag, err)
		}
		return nil, nil
	}
	if persona.Prompt() == "" && persona.Model == "" {
		return nil, nil
	}
	return persona, nil
}

// newClient resolves the API key and creates the client for cfg
func newClient(ctx context.Context, deps *Dependencies, cfg config.Config, logger *zap.Logger) (api.Client, error) {
	apiKey, err := config.ResolveAPIKey(cfg, apiKeyFlag)
	if err != nil {
		return nil, fmt.Errorf("%w: set %s or %s, or run 'tripchat config set api_key <key>'",
			err, config.APIKeyEnv, config.ProviderKeyEnv(cfg.ProviderOf()))
	}

	client, err := deps.NewClient(ctx, cfg, apiKey, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// commandContext returns the command context, which is nil when RunE is
// called directly
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
