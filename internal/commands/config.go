package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/tripchat/internal/config"
	"github.com/diogo/tripchat/internal/render"
)

// NewConfigCmd creates a new config command
func NewConfigCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: `Show or change tripchat settings stored in config.json.

Settable keys:
  ` + strings.Join(config.SettableKeys(), ", "),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting",
		Args:  cobra.ExactArgs(2),
		RunE:  runConfigSet,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE:  runConfigPath,
	})

	return cmd
}

var configCmd = NewConfigCmd(defaultDeps)

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	key, keyErr := config.ResolveAPIKey(cfg, apiKeyFlag)
	if keyErr != nil {
		key = ""
	}
	logPath, _ := config.GetLogPath(cfg)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"provider", string(cfg.ProviderOf())},
		{"default_model", cfg.ModelName()},
		{"base_url", orDash(cfg.BaseURL)},
		{"api_key", config.MaskKey(key)},
		{"temperature", fmt.Sprintf("%.1f", cfg.Temperature)},
		{"timeout_seconds", fmt.Sprintf("%d", cfg.TimeoutSeconds)},
		{"structured_itinerary", fmt.Sprintf("%t", cfg.StructuredItinerary)},
		{"verbose", fmt.Sprintf("%t", cfg.Verbose)},
		{"log_enabled", fmt.Sprintf("%t", cfg.LogEnabled)},
		{"log_file", orDash(logPath)},
		{"copy_to_clipboard", fmt.Sprintf("%t", cfg.CopyToClipboard)},
		{"history_enabled", fmt.Sprintf("%t", cfg.HistoryEnabled)},
		{"tui_theme", orDash(cfg.TUITheme)},
		{"export_dir", orDash(cfg.ExportDir)},
		{"markdown.style", render.NormalizeStyle(cfg.Markdown.Style)},
	}
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", r[0], r[1])
	}
	return w.Flush()
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	if key == "tui_theme" {
		if _, ok := render.GetTUIThemeByName(value); !ok {
			return fmt.Errorf("unknown theme %q (available: %s)", value, strings.Join(render.TUIThemeNames(), ", "))
		}
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := config.SaveConfig(cfg); err != nil {
		return err
	}

	shown := value
	if key == "api_key" {
		shown = config.MaskKey(value)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s = %s\n", key, shown)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
