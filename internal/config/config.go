// Package config handles configuration, credentials and personas for tripchat.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/diogo/tripchat/internal/models"
)

// HomeEnv overrides the configuration directory
const HomeEnv = "TRIPCHAT_HOME"

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // "saffron", a glamour style name, or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// Config represents the user configuration
type Config struct {
	// Provider selects the chat endpoint family: "openai" or "gemini".
	Provider     string `json:"provider"`
	DefaultModel string `json:"default_model"`
	// BaseURL points OpenAI-compatible providers at a different host
	// (Azure, OpenRouter, a local llama.cpp server...).
	BaseURL string `json:"base_url,omitempty"`
	// APIKey is read only when no environment variable provides one.
	APIKey         string  `json:"api_key,omitempty"`
	Temperature    float64 `json:"temperature"`
	TimeoutSeconds int     `json:"timeout_seconds"`
	// StructuredItinerary asks OpenAI-compatible endpoints for the plan as a
	// function call rather than text markers.
	StructuredItinerary bool `json:"structured_itinerary"`
	// Verbose enables debug level logging and extra one-shot output.
	Verbose         bool           `json:"verbose"`
	LogEnabled      bool           `json:"log_enabled"`
	LogFile         string         `json:"log_file,omitempty"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	HistoryEnabled  bool           `json:"history_enabled"`
	TUITheme        string         `json:"tui_theme,omitempty"`
	ExportDir       string         `json:"export_dir,omitempty"`
	Markdown        MarkdownConfig `json:"markdown,omitempty"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "saffron",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Provider:        string(models.ProviderOpenAI),
		DefaultModel:    models.DefaultOpenAIModelName,
		Temperature:     0.7,
		TimeoutSeconds:  120,
		Verbose:         false,
		LogEnabled:      true,
		CopyToClipboard: false,
		HistoryEnabled:  true,
		TUITheme:        "saffron",
		Markdown:        DefaultMarkdownConfig(),
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".tripchat"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory may hold an API key
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the log file from config or the default location
func GetLogPath(cfg Config) (string, error) {
	if cfg.LogFile != "" {
		return cfg.LogFile, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "tripchat.log"), nil
}

// GetExportDir returns the export directory from config, creating it if necessary
func GetExportDir(cfg Config) (string, error) {
	dir := cfg.ExportDir
	if dir == "" {
		configDir, err := GetConfigDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(configDir, "exports")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	return dir, nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ProviderOf returns the configured provider, defaulting to openai
func (c Config) ProviderOf() models.Provider {
	if p, ok := models.ParseProvider(c.Provider); ok {
		return p
	}
	return models.ProviderOpenAI
}

// ModelName returns the configured model or the provider default
func (c Config) ModelName() string {
	if c.DefaultModel != "" {
		return c.DefaultModel
	}
	return models.DefaultModelFor(c.ProviderOf())
}

// SettableKeys lists the keys accepted by Set
func SettableKeys() []string {
	return []string{
		"provider", "default_model", "base_url", "api_key", "temperature",
		"timeout_seconds", "structured_itinerary", "verbose", "log_enabled", "log_file",
		"copy_to_clipboard", "history_enabled", "tui_theme", "export_dir",
		"markdown.style",
	}
}

// Set updates a single configuration value from its string form
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)

	parseBool := func() (bool, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("%s expects true or false, got %q", key, value)
		}
		return b, nil
	}

	switch key {
	case "provider":
		p, ok := models.ParseProvider(value)
		if !ok {
			return fmt.Errorf("unknown provider %q (want openai or gemini)", value)
		}
		c.Provider = string(p)
	case "default_model":
		c.DefaultModel = value
	case "base_url":
		c.BaseURL = strings.TrimRight(value, "/")
	case "api_key":
		c.APIKey = value
	case "temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 2 {
			return fmt.Errorf("temperature must be a number between 0 and 2, got %q", value)
		}
		c.Temperature = f
	case "timeout_seconds":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("timeout_seconds must be a positive integer, got %q", value)
		}
		c.TimeoutSeconds = n
	case "structured_itinerary":
		b, err := parseBool()
		if err != nil {
			return err
		}
		c.StructuredItinerary = b
	case "verbose":
		b, err := parseBool()
		if err != nil {
			return err
		}
		c.Verbose = b
	case "log_enabled":
		b, err := parseBool()
		if err != nil {
			return err
		}
		c.LogEnabled = b
	case "log_file":
		c.LogFile = value
	case "copy_to_clipboard":
		b, err := parseBool()
		if err != nil {
			return err
		}
		c.CopyToClipboard = b
	case "history_enabled":
		b, err := parseBool()
		if err != nil {
			return err
		}
		c.HistoryEnabled = b
	case "tui_theme":
		c.TUITheme = value
	case "export_dir":
		c.ExportDir = value
	case "markdown.style":
		c.Markdown.Style = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// AvailableModels returns a list of known model names
func AvailableModels() []string {
	var names []string
	for _, m := range models.AllModels() {
		names = append(names, m.Name)
	}
	return names
}
