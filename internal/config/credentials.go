package config

import (
	"os"
	"strings"

	apierrors "github.com/diogo/tripchat/internal/errors"
	"github.com/diogo/tripchat/internal/models"
)

// APIKeyEnv is checked before the provider specific variables
const APIKeyEnv = "TRIPCHAT_API_KEY"

// ProviderKeyEnv returns the conventional environment variable for a provider
func ProviderKeyEnv(p models.Provider) string {
	if p == models.ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}

// ResolveAPIKey picks the API key in priority order: explicit flag,
// TRIPCHAT_API_KEY, the provider's variable, then the config file.
func ResolveAPIKey(cfg Config, flagValue string) (string, error) {
	candidates := []string{
		flagValue,
		os.Getenv(APIKeyEnv),
		os.Getenv(ProviderKeyEnv(cfg.ProviderOf())),
		cfg.APIKey,
	}
	for _, c := range candidates {
		if key := strings.TrimSpace(c); key != "" {
			return key, nil
		}
	}
	return "", apierrors.ErrNoAPIKey
}

// MaskKey hides all but the last four characters of a key for display
func MaskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 8) + key[len(key)-4:]
}
