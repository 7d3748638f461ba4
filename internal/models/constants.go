// Package models contains data types and constants for the travel chat client.
package models

// Provider identifies a hosted chat endpoint family
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// Endpoints
const (
	EndpointOpenAI         = "https://api.openai.com/v1"
	ChatCompletionsPath    = "/chat/completions"
	DefaultOpenAIModelName = "gpt-4o-mini"
	DefaultGeminiModelName = "gemini-2.5-flash"
)

// Model describes a chat model offered by a provider
type Model struct {
	Name     string
	Provider Provider
}

// Available models
var (
	ModelGPT4oMini     = Model{Name: "gpt-4o-mini", Provider: ProviderOpenAI}
	ModelGPT4o         = Model{Name: "gpt-4o", Provider: ProviderOpenAI}
	ModelGemini25Flash = Model{Name: "gemini-2.5-flash", Provider: ProviderGemini}
	ModelGemini25Pro   = Model{Name: "gemini-2.5-pro", Provider: ProviderGemini}

	// DefaultModel is the recommended default
	DefaultModel = ModelGPT4oMini
)

// AllModels returns a list of all known models
func AllModels() []Model {
	return []Model{ModelGPT4oMini, ModelGPT4o, ModelGemini25Flash, ModelGemini25Pro}
}

// ModelFromName returns a known Model by name. Unknown names are passed
// through with the given fallback provider so self-hosted OpenAI-compatible
// endpoints can serve arbitrary model ids.
func ModelFromName(name string, fallback Provider) Model {
	for _, m := range AllModels() {
		if m.Name == name {
			return m
		}
	}
	if fallback == "" {
		fallback = ProviderOpenAI
	}
	return Model{Name: name, Provider: fallback}
}

// ParseProvider validates a provider name
func ParseProvider(name string) (Provider, bool) {
	switch Provider(name) {
	case ProviderOpenAI, ProviderGemini:
		return Provider(name), true
	default:
		return "", false
	}
}

// DefaultModelFor returns the default model name for a provider
func DefaultModelFor(p Provider) string {
	if p == ProviderGemini {
		return DefaultGeminiModelName
	}
	return DefaultOpenAIModelName
}

// DefaultHeaders returns the default headers for chat completion requests
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type":  "application/json",
		"Accept":        "text/event-stream",
		"Cache-Control": "no-cache",
		"User-Agent":    "tripchat/0.1",
	}
}

// Welcome message shown before the first exchange
const (
	WelcomeMessageID = "welcome-message"
	WelcomeText      = "Welcome to your Cultural Itinerary Planner! I'm your AI travel assistant for India. " +
		"I can help you plan your trip, suggest attractions based on your interests, and answer " +
		"questions about Indian culture and destinations. How can I assist you today?"
)

// Suggestions are canned prompts the user can drop into the input
var Suggestions = []string{
	"Create a 2-day itinerary for Jaipur",
	"Best street food in Delhi?",
	"Cultural festivals in Kerala",
	"Hidden gems in Varanasi",
	"Family-friendly activities in Mumbai",
	"Spiritual experiences in Rishikesh",
}
