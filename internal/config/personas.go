package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// DefaultPersonaName is used when personas.json does not name one
const DefaultPersonaName = "india-guide"

// plainPersonaName is the built-in persona that sends no system prompt
const plainPersonaName = "default"

// Persona is a travel guide voice: a base prompt, an optional region the
// guide specialises in, and whether it drafts itineraries.
type Persona struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	SystemPrompt string  `json:"system_prompt"`
	Region       string  `json:"region,omitempty"`
	NoItinerary  bool    `json:"no_itinerary,omitempty"`
	Model        string  `json:"model,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"` // overrides config when > 0
}

// Prompt assembles the system prompt sent to the model. Guides that plan
// trips get the itinerary marker instructions appended.
func (p Persona) Prompt() string {
	var parts []string
	if s := strings.TrimSpace(p.SystemPrompt); s != "" {
		parts = append(parts, s)
	}
	if r := strings.TrimSpace(p.Region); r != "" {
		parts = append(parts, fmt.Sprintf("Focus your suggestions on %s unless the traveller asks about somewhere else.", r))
	}
	if !p.NoItinerary {
		parts = append(parts, itineraryProtocol)
	}
	return strings.Join(parts, "\n\n")
}

// PlansItineraries reports whether the persona asks for itinerary payloads
func (p Persona) PlansItineraries() bool {
	return !p.NoItinerary
}

// PersonaConfig is the content of personas.json
type PersonaConfig struct {
	Personas       []Persona `json:"personas"`
	DefaultPersona string    `json:"default_persona,omitempty"`
}

// find returns the persona called name
func (c *PersonaConfig) find(name string) (Persona, bool) {
	return lo.Find(c.Personas, func(p Persona) bool { return p.Name == name })
}

// defaultName returns the configured default, falling back to the guide
func (c *PersonaConfig) defaultName() string {
	if c.DefaultPersona == "" {
		return DefaultPersonaName
	}
	return c.DefaultPersona
}

// itineraryProtocol teaches the model how to hand a structured plan back.
const itineraryProtocol = `When the traveller asks for an itinerary, answer conversationally and then append the plan
as a single JSON document between the literal markers ITINERARY_DATA: and END_ITINERARY_DATA, for example:

ITINERARY_DATA:
{"title": "2 Days in Jaipur", "destination": "Jaipur, Rajasthan", "duration": "2 days",
 "days": [{"day": 1, "title": "The Pink City", "activities": [
   {"time": "09:00", "name": "Amber Fort", "description": "Climb the ramparts before the heat", "location": "Amer"}]}],
 "tips": ["Carry cash for bazaars"]}
END_ITINERARY_DATA

Emit the markers only once per reply, use valid JSON (double quotes, no comments, no trailing commas)
and never wrap the block in code fences.`

// DefaultPersonas returns the built-in guides
func DefaultPersonas() []Persona {
	return []Persona{
		{
			Name:        plainPersonaName,
			Description: "No system prompt",
			NoItinerary: true,
		},
		{
			Name:        DefaultPersonaName,
			Description: "Cultural travel assistant for India",
			SystemPrompt: "You are a warm, knowledgeable cultural travel assistant for India. " +
				"Suggest attractions that match the traveller's interests, explain local customs and festivals, " +
				"and keep logistics realistic (travel times, opening hours, seasons).",
			Region: "India",
		},
		{
			Name:        "budget",
			Description: "Backpacker planner focused on low cost travel",
			SystemPrompt: "You plan trips for travellers on a tight budget. Prefer trains and buses, " +
				"hostels and dharamshalas, street food and free sights. Give rough prices in INR.",
			Temperature: 0.5,
		},
		{
			Name:         "concise",
			Description:  "Short answers, bullet points only",
			SystemPrompt: "Answer travel questions in at most five bullet points.",
			Temperature:  0.3,
		},
	}
}

// IsBuiltinPersona reports whether name is one of the shipped guides
func IsBuiltinPersona(name string) bool {
	return lo.ContainsBy(DefaultPersonas(), func(p Persona) bool { return p.Name == name })
}

// GetPersonasPath returns the path to personas.json
func GetPersonasPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "personas.json"), nil
}

// LoadPersonas reads personas.json on top of the built-in guides. A
// missing file yields the built-ins alone.
func LoadPersonas() (*PersonaConfig, error) {
	path, err := GetPersonasPath()
	if err != nil {
		return nil, err
	}

	cfg := PersonaConfig{DefaultPersona: DefaultPersonaName}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read personas: %w", err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse personas: %w", err)
		}
	}

	cfg.Personas = mergePersonas(DefaultPersonas(), cfg.Personas)
	return &cfg, nil
}

// SavePersonas writes personas.json
func SavePersonas(cfg *PersonaConfig) error {
	path, err := GetPersonasPath()
	if err != nil {
		return err
	}
	if _, err := EnsureConfigDir(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal personas: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// updatePersonas loads personas.json, applies fn and saves the result
func updatePersonas(fn func(*PersonaConfig) error) error {
	cfg, err := LoadPersonas()
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	return SavePersonas(cfg)
}

// GetPersona returns a persona by name
func GetPersona(name string) (*Persona, error) {
	cfg, err := LoadPersonas()
	if err != nil {
		return nil, err
	}
	p, ok := cfg.find(name)
	if !ok {
		return nil, fmt.Errorf("persona '%s' not found", name)
	}
	return &p, nil
}

// ListPersonaNames returns the names of all personas
func ListPersonaNames() ([]string, error) {
	cfg, err := LoadPersonas()
	if err != nil {
		return nil, err
	}
	return lo.Map(cfg.Personas, func(p Persona, _ int) string { return p.Name }), nil
}

// AddPersona stores a new custom guide
func AddPersona(persona Persona) error {
	if err := ValidatePersona(persona); err != nil {
		return err
	}
	return updatePersonas(func(cfg *PersonaConfig) error {
		if _, ok := cfg.find(persona.Name); ok {
			return fmt.Errorf("persona '%s' already exists", persona.Name)
		}
		cfg.Personas = append(cfg.Personas, persona)
		return nil
	})
}

// DeletePersona removes a custom guide. Built-ins come back on every load,
// so they cannot be deleted.
func DeletePersona(name string) error {
	if IsBuiltinPersona(name) {
		return fmt.Errorf("cannot delete built-in persona '%s'", name)
	}
	return updatePersonas(func(cfg *PersonaConfig) error {
		if _, ok := cfg.find(name); !ok {
			return fmt.Errorf("persona '%s' not found", name)
		}
		cfg.Personas = lo.Reject(cfg.Personas, func(p Persona, _ int) bool { return p.Name == name })
		if cfg.DefaultPersona == name {
			cfg.DefaultPersona = DefaultPersonaName
		}
		return nil
	})
}

// SetDefaultPersona makes name the guide used when --persona is not given
func SetDefaultPersona(name string) error {
	return updatePersonas(func(cfg *PersonaConfig) error {
		if _, ok := cfg.find(name); !ok {
			return fmt.Errorf("persona '%s' not found", name)
		}
		cfg.DefaultPersona = name
		return nil
	})
}

// GetDefaultPersona returns the configured default guide
func GetDefaultPersona() (*Persona, error) {
	cfg, err := LoadPersonas()
	if err != nil {
		return nil, err
	}
	return GetPersona(cfg.defaultName())
}

// ConfiguredDefaultPersona returns the name of the default guide
func ConfiguredDefaultPersona() (string, error) {
	cfg, err := LoadPersonas()
	if err != nil {
		return "", err
	}
	return cfg.defaultName(), nil
}

// ResolvePersona returns the named persona, or the default one when name is empty
func ResolvePersona(name string) (*Persona, error) {
	if name == "" {
		return GetDefaultPersona()
	}
	return GetPersona(name)
}

// mergePersonas overlays custom guides on the built-ins, replacing
// built-ins of the same name and appending the rest in order.
func mergePersonas(defaults, custom []Persona) []Persona {
	byName := lo.SliceToMap(custom, func(p Persona) (string, Persona) { return p.Name, p })

	result := lo.Map(defaults, func(d Persona, _ int) Persona {
		if p, ok := byName[d.Name]; ok {
			return p
		}
		return d
	})
	extra := lo.Reject(custom, func(p Persona, _ int) bool {
		return lo.ContainsBy(defaults, func(d Persona) bool { return d.Name == p.Name })
	})
	return append(result, lo.UniqBy(extra, func(p Persona) string { return p.Name })...)
}

// Validation limits
const (
	MaxNameLength        = 50
	MaxDescriptionLength = 200
	MaxRegionLength      = 80
	MaxPromptLength      = 32 * 1024
)

// ValidatePersona checks a guide before it is stored
func ValidatePersona(p Persona) error {
	var problems []string

	switch {
	case p.Name == "":
		problems = append(problems, "name is required")
	case len(p.Name) > MaxNameLength:
		problems = append(problems, fmt.Sprintf("name too long (max %d characters)", MaxNameLength))
	case !isValidPersonaName(p.Name):
		problems = append(problems, "name must contain only letters, digits, underscores and hyphens")
	}
	if len(p.Description) > MaxDescriptionLength {
		problems = append(problems, fmt.Sprintf("description too long (max %d characters)", MaxDescriptionLength))
	}
	if len(p.Region) > MaxRegionLength {
		problems = append(problems, fmt.Sprintf("region too long (max %d characters)", MaxRegionLength))
	}
	if len(p.SystemPrompt) > MaxPromptLength {
		problems = append(problems, fmt.Sprintf("system prompt too long (max %d characters)", MaxPromptLength))
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		problems = append(problems, "temperature must be between 0 and 2")
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("invalid persona: %s", strings.Join(problems, "; "))
}

func isValidPersonaName(name string) bool {
	return strings.IndexFunc(name, func(c rune) bool {
		return !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-')
	}) < 0
}
