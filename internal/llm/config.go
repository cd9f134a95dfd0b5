package llm

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/studyplan/internal/logger"
)

// Provider names, in selection priority order.
const (
	ProviderOpenAI      = "openai"
	ProviderDeepSeek    = "deepseek"
	ProviderOpenRouter  = "openrouter"
	ProviderAnthropic   = "anthropic"
	ProviderGemini      = "gemini"
	ProviderHuggingFace = "huggingface"
	ProviderMock        = "mock"
)

// Priority is the fixed total order used to pick a provider when several
// credentials are present.
var Priority = []string{
	ProviderOpenAI,
	ProviderDeepSeek,
	ProviderOpenRouter,
	ProviderAnthropic,
	ProviderGemini,
	ProviderHuggingFace,
}

// credentialEnv maps each provider to the environment variable holding its key.
var credentialEnv = map[string]string{
	ProviderOpenAI:      "OPENAI_API_KEY",
	ProviderDeepSeek:    "DEEPSEEK_API_KEY",
	ProviderOpenRouter:  "OPENROUTER_API_KEY",
	ProviderAnthropic:   "ANTHROPIC_API_KEY",
	ProviderGemini:      "GEMINI_API_KEY",
	ProviderHuggingFace: "HF_TOKEN",
}

// modelEnv maps each provider to the environment variable overriding its
// default model.
var modelEnv = map[string]string{
	ProviderOpenAI:      "OPENAI_MODEL",
	ProviderDeepSeek:    "DEEPSEEK_MODEL",
	ProviderOpenRouter:  "OPENROUTER_MODEL",
	ProviderAnthropic:   "ANTHROPIC_MODEL",
	ProviderGemini:      "GEMINI_MODEL",
	ProviderHuggingFace: "HF_MODEL",
}

// Config holds all LLM provider configuration.
type Config struct {
	// Provider is the selected provider name (one of Priority, or "mock").
	Provider string

	// APIKey is the credential for the selected provider.
	APIKey string

	// Model is the environment-provided default model; empty means the
	// adapter's hardcoded fallback.
	Model string

	// BaseURL overrides the vendor endpoint. Empty means the adapter default.
	BaseURL string

	// Timeout bounds a single outbound call. Default: 5m.
	Timeout time.Duration

	// MaxTokens is the default output cap applied when a request sets none.
	MaxTokens int

	// Logger receives adapter debug output. Nil discards it.
	Logger *logger.Logger
}

// Credential is one (provider, key) pair considered during selection.
type Credential struct {
	Provider string
	Key      string
}

// DefaultConfig returns a Config with sensible defaults and no provider.
func DefaultConfig() Config {
	return Config{
		Timeout:   5 * time.Minute,
		MaxTokens: 1500,
	}
}

// Select walks creds in Priority order and returns the first provider with a
// non-empty credential. It is a pure function of its input.
func Select(creds []Credential) (Credential, error) {
	byName := make(map[string]string, len(creds))
	for _, c := range creds {
		byName[c.Provider] = strings.TrimSpace(c.Key)
	}
	for _, name := range Priority {
		if key := byName[name]; key != "" {
			return Credential{Provider: name, Key: key}, nil
		}
	}
	return Credential{}, fmt.Errorf("%w: set one of %s", ErrNotConfigured, strings.Join(credentialEnvNames(), ", "))
}

// CredentialsFromEnv reads every known provider credential from the
// environment, in Priority order.
func CredentialsFromEnv() []Credential {
	creds := make([]Credential, 0, len(Priority))
	for _, name := range Priority {
		creds = append(creds, Credential{Provider: name, Key: os.Getenv(credentialEnv[name])})
	}
	return creds
}

// ConfigFromEnv selects a provider from the environment's credentials and
// builds its Config. Returns ErrNotConfigured when no credential is set.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	sel, err := Select(CredentialsFromEnv())
	if err != nil {
		return Config{}, err
	}
	cfg.Provider = sel.Provider
	cfg.APIKey = sel.Key
	cfg.Model = strings.TrimSpace(os.Getenv(modelEnv[sel.Provider]))

	if v := os.Getenv("STUDYPLAN_LLM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("STUDYPLAN_LLM_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("STUDYPLAN_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("STUDYPLAN_MAX_TOKENS: invalid value %q", v)
		}
		cfg.MaxTokens = n
	}

	return cfg, nil
}

// Validate checks that the selected provider is known and has its key set.
func (c Config) Validate() error {
	if c.Provider == ProviderMock {
		return nil
	}
	env, ok := credentialEnv[c.Provider]
	if !ok {
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: %s is required for the %s provider", ErrNotConfigured, env, c.Provider)
	}
	return nil
}

func credentialEnvNames() []string {
	names := make([]string, 0, len(Priority))
	for _, p := range Priority {
		names = append(names, credentialEnv[p])
	}
	return names
}
