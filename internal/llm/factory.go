package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/studyplan/internal/logger"
	"github.com/abhisek/studyplan/internal/store"
)

// mockPlan is the reply the offline mock provider gives to every call.
const mockPlan = "Week 1: Python fundamentals.\nWeek 2: SQL basics.\nWeek 3: Cloud concepts."

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with logging and timeout middleware.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, log *logger.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Logger == nil {
		cfg.Logger = log
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg)
	case ProviderDeepSeek:
		base, err = NewDeepSeekProvider(cfg)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg)
	case ProviderHuggingFace:
		base, err = NewHuggingFaceProvider(cfg)
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg)
	case ProviderMock:
		m := NewMockProvider()
		m.Fallback = mockPlan
		base = m
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → logging → timeout → base
	timed := WithTimeout(base, cfg.Timeout)
	return WithLogging(timed, eventRepo, log), nil
}
