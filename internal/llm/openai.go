package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/abhisek/studyplan/internal/logger"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"

	defaultDeepSeekBaseURL = "https://api.deepseek.com"
	defaultDeepSeekModel   = "deepseek-chat"

	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOpenRouterModel   = "google/gemini-2.0-flash-exp:free"

	defaultHuggingFaceBaseURL = "https://router.huggingface.co/v1"
	defaultHuggingFaceModel   = "meta-llama/Llama-3.2-3B-Instruct"
)

// OpenAIProvider implements Provider using the OpenAI SDK. The same adapter
// serves every OpenAI-compatible endpoint (DeepSeek, OpenRouter, the Hugging
// Face router); only the name, base URL and fallback model differ.
type OpenAIProvider struct {
	client    *openai.Client
	name      string
	model     string
	maxTokens int
	accepts   paramSet
	log       *logger.Logger

	// completionTokens sends max_completion_tokens instead of max_tokens.
	// Only OpenAI itself understands the newer field.
	completionTokens bool
}

// NewOpenAIProvider creates a provider for api.openai.com.
func NewOpenAIProvider(cfg Config) (*OpenAIProvider, error) {
	p, err := newOpenAICompatible(ProviderOpenAI, cfg, "", defaultOpenAIModel)
	if err != nil {
		return nil, err
	}
	p.completionTokens = true
	return p, nil
}

// NewDeepSeekProvider creates a provider targeting the DeepSeek API.
func NewDeepSeekProvider(cfg Config) (*OpenAIProvider, error) {
	return newOpenAICompatible(ProviderDeepSeek, cfg, defaultDeepSeekBaseURL, defaultDeepSeekModel)
}

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
func NewOpenRouterProvider(cfg Config) (*OpenAIProvider, error) {
	return newOpenAICompatible(ProviderOpenRouter, cfg, defaultOpenRouterBaseURL, defaultOpenRouterModel)
}

// NewHuggingFaceProvider creates a provider for Hugging Face inference via
// its OpenAI-compatible router.
func NewHuggingFaceProvider(cfg Config) (*OpenAIProvider, error) {
	return newOpenAICompatible(ProviderHuggingFace, cfg, defaultHuggingFaceBaseURL, defaultHuggingFaceModel)
}

func newOpenAICompatible(name string, cfg Config, baseURL, fallbackModel string) (*OpenAIProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: %s API key is required", ErrNotConfigured, name)
	}

	config := openai.DefaultConfig(cfg.APIKey)
	switch {
	case cfg.BaseURL != "":
		config.BaseURL = cfg.BaseURL
	case baseURL != "":
		config.BaseURL = baseURL
	}

	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(config),
		name:      name,
		model:     defaultModel(cfg.Model, fallbackModel),
		maxTokens: cfg.MaxTokens,
		accepts:   openAICompatibleParams,
		log:       cfg.Logger,
	}, nil
}

func (p *OpenAIProvider) Name() string { return p.name }

func (p *OpenAIProvider) ModelID() string { return p.model }

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if len(req.Messages) == 0 {
		return nil, ErrEmptyConversation
	}

	opts, dropped := p.accepts.filter(req.Options)
	logDropped(p.log, p.name, dropped)
	if opts.MaxTokens == 0 {
		opts.MaxTokens = p.maxTokens
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    resolveModel(opts.Model, p.model),
		Messages: buildOpenAIMessages(req.Messages),
		Stop:     opts.Stop,
	}
	if p.completionTokens {
		chatReq.MaxCompletionTokens = opts.MaxTokens
	} else {
		chatReq.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature != nil {
		chatReq.Temperature = float32(*opts.Temperature)
	}
	if opts.TopP != nil {
		chatReq.TopP = float32(*opts.TopP)
	}
	if opts.FrequencyPenalty != nil {
		chatReq.FrequencyPenalty = float32(*opts.FrequencyPenalty)
	}
	if opts.PresencePenalty != nil {
		chatReq.PresencePenalty = float32(*opts.PresencePenalty)
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, p.mapError(err)
	}

	out := &Response{
		Model: resp.Model,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}

	if len(resp.Choices) == 0 {
		out.StopReason = "empty"
		return out, nil
	}

	out.Content = strings.TrimSpace(resp.Choices[0].Message.Content)
	out.StopReason = mapOpenAIStopReason(resp.Choices[0].FinishReason)
	return out, nil
}

func buildOpenAIMessages(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		out[i] = openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		}
	}
	return out
}

func mapOpenAIStopReason(reason openai.FinishReason) string {
	switch reason {
	case openai.FinishReasonLength:
		return "max_tokens"
	default:
		return "end"
	}
}

func (p *OpenAIProvider) mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return callFailed(p.name, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return callFailed(p.name, reqErr.HTTPStatusCode, err)
	}
	return callFailed(p.name, 0, err)
}
