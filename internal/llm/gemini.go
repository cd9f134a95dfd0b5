package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/abhisek/studyplan/internal/logger"
)

const defaultGeminiModel = "gemini-2.0-flash"

var geminiParams = newParamSet(
	ParamTemperature, ParamMaxTokens, ParamTopP, ParamTopK,
	ParamFrequencyPenalty, ParamPresencePenalty, ParamStop,
)

// GeminiProvider implements Provider using the Google Gemini SDK.
type GeminiProvider struct {
	client    *genai.Client
	model     string
	maxTokens int
	log       *logger.Logger
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(ctx context.Context, cfg Config) (*GeminiProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: gemini API key is required", ErrNotConfigured)
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:    client,
		model:     defaultModel(cfg.Model, defaultGeminiModel),
		maxTokens: cfg.MaxTokens,
		log:       cfg.Logger,
	}, nil
}

func (p *GeminiProvider) Name() string { return ProviderGemini }

func (p *GeminiProvider) ModelID() string { return p.model }

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if len(req.Messages) == 0 {
		return nil, ErrEmptyConversation
	}

	opts, dropped := geminiParams.filter(req.Options)
	logDropped(p.log, ProviderGemini, dropped)
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.maxTokens
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens:  int32(maxTokens),
		Temperature:      float32Ptr(opts.Temperature),
		TopP:             float32Ptr(opts.TopP),
		FrequencyPenalty: float32Ptr(opts.FrequencyPenalty),
		PresencePenalty:  float32Ptr(opts.PresencePenalty),
		StopSequences:    opts.Stop,
	}
	if opts.TopK != nil {
		k := float32(*opts.TopK)
		config.TopK = &k
	}

	model := resolveModel(opts.Model, p.model)
	result, err := p.client.Models.GenerateContent(ctx, model, buildGeminiContents(req.Messages), config)
	if err != nil {
		return nil, mapGeminiError(err)
	}

	resp := &Response{
		Content:    strings.TrimSpace(result.Text()),
		Model:      model,
		StopReason: mapGeminiStopReason(result),
	}
	if resp.Content == "" {
		resp.StopReason = "empty"
	}

	if result.UsageMetadata != nil {
		resp.Usage = Usage{
			InputTokens:  int(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(result.UsageMetadata.TotalTokenCount),
		}
	}

	return resp, nil
}

func buildGeminiContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, len(msgs))
	for i, m := range msgs {
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		out[i] = genai.NewContentFromText(m.Content, genai.Role(role))
	}
	return out
}

func float32Ptr(v *float64) *float32 {
	if v == nil {
		return nil
	}
	f := float32(*v)
	return &f
}

func mapGeminiStopReason(result *genai.GenerateContentResponse) string {
	if len(result.Candidates) > 0 && result.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		return "max_tokens"
	}
	return "end"
}

func mapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return callFailed(ProviderGemini, apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return callFailed(ProviderGemini, apiErrPtr.Code, err)
	}
	return callFailed(ProviderGemini, 0, err)
}
