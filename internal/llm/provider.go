package llm

import "context"

// Provider is the core abstraction for LLM interaction. Every vendor adapter
// implements it; callers never see which vendor is behind it.
type Provider interface {
	// Name returns the provider's identifier, e.g. "openai".
	Name() string

	// ModelID returns the default model this provider resolves to when a
	// request carries no model override.
	ModelID() string

	// Generate forwards the full conversation to the vendor and returns the
	// reply text. An empty Content with a nil error is a successful call
	// that produced no text.
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Request describes what to send to the LLM.
type Request struct {
	// Messages is the ordered conversation history. It must not be empty.
	Messages []Message

	// Options are optional generation parameters. Adapters drop the ones
	// their endpoint does not accept.
	Options Options
}

// Message represents a single turn in the conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the roles a stored conversation may hold.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Options holds optional generation parameters. Zero values mean "not set".
type Options struct {
	// Model overrides the provider's default model for this call.
	Model string

	Temperature      *float64
	MaxTokens        int
	TopP             *float64
	TopK             *int
	FrequencyPenalty *float64
	PresencePenalty  *float64
	Stop             []string
}

// Response holds the LLM's output.
type Response struct {
	// Content is the generated reply text. Never nil on success; may be "".
	Content string

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "empty"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Float is a convenience for building Options literals.
func Float(v float64) *float64 { return &v }

// Int is a convenience for building Options literals.
func Int(v int) *int { return &v }
