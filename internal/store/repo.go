package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a lookup by id resolves to no row.
	ErrNotFound = errors.New("not found")

	// ErrConversationConflict is returned when an update would drop or
	// reorder turns already stored for a plan.
	ErrConversationConflict = errors.New("conversation conflicts with stored history")

	// ErrConversationTooShort is returned when a plan is created without
	// at least the originating prompt and the first reply.
	ErrConversationTooShort = errors.New("conversation needs at least two turns")
)

// Student is a learner identified by a unique email.
type Student struct {
	ID        int
	Name      string
	Email     string
	CreatedAt time.Time
}

// Turn is one message of a plan's conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SkillLevels holds the self-reported level for each fixed skill area.
type SkillLevels struct {
	Python string `json:"python"`
	SQL    string `json:"sql"`
	Cloud  string `json:"cloud"`
}

// NewPlan is the input to CreatePlan: the profile snapshot plus the
// initial conversation.
type NewPlan struct {
	StudentID     int
	StartDate     string
	Availability  map[string]int
	Skills        SkillLevels
	UsedGit       bool
	UsedDocker    bool
	Interests     []string
	MainChallenge string
	Conversation  []Turn
}

// Plan is a persisted study plan and its full conversation.
type Plan struct {
	ID            int
	StudentID     int
	StartDate     string
	Availability  map[string]int
	Skills        SkillLevels
	UsedGit       bool
	UsedDocker    bool
	Interests     []string
	MainChallenge string
	Conversation  []Turn
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StudentRepo manages students.
type StudentRepo interface {
	// GetOrCreateStudent returns the student with email, creating it if
	// absent and refreshing its name if it differs.
	GetOrCreateStudent(ctx context.Context, name, email string) (*Student, error)
}

// PlanRepo manages study plans.
type PlanRepo interface {
	CreatePlan(ctx context.Context, p NewPlan) (*Plan, error)

	// AppendConversation replaces the stored conversation with conv. conv
	// must extend the stored conversation.
	AppendConversation(ctx context.Context, planID int, conv []Turn) (*Plan, error)

	GetPlan(ctx context.Context, id int) (*Plan, error)
	ListPlansByStudent(ctx context.Context, studentID int) ([]*Plan, error)
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match, empty for all
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a recorded LLM call.
type LLMRequestEvent struct {
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// ModelUsage aggregates recorded calls per model.
type ModelUsage struct {
	Provider     string
	Model        string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
}

// EventQuerier reads recorded events back for operators.
type EventQuerier interface {
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}
