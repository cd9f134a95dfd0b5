// Package planner drives study plan generation and chat continuation.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/studyplan/internal/llm"
	"github.com/abhisek/studyplan/internal/logger"
	"github.com/abhisek/studyplan/internal/prompt"
	"github.com/abhisek/studyplan/internal/store"
)

const (
	msgPlanGenerated = "Study plan generated successfully."
	msgChatContinued = "Conversation continued successfully."
)

// Composer builds the generation prompt for a profile.
type Composer interface {
	Compose(p prompt.Profile) (string, error)
}

// PlanRequest is a validated plan generation request.
type PlanRequest struct {
	Name          string
	Email         string
	StartDate     time.Time
	Availability  map[string]int
	Skills        prompt.Skills
	UsedGit       bool
	UsedDocker    bool
	Interests     []string
	MainChallenge string
}

// Result is returned by both operations.
type Result struct {
	Message      string
	StudentID    int
	PlanID       int
	Conversation []llm.Message
}

// Service generates plans and continues their conversations.
type Service struct {
	students store.StudentRepo
	plans    store.PlanRepo
	composer Composer
	provider llm.Provider
	log      *logger.Logger
}

// NewService creates a planner service. The provider is shared by every
// request and must be safe for concurrent use.
func NewService(students store.StudentRepo, plans store.PlanRepo, composer Composer, provider llm.Provider, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		students: students,
		plans:    plans,
		composer: composer,
		provider: provider,
		log:      log,
	}
}

// GeneratePlan creates a study plan for req and persists it with the
// two-turn conversation [prompt, reply].
func (s *Service) GeneratePlan(ctx context.Context, req PlanRequest) (*Result, error) {
	if err := checkPlanRequest(req); err != nil {
		return nil, err
	}

	student, err := s.students.GetOrCreateStudent(ctx, strings.TrimSpace(req.Name), strings.TrimSpace(req.Email))
	if err != nil {
		return nil, fmt.Errorf("get or create student: %w", err)
	}

	// The email stays out of the profile so it never reaches the provider.
	profile := prompt.Profile{
		Name:          student.Name,
		StartDate:     req.StartDate,
		Availability:  req.Availability,
		Skills:        req.Skills,
		UsedGit:       req.UsedGit,
		UsedDocker:    req.UsedDocker,
		Interests:     req.Interests,
		MainChallenge: req.MainChallenge,
	}

	text, err := s.composer.Compose(profile)
	if err != nil {
		var cfgErr *prompt.ConfigError
		if errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		return nil, fmt.Errorf("compose prompt: %w", err)
	}

	conv := []llm.Message{{Role: llm.RoleUser, Content: text}}
	reply, err := s.generate(llm.WithPurpose(ctx, llm.PurposePlanGenerate), conv)
	if err != nil {
		return nil, err
	}
	conv = append(conv, llm.Message{Role: llm.RoleAssistant, Content: reply})

	plan, err := s.plans.CreatePlan(ctx, store.NewPlan{
		StudentID:    student.ID,
		StartDate:    req.StartDate.Format(time.DateOnly),
		Availability: req.Availability,
		Skills: store.SkillLevels{
			Python: req.Skills.Python,
			SQL:    req.Skills.SQL,
			Cloud:  req.Skills.Cloud,
		},
		UsedGit:       req.UsedGit,
		UsedDocker:    req.UsedDocker,
		Interests:     req.Interests,
		MainChallenge: req.MainChallenge,
		Conversation:  toTurns(conv),
	})
	if err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	s.log.Info("study plan generated", "student_id", student.ID, "plan_id", plan.ID)

	return &Result{
		Message:      msgPlanGenerated,
		StudentID:    student.ID,
		PlanID:       plan.ID,
		Conversation: fromTurns(plan.Conversation),
	}, nil
}

// ContinueChat sends conv, which must end with the new user turn, to the
// provider and stores conv plus the assistant reply on the plan.
func (s *Service) ContinueChat(ctx context.Context, planID int, conv []llm.Message) (*Result, error) {
	if err := checkConversation(conv); err != nil {
		return nil, err
	}

	reply, err := s.generate(llm.WithPurpose(ctx, llm.PurposeChatContinue), conv)
	if err != nil {
		return nil, err
	}

	updated := make([]llm.Message, len(conv), len(conv)+1)
	copy(updated, conv)
	updated = append(updated, llm.Message{Role: llm.RoleAssistant, Content: reply})

	plan, err := s.plans.AppendConversation(ctx, planID, toTurns(updated))
	if err != nil {
		if store.IsNotFound(err) {
			return nil, fmt.Errorf("plan %d: %w", planID, ErrPlanNotFound)
		}
		return nil, fmt.Errorf("append conversation: %w", err)
	}

	s.log.Info("chat continued", "plan_id", plan.ID, "turns", len(plan.Conversation))

	return &Result{
		Message:      msgChatContinued,
		StudentID:    plan.StudentID,
		PlanID:       plan.ID,
		Conversation: fromTurns(plan.Conversation),
	}, nil
}

// GetPlan returns a stored plan.
func (s *Service) GetPlan(ctx context.Context, planID int) (*store.Plan, error) {
	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, fmt.Errorf("plan %d: %w", planID, ErrPlanNotFound)
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return plan, nil
}

func (s *Service) generate(ctx context.Context, conv []llm.Message) (string, error) {
	resp, err := s.provider.Generate(ctx, llm.Request{Messages: conv})
	if err != nil {
		return "", fmt.Errorf("%s: %w", llm.PurposeFrom(ctx), err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", ErrEmptyReply
	}
	return resp.Content, nil
}

func checkPlanRequest(req PlanRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidRequest)
	}
	for day, h := range req.Availability {
		if h < 0 {
			return fmt.Errorf("%w: negative hours for %s", ErrInvalidRequest, day)
		}
	}
	return nil
}

func checkConversation(conv []llm.Message) error {
	if len(conv) == 0 {
		return ErrEmptyConversation
	}
	for i, m := range conv {
		if !m.Role.Valid() {
			return fmt.Errorf("%w: turn %d has unknown role %q", ErrInvalidConversation, i, m.Role)
		}
	}
	if conv[len(conv)-1].Role != llm.RoleUser {
		return fmt.Errorf("%w: the last message must be from the user", ErrInvalidConversation)
	}
	return nil
}

func toTurns(msgs []llm.Message) []store.Turn {
	out := make([]store.Turn, len(msgs))
	for i, m := range msgs {
		out[i] = store.Turn{Role: string(m.Role), Content: m.Content}
	}
	return out
}

func fromTurns(turns []store.Turn) []llm.Message {
	out := make([]llm.Message, len(turns))
	for i, t := range turns {
		out[i] = llm.Message{Role: llm.Role(t.Role), Content: t.Content}
	}
	return out
}
