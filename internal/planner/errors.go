package planner

import (
	"errors"

	"github.com/abhisek/studyplan/internal/store"
)

var (
	// ErrConfiguration wraps static content problems found while composing
	// the prompt. No provider call is made.
	ErrConfiguration = errors.New("service misconfigured")

	// ErrInvalidRequest reports a plan request that breaks an invariant
	// the service relies on.
	ErrInvalidRequest = errors.New("invalid plan request")

	// ErrEmptyReply is returned when the provider answers with no text.
	// Nothing is persisted.
	ErrEmptyReply = errors.New("provider returned an empty reply")

	// ErrEmptyConversation is returned by ContinueChat for an empty history.
	ErrEmptyConversation = errors.New("conversation is empty")

	// ErrInvalidConversation is returned by ContinueChat when the last turn
	// is not from the user or a turn has an unknown role.
	ErrInvalidConversation = errors.New("invalid conversation")

	// ErrPlanNotFound is returned when the plan id does not resolve.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrConversationConflict is returned when the submitted history does
	// not extend the stored one, e.g. after a concurrent continue.
	ErrConversationConflict = store.ErrConversationConflict
)
