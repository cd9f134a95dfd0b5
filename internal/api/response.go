package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/studyplan/internal/llm"
	"github.com/abhisek/studyplan/internal/planner"
)

// Error codes returned in the error envelope.
const (
	CodeInvalidRequest       = "invalid_request"
	CodeEmptyConversation    = "empty_conversation"
	CodeInvalidConversation  = "invalid_conversation"
	CodePlanNotFound         = "plan_not_found"
	CodeConversationConflict = "conversation_conflict"
	CodeMisconfigured        = "misconfigured"
	CodeGenerationFailed     = "generation_failed"
	CodeProviderError        = "provider_error"
	CodeInternal             = "internal_error"
)

const (
	msgGenerationFailed = "AI failed to generate a plan. Please try again."
	msgChatFailed       = "AI failed to respond. Please try again."
	msgMisconfigured    = "service misconfigured"
	msgInternal         = "internal server error"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Turn is one conversation message on the wire.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PlanResponse is returned by both generate and continue.
type PlanResponse struct {
	Message   string `json:"message"`
	StudentID int    `json:"student_id"`
	PlanID    int    `json:"plan_id"`
	Chat      []Turn `json:"chat"`
}

func respondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Code: code, Message: msg}})
}

// respondServiceError maps planner errors onto statuses. Internal detail
// is logged, never returned.
func (s *Server) respondServiceError(c *gin.Context, err error, failedMsg string) {
	var callErr *llm.ErrCallFailed
	switch {
	case errors.Is(err, planner.ErrInvalidRequest):
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	case errors.Is(err, planner.ErrEmptyConversation):
		respondError(c, http.StatusBadRequest, CodeEmptyConversation, "conversation is empty")
		return
	case errors.Is(err, planner.ErrInvalidConversation):
		respondError(c, http.StatusBadRequest, CodeInvalidConversation, err.Error())
		return
	case errors.Is(err, planner.ErrPlanNotFound):
		respondError(c, http.StatusNotFound, CodePlanNotFound, "plan not found")
		return
	case errors.Is(err, planner.ErrConversationConflict):
		respondError(c, http.StatusConflict, CodeConversationConflict, "the conversation changed; reload the plan and try again")
		return
	}

	s.requestLog(c).Error("request failed", "error", err)

	switch {
	case errors.Is(err, planner.ErrConfiguration):
		respondError(c, http.StatusInternalServerError, CodeMisconfigured, msgMisconfigured)
	case errors.Is(err, planner.ErrEmptyReply):
		respondError(c, http.StatusInternalServerError, CodeGenerationFailed, failedMsg)
	case errors.As(err, &callErr):
		respondError(c, http.StatusBadGateway, CodeProviderError, failedMsg)
	default:
		respondError(c, http.StatusInternalServerError, CodeInternal, msgInternal)
	}
}

func toWire(msgs []llm.Message) []Turn {
	out := make([]Turn, len(msgs))
	for i, m := range msgs {
		out[i] = Turn{Role: string(m.Role), Content: m.Content}
	}
	return out
}

func fromWire(turns []Turn) []llm.Message {
	out := make([]llm.Message, len(turns))
	for i, t := range turns {
		out[i] = llm.Message{Role: llm.Role(t.Role), Content: t.Content}
	}
	return out
}

func planResponse(r *planner.Result) PlanResponse {
	return PlanResponse{
		Message:   r.Message,
		StudentID: r.StudentID,
		PlanID:    r.PlanID,
		Chat:      toWire(r.Conversation),
	}
}
