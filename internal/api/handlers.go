package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/studyplan/internal/planner"
	"github.com/abhisek/studyplan/internal/prompt"
)

type generateRequest struct {
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	StartDate     string         `json:"start_date"`
	Availability  map[string]int `json:"availability"`
	PythonLevel   string         `json:"python_level"`
	SQLLevel      string         `json:"sql_level"`
	CloudLevel    string         `json:"cloud_level"`
	UsedGit       bool           `json:"used_git"`
	UsedDocker    bool           `json:"used_docker"`
	Interests     []string       `json:"interests"`
	MainChallenge string         `json:"main_challenge"`
}

type continueRequest struct {
	PlanID int    `json:"plan_id"`
	Chat   []Turn `json:"chat"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Study plan API is running"})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.version})
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	if !decodeValid(c, generateValidator, &req) {
		return
	}

	start, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "start_date must be YYYY-MM-DD")
		return
	}

	res, err := s.planner.GeneratePlan(c.Request.Context(), planner.PlanRequest{
		Name:         req.Name,
		Email:        req.Email,
		StartDate:    start,
		Availability: req.Availability,
		Skills: prompt.Skills{
			Python: req.PythonLevel,
			SQL:    req.SQLLevel,
			Cloud:  req.CloudLevel,
		},
		UsedGit:       req.UsedGit,
		UsedDocker:    req.UsedDocker,
		Interests:     req.Interests,
		MainChallenge: req.MainChallenge,
	})
	if err != nil {
		s.respondServiceError(c, err, msgGenerationFailed)
		return
	}

	c.JSON(http.StatusOK, planResponse(res))
}

func (s *Server) handleContinue(c *gin.Context) {
	var req continueRequest
	if !decodeValid(c, continueValidator, &req) {
		return
	}

	res, err := s.planner.ContinueChat(c.Request.Context(), req.PlanID, fromWire(req.Chat))
	if err != nil {
		s.respondServiceError(c, err, msgChatFailed)
		return
	}

	c.JSON(http.StatusOK, planResponse(res))
}

type planView struct {
	ID            int            `json:"id"`
	StudentID     int            `json:"student_id"`
	StartDate     string         `json:"start_date"`
	Availability  map[string]int `json:"availability"`
	PythonLevel   string         `json:"python_level"`
	SQLLevel      string         `json:"sql_level"`
	CloudLevel    string         `json:"cloud_level"`
	UsedGit       bool           `json:"used_git"`
	UsedDocker    bool           `json:"used_docker"`
	Interests     []string       `json:"interests"`
	MainChallenge string         `json:"main_challenge"`
	Chat          []Turn         `json:"chat"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (s *Server) handleGetPlan(c *gin.Context) {
	id, ok := planID(c)
	if !ok {
		return
	}
	plan, err := s.planner.GetPlan(c.Request.Context(), id)
	if err != nil {
		s.respondServiceError(c, err, msgInternal)
		return
	}

	chat := make([]Turn, len(plan.Conversation))
	for i, t := range plan.Conversation {
		chat[i] = Turn{Role: t.Role, Content: t.Content}
	}
	c.JSON(http.StatusOK, planView{
		ID:            plan.ID,
		StudentID:     plan.StudentID,
		StartDate:     plan.StartDate,
		Availability:  plan.Availability,
		PythonLevel:   plan.Skills.Python,
		SQLLevel:      plan.Skills.SQL,
		CloudLevel:    plan.Skills.Cloud,
		UsedGit:       plan.UsedGit,
		UsedDocker:    plan.UsedDocker,
		Interests:     plan.Interests,
		MainChallenge: plan.MainChallenge,
		Chat:          chat,
		CreatedAt:     plan.CreatedAt,
		UpdatedAt:     plan.UpdatedAt,
	})
}

func (s *Server) handleExport(c *gin.Context) {
	id, ok := planID(c)
	if !ok {
		return
	}
	plan, err := s.planner.GetPlan(c.Request.Context(), id)
	if err != nil {
		s.respondServiceError(c, err, msgInternal)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", renderPlanHTML(plan))
}

func planID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "plan id must be a positive integer")
		return 0, false
	}
	return id, true
}

// decodeValid reads the body, validates it against v and decodes it into
// dst. It writes the 400 response itself and reports false on failure.
func decodeValid(c *gin.Context, v *validator, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, CodeInvalidRequest, "request body too large")
			return false
		}
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "could not read request body")
		return false
	}
	if err := v.Validate(body); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "malformed request body")
		return false
	}
	return true
}
