package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studyplan/internal/content"
	"github.com/abhisek/studyplan/internal/llm"
	"github.com/abhisek/studyplan/internal/planner"
	"github.com/abhisek/studyplan/internal/prompt"
	"github.com/abhisek/studyplan/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	server *Server
	mock   *llm.MockProvider
	store  *store.Store
}

func newTestEnv(t *testing.T, responses ...llm.MockResponse) *testEnv {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	fsys := fstest.MapFS{
		content.FileCourseContent: {Data: []byte(`{"modules":["Python"]}`)},
		content.FileGuidelines:    {Data: []byte("Be concise.")},
		content.FileCalendar:      {Data: []byte(`{"holidays":[]}`)},
	}
	mock := llm.NewMockProvider(responses...)
	svc := planner.NewService(st.Students(), st.Plans(),
		prompt.NewComposer(content.NewLoader(fsys), nil), mock, nil)

	return &testEnv{
		server: NewServer(svc, nil, Options{CORSOrigins: []string{"http://localhost:3000"}, Version: "test"}),
		mock:   mock,
		store:  st,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func validGenerateBody() map[string]any {
	return map[string]any{
		"name":         "Ana",
		"email":        "ana@example.com",
		"start_date":   "2025-03-03",
		"availability": map[string]int{"monday": 2, "friday": 0},
		"python_level": "beginner",
		"sql_level":    "none",
		"cloud_level":  "advanced",
		"used_git":     true,
		"used_docker":  false,
		"interests":    []string{"dbt"},
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

func TestRootAndHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "running")
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))

	rec = env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","version":"test"}`, rec.Body.String())
}

func TestGenerate_Success(t *testing.T) {
	env := newTestEnv(t, llm.MockResponse{Content: "## Week 1\nPython basics"})

	rec := env.do(t, http.MethodPost, "/plan/generate", validGenerateBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp PlanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotZero(t, resp.PlanID)
	assert.NotZero(t, resp.StudentID)
	require.Len(t, resp.Chat, 2)
	assert.Equal(t, "user", resp.Chat[0].Role)
	assert.Equal(t, "assistant", resp.Chat[1].Role)
	assert.Equal(t, "## Week 1\nPython basics", resp.Chat[1].Content)
}

func TestGenerate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m map[string]any)
		want   string
	}{
		{"missing email", func(m map[string]any) { delete(m, "email") }, "email"},
		{"bad email", func(m map[string]any) { m["email"] = "not-an-email" }, "email"},
		{"bad date", func(m map[string]any) { m["start_date"] = "03/03/2025" }, "date"},
		{"negative hours", func(m map[string]any) { m["availability"] = map[string]int{"monday": -1} }, "minimum"},
		{"unknown weekday", func(m map[string]any) { m["availability"] = map[string]int{"someday": 1} }, "someday"},
		{"unknown level", func(m map[string]any) { m["sql_level"] = "guru" }, "sql_level"},
		{"blank name", func(m map[string]any) { m["name"] = "   " }, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, llm.MockResponse{Content: "unused"})
			body := validGenerateBody()
			tt.mutate(body)

			rec := env.do(t, http.MethodPost, "/plan/generate", body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			apiErr := decodeError(t, rec)
			assert.Equal(t, CodeInvalidRequest, apiErr.Code)
			assert.Contains(t, apiErr.Message, tt.want)
			assert.Zero(t, env.mock.CallCount())
		})
	}
}

func TestGenerate_MalformedJSON(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/plan/generate", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidRequest, decodeError(t, rec).Code)
}

func TestGenerate_EmptyReply(t *testing.T) {
	env := newTestEnv(t, llm.MockResponse{Content: ""})

	rec := env.do(t, http.MethodPost, "/plan/generate", validGenerateBody())
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	apiErr := decodeError(t, rec)
	assert.Equal(t, CodeGenerationFailed, apiErr.Code)
	assert.Equal(t, msgGenerationFailed, apiErr.Message)
}

func TestGenerate_ProviderFailureIsGeneric(t *testing.T) {
	env := newTestEnv(t, llm.MockResponse{Err: &llm.ErrCallFailed{
		Provider: "openai", StatusCode: 401, Err: errors.New("invalid api key sk-secret"),
	}})

	rec := env.do(t, http.MethodPost, "/plan/generate", validGenerateBody())
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, CodeProviderError, decodeError(t, rec).Code)
	assert.NotContains(t, rec.Body.String(), "sk-secret")
}

func generatePlan(t *testing.T, env *testEnv) PlanResponse {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/plan/generate", validGenerateBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp PlanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestContinue_Success(t *testing.T) {
	env := newTestEnv(t,
		llm.MockResponse{Content: "plan"},
		llm.MockResponse{Content: "updated plan"},
	)
	created := generatePlan(t, env)

	chat := append(created.Chat, Turn{Role: "user", Content: "fewer hours on friday"})
	rec := env.do(t, http.MethodPost, "/chat/continue", continueRequest{PlanID: created.PlanID, Chat: chat})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp PlanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Chat, 4)
	assert.Equal(t, Turn{Role: "assistant", Content: "updated plan"}, resp.Chat[3])
	assert.Equal(t, created.StudentID, resp.StudentID)
}

func TestContinue_Errors(t *testing.T) {
	env := newTestEnv(t, llm.MockResponse{Content: "plan"})
	created := generatePlan(t, env)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
		msg    string
	}{
		{"empty chat", continueRequest{PlanID: created.PlanID, Chat: []Turn{}}, http.StatusBadRequest, CodeEmptyConversation, "empty"},
		{"trailing assistant", continueRequest{PlanID: created.PlanID, Chat: created.Chat}, http.StatusBadRequest, CodeInvalidConversation, "last message must be from the user"},
		{"unknown role", continueRequest{PlanID: created.PlanID, Chat: []Turn{
			{Role: "system", Content: "be terse"},
			{Role: "user", Content: "hi"},
		}}, http.StatusBadRequest, CodeInvalidConversation, `turn 0 has unknown role "system"`},
		{"missing plan id", map[string]any{"chat": created.Chat}, http.StatusBadRequest, CodeInvalidRequest, "plan_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := env.mock.CallCount()
			rec := env.do(t, http.MethodPost, "/chat/continue", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			apiErr := decodeError(t, rec)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Contains(t, apiErr.Message, tt.msg)
			assert.Equal(t, before, env.mock.CallCount(), "no provider call")
		})
	}
}

func TestContinue_UnknownPlan(t *testing.T) {
	env := newTestEnv(t, llm.MockResponse{Content: "reply"})

	rec := env.do(t, http.MethodPost, "/chat/continue", continueRequest{
		PlanID: 999,
		Chat:   []Turn{{Role: "user", Content: "hello"}},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodePlanNotFound, decodeError(t, rec).Code)
}

func TestContinue_Conflict(t *testing.T) {
	env := newTestEnv(t,
		llm.MockResponse{Content: "plan"},
		llm.MockResponse{Content: "a"},
		llm.MockResponse{Content: "b"},
	)
	created := generatePlan(t, env)

	first := append(append([]Turn(nil), created.Chat...), Turn{Role: "user", Content: "one"})
	second := append(append([]Turn(nil), created.Chat...), Turn{Role: "user", Content: "two"})

	rec := env.do(t, http.MethodPost, "/chat/continue", continueRequest{PlanID: created.PlanID, Chat: first})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/chat/continue", continueRequest{PlanID: created.PlanID, Chat: second})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetPlanAndExport(t *testing.T) {
	env := newTestEnv(t, llm.MockResponse{Content: "## Week 1\n\n- Variables\n- Loops"})
	created := generatePlan(t, env)

	rec := env.do(t, http.MethodGet, "/plans/"+strconv.Itoa(created.PlanID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view planView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, created.PlanID, view.ID)
	assert.Equal(t, "2025-03-03", view.StartDate)
	assert.Equal(t, "advanced", view.CloudLevel)
	assert.Len(t, view.Chat, 2)

	rec = env.do(t, http.MethodGet, "/plans/"+strconv.Itoa(created.PlanID)+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), "<li>Loops</li>")
	assert.NotContains(t, rec.Body.String(), "COURSE CONTENT", "prompt is not exported")

	rec = env.do(t, http.MethodGet, "/plans/12345", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/plans/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportDoesNotLinkUnsafeSchemes(t *testing.T) {
	env := newTestEnv(t,
		llm.MockResponse{Content: "See [docs](https://docs.python.org/3/)."},
		llm.MockResponse{Content: "[open](javascript:alert(1))"},
	)
	created := generatePlan(t, env)

	chat := append(created.Chat, Turn{Role: "user", Content: "[click me](javascript:alert(document.domain))"})
	rec := env.do(t, http.MethodPost, "/chat/continue", continueRequest{PlanID: created.PlanID, Chat: chat})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/plans/"+strconv.Itoa(created.PlanID)+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, `href="javascript:`)
	assert.Contains(t, body, "click me")
	assert.Contains(t, body, `href="https://docs.python.org/3/"`)
	assert.Contains(t, body, `rel="nofollow"`)
}

func TestRequestIDIsPropagated(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, "abc-123")
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(headerRequestID))
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/plan/generate", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

type panickingPlanner struct{ Planner }

func (panickingPlanner) GetPlan(context.Context, int) (*store.Plan, error) {
	panic("boom")
}

func TestRecoveryReturnsEnvelope(t *testing.T) {
	srv := NewServer(panickingPlanner{}, nil, Options{})
	req := httptest.NewRequest(http.MethodGet, "/plans/1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, CodeInternal, env.Error.Code)
}
