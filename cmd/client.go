package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/abhisek/studyplan/internal/api"
)

// apiClient talks to a running studyplan server.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	// Generation can take minutes; the server bounds each LLM call itself.
	return &apiClient{baseURL: baseURL, http: &http.Client{Timeout: 10 * time.Minute}}
}

// apiStatusError is a non-2xx reply carrying the server's error envelope.
type apiStatusError struct {
	Status int
	api.APIError
}

func (e *apiStatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
}

func (c *apiClient) generate(ctx context.Context, profile []byte) (*api.PlanResponse, error) {
	var out api.PlanResponse
	if err := c.do(ctx, http.MethodPost, "/plan/generate", profile, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) continueChat(ctx context.Context, planID int, chat []api.Turn) (*api.PlanResponse, error) {
	body, err := json.Marshal(map[string]any{"plan_id": planID, "chat": chat})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	var out api.PlanResponse
	if err := c.do(ctx, http.MethodPost, "/chat/continue", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// planChat fetches the stored conversation of a plan.
func (c *apiClient) planChat(ctx context.Context, planID int) ([]api.Turn, error) {
	var out struct {
		Chat []api.Turn `json:"chat"`
	}
	if err := c.do(ctx, http.MethodGet, "/plans/"+strconv.Itoa(planID), nil, &out); err != nil {
		return nil, err
	}
	return out.Chat, nil
}

func (c *apiClient) do(ctx context.Context, method, path string, body []byte, dst any) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var env api.ErrorEnvelope
		_ = json.Unmarshal(raw, &env)
		return &apiStatusError{Status: resp.StatusCode, APIError: env.Error}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
