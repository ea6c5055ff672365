package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hobbytrack/project-timer/internal/backend"
	"hobbytrack/project-timer/internal/models"

	"go.uber.org/zap"
)

// APIClient talks to the hosted backend's PostgREST endpoints.
type APIClient struct {
	baseURL     string
	apiKey      string
	accessToken string // user JWT; the api key is used when empty
	timeout     time.Duration
	httpClient  *http.Client
	logger      *zap.Logger
}

var (
	_ backend.ProjectStore   = (*APIClient)(nil)
	_ backend.ProjectCreator = (*APIClient)(nil)
	_ backend.SessionStore   = (*APIClient)(nil)
)

// NewAPIClient creates a new API client
func NewAPIClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// SetAccessToken sets the signed-in user's access token
func (c *APIClient) SetAccessToken(token string) {
	c.accessToken = token
}

// FetchProject implements backend.ProjectReader.
func (c *APIClient) FetchProject(ctx context.Context, id string) (*models.Project, error) {
	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("select", "*")

	var projects []models.Project
	if err := c.do(ctx, http.MethodGet, "projects", q, nil, &projects); err != nil {
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}
	if len(projects) == 0 {
		return nil, &NotFoundError{Message: fmt.Sprintf("project %s not found", id), StatusCode: http.StatusOK}
	}
	return &projects[0], nil
}

// UpdateProjectCounters implements backend.ProjectWriter.
func (c *APIClient) UpdateProjectCounters(ctx context.Context, id string, update models.CounterUpdate) (*models.Project, error) {
	if update.IsEmpty() {
		return nil, backend.ErrEmptyUpdate
	}

	q := url.Values{}
	q.Set("id", "eq."+id)

	var projects []models.Project
	if err := c.do(ctx, http.MethodPatch, "projects", q, update, &projects); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	if len(projects) == 0 {
		return nil, &NotFoundError{Message: fmt.Sprintf("project %s not found", id), StatusCode: http.StatusOK}
	}
	return &projects[0], nil
}

// CreateProject implements backend.ProjectCreator.
func (c *APIClient) CreateProject(ctx context.Context, project models.NewProject) (*models.Project, error) {
	if err := backend.ValidateProject(project); err != nil {
		return nil, err
	}

	var projects []models.Project
	if err := c.do(ctx, http.MethodPost, "projects", nil, project, &projects); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	if len(projects) == 0 {
		return nil, &BackendError{Message: "create project returned no rows", StatusCode: http.StatusCreated}
	}
	return &projects[0], nil
}

// InsertSession implements backend.SessionStore.
func (c *APIClient) InsertSession(ctx context.Context, session models.NewWorkSession) (*models.WorkSession, error) {
	if err := backend.ValidateSession(session); err != nil {
		return nil, err
	}

	var sessions []models.WorkSession
	if err := c.do(ctx, http.MethodPost, "work_sessions", nil, session, &sessions); err != nil {
		return nil, fmt.Errorf("failed to insert work session: %w", err)
	}
	if len(sessions) == 0 {
		return nil, &BackendError{Message: "insert work session returned no rows", StatusCode: http.StatusCreated}
	}
	return &sessions[0], nil
}

// ListSessions implements backend.SessionStore.
func (c *APIClient) ListSessions(ctx context.Context, projectID string) ([]models.WorkSession, error) {
	q := url.Values{}
	q.Set("project_id", "eq."+projectID)
	q.Set("order", "started_at.desc")

	var sessions []models.WorkSession
	if err := c.do(ctx, http.MethodGet, "work_sessions", q, nil, &sessions); err != nil {
		return nil, fmt.Errorf("failed to list work sessions: %w", err)
	}
	return sessions, nil
}

// HealthCheck checks if the backend is reachable
func (c *APIClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rest/v1/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

func (c *APIClient) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	// Prefer the user token over the API key
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	} else if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// do sends one request to /rest/v1/<table> and decodes a JSON array response into out
func (c *APIClient) do(ctx context.Context, method, table string, query url.Values, body, out any) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=representation")
	}
	c.authorize(req)

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("Backend request failed",
			zap.String("method", method),
			zap.String("table", table),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.logger.Debug("Backend request succeeded",
			zap.String("method", method),
			zap.String("table", table),
			zap.Int("status_code", resp.StatusCode),
			zap.Duration("duration", duration),
		)
		if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		return nil
	}

	return c.statusError(resp.StatusCode, respBody)
}

// statusError maps a non-2xx response to a typed error
func (c *APIClient) statusError(status int, body []byte) error {
	errMsg := fmt.Sprintf("backend returned status %d: %s", status, string(body))

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.Error("Authentication failed",
			zap.Int("status_code", status),
			zap.String("response", string(body)),
		)
		return &AuthError{Message: errMsg, StatusCode: status}
	case http.StatusTooManyRequests:
		c.logger.Warn("Rate limited",
			zap.Int("status_code", status),
		)
		return &RateLimitError{Message: errMsg, StatusCode: status}
	case http.StatusBadRequest:
		c.logger.Error("Invalid request",
			zap.Int("status_code", status),
			zap.String("response", string(body)),
		)
		return &BadRequestError{Message: errMsg, StatusCode: status}
	case http.StatusNotFound, http.StatusNotAcceptable:
		return &NotFoundError{Message: errMsg, StatusCode: status}
	default:
		c.logger.Error("Backend error",
			zap.Int("status_code", status),
			zap.String("response", string(body)),
		)
		return &BackendError{Message: errMsg, StatusCode: status}
	}
}
