// Package client provides the Go client for the termgate API, including
// the polling protocol for async jobs and pending confirmations.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/termgate/termgate/internal/confirm"
	"github.com/termgate/termgate/internal/job"
	"github.com/termgate/termgate/internal/session"
)

// Client provides methods to interact with the termgate API.
type Client struct {
	// BaseURL is the base URL of the termgate API (e.g., "http://localhost:7681").
	BaseURL string

	// APIKey is sent as a bearer token on every request.
	APIKey string

	// HTTPClient is the HTTP client used for requests.
	// If nil, a default client with a 10-second timeout is used.
	HTTPClient *http.Client

	// TickInterval is the duration of one poll schedule unit. It defaults
	// to one second; tests shorten it.
	TickInterval time.Duration
}

// NewClient creates a new termgate API client.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		BaseURL: serverURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		TickInterval: time.Second,
	}
}

// errorResponse mirrors the server's error body.
type errorResponse struct {
	Error string `json:"error"`
}

// doRequest executes an HTTP request and optionally decodes the response.
// If body is not nil, it's JSON-encoded and sent as the request body.
// If result is not nil, the response body is JSON-decoded into it.
// Returns an error if the response status is not in acceptedStatuses.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any, acceptedStatuses ...int) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	statusOK := false
	for _, accepted := range acceptedStatuses {
		if resp.StatusCode == accepted {
			statusOK = true
			break
		}
	}
	if !statusOK {
		var errResp errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// createSessionRequest is the body for POST /api/create_session.
type createSessionRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// CreateSession registers a new session. An empty id lets the server
// generate one.
func (c *Client) CreateSession(ctx context.Context, id string) (session.Session, error) {
	var sess session.Session
	body := createSessionRequest{SessionID: id}
	if err := c.doRequest(ctx, http.MethodPost, "/api/create_session", body, &sess, http.StatusOK); err != nil {
		return session.Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// commandRequest is the body for the command submission endpoints.
type commandRequest struct {
	SessionID         string `json:"session_id"`
	Command           string `json:"command"`
	EstimatedDuration int    `json:"estimated_duration,omitempty"`
}

// SubmitOutcome is the union of the server's submission responses. Status
// is one of "blocked", "confirmation_required", or "queued".
type SubmitOutcome struct {
	Status         string `json:"status"`
	RiskLevel      string `json:"risk_level,omitempty"`
	Reason         string `json:"reason,omitempty"`
	ConfirmationID string `json:"confirmation_id,omitempty"`
	ExpiresAt      string `json:"expires_at,omitempty"`
	JobID          string `json:"job_id,omitempty"`
	SessionID      string `json:"session_id,omitempty"`
	Command        string `json:"command,omitempty"`
}

// SendAsyncCommand submits a command for asynchronous execution. A
// blocked command is not an error at this level: the outcome carries the
// refusal so the caller can report it.
func (c *Client) SendAsyncCommand(ctx context.Context, sessionID, command string, estimatedDuration int) (SubmitOutcome, error) {
	var out SubmitOutcome
	body := commandRequest{SessionID: sessionID, Command: command, EstimatedDuration: estimatedDuration}
	err := c.doRequest(ctx, http.MethodPost, "/api/send_async_command", body, &out, http.StatusOK, http.StatusForbidden)
	if err != nil {
		return SubmitOutcome{}, fmt.Errorf("failed to submit command: %w", err)
	}
	return out, nil
}

// RunResult is the response for a synchronous execution. When the
// command needs confirmation instead, Status is "confirmation_required"
// and the ConfirmationID field is set.
type RunResult struct {
	Status         string  `json:"status"`
	Command        string  `json:"command,omitempty"`
	Output         string  `json:"output,omitempty"`
	Error          string  `json:"error,omitempty"`
	ReturnCode     int     `json:"return_code"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	RiskLevel      string  `json:"risk_level,omitempty"`
	Reason         string  `json:"reason,omitempty"`
	ConfirmationID string  `json:"confirmation_id,omitempty"`
}

// RunCommand executes a command synchronously, blocking until it finishes.
func (c *Client) RunCommand(ctx context.Context, sessionID, command string) (RunResult, error) {
	var res RunResult
	body := commandRequest{SessionID: sessionID, Command: command}
	err := c.doRequest(ctx, http.MethodPost, "/api/run_command", body, &res, http.StatusOK, http.StatusForbidden)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to run command: %w", err)
	}
	return res, nil
}

// JobStatus fetches the current job snapshot. The id may be a unique
// prefix of the full job ID.
func (c *Client) JobStatus(ctx context.Context, id string) (job.Job, error) {
	var j job.Job
	if err := c.doRequest(ctx, http.MethodGet, "/api/job/"+id, nil, &j, http.StatusOK); err != nil {
		return job.Job{}, fmt.Errorf("failed to fetch job: %w", err)
	}
	return j, nil
}

// ConfirmationStatus fetches the current confirmation state.
func (c *Client) ConfirmationStatus(ctx context.Context, id string) (confirm.Confirmation, error) {
	var conf confirm.Confirmation
	if err := c.doRequest(ctx, http.MethodGet, "/api/confirmation_status/"+id, nil, &conf, http.StatusOK); err != nil {
		return confirm.Confirmation{}, fmt.Errorf("failed to fetch confirmation: %w", err)
	}
	return conf, nil
}

// decisionRequest is the body for POST /api/confirmation_decision/{id}.
type decisionRequest struct {
	Decision string `json:"decision"`
}

// DecisionResult is the response for a recorded decision.
type DecisionResult struct {
	Status         string `json:"status"`
	ConfirmationID string `json:"confirmation_id"`
	JobID          string `json:"job_id,omitempty"`
}

// Decide records an approve or deny decision on a confirmation.
func (c *Client) Decide(ctx context.Context, id, decision string) (DecisionResult, error) {
	var res DecisionResult
	body := decisionRequest{Decision: decision}
	err := c.doRequest(ctx, http.MethodPost, "/api/confirmation_decision/"+id, body, &res, http.StatusOK)
	if err != nil {
		return DecisionResult{}, fmt.Errorf("failed to record decision: %w", err)
	}
	return res, nil
}

// historyResponse is the response for GET /api/command_history/{sid}.
type historyResponse struct {
	SessionID string                 `json:"session_id"`
	History   []session.HistoryEntry `json:"history"`
}

// CommandHistory fetches the session's resolved command history.
func (c *Client) CommandHistory(ctx context.Context, sessionID string) ([]session.HistoryEntry, error) {
	var resp historyResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/command_history/"+sessionID, nil, &resp, http.StatusOK); err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	return resp.History, nil
}

// CloseSession marks a session inactive.
func (c *Client) CloseSession(ctx context.Context, sessionID string) (session.Session, error) {
	var sess session.Session
	err := c.doRequest(ctx, http.MethodPost, "/api/close_session/"+sessionID, nil, &sess, http.StatusOK)
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to close session: %w", err)
	}
	return sess, nil
}

// Health is the response for GET /api/health.
type Health struct {
	Status               string `json:"status"`
	Sessions             int    `json:"sessions"`
	PendingJobs          int    `json:"pending_jobs"`
	PendingConfirmations int    `json:"pending_confirmations"`
	QueueDepth           int    `json:"queue_depth"`
	ActiveWorkers        int    `json:"active_workers"`
}

// HealthCheck fetches server liveness and pipeline stats.
func (c *Client) HealthCheck(ctx context.Context) (Health, error) {
	var h Health
	if err := c.doRequest(ctx, http.MethodGet, "/api/health", nil, &h, http.StatusOK); err != nil {
		return Health{}, fmt.Errorf("failed to fetch health: %w", err)
	}
	return h, nil
}
