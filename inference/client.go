// Package inference provides a thin client for the external conversational
// inference provider (assistants, threads, messages, jobs).
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/intraportal/portal-assistant/domain"
)

// Client is the narrow adapter the orchestrator talks through. Every call is
// a direct passthrough to the provider; no business logic lives here.
type Client interface {
	CreateAssistant(ctx context.Context, name, instructions string) (string, error)
	GetAssistant(ctx context.Context, assistantID string) error
	CreateThread(ctx context.Context) (string, error)
	PostMessage(ctx context.Context, threadID, role, text string) error
	StartJob(ctx context.Context, threadID, assistantID string) (*domain.Job, error)
	GetJobStatus(ctx context.Context, threadID, jobID string) (*domain.Job, error)
	CancelJob(ctx context.Context, threadID, jobID string) error
	ListJobs(ctx context.Context, threadID string) ([]domain.Job, error)
	ListMessages(ctx context.Context, threadID string) ([]domain.Message, error)
}

// HTTPClient talks to an OpenAI-Assistants-style HTTP API.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewHTTPClient creates a new provider client.
func NewHTTPClient(baseURL, apiKey, model string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Wire types. The provider wraps list results in {data: [...]} envelopes and
// message text in typed content blocks.

type assistantObject struct {
	ID string `json:"id"`
}

type threadObject struct {
	ID string `json:"id"`
}

type runObject struct {
	ID        string        `json:"id"`
	ThreadID  string        `json:"thread_id"`
	Status    string        `json:"status"`
	LastError *runLastError `json:"last_error,omitempty"`
}

type runLastError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type runList struct {
	Data []runObject `json:"data"`
}

type messageObject struct {
	ID        string         `json:"id"`
	ThreadID  string         `json:"thread_id"`
	Role      string         `json:"role"`
	Content   []contentBlock `json:"content"`
	CreatedAt int64          `json:"created_at"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text *struct {
		Value string `json:"value"`
	} `json:"text,omitempty"`
}

type messageList struct {
	Data []messageObject `json:"data"`
}

// errorResponse is the provider's error envelope.
type errorResponse struct {
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// CreateAssistant provisions a new assistant persona and returns its id.
func (c *HTTPClient) CreateAssistant(ctx context.Context, name, instructions string) (string, error) {
	payload := map[string]string{
		"name":         name,
		"instructions": instructions,
		"model":        c.model,
	}
	var out assistantObject
	if err := c.doJSON(ctx, http.MethodPost, "/v1/assistants", payload, &out); err != nil {
		return "", &domain.TransportError{Op: "create-assistant", Err: err}
	}
	return out.ID, nil
}

// GetAssistant verifies that the configured assistant persona is reachable.
func (c *HTTPClient) GetAssistant(ctx context.Context, assistantID string) error {
	var out assistantObject
	if err := c.doJSON(ctx, http.MethodGet, "/v1/assistants/"+assistantID, nil, &out); err != nil {
		return &domain.TransportError{Op: "get-assistant", Err: err}
	}
	return nil
}

// CreateThread creates a new remote conversation thread and returns its id.
func (c *HTTPClient) CreateThread(ctx context.Context) (string, error) {
	var out threadObject
	if err := c.doJSON(ctx, http.MethodPost, "/v1/threads", map[string]string{}, &out); err != nil {
		return "", &domain.TransportError{Op: "create-thread", Err: err}
	}
	return out.ID, nil
}

// PostMessage appends a message to a thread.
func (c *HTTPClient) PostMessage(ctx context.Context, threadID, role, text string) error {
	payload := map[string]string{
		"role":    role,
		"content": text,
	}
	var out messageObject
	if err := c.doJSON(ctx, http.MethodPost, "/v1/threads/"+threadID+"/messages", payload, &out); err != nil {
		return &domain.TransportError{Op: "post-message", Err: err}
	}
	return nil
}

// StartJob starts a new inference job on a thread.
func (c *HTTPClient) StartJob(ctx context.Context, threadID, assistantID string) (*domain.Job, error) {
	payload := map[string]string{
		"assistant_id": assistantID,
	}
	var out runObject
	if err := c.doJSON(ctx, http.MethodPost, "/v1/threads/"+threadID+"/runs", payload, &out); err != nil {
		return nil, &domain.TransportError{Op: "start-job", Err: err}
	}
	job := toJob(out)
	return &job, nil
}

// GetJobStatus fetches the current state of a job.
func (c *HTTPClient) GetJobStatus(ctx context.Context, threadID, jobID string) (*domain.Job, error) {
	var out runObject
	if err := c.doJSON(ctx, http.MethodGet, "/v1/threads/"+threadID+"/runs/"+jobID, nil, &out); err != nil {
		return nil, &domain.TransportError{Op: "get-job-status", Err: err}
	}
	job := toJob(out)
	return &job, nil
}

// CancelJob asks the provider to cancel a job.
func (c *HTTPClient) CancelJob(ctx context.Context, threadID, jobID string) error {
	var out runObject
	if err := c.doJSON(ctx, http.MethodPost, "/v1/threads/"+threadID+"/runs/"+jobID+"/cancel", map[string]string{}, &out); err != nil {
		return &domain.TransportError{Op: "cancel-job", Err: err}
	}
	return nil
}

// ListJobs lists jobs on a thread, most recent first.
func (c *HTTPClient) ListJobs(ctx context.Context, threadID string) ([]domain.Job, error) {
	var out runList
	if err := c.doJSON(ctx, http.MethodGet, "/v1/threads/"+threadID+"/runs", nil, &out); err != nil {
		return nil, &domain.TransportError{Op: "list-jobs", Err: err}
	}
	jobs := make([]domain.Job, 0, len(out.Data))
	for _, r := range out.Data {
		jobs = append(jobs, toJob(r))
	}
	return jobs, nil
}

// ListMessages lists messages on a thread in chronological order.
func (c *HTTPClient) ListMessages(ctx context.Context, threadID string) ([]domain.Message, error) {
	var out messageList
	if err := c.doJSON(ctx, http.MethodGet, "/v1/threads/"+threadID+"/messages?order=asc", nil, &out); err != nil {
		return nil, &domain.TransportError{Op: "list-messages", Err: err}
	}
	messages := make([]domain.Message, 0, len(out.Data))
	for _, m := range out.Data {
		messages = append(messages, domain.Message{
			MessageID: m.ID,
			ThreadID:  m.ThreadID,
			Role:      m.Role,
			Content:   joinText(m.Content),
			CreatedAt: time.Unix(m.CreatedAt, 0),
		})
	}
	return messages, nil
}

func toJob(r runObject) domain.Job {
	job := domain.Job{
		JobID:    r.ID,
		ThreadID: r.ThreadID,
		Status:   normalizeStatus(r.Status),
	}
	if r.LastError != nil {
		job.Error = r.LastError.Message
	}
	return job
}

// normalizeStatus maps provider status strings onto the domain enum. The
// provider reports "in_progress" for what this service calls running.
func normalizeStatus(s string) domain.JobStatus {
	switch s {
	case "in_progress":
		return domain.JobStatusRunning
	case "cancelling":
		return domain.JobStatusRunning
	default:
		return domain.JobStatus(s)
	}
}

func joinText(blocks []contentBlock) string {
	var parts []string
	for _, b := range blocks {
		if b.Type == "text" && b.Text != nil {
			parts = append(parts, b.Text.Value)
		}
	}
	return strings.Join(parts, "\n")
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != nil {
			return fmt.Errorf("provider error [%d]: %s (type: %s)", resp.StatusCode, errResp.Error.Message, errResp.Error.Type)
		}
		return fmt.Errorf("provider error [%d]: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OpenAI-Beta", "assistants=v2")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
