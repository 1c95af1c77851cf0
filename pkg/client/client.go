// Package client is the Go client for the Momentum API: a thin typed REST
// layer plus an optimistic board store that applies mutations locally before
// the server confirms them.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a typed HTTP client for the Momentum REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client for the given API base URL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken sets the bearer token used for authenticated calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// envelope is the server's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		message := env.Message
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: message}
	}

	if out != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

// Credentials holds a login result.
type Credentials struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
	ExpiresIn   int    `json:"expires_in"`
}

// Login authenticates and stores the access token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*Credentials, error) {
	var creds Credentials
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &creds)
	if err != nil {
		return nil, err
	}
	c.token = creds.AccessToken
	return &creds, nil
}

// Register creates an account and stores the access token on the client.
func (c *Client) Register(ctx context.Context, email, username, password string) (*Credentials, error) {
	var creds Credentials
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	}, &creds)
	if err != nil {
		return nil, err
	}
	c.token = creds.AccessToken
	return &creds, nil
}

// FetchBoard loads a project's full board.
func (c *Client) FetchBoard(ctx context.Context, projectID string) (*Board, error) {
	var board Board
	if err := c.do(ctx, http.MethodGet, "/api/projects/"+projectID+"/board", nil, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// CreateProject creates a project.
func (c *Client) CreateProject(ctx context.Context, name string) (*Project, error) {
	var project Project
	err := c.do(ctx, http.MethodPost, "/api/projects", map[string]string{"name": name}, &project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateTaskRequest is the body for task creation.
type CreateTaskRequest struct {
	TaskGroupID string `json:"taskGroupId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Position    *int   `json:"position,omitempty"`
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTaskRequest is the body for task updates and moves.
type UpdateTaskRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	TaskGroupID *string `json:"taskGroupId,omitempty"`
	Position    *int    `json:"position,omitempty"`
	Complete    *bool   `json:"complete,omitempty"`
	Priority    *string `json:"priority,omitempty"`
}

// UpdateTask edits or moves a task.
func (c *Client) UpdateTask(ctx context.Context, taskID string, req UpdateTaskRequest) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+taskID, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+taskID, nil, nil)
}

// CreateTaskGroupRequest is the body for group creation.
type CreateTaskGroupRequest struct {
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
	Position  *int   `json:"position,omitempty"`
}

// CreateTaskGroup creates a board column.
func (c *Client) CreateTaskGroup(ctx context.Context, req CreateTaskGroupRequest) (*TaskGroup, error) {
	var group TaskGroup
	if err := c.do(ctx, http.MethodPost, "/api/task-groups", req, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// UpdateTaskGroupRequest is the body for group rename/reposition.
type UpdateTaskGroupRequest struct {
	Name     *string `json:"name,omitempty"`
	Position *int    `json:"position,omitempty"`
}

// UpdateTaskGroup renames or repositions a board column.
func (c *Client) UpdateTaskGroup(ctx context.Context, groupID string, req UpdateTaskGroupRequest) (*TaskGroup, error) {
	var group TaskGroup
	if err := c.do(ctx, http.MethodPatch, "/api/task-groups/"+groupID, req, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// DeleteTaskGroup removes a board column and its tasks.
func (c *Client) DeleteTaskGroup(ctx context.Context, groupID string) error {
	return c.do(ctx, http.MethodDelete, "/api/task-groups/"+groupID, nil, nil)
}
