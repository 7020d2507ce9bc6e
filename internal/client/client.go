// Package client implements the consumer side of the task API: a
// thin HTTP client speaking the server's JSON contract and a
// TaskCache keeping an optimistic in-memory mirror of the signed-in
// user's tasks for the planner UI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/iliyamo/task-planner/internal/model"
)

// ErrUnauthenticated is returned before any network I/O when the
// session carries no access token.
var ErrUnauthenticated = errors.New("unauthenticated")

// Session is the explicit authentication state passed into the
// client. It is populated at login and cleared at logout by the
// caller; nothing here reads ambient global storage.
type Session struct {
	AccessToken string
}

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %d %s", e.Status, e.Message)
}

// Client talks to the task-planner server. BaseURL has no trailing
// slash, e.g. "http://localhost:8080".
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTP: http.DefaultClient}
}

// listEnvelope mirrors the GET /v1/tasks response shape.
type listEnvelope struct {
	Tasks []model.Task `json:"tasks"`
}

// TaskPatch is the wire form of a partial update; nil fields are
// omitted from the request body.
type TaskPatch struct {
	Title    *string `json:"title,omitempty"`
	Date     *string `json:"date,omitempty"`
	Status   *string `json:"status,omitempty"`
	Priority *string `json:"priority,omitempty"`
	Order    *int    `json:"order,omitempty"`
}

// TaskDraft is the body of a create call. Status and priority may be
// empty; the server fills in pending/medium.
type TaskDraft struct {
	Title    string `json:"title"`
	Date     string `json:"date"`
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// ReorderItem pairs a task id with its new manual position for
// bulk-update.
type ReorderItem struct {
	ID    uint64 `json:"id"`
	Order int    `json:"order"`
}

// ListTasks fetches the user's tasks. A response whose tasks field is
// missing or malformed yields an empty list rather than an error:
// the UI must never crash on an unexpected body.
func (c *Client) ListTasks(ctx context.Context, s Session) ([]model.Task, error) {
	body, err := c.do(ctx, s, http.MethodGet, "/v1/tasks?limit=100", nil)
	if err != nil {
		return nil, err
	}
	var env listEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Tasks == nil {
		return []model.Task{}, nil
	}
	return env.Tasks, nil
}

// CreateTask persists a new task and returns the server-assigned row.
func (c *Client) CreateTask(ctx context.Context, s Session, d TaskDraft) (model.Task, error) {
	body, err := c.do(ctx, s, http.MethodPost, "/v1/tasks", d)
	if err != nil {
		return model.Task{}, err
	}
	var t model.Task
	if err := json.Unmarshal(body, &t); err != nil {
		return model.Task{}, fmt.Errorf("decode task: %w", err)
	}
	return t, nil
}

// PatchTask applies a partial update and returns the updated row.
func (c *Client) PatchTask(ctx context.Context, s Session, id uint64, p TaskPatch) (model.Task, error) {
	body, err := c.do(ctx, s, http.MethodPatch, "/v1/tasks/"+strconv.FormatUint(id, 10), p)
	if err != nil {
		return model.Task{}, err
	}
	var t model.Task
	if err := json.Unmarshal(body, &t); err != nil {
		return model.Task{}, fmt.Errorf("decode task: %w", err)
	}
	return t, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, s Session, id uint64) error {
	_, err := c.do(ctx, s, http.MethodDelete, "/v1/tasks/"+strconv.FormatUint(id, 10), nil)
	return err
}

// BulkUpdate persists new manual positions for a set of tasks.
func (c *Client) BulkUpdate(ctx context.Context, s Session, items []ReorderItem) error {
	_, err := c.do(ctx, s, http.MethodPost, "/v1/tasks/bulk-update",
		map[string][]ReorderItem{"tasks": items})
	return err
}

// do performs one authenticated request and returns the raw response
// body. It fails fast with ErrUnauthenticated when the session holds
// no token, so no network I/O happens for signed-out callers.
func (c *Client) do(ctx context.Context, s Session, method, path string, payload any) ([]byte, error) {
	if s.AccessToken == "" {
		return nil, ErrUnauthenticated
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := "request failed"
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	return raw, nil
}
