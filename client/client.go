// Package client talks to the SimpleTodo HTTP API and keeps an optimistic,
// locally reconciled view of the user's tasks.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
)

const todosPath = "/api/todos"

// API is the task surface used by TaskState. *Client implements it.
type API interface {
	List(ctx context.Context, q domain.ListQuery) (domain.List, error)
	Get(ctx context.Context, id string) (domain.Item, error)
	Create(ctx context.Context, p domain.CreatePayload) (domain.Item, error)
	Update(ctx context.Context, id string, p domain.UpdatePayload) (domain.Item, error)
	Toggle(ctx context.Context, id string, completed bool) (domain.StatusChange, error)
	Delete(ctx context.Context, id string) error
}

var _ API = (*Client)(nil)

// APIError is the error object carried in a non-2xx response body.
type APIError struct {
	Code    domain.Kind    `json:"code"`
	Message string         `json:"message"`
	Details []domain.Issue `json:"details,omitempty"`
}

// StatusError is returned for any failed call. Status is 0 when the request
// never got a response.
type StatusError struct {
	Status int
	API    *APIError
	Err    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Error %d", e.Status)
}

// Unwrap exposes the transport error, or the server's error as a
// *domain.Error so errors.Is(err, domain.ErrNotFound) works.
func (e *StatusError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	if e.API != nil {
		return &domain.Error{Kind: e.API.Code, Message: e.API.Message, Details: e.API.Details}
	}
	return nil
}

// Kind returns the server's error code, or INTERNAL_ERROR when there is none.
func (e *StatusError) Kind() domain.Kind {
	if e.API == nil || e.API.Code == "" {
		return domain.KindInternal
	}
	return e.API.Code
}

// Client is a thin JSON client for /api/todos.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a client for the API served at baseURL, e.g. http://localhost:3000.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches one page of tasks. Zero query fields are left to server defaults.
func (c *Client) List(ctx context.Context, q domain.ListQuery) (domain.List, error) {
	var out domain.List
	err := c.do(ctx, http.MethodGet, todosPath+encodeQuery(q), nil, &out)
	return out, err
}

func (c *Client) Get(ctx context.Context, id string) (domain.Item, error) {
	var out domain.Item
	err := c.do(ctx, http.MethodGet, itemPath(id), nil, &out)
	return out, err
}

func (c *Client) Create(ctx context.Context, p domain.CreatePayload) (domain.Item, error) {
	var out domain.Item
	err := c.do(ctx, http.MethodPost, todosPath, p, &out)
	return out, err
}

// Update sends only the fields set in p.
func (c *Client) Update(ctx context.Context, id string, p domain.UpdatePayload) (domain.Item, error) {
	var out domain.Item
	err := c.do(ctx, http.MethodPut, itemPath(id), p, &out)
	return out, err
}

func (c *Client) Toggle(ctx context.Context, id string, completed bool) (domain.StatusChange, error) {
	var out domain.StatusChange
	err := c.do(ctx, http.MethodPatch, itemPath(id), domain.TogglePayload{Completed: completed}, &out)
	return out, err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, itemPath(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &StatusError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &StatusError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &StatusError{Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func statusError(resp *http.Response) *StatusError {
	se := &StatusError{Status: resp.StatusCode}
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		se.API = envelope.Error
	}
	return se
}

func itemPath(id string) string {
	return todosPath + "/" + url.PathEscape(id)
}

func encodeQuery(q domain.ListQuery) string {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Sort != "" {
		v.Set("sort", string(q.Sort))
	}
	if q.Order != "" {
		v.Set("order", string(q.Order))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// IsStatus reports whether err is a StatusError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}
