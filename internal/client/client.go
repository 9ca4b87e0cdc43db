// Package client is a typed HTTP client for the todo API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"todoapp/internal/dto"
)

type (
	Todo        = dto.TodoResponse
	CreateInput = dto.CreateTodoRequest
	UpdateInput = dto.UpdateTodoRequest
)

// Filters narrows List. The zero value lists everything.
type Filters struct {
	Completed *bool
	Priority  string
}

// Values encodes the filters as query parameters.
func (f Filters) Values() url.Values {
	v := url.Values{}
	if f.Completed != nil {
		v.Set("completed", strconv.FormatBool(*f.Completed))
	}
	if f.Priority != "" {
		v.Set("priority", f.Priority)
	}
	return v
}

// Key is a stable representation for cache keys: "all" or e.g. "completed=true&priority=HIGH".
func (f Filters) Key() string {
	if s := f.Values().Encode(); s != "" {
		return s
	}
	return "all"
}

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status  int
	Message string
	Details []string
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%d: %s", e.Status, strings.Join(e.Details, ", "))
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *APIError
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

type Option func(*Client)

// WithHTTPClient replaces the default client. Session cookies only persist if it has a jar.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBearerToken authenticates with a token instead of the session cookie.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New returns a client for the API rooted at baseURL (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/api",
		httpClient: &http.Client{Jar: jar, Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Register(ctx context.Context, username, password string) (dto.UserResponse, error) {
	var out dto.DataResponse[dto.SessionResponse]
	err := c.do(ctx, http.MethodPost, "/auth/register", dto.RegisterRequest{Username: username, Password: password}, &out)
	return out.Data.User, err
}

func (c *Client) Login(ctx context.Context, username, password string) (dto.UserResponse, error) {
	var out dto.DataResponse[dto.SessionResponse]
	err := c.do(ctx, http.MethodPost, "/auth/login", dto.LoginRequest{Username: username, Password: password}, &out)
	return out.Data.User, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// IssueToken exchanges the current session for a bearer token.
func (c *Client) IssueToken(ctx context.Context) (dto.TokenResponse, error) {
	var out dto.DataResponse[dto.TokenResponse]
	err := c.do(ctx, http.MethodPost, "/auth/token", nil, &out)
	return out.Data, err
}

func (c *Client) List(ctx context.Context, f Filters) ([]Todo, error) {
	path := "/todos"
	if q := f.Values().Encode(); q != "" {
		path += "?" + q
	}
	var out dto.DataResponse[[]Todo]
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Data, err
}

func (c *Client) Get(ctx context.Context, id string) (Todo, error) {
	var out dto.DataResponse[Todo]
	err := c.do(ctx, http.MethodGet, "/todos/"+url.PathEscape(id), nil, &out)
	return out.Data, err
}

func (c *Client) Create(ctx context.Context, in CreateInput) (Todo, error) {
	var out dto.DataResponse[Todo]
	err := c.do(ctx, http.MethodPost, "/todos", in, &out)
	return out.Data, err
}

func (c *Client) Update(ctx context.Context, id string, in UpdateInput) (Todo, error) {
	var out dto.DataResponse[Todo]
	err := c.do(ctx, http.MethodPatch, "/todos/"+url.PathEscape(id), in, &out)
	return out.Data, err
}

func (c *Client) Toggle(ctx context.Context, id string) (Todo, error) {
	var out dto.DataResponse[Todo]
	err := c.do(ctx, http.MethodPatch, "/todos/"+url.PathEscape(id)+"/toggle", nil, &out)
	return out.Data, err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/todos/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: "An unexpected error occurred"}
	}
	var env dto.ErrorResponse
	if err := json.Unmarshal(data, &env); err != nil || env.Error == "" {
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}
	return &APIError{Status: resp.StatusCode, Message: env.Error, Details: env.Details}
}
