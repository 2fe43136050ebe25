// Package api is a typed client for the TaskFlow HTTP API. The session
// cookie is kept in an in-memory jar, so one Client is one signed-in user.
package api

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
	"strings"
	"time"
)

type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// New returns a Client for the server at baseURL.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: u,
		http:    &http.Client{Jar: jar, Timeout: timeout},
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) SendOTP(ctx context.Context, email, password, name string) error {
	in := map[string]string{"email": email, "password": password, "name": name}
	return c.do(ctx, http.MethodPost, "/api/send-otp", in, nil)
}

// VerifyOTP completes registration and leaves the client signed in.
func (c *Client) VerifyOTP(ctx context.Context, email, otp, password, name string) (*User, error) {
	in := map[string]string{"email": email, "otp": otp, "password": password, "name": name}
	var u User
	if err := c.do(ctx, http.MethodPost, "/api/verify-otp", in, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Login(ctx context.Context, identifier, password string) (*User, error) {
	in := map[string]string{"identifier": identifier, "password": password}
	var u User
	if err := c.do(ctx, http.MethodPost, "/api/login", in, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/api/user", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	var tasks []Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	var t Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) CreateTask(ctx context.Context, nt NewTask) (*Task, error) {
	var t Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", nt, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, upd TaskUpdate) (*Task, error) {
	var t Task
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), upd, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Prioritize(ctx context.Context, title, description string) (*PrioritySuggestion, error) {
	in := map[string]string{"title": title, "description": description}
	var s PrioritySuggestion
	if err := c.do(ctx, http.MethodPost, "/api/ai/prioritize", in, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Summarize(ctx context.Context, description string) (string, error) {
	var out struct {
		Summary string `json:"summary"`
	}
	in := map[string]string{"description": description}
	if err := c.do(ctx, http.MethodPost, "/api/ai/summarize", in, &out); err != nil {
		return "", err
	}
	return out.Summary, nil
}

// Ping checks that the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}
