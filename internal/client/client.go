// Package client talks to a running todod server over HTTP.
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
	"strings"

	"github.com/toumakido/my-claude/todod/internal/handler"
	"github.com/toumakido/my-claude/todod/internal/model"
)

// ErrNotFound is returned by Get and Update for an unknown id.
var ErrNotFound = errors.New("todo not found")

// StatusError is returned for any other non-2xx response.
type StatusError struct {
	Method string
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, http.StatusText(e.Status))
}

// Client is a typed client for the todos API.
type Client struct {
	base string
	http *http.Client
}

// New returns a client for the server at baseURL (scheme, host and any base
// path, e.g. http://localhost:8082/api).
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	base := strings.TrimRight(baseURL, "/")
	if i := strings.Index(base, "://"); i >= 0 {
		scheme, rest := base[:i+3], base[i+3:]
		host, path, _ := strings.Cut(rest, "/")
		base = scheme + host + handler.Prefix(path)
	}
	return &Client{base: base, http: hc}
}

func (c *Client) List(ctx context.Context) ([]model.Todo, error) {
	var todos []model.Todo
	if err := c.do(ctx, http.MethodGet, "", nil, http.StatusOK, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

func (c *Client) Get(ctx context.Context, id int) (model.Todo, error) {
	var todo model.Todo
	err := c.do(ctx, http.MethodGet, "/"+strconv.Itoa(id), nil, http.StatusOK, &todo)
	return todo, err
}

// Create posts todo. An ID of zero lets the server pick one.
func (c *Client) Create(ctx context.Context, todo model.Todo) (model.Todo, error) {
	var out model.Todo
	err := c.do(ctx, http.MethodPost, "", todo, http.StatusCreated, &out)
	return out, err
}

// Update merges the set fields of patch into the stored todo.
func (c *Client) Update(ctx context.Context, id int, patch model.Todo) (model.Todo, error) {
	body := map[string]any{}
	if patch.Title != nil {
		body["title"] = *patch.Title
	}
	if patch.Completed != nil {
		body["completed"] = *patch.Completed
	}
	if patch.Order != nil {
		body["order"] = *patch.Order
	}
	var out model.Todo
	err := c.do(ctx, http.MethodPatch, "/"+strconv.Itoa(id), body, http.StatusOK, &out)
	return out, err
}

func (c *Client) Delete(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/"+strconv.Itoa(id), nil, http.StatusNoContent, nil)
}

func (c *Client) DeleteAll(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "", nil, http.StatusNoContent, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in any, want int, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	url := c.base + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && path != "" {
		return fmt.Errorf("%w: %s", ErrNotFound, strings.TrimPrefix(path, "/"))
	}
	if resp.StatusCode != want {
		return &StatusError{Method: method, URL: url, Status: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
