package trackerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxBodyBytes caps how much of a response body the client will read.
const maxBodyBytes = 4 << 20

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Code, e.Body)
}

// Client talks to the tracker API. It never retries.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewClient creates a Client for the given base URL. A zero timeout means
// requests wait for the server indefinitely.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	return &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: NewTransport(http.DefaultTransport, logger),
		},
	}, nil
}

// Search queries the kind's search endpoint.
func (c *Client) Search(ctx context.Context, kind Kind, query string) ([]SearchRecord, error) {
	spec, err := Spec(kind)
	if err != nil {
		return nil, err
	}

	u := c.resolve(spec.SearchPath)
	u.RawQuery = url.Values{"query": {query}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var records []SearchRecord
	if err := c.do(req, strings.TrimPrefix(spec.SearchPath, "/"), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Add starts tracking name for username and returns the updated list.
func (c *Client) Add(ctx context.Context, kind Kind, username, name string) ([]TrackedItem, error) {
	spec, err := Spec(kind)
	if err != nil {
		return nil, err
	}
	return c.mutate(ctx, spec.AddPath, spec.NameField, username, name)
}

// Delete stops tracking name for username and returns the updated list.
// Items are identified by display name only.
func (c *Client) Delete(ctx context.Context, kind Kind, username, name string) ([]TrackedItem, error) {
	spec, err := Spec(kind)
	if err != nil {
		return nil, err
	}
	return c.mutate(ctx, spec.DeletePath, spec.NameField, username, name)
}

func (c *Client) mutate(ctx context.Context, path, field, username, name string) ([]TrackedItem, error) {
	req, err := c.postJSON(ctx, path, map[string]string{
		"username": username,
		field:      name,
	})
	if err != nil {
		return nil, err
	}

	var items []TrackedItem
	if err := c.do(req, strings.TrimPrefix(path, "/"), &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []TrackedItem{}
	}
	return items, nil
}

// CreateAccount registers username. Only the status code is inspected.
func (c *Client) CreateAccount(ctx context.Context, username string) error {
	req, err := c.postJSON(ctx, "/login/create_account", map[string]string{"username": username})
	if err != nil {
		return err
	}
	return c.do(req, "create_account", nil)
}

// Login authenticates username. Only the status code is inspected.
func (c *Client) Login(ctx context.Context, username string) error {
	req, err := c.postJSON(ctx, "/login/", map[string]string{"username": username})
	if err != nil {
		return err
	}
	return c.do(req, "login", nil)
}

// AccountPath returns the account page path for username.
func AccountPath(username string) string {
	return "/account/" + url.PathEscape(username)
}

func (c *Client) resolve(path string) *url.URL {
	return c.baseURL.ResolveReference(&url.URL{Path: path})
}

func (c *Client) postJSON(ctx context.Context, path string, body any) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(path).String(), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends req and decodes a 2xx JSON body into out when out is non-nil.
func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("%s: reading response body: %w", op, err)
	}
	if len(body) > maxBodyBytes {
		return fmt.Errorf("%s: response exceeds %d byte limit", op, maxBodyBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}
