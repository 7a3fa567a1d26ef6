// Package sandboxapi is a client for a remote sandbox service: sandboxes are
// created and deleted over REST, commands run through process/run, and a
// session WebSocket is held open for as long as the sandbox is in use.
package sandboxapi

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

	"github.com/gorilla/websocket"
)

// DefaultTimeout bounds each REST request when no HTTP client is supplied.
const DefaultTimeout = 30 * time.Second

// Options configures a Client.
type Options struct {
	// APIKey is sent as a Bearer token when set.
	APIKey string
	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
	// HTTPClient overrides the REST transport.
	HTTPClient *http.Client
	// Dialer overrides the WebSocket dialer.
	Dialer *websocket.Dialer
}

// Client talks to one sandbox service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

// New creates a client for the service at baseURL (http or https).
func New(baseURL string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	dialer := opts.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: timeout,
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     opts.APIKey,
		httpClient: httpClient,
		dialer:     dialer,
	}
}

// Sandbox is a remote sandbox as reported by the service.
type Sandbox struct {
	ID        string            `json:"id"`
	Name      string            `json:"name,omitempty"`
	Template  string            `json:"template,omitempty"`
	State     string            `json:"state"`
	Env       map[string]string `json:"env,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// CreateSandboxParams is the body of a create request.
type CreateSandboxParams struct {
	Name     string            `json:"name,omitempty"`
	Template string            `json:"template,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// RunRequest is the body of a process/run request.
type RunRequest struct {
	Command string            `json:"command"`
	Env     map[string]string `json:"env,omitempty"`
	Cwd     string            `json:"cwd,omitempty"`
	Stdin   string            `json:"stdin,omitempty"`
	// Timeout is in seconds; zero leaves it to the service.
	Timeout int `json:"timeout,omitempty"`
}

// CommandResult is the outcome of process/run.
type CommandResult struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// CreateSandbox provisions a new sandbox.
func (c *Client) CreateSandbox(ctx context.Context, params CreateSandboxParams) (*Sandbox, error) {
	var sandbox Sandbox
	if err := c.do(ctx, http.MethodPost, "/sandboxes", params, &sandbox); err != nil {
		return nil, err
	}
	if sandbox.ID == "" {
		return nil, fmt.Errorf("service returned a sandbox without an id")
	}
	return &sandbox, nil
}

// GetSandbox fetches one sandbox.
func (c *Client) GetSandbox(ctx context.Context, id string) (*Sandbox, error) {
	var sandbox Sandbox
	if err := c.do(ctx, http.MethodGet, "/sandboxes/"+url.PathEscape(id), nil, &sandbox); err != nil {
		return nil, err
	}
	return &sandbox, nil
}

// DeleteSandbox removes a sandbox. force also kills running processes.
func (c *Client) DeleteSandbox(ctx context.Context, id string, force bool) error {
	path := "/sandboxes/" + url.PathEscape(id)
	if force {
		path += "?force=true"
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Run executes a command in the sandbox and waits for it to finish.
func (c *Client) Run(ctx context.Context, id string, req RunRequest) (*CommandResult, error) {
	var result CommandResult
	path := "/sandboxes/" + url.PathEscape(id) + "/process/run"
	if err := c.do(ctx, http.MethodPost, path, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health checks if the service is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) authHeader() http.Header {
	header := http.Header{}
	if c.apiKey != "" {
		header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return header
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	endpoint := c.baseURL + "/api/v1" + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = c.authHeader()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ConnectionError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseErrorResponse(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

func parseErrorResponse(statusCode int, body []byte) error {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch {
		case errResp.Error != "":
			msg = errResp.Error
		case errResp.Message != "":
			msg = errResp.Message
		}
	}
	if msg == "" {
		msg = http.StatusText(statusCode)
	}

	return &APIError{StatusCode: statusCode, Message: msg}
}

// websocketURL converts the base URL scheme to ws/wss.
func (c *Client) websocketURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL + "/api/v1" + path)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	return u.String(), nil
}
