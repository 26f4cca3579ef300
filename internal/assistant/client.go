package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL      = "https://api.openai.com/v1"
	defaultTimeout      = 30 * time.Second
	defaultRunTimeout   = 2 * time.Minute
	defaultPollInterval = 500 * time.Millisecond
)

// ErrMissingCredentials signals a configuration error: the caller supplied
// no API key or no assistant id. It is rejected before any remote call.
var ErrMissingCredentials = errors.New("missing OpenAI API key or assistant ID")

// Credentials identify one tenant's assistant. Every API call carries its
// own credentials; the client holds none.
type Credentials struct {
	APIKey      string
	AssistantID string
}

// Validate checks that both fields are present.
func (c Credentials) Validate() error {
	if c.APIKey == "" || c.AssistantID == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Client provides access to the OpenAI Assistants API
type Client struct {
	httpClient   *http.Client
	baseURL      string
	runTimeout   time.Duration
	pollInterval time.Duration
	logger       *zap.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL overrides the API endpoint, mainly for tests
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithRunTimeout sets the poll-to-completion budget for runs
func WithRunTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.runTimeout = timeout
	}
}

// NewClient creates a new OpenAI Assistants API client
func NewClient(logger *zap.Logger, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL:      defaultBaseURL,
		runTimeout:   defaultRunTimeout,
		pollInterval: defaultPollInterval,
		logger:       logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = zap.NewNop()
	}

	return c
}

// Assistant represents an OpenAI Assistant
type Assistant struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
	Model        string `json:"model"`
}

// GetAssistant retrieves the assistant the credentials point at. Used to
// validate a tenant's configuration when a company is registered.
func (c *Client) GetAssistant(ctx context.Context, creds Credentials) (*Assistant, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+"/assistants/"+creds.AssistantID, nil)
	if err != nil {
		return nil, err
	}

	c.setHeaders(req, creds.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleError(resp)
	}

	var assistant Assistant
	if err := json.NewDecoder(resp.Body).Decode(&assistant); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &assistant, nil
}

// setHeaders sets the required headers for API requests
func (c *Client) setHeaders(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OpenAI-Beta", "assistants=v2")
}

// newRequest is a helper to create HTTP requests
func (c *Client) newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return req, nil
}

// APIError represents an error from the OpenAI API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("OpenAI API error (status %d): %s", e.StatusCode, e.Message)
}

// handleError processes error responses from the API
func (c *Client) handleError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	// Truncate for logging if too long
	logBody := bodyStr
	if len(logBody) > 500 {
		logBody = logBody[:500] + "..."
	}
	c.logger.Warn("OpenAI API error",
		zap.Int("status", resp.StatusCode),
		zap.String("body", logBody))

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    bodyStr,
	}
}
