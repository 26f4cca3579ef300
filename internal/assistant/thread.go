package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Thread represents an OpenAI Thread
type Thread struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
}

// CreateThread creates a new thread
func (c *Client) CreateThread(ctx context.Context, creds Credentials) (*Thread, error) {
	c.logger.Info("CreateThread started")

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/threads", []byte("{}"))
	if err != nil {
		return nil, err
	}

	c.setHeaders(req, creds.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("CreateThread failed: send request", zap.Error(err))
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleError(resp)
	}

	var thread Thread
	if err := json.NewDecoder(resp.Body).Decode(&thread); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Info("CreateThread completed", zap.String("thread_id", thread.ID))
	return &thread, nil
}

// Message represents an OpenAI Thread Message
type Message struct {
	ID        string           `json:"id"`
	Role      string           `json:"role"`
	Content   []MessageContent `json:"content"`
	CreatedAt int64            `json:"created_at"`
}

// MessageContent represents one typed content block of a message
type MessageContent struct {
	Type string      `json:"type"`
	Text *TextObject `json:"text,omitempty"`
}

// TextObject represents text content. Value is a pointer so a block whose
// text object lacks the value field is distinguishable from an empty string.
type TextObject struct {
	Value *string `json:"value,omitempty"`
}

// CreateMessageRequest represents a request to create a message
type CreateMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CreateMessage appends a user-role message to a thread
func (c *Client) CreateMessage(ctx context.Context, creds Credentials, threadID, content string) (*Message, error) {
	// Truncate content for logging
	contentPreview := content
	if len(contentPreview) > 50 {
		contentPreview = contentPreview[:50] + "..."
	}
	c.logger.Info("CreateMessage started",
		zap.String("thread_id", threadID),
		zap.String("content_preview", contentPreview))

	reqBody := CreateMessageRequest{
		Role:    "user",
		Content: content,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/threads/"+threadID+"/messages", body)
	if err != nil {
		return nil, err
	}

	c.setHeaders(req, creds.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("CreateMessage failed: send request",
			zap.String("thread_id", threadID), zap.Error(err))
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleError(resp)
	}

	var message Message
	if err := json.NewDecoder(resp.Body).Decode(&message); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Info("CreateMessage completed",
		zap.String("thread_id", threadID),
		zap.String("message_id", message.ID))
	return &message, nil
}

// ListMessagesResponse represents the response from listing messages
type ListMessagesResponse struct {
	Data []Message `json:"data"`
}

// ListMessages retrieves a thread's messages, newest first
func (c *Client) ListMessages(ctx context.Context, creds Credentials, threadID string) ([]Message, error) {
	c.logger.Info("ListMessages started", zap.String("thread_id", threadID))

	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+"/threads/"+threadID+"/messages", nil)
	if err != nil {
		return nil, err
	}

	c.setHeaders(req, creds.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("ListMessages failed: send request",
			zap.String("thread_id", threadID), zap.Error(err))
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleError(resp)
	}

	var listResp ListMessagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Info("ListMessages completed",
		zap.String("thread_id", threadID),
		zap.Int("message_count", len(listResp.Data)))
	return listResp.Data, nil
}

// Run represents an OpenAI Run
type Run struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	AssistantID string `json:"assistant_id"`
	ThreadID    string `json:"thread_id"`
}

// CreateRunRequest represents a request to create a run
type CreateRunRequest struct {
	AssistantID string `json:"assistant_id"`
}

// CreateRun creates a run to generate a response from the assistant
func (c *Client) CreateRun(ctx context.Context, creds Credentials, threadID string) (*Run, error) {
	c.logger.Info("CreateRun started",
		zap.String("thread_id", threadID),
		zap.String("assistant_id", creds.AssistantID))

	body, err := json.Marshal(CreateRunRequest{AssistantID: creds.AssistantID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/threads/"+threadID+"/runs", body)
	if err != nil {
		return nil, err
	}

	c.setHeaders(req, creds.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("CreateRun failed: send request",
			zap.String("thread_id", threadID), zap.Error(err))
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleError(resp)
	}

	var run Run
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Info("CreateRun completed",
		zap.String("run_id", run.ID),
		zap.String("status", run.Status))
	return &run, nil
}

// GetRun retrieves the status of a run
func (c *Client) GetRun(ctx context.Context, creds Credentials, threadID, runID string) (*Run, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+"/threads/"+threadID+"/runs/"+runID, nil)
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

	var run Run
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &run, nil
}

// WaitForRun polls until the run is complete
func (c *Client) WaitForRun(ctx context.Context, creds Credentials, threadID, runID string, timeout time.Duration) (*Run, error) {
	c.logger.Info("WaitForRun started",
		zap.String("thread_id", threadID),
		zap.String("run_id", runID),
		zap.Duration("timeout", timeout))
	deadline := time.Now().Add(timeout)
	pollCount := 0

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pollCount++
		run, err := c.GetRun(ctx, creds, threadID, runID)
		if err != nil {
			c.logger.Error("WaitForRun failed: GetRun error", zap.Error(err))
			return nil, err
		}

		switch run.Status {
		case "completed":
			c.logger.Info("WaitForRun completed",
				zap.String("run_id", run.ID),
				zap.Int("poll_count", pollCount))
			return run, nil
		case "failed", "cancelled", "expired":
			c.logger.Warn("WaitForRun: run ended",
				zap.String("run_id", run.ID),
				zap.String("status", run.Status))
			return run, fmt.Errorf("run ended with status: %s", run.Status)
		}

		time.Sleep(c.pollInterval)
	}

	c.logger.Warn("WaitForRun timeout",
		zap.String("run_id", runID),
		zap.Int("poll_count", pollCount))
	return nil, fmt.Errorf("timeout waiting for run to complete")
}

// RunToCompletion triggers a run and blocks until it finishes. This is the
// sole long-latency point of a conversation turn; there is no streaming.
func (c *Client) RunToCompletion(ctx context.Context, creds Credentials, threadID string) error {
	run, err := c.CreateRun(ctx, creds, threadID)
	if err != nil {
		return err
	}

	if _, err := c.WaitForRun(ctx, creds, threadID, run.ID, c.runTimeout); err != nil {
		return err
	}

	return nil
}
