// Package lookup asks the Anthropic Messages API for word definitions and
// passage summaries.
package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("lookup: no API key configured")

const defaultBaseURL = "https://api.anthropic.com"

// Definition is the result of a word lookup.
type Definition struct {
	Definition   string `json:"definition"`
	Translation  string `json:"translation"`
	PartOfSpeech string `json:"partOfSpeech"`
	Example      string `json:"example"`
	Phonetic     string `json:"phonetic"`
}

// Client calls the Anthropic Messages API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger

	// backoff is the wait before retry attempt n.
	backoff func(attempt int) time.Duration
}

func NewClient(apiKey, model, baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log:     log,
		backoff: Backoff,
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// GetDefinition defines word as used in the surrounding context, with a
// translation into lang.
func (c *Client) GetDefinition(ctx context.Context, word, passage, lang string) (Definition, error) {
	var def Definition
	text, err := c.complete(ctx, definitionSystem, definitionPrompt(word, passage, lang), 1024)
	if err != nil {
		return def, err
	}
	text = stripCodeBlock(text)
	if err := json.Unmarshal([]byte(text), &def); err != nil {
		return def, fmt.Errorf("parse definition json: %w (raw: %s)", err, truncate(text, 200))
	}
	if strings.TrimSpace(def.Definition) == "" {
		return def, fmt.Errorf("empty definition for %q", word)
	}
	return def, nil
}

// Summarize returns a short summary of text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	out, err := c.complete(ctx, summarySystem, summaryPrompt(text), 1024)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// complete sends one message, retrying transient failures.
func (c *Client) complete(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}
	var (
		text    string
		lastErr error
	)
	for attempt := range MaxRetries + 1 {
		text, lastErr = c.send(ctx, system, prompt, maxTokens)
		if lastErr == nil || !IsRetryable(lastErr) || attempt == MaxRetries {
			break
		}
		c.log.Warn().Err(lastErr).Int("attempt", attempt).Msg("retryable lookup error")
		select {
		case <-time.After(c.backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return text, lastErr
}

func (c *Client) send(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	reqBody := anthropicRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("claude api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("claude api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("claude error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("empty response from claude")
	}
	return apiResp.Content[0].Text, nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
