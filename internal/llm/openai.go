package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"heartbot/internal/metrics"
)

const (
	// SystemPrompt frames every completion as the heart-failure assistant.
	SystemPrompt = "你是一個醫療助手，專門回答關於心臟衰竭的問題。使用提供的心臟衰竭數據來回答問題。"
	// Fallback is returned to the user whenever the completion fails.
	Fallback = "對不起，我無法處理你的請求。"

	// DefaultBaseURL is the public OpenAI API host.
	DefaultBaseURL = "https://api.openai.com"
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-3.5-turbo"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Client calls the OpenAI chat completions endpoint.
type Client struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	HTTP        *http.Client
}

// NewClient returns a client with the assistant's default sampling settings.
func NewClient(apiKey, model, baseURL string, hc *http.Client) *Client {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		APIKey:      apiKey,
		Model:       model,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Temperature: 0.7,
		MaxTokens:   500,
		HTTP:        hc,
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// Complete sends the transcript as the user turn and returns the trimmed answer.
func (c *Client) Complete(ctx context.Context, transcript string) (string, error) {
	payload := chatRequest{
		Model: c.Model,
		Messages: []Message{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: transcript},
		},
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/chat/completions", bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai request failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("openai invalid json: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// Completer produces a completion for a transcript.
type Completer interface {
	Complete(ctx context.Context, transcript string) (string, error)
}

// Assistant wraps a Completer and never fails: errors become Fallback.
type Assistant struct {
	completer Completer
}

// NewAssistant wraps c.
func NewAssistant(c Completer) *Assistant {
	return &Assistant{completer: c}
}

// Reply answers the transcript or returns Fallback.
func (a *Assistant) Reply(ctx context.Context, transcript string) string {
	answer, err := a.completer.Complete(ctx, transcript)
	if err != nil {
		metrics.LLMRequests.WithLabelValues("error").Inc()
		log.Printf("llm error: %v", err)
		return Fallback
	}
	metrics.LLMRequests.WithLabelValues("success").Inc()
	return answer
}
