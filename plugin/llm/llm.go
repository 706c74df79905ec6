// Package llm is a minimal client for OpenAI-compatible chat-completions
// endpoints, covering exactly the surface the agent needs: messages in,
// one assistant message (text or tool calls) out.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Message is one entry in the model-facing conversation.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a model-requested function invocation.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the requested function name and its JSON-encoded
// arguments exactly as the model produced them.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// BuildToolDef constructs an OpenAI-compatible tool definition map.
func BuildToolDef(name, description string, properties map[string]any, required []string) map[string]any {
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        name,
			"description": description,
			"parameters": map[string]any{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		},
	}
}

// Client talks to one OpenAI-compatible provider.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		timeout:    timeout,
		httpClient: http.DefaultClient,
	}
}

// ChatCompletion sends one completion request and returns the assistant
// message of the first choice. Any transport failure, non-2xx status or
// malformed body comes back as an error for the caller to classify.
func (c *Client) ChatCompletion(ctx context.Context, messages []Message, toolDefs []map[string]any) (*Message, error) {
	reqBody := map[string]any{
		"model":    c.model,
		"messages": messages,
	}
	if len(toolDefs) > 0 {
		reqBody["tools"] = toolDefs
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode request")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions",
		bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "completion request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("completion request returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var apiResp struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, errors.Wrap(err, "failed to decode completion response")
	}
	if len(apiResp.Choices) == 0 {
		return nil, errors.New("empty response from model")
	}
	return &apiResp.Choices[0].Message, nil
}
