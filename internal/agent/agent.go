// Package agent drives the tool-calling conversation loop: it sends the
// user's message to a completion provider, executes whatever task tools the
// model requests, and loops until the model produces a plain text answer.
package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/usetaskchat/taskchat/plugin/llm"
)

// maxAgentRounds caps how many model calls one chat turn may take. Each round
// is either a batch of tool calls or the final answer.
const maxAgentRounds = 5

// exhaustedReply stands in for a final answer when the model keeps calling
// tools until the round cap, or finishes with empty content.
const exhaustedReply = "I'm having trouble completing that request. Could you try rephrasing?"

// ErrInferenceUnavailable reports that no completion could be obtained: there
// is no client configured, or the provider refused before any tool ran.
// Callers switch to the keyword fallback on this error.
var ErrInferenceUnavailable = errors.New("inference unavailable")

// CompletionClient is the slice of plugin/llm the orchestrator needs.
type CompletionClient interface {
	ChatCompletion(ctx context.Context, messages []llm.Message, toolDefs []map[string]any) (*llm.Message, error)
}

// Invocation records one executed tool call, in execution order.
type Invocation struct {
	ToolName  string          `json:"tool_name"`
	Arguments json.RawMessage `json:"arguments"`
	Result    json.RawMessage `json:"result"`
}

// Result is one finished chat turn.
type Result struct {
	Reply       string
	Invocations []Invocation
}

// Orchestrator runs the model/tool loop for a single request. It is built
// per request because the registry carries the requesting user.
type Orchestrator struct {
	client   CompletionClient
	registry *Registry
}

func New(client CompletionClient, registry *Registry) *Orchestrator {
	return &Orchestrator{client: client, registry: registry}
}

// Run sends the conversation to the model and dispatches requested tool calls
// until the model answers in plain text or the round cap is hit. History must
// be chronological and must not yet include newMessage.
func (o *Orchestrator) Run(ctx context.Context, history []llm.Message, newMessage string) (*Result, error) {
	if o.client == nil {
		return nil, errors.Wrap(ErrInferenceUnavailable, "no completion client configured")
	}

	messages := []llm.Message{{Role: "system", Content: SystemPrompt(time.Now())}}
	for _, m := range history {
		if m.Role == "user" || m.Role == "assistant" {
			messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
		}
	}
	messages = append(messages, llm.Message{Role: "user", Content: newMessage})

	toolDefs := ToolDefinitions()
	result := &Result{Invocations: []Invocation{}}

	slog.Info("[AGENT INIT]", "tools", len(toolDefs), "history", len(history))

	for round := 0; round < maxAgentRounds; round++ {
		msg, err := o.client.ChatCompletion(ctx, messages, toolDefs)
		if err != nil {
			if len(result.Invocations) > 0 {
				// Tools already ran; switching to the fallback now could
				// apply the same mutation twice.
				slog.Warn("completion failed mid-run", "round", round, "err", err)
				result.Reply = exhaustedReply
				return result, nil
			}
			return nil, errors.Wrap(ErrInferenceUnavailable, err.Error())
		}

		// No tool calls means the model is done.
		if len(msg.ToolCalls) == 0 {
			reply := msg.Content
			if strings.TrimSpace(reply) == "" {
				reply = exhaustedReply
			}
			slog.Info("[AGENT FINISH]", "round", round, "answer", reply)
			result.Reply = reply
			return result, nil
		}

		messages = append(messages, *msg)

		// Some models repeat the same tool_call_id within one response.
		seenCallIDs := make(map[string]bool)
		for _, tc := range msg.ToolCalls {
			if seenCallIDs[tc.ID] {
				continue
			}
			seenCallIDs[tc.ID] = true

			toolResult := o.registry.Execute(ctx, tc.Function.Name, tc.Function.Arguments)
			result.Invocations = append(result.Invocations, Invocation{
				ToolName:  tc.Function.Name,
				Arguments: rawJSON(tc.Function.Arguments),
				Result:    rawJSON(toolResult),
			})
			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    toolResult,
				ToolCallID: tc.ID,
			})
		}
	}

	slog.Warn("[AGENT EXHAUSTED]", "rounds", maxAgentRounds)
	result.Reply = exhaustedReply
	return result, nil
}

// rawJSON passes a model- or tool-produced string through as raw JSON when it
// is valid, and re-encodes it as a JSON string when it is not, so the API
// response stays well-formed either way.
func rawJSON(s string) json.RawMessage {
	if s != "" && json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	b, _ := json.Marshal(s)
	return b
}
