package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/usetaskchat/taskchat/store"
)

// Intent keywords, checked in order. The order matters: "show" contains
// "how", so the list intent must be tested before help, and list before
// complete so "what have I finished" reads as a listing request.
var (
	addKeywords      = []string{"add", "create", "new task", "make a task", "todo"}
	listKeywords     = []string{"list", "show", "what", "tasks", "my tasks", "all tasks", "view"}
	completeKeywords = []string{"complete", "finish", "done", "finished", "mark as complete"}
	deleteKeywords   = []string{"delete", "remove", "cancel"}
	updateKeywords   = []string{"update", "change", "modify", "edit", "rename"}
	helpKeywords     = []string{"help", "what can you do", "commands", "how"}
)

var (
	taskIDPattern       = regexp.MustCompile(`(?:task\s+)?#?(\d+)`)
	addTaskToPattern    = regexp.MustCompile(`(?:add|create).*?(?:task)?.*?(?:to|for)\s+(.+)`)
	addDirectPattern    = regexp.MustCompile(`(?:add|create|new task)\s+(.+)`)
	fillerPrefixPattern = regexp.MustCompile(`^(a|an|the|to|task|:|for)\s+`)
	newTitlePattern     = regexp.MustCompile(`(?:to|into|as)\s+(.+)`)
)

const helpReply = `I can help you manage your tasks! Here's what I can do:

Add tasks:
- "Add a task to buy groceries"
- "New task: call mom"

View tasks:
- "Show my tasks"
- "What's on my list?"

Complete tasks:
- "Complete task 1"
- "Mark task 2 as done"

Delete tasks:
- "Delete task 1"
- "Remove task 2"

Update tasks:
- "Update task 1 to buy milk and bread"
- "Change task 2 to meeting at 4pm"

Just ask naturally, and I'll understand!`

var defaultReplies = []string{
	"I'm here to help you manage your tasks! You can ask me to add, list, complete, delete, or update tasks. What would you like to do?",
	"I'm not quite sure what you'd like me to do. I can help with adding tasks, viewing your task list, marking tasks as complete, or deleting tasks. What do you need?",
	"I'm your task management assistant! Try asking me to 'list my tasks' or 'add a task to buy groceries'. How can I help?",
}

// Fallback produces deterministic keyword-driven replies when no completion
// provider is reachable. It executes the same registry tools as the agent, so
// task mutations behave identically in degraded mode.
type Fallback struct {
	registry *Registry
}

func NewFallback(registry *Registry) *Fallback {
	return &Fallback{registry: registry}
}

// Respond interprets one user message and returns the degraded-mode turn.
// It never fails: anything it cannot interpret gets a guidance reply.
func (f *Fallback) Respond(ctx context.Context, message string) *Result {
	messageLower := strings.ToLower(strings.TrimSpace(message))
	if messageLower == "" {
		return textResult("Hello! I'm your task assistant. I can help you manage your tasks. Try asking me to add a task, list your tasks, or mark one as complete!")
	}

	switch {
	case containsAny(messageLower, addKeywords):
		return f.handleAdd(ctx, messageLower)
	case containsAny(messageLower, listKeywords):
		return f.handleList(ctx, messageLower)
	case containsAny(messageLower, completeKeywords):
		return f.handleComplete(ctx, messageLower)
	case containsAny(messageLower, deleteKeywords):
		return f.handleDelete(ctx, messageLower)
	case containsAny(messageLower, updateKeywords):
		return f.handleUpdate(ctx, messageLower)
	case containsAny(messageLower, helpKeywords):
		return textResult(helpReply)
	default:
		return textResult(defaultReplies[utf8.RuneCountInString(message)%len(defaultReplies)])
	}
}

func (f *Fallback) handleAdd(ctx context.Context, messageLower string) *Result {
	title := extractTaskTitle(messageLower)
	if utf8.RuneCountInString(title) < 3 {
		return textResult("I'd be happy to add a task! Could you please tell me what you'd like to add? For example, 'Add a task to buy groceries'.")
	}

	args := marshalArgs(map[string]any{"title": title})
	raw := f.registry.Execute(ctx, "add_task", args)
	inv := invocationRecord("add_task", args, raw)

	probe := probeResult(raw)
	if probe.Error != "" || probe.TaskID == 0 {
		reply := "I tried to add the task, but ran into an issue"
		if probe.Message != "" {
			reply += ": " + probe.Message
		}
		return &Result{Reply: reply + ". Please try again.", Invocations: []Invocation{inv}}
	}
	return &Result{
		Reply:       fmt.Sprintf("I've added the task: %q\n\nTask ID: %d\n\nWould you like to add another task or see your task list?", title, probe.TaskID),
		Invocations: []Invocation{inv},
	}
}

func (f *Fallback) handleList(ctx context.Context, messageLower string) *Result {
	status := store.TaskStatusAll
	switch {
	case containsAny(messageLower, []string{"completed", "finished", "done"}):
		status = store.TaskStatusCompleted
	case containsAny(messageLower, []string{"pending", "unfinished", "incomplete", "open"}):
		status = store.TaskStatusPending
	}

	args := marshalArgs(map[string]any{"status": status})
	raw := f.registry.Execute(ctx, "list_tasks", args)
	inv := invocationRecord("list_tasks", args, raw)

	var items []taskListItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return &Result{Reply: "I couldn't retrieve your tasks right now. Please try again.", Invocations: []Invocation{inv}}
	}
	if len(items) == 0 {
		var reply string
		switch status {
		case store.TaskStatusCompleted:
			reply = "You don't have any completed tasks yet."
		case store.TaskStatusPending:
			reply = "You don't have any pending tasks. Nice work!"
		default:
			reply = "You don't have any tasks yet. Would you like to add one?"
		}
		return &Result{Reply: reply, Invocations: []Invocation{inv}}
	}

	var pending, completed []taskListItem
	for _, item := range items {
		if item.Completed {
			completed = append(completed, item)
		} else {
			pending = append(pending, item)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here are your tasks (%d total):\n", len(items))
	if len(pending) > 0 {
		b.WriteString("\nPending:\n")
		for _, item := range pending {
			fmt.Fprintf(&b, "  %d. %s\n", item.ID, item.Title)
		}
	}
	if len(completed) > 0 {
		fmt.Fprintf(&b, "\nCompleted: (%d)\n", len(completed))
		for i, item := range completed {
			if i == 3 {
				fmt.Fprintf(&b, "  ... and %d more\n", len(completed)-3)
				break
			}
			fmt.Fprintf(&b, "  %d. %s\n", item.ID, item.Title)
		}
	}
	b.WriteString("\nNeed help with any of these tasks?")
	return &Result{Reply: b.String(), Invocations: []Invocation{inv}}
}

func (f *Fallback) handleComplete(ctx context.Context, messageLower string) *Result {
	taskID, ok := extractTaskID(messageLower)
	if !ok {
		return textResult("Which task would you like to mark as complete? Please provide the task number (e.g., 'Complete task 1').")
	}

	args := marshalArgs(map[string]any{"task_id": taskID})
	raw := f.registry.Execute(ctx, "complete_task", args)
	inv := invocationRecord("complete_task", args, raw)

	probe := probeResult(raw)
	switch {
	case probe.Error == errKindNotFound:
		return &Result{Reply: fmt.Sprintf("I couldn't find task %d. Would you like to see your task list?", taskID), Invocations: []Invocation{inv}}
	case probe.Error != "":
		return &Result{Reply: "I couldn't complete that task: " + probe.Message, Invocations: []Invocation{inv}}
	}
	return &Result{
		Reply:       fmt.Sprintf("Great job! I've marked task %d as complete.\n\nWould you like to see your remaining tasks?", taskID),
		Invocations: []Invocation{inv},
	}
}

func (f *Fallback) handleDelete(ctx context.Context, messageLower string) *Result {
	taskID, ok := extractTaskID(messageLower)
	if !ok {
		return textResult("Which task would you like to delete? Please provide the task number (e.g., 'Delete task 1').")
	}

	args := marshalArgs(map[string]any{"task_id": taskID})
	raw := f.registry.Execute(ctx, "delete_task", args)
	inv := invocationRecord("delete_task", args, raw)

	probe := probeResult(raw)
	switch {
	case probe.Error == errKindNotFound:
		return &Result{Reply: fmt.Sprintf("I couldn't find task %d. Would you like to see your task list?", taskID), Invocations: []Invocation{inv}}
	case probe.Error != "":
		return &Result{Reply: "I couldn't delete that task: " + probe.Message, Invocations: []Invocation{inv}}
	}
	return &Result{
		Reply:       fmt.Sprintf("I've deleted task %d.\n\nIs there anything else I can help you with?", taskID),
		Invocations: []Invocation{inv},
	}
}

func (f *Fallback) handleUpdate(ctx context.Context, messageLower string) *Result {
	taskID, ok := extractTaskID(messageLower)
	if !ok {
		return textResult("Which task would you like to update? Please provide the task number and new title (e.g., 'Update task 1 to buy milk and bread').")
	}
	var title string
	if m := newTitlePattern.FindStringSubmatch(messageLower); m != nil {
		title = strings.TrimSpace(m[1])
	}
	if utf8.RuneCountInString(title) < 3 {
		return textResult(fmt.Sprintf("What would you like to change task %d to?", taskID))
	}

	args := marshalArgs(map[string]any{"task_id": taskID, "title": title})
	raw := f.registry.Execute(ctx, "update_task", args)
	inv := invocationRecord("update_task", args, raw)

	probe := probeResult(raw)
	switch {
	case probe.Error == errKindNotFound:
		return &Result{Reply: fmt.Sprintf("I couldn't find task %d. Would you like to see your task list?", taskID), Invocations: []Invocation{inv}}
	case probe.Error != "":
		return &Result{Reply: "I couldn't update that task: " + probe.Message, Invocations: []Invocation{inv}}
	}
	return &Result{
		Reply:       fmt.Sprintf("I've updated task %d to: %q\n\nAnything else you'd like to change?", taskID, title),
		Invocations: []Invocation{inv},
	}
}

// extractTaskTitle pulls the task title out of an add request, trying the
// same patterns in the same order for every phrasing: "add a task to X",
// then "add X", then everything after the triggering keyword.
func extractTaskTitle(messageLower string) string {
	if m := addTaskToPattern.FindStringSubmatch(messageLower); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := addDirectPattern.FindStringSubmatch(messageLower); m != nil {
		return strings.TrimSpace(m[1])
	}
	for _, keyword := range []string{"add", "create", "new task", "todo"} {
		if _, after, found := strings.Cut(messageLower, keyword); found {
			title := strings.TrimSpace(after)
			return strings.TrimSpace(fillerPrefixPattern.ReplaceAllString(title, ""))
		}
	}
	return ""
}

func extractTaskID(messageLower string) (int32, bool) {
	m := taskIDPattern.FindStringSubmatch(messageLower)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int32(id), true
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}

func textResult(reply string) *Result {
	return &Result{Reply: reply, Invocations: []Invocation{}}
}

func marshalArgs(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func invocationRecord(name, args, result string) Invocation {
	return Invocation{ToolName: name, Arguments: rawJSON(args), Result: rawJSON(result)}
}

type toolResultProbe struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	TaskID  int32  `json:"task_id"`
}

func probeResult(raw string) toolResultProbe {
	var probe toolResultProbe
	_ = json.Unmarshal([]byte(raw), &probe)
	return probe
}
