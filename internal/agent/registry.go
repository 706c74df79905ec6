package agent

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/tools"

	"github.com/usetaskchat/taskchat/plugin/llm"
	"github.com/usetaskchat/taskchat/store"
)

// Tool error kinds the model (and the fallback) can react to.
const (
	errKindNotFound   = "not_found"
	errKindValidation = "validation_error"
	errKindInternal   = "internal_error"
)

const internalErrorMessage = "something went wrong, please try again"

// taskResult is the normalized payload every mutating tool returns.
type taskResult struct {
	TaskID int32  `json:"task_id"`
	Status string `json:"status"`
	Title  string `json:"title"`
}

// taskListItem is one row of a list_tasks result.
type taskListItem struct {
	ID        int32  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

func jsonResult(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return errorResult(errKindInternal, internalErrorMessage)
	}
	return string(b)
}

func errorResult(kind, message string) string {
	b, _ := json.Marshal(map[string]string{"error": kind, "message": message})
	return string(b)
}

// storeErrorResult translates a store error into the tool error payload.
// Internal failures keep their detail out of the model-facing message.
func storeErrorResult(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errorResult(errKindNotFound, err.Error())
	case errors.Is(err, store.ErrValidation):
		return errorResult(errKindValidation, err.Error())
	default:
		return errorResult(errKindInternal, internalErrorMessage)
	}
}

// Registry binds the task tools to one owner for the duration of a request.
// The owner is fixed at construction time and never appears in any tool
// schema, so nothing the model sends can address another user's tasks.
type Registry struct {
	tools map[string]tools.Tool
}

func NewRegistry(st *store.Store, userID string) *Registry {
	return &Registry{
		tools: map[string]tools.Tool{
			"add_task":      newAddTaskTool(st, userID),
			"list_tasks":    newListTasksTool(st, userID),
			"complete_task": newCompleteTaskTool(st, userID),
			"delete_task":   newDeleteTaskTool(st, userID),
			"update_task":   newUpdateTaskTool(st, userID),
		},
	}
}

// Execute dispatches one tool call and returns its normalized JSON result.
// Unknown tools and misbehaving tools come back as error payloads rather than
// Go errors: the model always gets something it can react to.
func (r *Registry) Execute(ctx context.Context, name, arguments string) string {
	slog.Info("[AGENT TOOL CALL]", "tool", name, "input", arguments)
	t, ok := r.tools[name]
	if !ok {
		return errorResult(errKindValidation, "unknown tool: "+name)
	}
	result, err := t.Call(ctx, arguments)
	if err != nil {
		slog.Warn("[AGENT TOOL ERROR]", "tool", name, "err", err)
		result = errorResult(errKindInternal, internalErrorMessage)
	}
	slog.Info("[AGENT TOOL RESULT]", "tool", name, "result", result)
	return result
}

// ToolDefinitions returns the OpenAI-compatible schema for every registered
// tool. Owner identity is deliberately absent from these schemas.
func ToolDefinitions() []map[string]any {
	return []map[string]any{
		llm.BuildToolDef("add_task", "Create a new task on the user's list.", map[string]any{
			"title":       map[string]any{"type": "string", "description": "Short title of the task"},
			"description": map[string]any{"type": "string", "description": "Optional longer description"},
		}, []string{"title"}),
		llm.BuildToolDef("list_tasks", "List the user's tasks, newest first.", map[string]any{
			"status": map[string]any{"type": "string", "enum": []string{"all", "pending", "completed"}, "description": "Filter by completion status (default all)"},
		}, []string{}),
		llm.BuildToolDef("complete_task", "Mark one task as completed.", map[string]any{
			"task_id": map[string]any{"type": "number", "description": "Numeric id of the task"},
		}, []string{"task_id"}),
		llm.BuildToolDef("delete_task", "Permanently delete one task.", map[string]any{
			"task_id": map[string]any{"type": "number", "description": "Numeric id of the task"},
		}, []string{"task_id"}),
		llm.BuildToolDef("update_task", "Change the title or description of an existing task.", map[string]any{
			"task_id":     map[string]any{"type": "number", "description": "Numeric id of the task"},
			"title":       map[string]any{"type": "string", "description": "New title"},
			"description": map[string]any{"type": "string", "description": "New description"},
		}, []string{"task_id"}),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Tool: add_task
// ─────────────────────────────────────────────────────────────────────────────

type addTaskTool struct {
	store  *store.Store
	userID string
}

func newAddTaskTool(st *store.Store, userID string) tools.Tool {
	return &addTaskTool{store: st, userID: userID}
}

func (t *addTaskTool) Name() string { return "add_task" }
func (t *addTaskTool) Description() string {
	return "Create a new task. Input must be a JSON string with key `title` (string) and optional `description` (string)."
}
func (t *addTaskTool) Call(ctx context.Context, input string) (string, error) {
	var payload struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(input), &payload); err != nil {
		return errorResult(errKindValidation, "failed to parse input JSON"), nil
	}

	task, err := t.store.CreateTask(ctx, &store.Task{
		CreatorID:   t.userID,
		Title:       payload.Title,
		Description: payload.Description,
	})
	if err != nil {
		return storeErrorResult(err), nil
	}
	return jsonResult(taskResult{TaskID: task.ID, Status: "created", Title: task.Title}), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Tool: list_tasks
// ─────────────────────────────────────────────────────────────────────────────

type listTasksTool struct {
	store  *store.Store
	userID string
}

func newListTasksTool(st *store.Store, userID string) tools.Tool {
	return &listTasksTool{store: st, userID: userID}
}

func (t *listTasksTool) Name() string { return "list_tasks" }
func (t *listTasksTool) Description() string {
	return "List the user's tasks. Input may be an empty JSON object or carry key `status` (one of all, pending, completed)."
}
func (t *listTasksTool) Call(ctx context.Context, input string) (string, error) {
	var payload struct {
		Status string `json:"status"`
	}
	// Some models send an empty string instead of {} for no-argument calls.
	if input != "" {
		if err := json.Unmarshal([]byte(input), &payload); err != nil {
			return errorResult(errKindValidation, "failed to parse input JSON"), nil
		}
	}

	completed, err := store.ParseTaskStatus(payload.Status)
	if err != nil {
		return storeErrorResult(err), nil
	}
	taskList, err := t.store.ListTasks(ctx, &store.FindTask{CreatorID: t.userID, Completed: completed})
	if err != nil {
		return storeErrorResult(err), nil
	}

	// Non-nil so an empty list serializes as [] rather than null.
	items := make([]taskListItem, 0, len(taskList))
	for _, task := range taskList {
		items = append(items, taskListItem{ID: task.ID, Title: task.Title, Completed: task.Completed})
	}
	return jsonResult(items), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Tool: complete_task
// ─────────────────────────────────────────────────────────────────────────────

type completeTaskTool struct {
	store  *store.Store
	userID string
}

func newCompleteTaskTool(st *store.Store, userID string) tools.Tool {
	return &completeTaskTool{store: st, userID: userID}
}

func (t *completeTaskTool) Name() string { return "complete_task" }
func (t *completeTaskTool) Description() string {
	return "Mark a task as completed. Input must be a JSON string with key `task_id` (number)."
}
func (t *completeTaskTool) Call(ctx context.Context, input string) (string, error) {
	var payload struct {
		TaskID int32 `json:"task_id"`
	}
	if err := json.Unmarshal([]byte(input), &payload); err != nil {
		return errorResult(errKindValidation, "failed to parse input JSON"), nil
	}
	if payload.TaskID <= 0 {
		return errorResult(errKindValidation, "task_id is required"), nil
	}

	task, err := t.store.CompleteTask(ctx, &store.UpdateTask{ID: payload.TaskID, CreatorID: t.userID})
	if err != nil {
		return storeErrorResult(err), nil
	}
	return jsonResult(taskResult{TaskID: task.ID, Status: "completed", Title: task.Title}), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Tool: delete_task
// ─────────────────────────────────────────────────────────────────────────────

type deleteTaskTool struct {
	store  *store.Store
	userID string
}

func newDeleteTaskTool(st *store.Store, userID string) tools.Tool {
	return &deleteTaskTool{store: st, userID: userID}
}

func (t *deleteTaskTool) Name() string { return "delete_task" }
func (t *deleteTaskTool) Description() string {
	return "Permanently delete a task. Input must be a JSON string with key `task_id` (number)."
}
func (t *deleteTaskTool) Call(ctx context.Context, input string) (string, error) {
	var payload struct {
		TaskID int32 `json:"task_id"`
	}
	if err := json.Unmarshal([]byte(input), &payload); err != nil {
		return errorResult(errKindValidation, "failed to parse input JSON"), nil
	}
	if payload.TaskID <= 0 {
		return errorResult(errKindValidation, "task_id is required"), nil
	}

	// Fetch first so the result can echo the deleted title back.
	task, err := t.store.GetTask(ctx, &store.FindTask{ID: &payload.TaskID, CreatorID: t.userID})
	if err != nil {
		return storeErrorResult(err), nil
	}
	if err := t.store.DeleteTask(ctx, &store.DeleteTask{ID: payload.TaskID, CreatorID: t.userID}); err != nil {
		return storeErrorResult(err), nil
	}
	return jsonResult(taskResult{TaskID: task.ID, Status: "deleted", Title: task.Title}), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Tool: update_task
// ─────────────────────────────────────────────────────────────────────────────

type updateTaskTool struct {
	store  *store.Store
	userID string
}

func newUpdateTaskTool(st *store.Store, userID string) tools.Tool {
	return &updateTaskTool{store: st, userID: userID}
}

func (t *updateTaskTool) Name() string { return "update_task" }
func (t *updateTaskTool) Description() string {
	return "Update a task's title or description. Input must be a JSON string with key `task_id` (number) and at least one of `title` or `description` (strings)."
}
func (t *updateTaskTool) Call(ctx context.Context, input string) (string, error) {
	var payload struct {
		TaskID      int32   `json:"task_id"`
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := json.Unmarshal([]byte(input), &payload); err != nil {
		return errorResult(errKindValidation, "failed to parse input JSON"), nil
	}
	if payload.TaskID <= 0 {
		return errorResult(errKindValidation, "task_id is required"), nil
	}

	task, err := t.store.UpdateTask(ctx, &store.UpdateTask{
		ID:          payload.TaskID,
		CreatorID:   t.userID,
		Title:       payload.Title,
		Description: payload.Description,
	})
	if err != nil {
		return storeErrorResult(err), nil
	}
	return jsonResult(taskResult{TaskID: task.ID, Status: "updated", Title: task.Title}), nil
}
