// Package mcp exposes the task tools over the Model Context Protocol, so a
// local MCP client can drive one user's task list through stdio.
package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/usetaskchat/taskchat/internal/agent"
	"github.com/usetaskchat/taskchat/store"
)

// NewServer builds an MCP server bound to one owner. The owner is fixed at
// construction and absent from every tool schema, matching the HTTP agent.
func NewServer(st *store.Store, ownerID, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"taskchat",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions("Manage the connected user's personal task list. Tasks are addressed by numeric id; call list_tasks first when only a title is known."),
	)

	registry := agent.NewRegistry(st, ownerID)

	s.AddTool(mcp.NewTool("add_task",
		mcp.WithDescription("Create a new task on the user's list."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Short title of the task")),
		mcp.WithString("description", mcp.Description("Optional longer description")),
	), toolHandler(registry, "add_task"))

	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List the user's tasks, newest first."),
		mcp.WithString("status", mcp.Description("Filter by completion status"), mcp.Enum("all", "pending", "completed")),
	), toolHandler(registry, "list_tasks"))

	s.AddTool(mcp.NewTool("complete_task",
		mcp.WithDescription("Mark one task as completed."),
		mcp.WithNumber("task_id", mcp.Required(), mcp.Description("Numeric id of the task")),
	), toolHandler(registry, "complete_task"))

	s.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Permanently delete one task."),
		mcp.WithNumber("task_id", mcp.Required(), mcp.Description("Numeric id of the task")),
	), toolHandler(registry, "delete_task"))

	s.AddTool(mcp.NewTool("update_task",
		mcp.WithDescription("Change the title or description of an existing task."),
		mcp.WithNumber("task_id", mcp.Required(), mcp.Description("Numeric id of the task")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
	), toolHandler(registry, "update_task"))

	return s
}

// toolHandler adapts MCP call arguments onto the shared tool registry. Tool
// failures are normal result payloads for the client, not protocol errors.
func toolHandler(registry *agent.Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError("invalid arguments"), nil
		}
		return mcp.NewToolResultText(registry.Execute(ctx, name, string(args))), nil
	}
}

// ServeStdio serves MCP over stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
