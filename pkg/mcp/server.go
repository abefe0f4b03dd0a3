// Package mcp exposes the listing wizard to AI agents as MCP tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates an MCP server with the wizard tools registered.
func NewServer(version string, h *Handlers) *server.MCPServer {
	s := server.NewMCPServer(
		"shodh",
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("wizard/validate",
			mcp.WithDescription("Validate a listing step catalog YAML file"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the catalog YAML file")),
		),
		HandleValidate,
	)

	s.AddTool(
		mcp.NewTool("wizard/schema",
			mcp.WithDescription("Export the step catalog JSON Schema"),
		),
		HandleSchema,
	)

	s.AddTool(
		mcp.NewTool("wizard/start",
			mcp.WithDescription("Start or resume a listing session and return its first open question"),
			mcp.WithString("catalog", mcp.Description("Built-in catalog name or path to a catalog file (default property-listing)")),
			mcp.WithString("user_id", mcp.Description("Owner id; resumes that user's saved draft when present")),
		),
		h.HandleStart,
	)

	s.AddTool(
		mcp.NewTool("wizard/answer",
			mcp.WithDescription("Answer the current question of a session"),
			mcp.WithString("session", mcp.Required(), mcp.Description("Session id returned by wizard/start")),
			mcp.WithString("value", mcp.Description("The answer; option value or label, comma separated for multiple choice")),
		),
		h.HandleAnswer,
	)

	s.AddTool(
		mcp.NewTool("wizard/back",
			mcp.WithDescription("Return to the previous question"),
			mcp.WithString("session", mcp.Required(), mcp.Description("Session id")),
		),
		h.HandleBack,
	)

	s.AddTool(
		mcp.NewTool("wizard/status",
			mcp.WithDescription("Show the current question and every answer so far"),
			mcp.WithString("session", mcp.Required(), mcp.Description("Session id")),
		),
		h.HandleStatus,
	)

	return s
}
