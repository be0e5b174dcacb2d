// Package mcp exposes prpkit over the Model Context Protocol so AI
// assistants can list, inspect and validate PRPs as tools.
package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/prpkit/prpkit/pkg/contextpack"
	"github.com/prpkit/prpkit/pkg/workflow"
)

// Server wraps the workflow to provide MCP tool access.
type Server struct {
	workflow *workflow.Workflow
	index    *contextpack.Index
	server   *server.MCPServer
}

// NewServer creates a new MCP server. The index may be nil when
// context search is not configured.
func NewServer(wf *workflow.Workflow, index *contextpack.Index, version string) *Server {
	s := &Server{
		workflow: wf,
		index:    index,
	}

	mcpServer := server.NewMCPServer(
		"prpkit",
		version,
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)

	s.server = mcpServer
	return s
}

// registerTools registers all MCP tools with the server.
func (s *Server) registerTools(mcpServer *server.MCPServer) {
	// prp_list - List PRPs
	mcpServer.AddTool(
		mcp.NewTool("prp_list",
			mcp.WithDescription("List PRPs (Product Requirement Prompts) in the project, active and completed."),
		),
		s.handleList,
	)

	// prp_get - Read one PRP
	mcpServer.AddTool(
		mcp.NewTool("prp_get",
			mcp.WithDescription("Read a PRP document by feature key."),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Feature key, e.g. 'user-auth'"),
			),
		),
		s.handleGet,
	)

	// prp_lint - Check document structure
	mcpServer.AddTool(
		mcp.NewTool("prp_lint",
			mcp.WithDescription("Check a PRP for the required sections (Goal, Why, What, Success Criteria, All Needed Context, Implementation Blueprint, Validation Loop)."),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Feature key of the PRP to lint"),
			),
		),
		s.handleLint,
	)

	// prp_gates - Run validation gates
	mcpServer.AddTool(
		mcp.NewTool("prp_gates",
			mcp.WithDescription("Run a PRP's validation gates (lint, type-check, tests) and report pass/fail per gate."),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Feature key of the PRP to validate"),
			),
		),
		s.handleGates,
	)

	// context_search - Search the context index
	mcpServer.AddTool(
		mcp.NewTool("context_search",
			mcp.WithDescription("Search the project context index for relevant docs and build files."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Search query"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results (default: 10)"),
			),
		),
		s.handleContextSearch,
	)
}

// handleList handles the prp_list tool.
func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store := s.workflow.Store()

	active, err := store.List()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	completed, err := store.ListCompleted()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list completed failed: %v", err)), nil
	}

	if len(active) == 0 && len(completed) == 0 {
		return mcp.NewToolResultText("No PRPs found."), nil
	}

	var sb strings.Builder
	if len(active) > 0 {
		sb.WriteString("Active PRPs:\n")
		for _, name := range active {
			sb.WriteString("- " + name + "\n")
		}
	}
	if len(completed) > 0 {
		sb.WriteString("\nCompleted PRPs:\n")
		for _, name := range completed {
			sb.WriteString("- " + name + "\n")
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// handleGet handles the prp_get tool.
func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("name parameter is required"), nil
	}

	doc, err := s.workflow.Store().Load(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}

	return mcp.NewToolResultText(doc.Render()), nil
}

// handleLint handles the prp_lint tool.
func (s *Server) handleLint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("name parameter is required"), nil
	}

	doc, err := s.workflow.Store().Load(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}

	report := doc.Lint()
	if report.OK() {
		return mcp.NewToolResultText("All required sections present."), nil
	}

	var sb strings.Builder
	if len(report.Missing) > 0 {
		sb.WriteString("Missing sections:\n")
		for _, h := range report.Missing {
			sb.WriteString("- " + h + "\n")
		}
	}
	if len(report.Empty) > 0 {
		sb.WriteString("Empty sections:\n")
		for _, h := range report.Empty {
			sb.WriteString("- " + h + "\n")
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// handleGates handles the prp_gates tool.
func (s *Server) handleGates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("name parameter is required"), nil
	}

	report, err := s.workflow.Execute(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("run gates failed: %v", err)), nil
	}

	return mcp.NewToolResultText(report.Summary()), nil
}

// handleContextSearch handles the context_search tool.
func (s *Server) handleContextSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.index == nil {
		return mcp.NewToolResultError("context index not configured"), nil
	}

	query := request.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	results, err := s.index.Search(ctx, query, request.GetInt("limit", 10))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	return mcp.NewToolResultText(contextpack.FormatResults(results)), nil
}

// ServeStdio starts the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.server)
}
