package server

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/engine"
	"github.com/renamekit/renamekit/pkg/preview"
	"github.com/renamekit/renamekit/pkg/scan"
	"github.com/renamekit/renamekit/pkg/template"
)

// RegisterMCPTools registers all MCP tools with the server
func (a *App) RegisterMCPTools(s *server.MCPServer) {
	// Core rename tools
	a.registerPreviewTool(s)
	a.registerRenameTool(s)
	a.registerSanitizeTool(s)

	// History tools
	a.registerHistoryListTool(s)
	a.registerHistoryGetTool(s)
	a.registerUndoTool(s)

	// Template and rule tools
	a.registerTemplateListTool(s)
	a.registerFieldListTool(s)
	a.registerPriorityPreviewTool(s)
}

func (a *App) registerPreviewTool(s *server.MCPServer) {
	tool := mcp.NewTool("rename-preview",
		mcp.WithDescription("Preview how the configured templates and rules would rename a set of files. No files are modified."),
		mcp.WithString("paths",
			mcp.Required(),
			mcp.Description("Comma-separated list of file paths"),
		),
		mcp.WithString("templateId",
			mcp.Description("Force a specific template instead of rule resolution"),
		),
		mcp.WithString("caseStyle",
			mcp.Description("Case normalization: lowercase, uppercase, capitalize, title, kebab-case, snake_case, camelCase, PascalCase"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Paths      string `json:"paths"`
			TemplateID string `json:"templateId"`
			CaseStyle  string `json:"caseStyle"`
		}
		if err := unmarshalArgs(request.Params.Arguments, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		log.WithField("paths", args.Paths).Info("Executing rename-preview via MCP")

		files, skipped := scan.StatAll(splitPaths(args.Paths))
		if len(files) == 0 {
			return mcp.NewToolResultError("No readable files in paths"), nil
		}

		a.mu.Lock()
		config := a.config.App
		a.mu.Unlock()

		result, err := a.generator.Generate(ctx, preview.Request{
			Files:      files,
			Config:     config,
			TemplateID: args.TemplateID,
			CaseStyle:  template.CaseStyle(args.CaseStyle),
			// stdio MCP runs on the same host as the files
			CaseInsensitiveFS: runtime.GOOS == "darwin" || runtime.GOOS == "windows",
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Preview failed: %v", err)), nil
		}

		return jsonToolResult(map[string]interface{}{
			"preview":      result,
			"skippedPaths": skipped,
		})
	})
}

func (a *App) registerRenameTool(s *server.MCPServer) {
	tool := mcp.NewTool("rename-execute",
		mcp.WithDescription("Execute a batch of rename proposals produced by rename-preview. Records the operation in history for undo."),
		mcp.WithString("proposals",
			mcp.Required(),
			mcp.Description("JSON array of proposals from rename-preview"),
		),
		mcp.WithString("proposalIds",
			mcp.Description("Comma-separated proposal IDs to execute; empty executes all"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Proposals   string `json:"proposals"`
			ProposalIDs string `json:"proposalIds"`
		}
		if err := unmarshalArgs(request.Params.Arguments, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		var proposals []models.RenameProposal
		if err := json.Unmarshal([]byte(args.Proposals), &proposals); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid proposals JSON: %v", err)), nil
		}

		log.WithField("count", len(proposals)).Info("Executing rename-execute via MCP")

		result, err := a.engine.Execute(ctx, proposals, engine.Options{
			ProposalIDs: splitPaths(args.ProposalIDs),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Execution failed: %v", err)), nil
		}

		return jsonToolResult(result)
	})
}

func (a *App) registerSanitizeTool(s *server.MCPServer) {
	tool := mcp.NewTool("sanitize-filename",
		mcp.WithDescription("Rewrite a filename so it is valid on Windows, macOS and Linux"),
		mcp.WithString("filename",
			mcp.Required(),
			mcp.Description("Filename to sanitize"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Filename string `json:"filename"`
		}
		if err := unmarshalArgs(request.Params.Arguments, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}
		return jsonToolResult(template.Sanitize(args.Filename, '_'))
	})
}

func (a *App) registerHistoryListTool(s *server.MCPServer) {
	tool := mcp.NewTool("history-list",
		mcp.WithDescription("List recorded rename operations, newest first"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum entries to return (default 20)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Limit float64 `json:"limit"`
		}
		if err := unmarshalArgs(request.Params.Arguments, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		limit := int(args.Limit)
		if limit <= 0 {
			limit = 20
		}

		entries, err := a.history.List(limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list history: %v", err)), nil
		}
		return jsonToolResult(map[string]interface{}{"entries": entries})
	})
}

func (a *App) registerHistoryGetTool(s *server.MCPServer) {
	tool := mcp.NewTool("history-get",
		mcp.WithDescription("Get one recorded operation including its per-file records"),
		mcp.WithString("operationId",
			mcp.Required(),
			mcp.Description("Operation ID from history-list"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			OperationID string `json:"operationId"`
		}
		if err := unmarshalArgs(request.Params.Arguments, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		entry, err := a.history.Get(args.OperationID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get entry: %v", err)), nil
		}
		return jsonToolResult(entry)
	})
}

func (a *App) registerUndoTool(s *server.MCPServer) {
	tool := mcp.NewTool("rename-undo",
		mcp.WithDescription("Undo a recorded rename operation, restoring files to their original paths"),
		mcp.WithString("operationId",
			mcp.Required(),
			mcp.Description("Operation ID from history-list"),
		),
		mcp.WithBoolean("dryRun",
			mcp.Description("Compute the restore plan without touching the filesystem"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			OperationID string `json:"operationId"`
			DryRun      bool   `json:"dryRun"`
		}
		if err := unmarshalArgs(request.Params.Arguments, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		log.WithField("operationId", args.OperationID).Info("Executing rename-undo via MCP")

		result, err := a.engine.Undo(ctx, args.OperationID, engine.UndoOptions{DryRun: args.DryRun})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Undo failed: %v", err)), nil
		}
		return jsonToolResult(result)
	})
}

func (a *App) registerTemplateListTool(s *server.MCPServer) {
	tool := mcp.NewTool("template-list",
		mcp.WithDescription("List saved rename templates with their default assignments"),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a.mu.Lock()
		snapshot := a.config.App.TemplateStore
		a.mu.Unlock()
		return jsonToolResult(snapshot)
	})
}

func (a *App) registerFieldListTool(s *server.MCPServer) {
	tool := mcp.NewTool("field-list",
		mcp.WithDescription("List the metadata field paths usable in rule conditions"),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonToolResult(map[string]interface{}{"fields": models.ValidFieldPaths()})
	})
}

func (a *App) registerPriorityPreviewTool(s *server.MCPServer) {
	tool := mcp.NewTool("rule-priority-preview",
		mcp.WithDescription("Show which rules would match a file, in evaluation order, and which one wins"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File path to evaluate rules against"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Path string `json:"path"`
		}
		if err := unmarshalArgs(request.Params.Arguments, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		file, err := scan.Stat(args.Path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid path: %v", err)), nil
		}

		a.mu.Lock()
		config := a.config.App
		a.mu.Unlock()

		result, err := a.resolver.PreviewRulePriority(
			config.MetadataRules,
			config.FilenameRules,
			&file,
			nil,
			config.RulePriorityMode,
		)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Evaluation failed: %v", err)), nil
		}
		return jsonToolResult(result)
	})
}

func jsonToolResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func unmarshalArgs(arguments interface{}, v interface{}) error {
	data, err := json.Marshal(arguments)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func splitPaths(pathsStr string) []string {
	var paths []string
	for _, part := range strings.Split(pathsStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			paths = append(paths, trimmed)
		}
	}
	return paths
}
