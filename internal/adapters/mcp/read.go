package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"logmerge/internal/application"
	"logmerge/internal/application/commands"
	"logmerge/internal/domain"
)

// RegisterReadTools adds the read-only query tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, ws *application.Workspace) {
	s.AddTool(listTestsTool(), listTestsHandler(ws))
	s.AddTool(channelsTool(), channelsHandler(ws))
	s.AddTool(tableTool(), tableHandler(ws))
	s.AddTool(diffHeadersTool(), diffHeadersHandler(ws))
}

// --- list_tests ---

func listTestsTool() mcp.Tool {
	return mcp.NewTool("list_tests",
		mcp.WithDescription("List all tests with their file, channel and merged row counts."),
	)
}

func listTestsHandler(ws *application.Workspace) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		infos := ws.Tests()
		if len(infos) == 0 {
			return mcp.NewToolResultText("No tests."), nil
		}
		var sb strings.Builder
		for _, info := range infos {
			fmt.Fprintf(&sb, "%s  %s  files=%d channels=%d rows=%d\n",
				info.ID, info.Name, info.Files, info.Channels, info.Rows)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- channels ---

func channelsTool() mcp.Tool {
	return mcp.NewTool("channels",
		mcp.WithDescription("List a test's canonical channels: id, display name, unit, category, and summary statistics when a merged table exists."),
		mcp.WithString("test_id",
			mcp.Description("Test ID from list_tests"),
			mcp.Required(),
		),
		mcp.WithString("search",
			mcp.Description("Optional case-insensitive text filter on channel names"),
		),
	)
}

func channelsHandler(ws *application.Workspace) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		testID := req.GetString("test_id", "")
		if testID == "" {
			return toolError(fmt.Errorf("test_id is required"))
		}

		cmd := commands.NewChannelsCommand(ws, testID)
		cmd.Query = domain.ChannelQuery{Text: req.GetString("search", "")}
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		if len(result.Entries) == 0 {
			return mcp.NewToolResultText("No channels."), nil
		}

		var sb strings.Builder
		for _, e := range result.Entries {
			fmt.Fprintf(&sb, "%s  %s", e.Descriptor.ID, e.Descriptor.DisplayName)
			if e.Descriptor.Unit != "" {
				fmt.Fprintf(&sb, " [%s]", e.Descriptor.Unit)
			}
			if e.Descriptor.Category != "" {
				fmt.Fprintf(&sb, "  %s", e.Descriptor.Category)
			}
			if e.HasStats {
				fmt.Fprintf(&sb, "  min=%g max=%g mean=%g n=%d",
					e.Stats.Min, e.Stats.Max, e.Stats.Mean, e.Stats.Count)
			}
			sb.WriteByte('\n')
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- table ---

func tableTool() mcp.Tool {
	return mcp.NewTool("table",
		mcp.WithDescription("Return a test's merged table as CSV, restricted to the rows the current filters keep. Build the table first with the merge tool."),
		mcp.WithString("test_id",
			mcp.Description("Test ID from list_tests"),
			mcp.Required(),
		),
		mcp.WithString("channels",
			mcp.Description("Optional comma-separated canonical channel ids to restrict the export"),
		),
	)
}

func tableHandler(ws *application.Workspace) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		testID := req.GetString("test_id", "")
		if testID == "" {
			return toolError(fmt.Errorf("test_id is required"))
		}

		var sb strings.Builder
		cmd := commands.NewExportCommand(ws, testID, &sb)
		if raw := req.GetString("channels", ""); raw != "" {
			cmd.Channels = splitList(raw)
		}
		if _, err := cmd.Execute(ctx); err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- diff_headers ---

func diffHeadersTool() mcp.Tool {
	return mcp.NewTool("diff_headers",
		mcp.WithDescription("Classify a file's column headers against a test's canonical channels (matched/renamed/added/removed) without importing the file."),
		mcp.WithString("test_id",
			mcp.Description("Test ID from list_tests"),
			mcp.Required(),
		),
		mcp.WithString("path",
			mcp.Description("Path of the file to classify"),
			mcp.Required(),
		),
	)
}

func diffHeadersHandler(ws *application.Workspace) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		testID := req.GetString("test_id", "")
		path := req.GetString("path", "")
		if testID == "" || path == "" {
			return toolError(fmt.Errorf("test_id and path are required"))
		}

		result, err := commands.NewDiffCommand(ws, testID, path).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		sb.WriteString(result.Message)
		sb.WriteByte('\n')
		for _, e := range result.Diff.Entries {
			switch e.Class {
			case domain.ClassRenamed:
				fmt.Fprintf(&sb, "%s: %s -> %s (score %.2f)\n", e.Class, e.SourceID, e.TargetID, e.Score)
			case domain.ClassAdded:
				fmt.Fprintf(&sb, "%s: %s\n", e.Class, e.SourceID)
			case domain.ClassRemoved:
				fmt.Fprintf(&sb, "%s: %s\n", e.Class, e.TargetID)
			default:
				fmt.Fprintf(&sb, "%s: %s -> %s\n", e.Class, e.SourceID, e.TargetID)
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
