package mcp

import (
	"context"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"logmerge/internal/application"
	"logmerge/internal/application/commands"
	"logmerge/internal/domain"
)

var (
	negInf = math.Inf(-1)
	posInf = math.Inf(1)
)

// RegisterWriteTools adds the mutating workspace tools to the MCP server.
func RegisterWriteTools(s *server.MCPServer, ws *application.Workspace) {
	s.AddTool(createTestTool(), createTestHandler(ws))
	s.AddTool(deleteTestTool(), deleteTestHandler(ws))
	s.AddTool(importTool(), importHandler(ws))
	s.AddTool(mergeTool(), mergeHandler(ws))
	s.AddTool(setFilterTool(), setFilterHandler(ws))
}

// --- create_test ---

func createTestTool() mcp.Tool {
	return mcp.NewTool("create_test",
		mcp.WithDescription("Create a new empty test to import files into."),
		mcp.WithString("name",
			mcp.Description("Test name"),
			mcp.Required(),
		),
	)
}

func createTestHandler(ws *application.Workspace) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := ws.CreateTest(req.GetString("name", ""))
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Created test %s", id)), nil
	}
}

// --- delete_test ---

func deleteTestTool() mcp.Tool {
	return mcp.NewTool("delete_test",
		mcp.WithDescription("Delete a test and all its imported files."),
		mcp.WithString("test_id",
			mcp.Description("Test ID from list_tests"),
			mcp.Required(),
		),
	)
}

func deleteTestHandler(ws *application.Workspace) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		testID := req.GetString("test_id", "")
		if err := ws.DeleteTest(testID); err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Deleted test %s", testID)), nil
	}
}

// --- import ---

func importTool() mcp.Tool {
	return mcp.NewTool("import",
		mcp.WithDescription("Import log files into a test. Headers are diffed against the test's channels; fuzzy renames are accepted unless accept_renames is false."),
		mcp.WithString("test_id",
			mcp.Description("Test ID from list_tests"),
			mcp.Required(),
		),
		mcp.WithString("paths",
			mcp.Description("Comma-separated file paths"),
			mcp.Required(),
		),
		mcp.WithBoolean("accept_renames",
			mcp.Description("Map fuzzy rename proposals automatically (default true)"),
		),
	)
}

func importHandler(ws *application.Workspace) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		testID := req.GetString("test_id", "")
		paths := splitList(req.GetString("paths", ""))
		accept := req.GetBool("accept_renames", true)

		cmd := commands.NewImportCommand(ws, testID, paths, accept)
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		msg := result.Message
		for _, r := range result.Reports {
			if r.Err != nil {
				msg += fmt.Sprintf("\n%s: %v", r.Path, r.Err)
			}
		}
		return mcp.NewToolResultText(msg), nil
	}
}

// --- merge ---

func mergeTool() mcp.Tool {
	return mcp.NewTool("merge",
		mcp.WithDescription("Configure a test's join strategy and rebuild its merged table."),
		mcp.WithString("test_id",
			mcp.Description("Test ID from list_tests"),
			mcp.Required(),
		),
		mcp.WithString("strategy",
			mcp.Description("Join strategy: time-nearest, time-exact, alternative-key, or append (default time-nearest)"),
		),
		mcp.WithString("time_mode",
			mcp.Description("Time base: absolute, relative, or custom-offset (default absolute)"),
		),
		mcp.WithString("key_id",
			mcp.Description("Canonical key channel id, alternative-key joins only"),
		),
		mcp.WithNumber("tolerance",
			mcp.Description("Time-nearest tolerance window (default 0.1)"),
		),
		mcp.WithNumber("gap",
			mcp.Description("Gap between appended files (default 0)"),
		),
	)
}

func mergeHandler(ws *application.Workspace) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewMergeCommand(ws, req.GetString("test_id", ""))
		if raw := req.GetString("strategy", ""); raw != "" {
			strategy, err := domain.ParseJoinStrategy(raw)
			if err != nil {
				return toolError(err)
			}
			cmd.Strategy = strategy
		}
		if raw := req.GetString("time_mode", ""); raw != "" {
			mode, err := domain.ParseTimeMode(raw)
			if err != nil {
				return toolError(err)
			}
			cmd.TimeMode = mode
		}
		cmd.KeyID = req.GetString("key_id", cmd.KeyID)
		cmd.Tolerance = req.GetFloat("tolerance", cmd.Tolerance)
		cmd.Gap = req.GetFloat("gap", cmd.Gap)

		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- set_filter ---

func setFilterTool() mcp.Tool {
	return mcp.NewTool("set_filter",
		mcp.WithDescription("Set a row filter on a test. Filters combine with AND; the table tool returns only rows passing every filter."),
		mcp.WithString("test_id",
			mcp.Description("Test ID from list_tests"),
			mcp.Required(),
		),
		mcp.WithString("kind",
			mcp.Description("Filter kind: time-range or value-range"),
			mcp.Required(),
		),
		mcp.WithString("channel_id",
			mcp.Description("Canonical channel id, value-range filters only"),
		),
		mcp.WithNumber("min",
			mcp.Description("Lower bound (default unbounded)"),
		),
		mcp.WithNumber("max",
			mcp.Description("Upper bound (default unbounded)"),
		),
	)
}

func setFilterHandler(ws *application.Workspace) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		testID := req.GetString("test_id", "")
		kind, err := domain.ParseFilterKind(req.GetString("kind", ""))
		if err != nil {
			return toolError(err)
		}

		spec := domain.FilterSpec{
			ChannelID: req.GetString("channel_id", ""),
			Kind:      kind,
			Min:       req.GetFloat("min", negInf),
			Max:       req.GetFloat("max", posInf),
		}
		mask, err := ws.SetFilter(testID, spec)
		if err != nil {
			return toolError(err)
		}
		if mask == nil {
			return mcp.NewToolResultText("Filter set; merge the test to compute the row mask."), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Filter set; %d of %d rows visible",
			domain.CountVisible(mask), len(mask))), nil
	}
}
