package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"logmerge/internal/adapters/csvfile"
	mcpadapter "logmerge/internal/adapters/mcp"
	"logmerge/internal/adapters/sqlite"
	"logmerge/internal/adapters/xlsx"
	"logmerge/internal/application"
	"logmerge/internal/config"
	"logmerge/internal/domain"
	"logmerge/internal/logging"
	"logmerge/internal/ports"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	diffCfg := domain.DefaultDiffConfig()
	diffCfg.Threshold = cfg.Diff.Threshold
	diffCfg.TieMargin = cfg.Diff.TieMargin

	opts := []application.Option{
		application.WithDiffConfig(diffCfg),
		application.WithParallelism(cfg.Import.Parallelism),
	}

	if cfg.Cache.Enabled {
		dbPath := cfg.Cache.Path
		if dbPath == "" {
			wd, _ := os.Getwd()
			dbPath = sqlite.DatabasePath(wd)
		}
		idx := sqlite.NewIndex()
		if err := idx.Open(dbPath); err != nil {
			slog.Warn("import cache unavailable", "path", dbPath, "error", err)
		} else {
			defer idx.Close()
			if idx.NeedsFullRebuild() {
				if err := idx.Reset(); err != nil {
					log.Fatalf("logmerge-mcp: %v", err)
				}
			}
			opts = append(opts, application.WithImportIndex(idx))
		}
	}

	readers := []ports.FileReader{csvfile.NewReader(), xlsx.NewReader()}
	ws := application.NewWorkspace(readers, opts...)

	mcpServer := server.NewMCPServer(
		"logmerge-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, ws)
	mcpadapter.RegisterWriteTools(mcpServer, ws)

	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatalf("logmerge-mcp: %v", err)
	}
}
