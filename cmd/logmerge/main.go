package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"logmerge/internal/adapters/csvfile"
	"logmerge/internal/adapters/sqlite"
	"logmerge/internal/adapters/tui"
	"logmerge/internal/adapters/xlsx"
	"logmerge/internal/application"
	"logmerge/internal/config"
	"logmerge/internal/domain"
	"logmerge/internal/logging"
	"logmerge/internal/ports"
)

func main() {
	_ = godotenv.Load()

	testName := flag.String("test", "session", "name of the test to import into")
	flag.Parse()

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
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					os.Exit(1)
				}
			}
			opts = append(opts, application.WithImportIndex(idx))
		}
	}

	readers := []ports.FileReader{csvfile.NewReader(), xlsx.NewReader()}
	ws := application.NewWorkspace(readers, opts...)

	testID, err := ws.CreateTest(*testName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	app := tui.NewApp(ws, testID, flag.Args())

	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
