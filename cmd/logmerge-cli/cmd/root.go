package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"logmerge/internal/adapters/csvfile"
	"logmerge/internal/adapters/sqlite"
	"logmerge/internal/adapters/xlsx"
	"logmerge/internal/application"
	"logmerge/internal/application/commands"
	"logmerge/internal/config"
	"logmerge/internal/domain"
	"logmerge/internal/layout"
	"logmerge/internal/logging"
	"logmerge/internal/ports"
)

var (
	layoutPath string
	remapFlags []string

	ws    *application.Workspace
	cache ports.ImportIndex

	// Compare settings carried between invocations through the layout file.
	sessionCompare domain.CompareMode = domain.CompareOverlay
	sessionGap     float64
)

var rootCmd = &cobra.Command{
	Use:   "logmerge-cli",
	Short: "CLI for reconciling time-series log files",
	Long: `logmerge-cli merges time-series log files recorded by different
acquisition systems into aligned tables.

State lives in a layout file: import, merge and filter commands load it,
apply the change and save it back, so a session spans invocations.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		return setupWorkspace(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if cache != nil {
			return cache.Close()
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&layoutPath, "layout", "l", "logmerge.layout.json", "layout file holding the session state")
	rootCmd.PersistentFlags().StringArrayVar(&remapFlags, "remap", nil, "substitute a moved file path, old=new (repeatable)")
}

func setupWorkspace(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
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
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			dbPath = sqlite.DatabasePath(wd)
		}
		idx := sqlite.NewIndex()
		if err := idx.Open(dbPath); err != nil {
			slog.Warn("import cache unavailable", "path", dbPath, "error", err)
		} else {
			if idx.NeedsFullRebuild() {
				if err := idx.Reset(); err != nil {
					idx.Close()
					return err
				}
			}
			cache = idx
			opts = append(opts, application.WithImportIndex(idx))
		}
	}

	readers := []ports.FileReader{csvfile.NewReader(), xlsx.NewReader()}
	ws = application.NewWorkspace(readers, opts...)

	return loadSession(ctx)
}

// loadSession restores the layout file when it exists.
func loadSession(ctx context.Context) error {
	if _, err := os.Stat(layoutPath); err != nil {
		return nil
	}

	f, err := os.Open(layoutPath)
	if err != nil {
		return err
	}
	defer f.Close()
	doc, err := layout.Decode(f)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", layoutPath, err)
	}

	remap, err := parseRemap(remapFlags)
	if err != nil {
		return err
	}
	missing, err := layout.Apply(ctx, ws, doc, remap)
	if err != nil {
		return fmt.Errorf("apply layout %s: %w", layoutPath, err)
	}
	for _, m := range missing {
		slog.Warn("layout references a missing file", "test", m.TestName, "path", m.Path)
	}

	if mode, err := domain.ParseCompareMode(doc.Compare.Mode); err == nil {
		sessionCompare = mode
	}
	sessionGap = doc.Compare.Gap

	return nil
}

// saveSession writes the workspace back to the layout file.
func saveSession(ctx context.Context) error {
	save := commands.NewSaveLayoutCommand(ws, layoutPath)
	save.CompareMode = sessionCompare
	save.Gap = sessionGap
	_, err := save.Execute(ctx)
	return err
}

func parseRemap(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	remap := make(map[string]string, len(pairs))
	for _, p := range pairs {
		old, updated, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid remap %q, expected old=new", p)
		}
		remap[old] = updated
	}
	return remap, nil
}

// findTest resolves a test by name or id.
func findTest(name string) (string, error) {
	for _, info := range ws.Tests() {
		if info.Name == name || info.ID == name {
			return info.ID, nil
		}
	}
	return "", fmt.Errorf("no test named %q in %s", name, layoutPath)
}

// findOrCreateTest resolves a test by name, creating it when absent.
func findOrCreateTest(name string) (string, error) {
	if id, err := findTest(name); err == nil {
		return id, nil
	}
	return ws.CreateTest(name)
}
