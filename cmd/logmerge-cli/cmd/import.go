package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"logmerge/internal/application/commands"
)

var (
	importTest    string
	importNoFuzzy bool
)

var importCmd = &cobra.Command{
	Use:   "import --test <name> <file>...",
	Short: "Import log files into a test",
	Long: `Import one or more log files into a test, creating the test when it
does not exist yet. Rename proposals from the header diff are accepted
automatically; pass --no-fuzzy to adopt such channels as new instead.

Examples:
  logmerge-cli import --test bench-12 run_a.csv run_b.csv
  logmerge-cli import --test bench-12 --no-fuzzy extra.xlsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		testID, err := findOrCreateTest(importTest)
		if err != nil {
			return err
		}

		importCmd := commands.NewImportCommand(ws, testID, args, !importNoFuzzy)
		result, err := importCmd.Execute(cmd.Context())
		if err != nil {
			return err
		}

		for _, r := range result.Reports {
			if r.Err != nil {
				fmt.Printf("  %s: %v\n", r.Path, r.Err)
				continue
			}
			note := ""
			if r.CacheHit {
				note = " (cached headers)"
			}
			fmt.Printf("  %s: %d channels, %d rows%s\n", r.Path, r.Channels, r.Rows, note)
		}
		fmt.Println(result.Message)

		if err := saveSession(cmd.Context()); err != nil {
			return err
		}
		if result.Failed > 0 {
			return fmt.Errorf("%d of %d files failed", result.Failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVarP(&importTest, "test", "t", "", "test to import into")
	importCmd.Flags().BoolVar(&importNoFuzzy, "no-fuzzy", false, "treat rename proposals as new channels")
	importCmd.MarkFlagRequired("test")
}
