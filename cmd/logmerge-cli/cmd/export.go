package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"logmerge/internal/application/commands"
)

var (
	exportTest          string
	exportOut           string
	exportChannels      []string
	exportIgnoreFilters bool
	exportCopy          bool
)

var exportCmd = &cobra.Command{
	Use:   "export --test <name>",
	Short: "Export a test's merged table as CSV",
	Long: `Write a test's merged table as CSV, restricted to the rows the active
filters keep. Without --output the CSV goes to stdout.

Examples:
  logmerge-cli export --test bench-12 -o merged.csv
  logmerge-cli export --test bench-12 --channels ch1,ch3
  logmerge-cli export --test bench-12 --copy`,
	RunE: func(cmd *cobra.Command, args []string) error {
		testID, err := findTest(exportTest)
		if err != nil {
			return err
		}

		// The merged table is not persisted in the layout; rebuild on demand
		if snap, err := ws.Merged(testID); err == nil && snap.Table == nil {
			if _, err := ws.RebuildMerged(cmd.Context(), testID); err != nil {
				return err
			}
		}

		var out io.Writer = os.Stdout
		var buf strings.Builder
		var file *os.File
		if exportCopy {
			out = &buf
		} else if exportOut != "" {
			file, err = os.Create(exportOut)
			if err != nil {
				return err
			}
			defer file.Close()
			out = file
		}

		exportCmd := commands.NewExportCommand(ws, testID, out)
		exportCmd.Channels = exportChannels
		exportCmd.IgnoreFilters = exportIgnoreFilters

		result, err := exportCmd.Execute(cmd.Context())
		if err != nil {
			return err
		}

		if exportCopy {
			if err := clipboard.WriteAll(buf.String()); err != nil {
				return fmt.Errorf("copy to clipboard: %w", err)
			}
			fmt.Printf("%s (copied to clipboard)\n", result.Message)
			return nil
		}
		if file != nil {
			fmt.Printf("%s -> %s\n", result.Message, exportOut)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportTest, "test", "t", "", "test to export")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default stdout)")
	exportCmd.Flags().StringSliceVar(&exportChannels, "channels", nil, "canonical channel ids to export")
	exportCmd.Flags().BoolVar(&exportIgnoreFilters, "ignore-filters", false, "export every row regardless of filters")
	exportCmd.Flags().BoolVar(&exportCopy, "copy", false, "copy the CSV to the clipboard instead of writing it")
	exportCmd.MarkFlagRequired("test")
}
