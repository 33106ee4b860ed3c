package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"logmerge/internal/application/commands"
	"logmerge/internal/domain"
)

var diffTest string

var diffCmd = &cobra.Command{
	Use:   "diff --test <name> <file>",
	Short: "Classify a file's headers against a test",
	Long: `Compare the headers of a file against a test's canonical channel set
without attaching the file. Each channel is reported as matched, renamed,
added or removed.

Example:
  logmerge-cli diff --test bench-12 run_c.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		testID, err := findTest(diffTest)
		if err != nil {
			return err
		}

		diffCmd := commands.NewDiffCommand(ws, testID, args[0])
		result, err := diffCmd.Execute(cmd.Context())
		if err != nil {
			return err
		}

		for _, e := range result.Diff.Entries {
			switch e.Class {
			case domain.ClassRenamed:
				fmt.Printf("  %-8s %s -> %s (%.2f)\n", e.Class, e.SourceID, e.TargetID, e.Score)
			case domain.ClassAdded:
				fmt.Printf("  %-8s %s\n", e.Class, e.SourceID)
			case domain.ClassRemoved:
				fmt.Printf("  %-8s %s\n", e.Class, e.TargetID)
			default:
				fmt.Printf("  %-8s %s -> %s\n", e.Class, e.SourceID, e.TargetID)
			}
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().StringVarP(&diffTest, "test", "t", "", "test to diff against")
	diffCmd.MarkFlagRequired("test")
}
