package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var testsCmd = &cobra.Command{
	Use:   "tests",
	Short: "List the tests in the current layout",
	RunE: func(cmd *cobra.Command, args []string) error {
		infos := ws.Tests()
		if len(infos) == 0 {
			fmt.Printf("No tests in %s\n", layoutPath)
			return nil
		}
		for _, info := range infos {
			fmt.Printf("%s  %d files, %d channels\n", info.Name, info.Files, info.Channels)
		}
		return nil
	},
}

var testsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a test and its attached files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		testID, err := findTest(args[0])
		if err != nil {
			return err
		}
		if err := ws.DeleteTest(testID); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return saveSession(cmd.Context())
	},
}

var (
	fileTimeFile   string
	fileTimeOffset float64
	fileTimeScale  float64
)

var testsFileTimeCmd = &cobra.Command{
	Use:   "file-time <name>",
	Short: "Set one file's time offset and scale",
	Long: `Set the per-file time offset and scale applied during alignment.
The offset is added in custom-offset time mode; the scale converts the raw
time unit (for example 0.001 for milliseconds to seconds).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		testID, err := findTest(args[0])
		if err != nil {
			return err
		}
		if err := ws.SetFileTime(testID, fileTimeFile, fileTimeOffset, fileTimeScale); err != nil {
			return err
		}
		fmt.Printf("File %s: offset %g, scale %g\n", fileTimeFile, fileTimeOffset, fileTimeScale)
		return saveSession(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(testsCmd)
	testsCmd.AddCommand(testsDeleteCmd)
	testsCmd.AddCommand(testsFileTimeCmd)
	testsFileTimeCmd.Flags().StringVarP(&fileTimeFile, "file", "f", "", "file ID shown by the TUI browser")
	testsFileTimeCmd.Flags().Float64Var(&fileTimeOffset, "offset", 0, "time offset added in custom-offset mode")
	testsFileTimeCmd.Flags().Float64Var(&fileTimeScale, "scale", 1, "multiplier applied to the raw time column")
	testsFileTimeCmd.MarkFlagRequired("file")
}
