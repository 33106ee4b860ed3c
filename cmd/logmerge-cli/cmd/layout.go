package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"logmerge/internal/application/commands"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Save or load a workspace layout file",
}

var layoutSaveCmd = &cobra.Command{
	Use:   "save <path>",
	Short: "Write the current workspace to a layout file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		save := commands.NewSaveLayoutCommand(ws, args[0])
		save.CompareMode = sessionCompare
		save.Gap = sessionGap
		res, err := save.Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(res.Message)
		return nil
	},
}

var layoutLoadCmd = &cobra.Command{
	Use:   "load <path>",
	Short: "Restore tests from a layout file into the current session",
	Long: `Restore tests from a layout file into the current session.

Files that moved since the layout was saved are reported as missing;
use --remap old=new to substitute their paths. The restored tests are
written back to the session layout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		load := commands.NewLoadLayoutCommand(ws, args[0])
		remap, err := parseRemap(remapFlags)
		if err != nil {
			return err
		}
		load.Remap = remap

		res, err := load.Execute(cmd.Context())
		if err != nil {
			return err
		}
		for _, m := range res.Missing {
			fmt.Printf("missing: %s (%s)\n", m.Path, m.TestName)
		}
		fmt.Println(res.Message)
		return saveSession(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(layoutCmd)
	layoutCmd.AddCommand(layoutSaveCmd)
	layoutCmd.AddCommand(layoutLoadCmd)
}
