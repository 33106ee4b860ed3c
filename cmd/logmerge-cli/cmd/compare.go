package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"logmerge/internal/application"
)

var (
	compareMode string
	compareGap  float64
)

var compareCmd = &cobra.Command{
	Use:   "compare <test>...",
	Short: "Lay out several tests against each other",
	Long: `Compute the time shifts that lay several merged tests out against each
other. Overlay mode shares one time axis; concatenate mode places tests end
to end separated by a gap.

Examples:
  logmerge-cli compare bench-12 bench-13
  logmerge-cli compare bench-12 bench-13 --mode concatenate --gap 30`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := application.ParseCompareMode(compareMode)
		if err != nil {
			return err
		}

		ids := make([]string, len(args))
		for i, name := range args {
			id, err := findTest(name)
			if err != nil {
				return err
			}
			ids[i] = id

			// Comparisons need merged tables
			if snap, err := ws.Merged(id); err == nil && snap.Table == nil {
				if _, err := ws.RebuildMerged(cmd.Context(), id); err != nil {
					return err
				}
			}
		}

		comparison, err := ws.Compare(ids, mode, compareGap)
		if err != nil {
			return err
		}

		for i, name := range args {
			fmt.Printf("%s  shift %+g\n", name, comparison.Shifts[i])
		}
		fmt.Printf("combined range [%g, %g]\n", comparison.Min, comparison.Max)

		sessionCompare = mode
		sessionGap = compareGap
		return saveSession(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().StringVarP(&compareMode, "mode", "m", "overlay", "layout mode: overlay or concatenate")
	compareCmd.Flags().Float64Var(&compareGap, "gap", 0, "gap between concatenated tests")
}
