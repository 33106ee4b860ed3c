package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"logmerge/internal/application"
	"logmerge/internal/application/commands"
	"logmerge/internal/domain"
)

var (
	mergeTest      string
	mergeStrategy  string
	mergeTimeMode  string
	mergeKey       string
	mergeTolerance float64
	mergeGap       float64
)

var mergeCmd = &cobra.Command{
	Use:   "merge --test <name>",
	Short: "Rebuild a test's merged table",
	Long: `Configure a test's join strategy and rebuild its merged table.

Strategies: time-nearest (tolerance-bounded nearest sample), time-exact
(exact time match), append (concatenate files end to end), alternative-key
(join on a non-time key channel).

Examples:
  logmerge-cli merge --test bench-12
  logmerge-cli merge --test bench-12 --strategy time-nearest --tolerance 0.05
  logmerge-cli merge --test bench-12 --strategy append --gap 10
  logmerge-cli merge --test bench-12 --strategy alternative-key --key ch4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		testID, err := findTest(mergeTest)
		if err != nil {
			return err
		}

		// Only flags the user actually set override the test's current
		// join configuration.
		mergeCmd := commands.NewMergeCommand(ws, testID)
		flags := cmd.Flags()
		if flags.Changed("strategy") {
			strategy, err := application.ParseJoinStrategy(mergeStrategy)
			if err != nil {
				return err
			}
			mergeCmd.Strategy = strategy
		}
		if flags.Changed("time-mode") {
			mode, err := application.ParseTimeMode(mergeTimeMode)
			if err != nil {
				return err
			}
			mergeCmd.TimeMode = mode
		}
		if flags.Changed("key") {
			mergeCmd.KeyID = mergeKey
		}
		if flags.Changed("tolerance") {
			mergeCmd.Tolerance = mergeTolerance
		}
		if flags.Changed("gap") {
			mergeCmd.Gap = mergeGap
		}

		result, err := mergeCmd.Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)

		return saveSession(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().StringVarP(&mergeTest, "test", "t", "", "test to merge")
	mergeCmd.Flags().StringVarP(&mergeStrategy, "strategy", "s", "", "join strategy: time-nearest, time-exact, append, alternative-key")
	mergeCmd.Flags().StringVar(&mergeTimeMode, "time-mode", "", "time alignment: absolute or relative")
	mergeCmd.Flags().StringVarP(&mergeKey, "key", "k", "", "canonical channel id for key joins")
	mergeCmd.Flags().Float64Var(&mergeTolerance, "tolerance", domain.DefaultTolerance, "nearest-join tolerance")
	mergeCmd.Flags().Float64Var(&mergeGap, "gap", 0, "gap inserted between appended files")
	mergeCmd.MarkFlagRequired("test")
}
