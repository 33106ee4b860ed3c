package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"logmerge/internal/domain"
)

var (
	filterTest    string
	filterChannel string
	filterMin     float64
	filterMax     float64
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Manage row filters on a test",
	Long: `Set or clear row filters. A time filter keeps rows inside a time range;
a value filter keeps rows where one channel stays inside a range. One time
filter and one value filter per channel are active at a time; setting a
filter for an occupied slot replaces it.

Examples:
  logmerge-cli filter time --test bench-12 --min 10 --max 60
  logmerge-cli filter value --test bench-12 --channel ch2 --max 150
  logmerge-cli filter clear --test bench-12`,
}

var filterTimeCmd = &cobra.Command{
	Use:   "time --test <name>",
	Short: "Keep rows inside a time range",
	RunE: func(cmd *cobra.Command, args []string) error {
		return setFilter(cmd, domain.FilterTimeRange, "")
	},
}

var filterValueCmd = &cobra.Command{
	Use:   "value --test <name> --channel <id>",
	Short: "Keep rows where a channel stays inside a range",
	RunE: func(cmd *cobra.Command, args []string) error {
		if filterChannel == "" {
			return fmt.Errorf("value filters need --channel")
		}
		return setFilter(cmd, domain.FilterValueRange, filterChannel)
	},
}

var filterClearCmd = &cobra.Command{
	Use:   "clear --test <name>",
	Short: "Remove every filter from a test",
	RunE: func(cmd *cobra.Command, args []string) error {
		testID, err := findTest(filterTest)
		if err != nil {
			return err
		}
		mask, err := ws.ClearFilters(testID)
		if err != nil {
			return err
		}
		if mask == nil {
			fmt.Println("Cleared filters")
		} else {
			fmt.Printf("Cleared filters, %d rows visible\n", len(mask))
		}
		return saveSession(cmd.Context())
	},
}

func setFilter(cmd *cobra.Command, kind domain.FilterKind, channelID string) error {
	testID, err := findTest(filterTest)
	if err != nil {
		return err
	}

	mask, err := ws.SetFilter(testID, domain.FilterSpec{
		Kind:      kind,
		ChannelID: channelID,
		Min:       filterMin,
		Max:       filterMax,
	})
	if err != nil {
		return err
	}

	if mask == nil {
		fmt.Println("Filter stored; merge the test to compute the row mask")
	} else {
		visible := 0
		for _, keep := range mask {
			if keep {
				visible++
			}
		}
		fmt.Printf("Filter set, %d of %d rows visible\n", visible, len(mask))
	}
	return saveSession(cmd.Context())
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filterCmd.AddCommand(filterTimeCmd, filterValueCmd, filterClearCmd)

	for _, c := range []*cobra.Command{filterTimeCmd, filterValueCmd, filterClearCmd} {
		c.Flags().StringVarP(&filterTest, "test", "t", "", "test to filter")
		c.MarkFlagRequired("test")
	}
	for _, c := range []*cobra.Command{filterTimeCmd, filterValueCmd} {
		c.Flags().Float64Var(&filterMin, "min", math.Inf(-1), "lower bound (inclusive)")
		c.Flags().Float64Var(&filterMax, "max", math.Inf(1), "upper bound (inclusive)")
	}
	filterValueCmd.Flags().StringVarP(&filterChannel, "channel", "c", "", "canonical channel id")
}
