package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"logmerge/internal/application/commands"
	"logmerge/internal/domain"
)

var (
	channelsTest       string
	channelsQuery      string
	channelsCategories []string
	channelsUnits      []string
	channelsGrouped    bool
)

var channelsCmd = &cobra.Command{
	Use:   "channels --test <name>",
	Short: "List a test's canonical channels",
	Long: `List the canonical channels of a test with per-channel statistics when
a merged table exists.

Examples:
  logmerge-cli channels --test bench-12
  logmerge-cli channels --test bench-12 --query temp
  logmerge-cli channels --test bench-12 --grouped`,
	RunE: func(cmd *cobra.Command, args []string) error {
		testID, err := findTest(channelsTest)
		if err != nil {
			return err
		}

		channelsCmd := commands.NewChannelsCommand(ws, testID)
		channelsCmd.Query = domain.ChannelQuery{
			Text:       channelsQuery,
			Categories: channelsCategories,
			Units:      channelsUnits,
		}
		channelsCmd.Grouped = channelsGrouped

		result, err := channelsCmd.Execute(cmd.Context())
		if err != nil {
			return err
		}

		if channelsGrouped {
			printGrouped(result.Groups)
		} else {
			for _, e := range result.Entries {
				line := fmt.Sprintf("%-6s %s", e.Descriptor.ID, domain.FormatHeader(e.Descriptor))
				if e.HasStats {
					line += fmt.Sprintf("  min %g  max %g  mean %g", e.Stats.Min, e.Stats.Max, e.Stats.Mean)
				}
				fmt.Println(line)
			}
		}
		fmt.Println(result.Message)
		return nil
	},
}

func printGrouped(groups map[string]map[string][]domain.ChannelDescriptor) {
	categories := make([]string, 0, len(groups))
	for cat := range groups {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	for _, cat := range categories {
		fmt.Printf("%s\n", cat)
		units := make([]string, 0, len(groups[cat]))
		for unit := range groups[cat] {
			units = append(units, unit)
		}
		sort.Strings(units)
		for _, unit := range units {
			for _, ch := range groups[cat][unit] {
				fmt.Printf("  %-6s %s\n", ch.ID, domain.FormatHeader(ch))
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(channelsCmd)
	channelsCmd.Flags().StringVarP(&channelsTest, "test", "t", "", "test to list")
	channelsCmd.Flags().StringVarP(&channelsQuery, "query", "q", "", "substring filter on name or raw header")
	channelsCmd.Flags().StringSliceVar(&channelsCategories, "category", nil, "restrict to categories")
	channelsCmd.Flags().StringSliceVar(&channelsUnits, "unit", nil, "restrict to units")
	channelsCmd.Flags().BoolVarP(&channelsGrouped, "grouped", "g", false, "group by category and unit")
	channelsCmd.MarkFlagRequired("test")
}
