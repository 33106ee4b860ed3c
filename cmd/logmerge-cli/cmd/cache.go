package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"logmerge/internal/adapters/sqlite"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the import cache",
	Long: `The import cache stores parsed header descriptor sets keyed by file
path, mtime and size, so re-importing an unchanged file skips the header
grammar pass.`,
}

var cacheSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Drop cache entries whose source files changed or vanished",
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := cacheIndex()
		if err != nil {
			return err
		}
		stats, err := idx.Sync()
		if err != nil {
			return err
		}
		fmt.Printf("Scanned %d entries, removed %d in %s\n",
			stats.EntriesScanned, stats.EntriesRemoved, stats.Duration.Round(time.Millisecond))
		return nil
	},
}

var cacheResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop every cache entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := cacheIndex()
		if err != nil {
			return err
		}
		if err := idx.Reset(); err != nil {
			return err
		}
		fmt.Println("Cache reset")
		return nil
	},
}

func cacheIndex() (*sqlite.Index, error) {
	idx, ok := cache.(*sqlite.Index)
	if !ok || idx == nil {
		return nil, fmt.Errorf("import cache is disabled (set LOGMERGE_CACHE=true)")
	}
	return idx, nil
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheSyncCmd, cacheResetCmd)
}
