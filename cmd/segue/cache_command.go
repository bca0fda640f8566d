package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"segue/internal/ratings"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the local rating cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheListCommand(ctx))

	return cacheCmd
}

type cacheStatsResponse struct {
	Records int64          `json:"records"`
	DBPath  string         `json:"db_path"`
	Health  ratings.Health `json:"health"`
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats cacheStatsResponse
			if err := ctx.apiClient().get(cmd.Context(), "/api/cache/stats", nil, &stats); err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, stats)
			}

			out := cmd.OutOrStdout()
			colorize := colorizeOutput(out)
			fmt.Fprintln(out, statusLine("database", stateInfo, stats.DBPath, colorize))
			fmt.Fprintln(out, statusLine("records", stateInfo, strconv.FormatInt(stats.Records, 10), colorize))
			integrityState, integrityDetail := stateGood, "passed"
			if !stats.Health.IntegrityOK {
				integrityState, integrityDetail = stateBad, stats.Health.Error
			}
			fmt.Fprintln(out, statusLine("integrity", integrityState, integrityDetail, colorize))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

// newCacheListCommand reads the database directly so listing works while
// the daemon is down.
func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached rating records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ratings.Open(cfg)
			if err != nil {
				return fmt.Errorf("open ratings store: %w", err)
			}
			defer store.Close()

			records, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list records: %w", err)
			}
			if jsonOutput {
				return writeJSON(cmd, records)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "Cache is empty")
				return nil
			}

			fmt.Fprintln(out, cacheTable(records))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}
