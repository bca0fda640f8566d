package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"segue/internal/daemon"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status daemon.Status
			if err := ctx.apiClient().get(cmd.Context(), "/api/status", nil, &status); err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			colorize := colorizeOutput(out)
			fmt.Fprintln(out, "Segue Daemon")

			runState := stateBad
			if status.Running {
				runState = stateGood
			}
			fmt.Fprintln(out, statusLine("running", runState, fmt.Sprintf("pid %d", status.PID), colorize))

			remoteState, remoteDetail := stateInfo, "local only"
			if status.RemoteEnabled {
				remoteState, remoteDetail = stateGood, "enabled"
			}
			fmt.Fprintln(out, statusLine("remote", remoteState, remoteDetail, colorize))

			cacheState := stateGood
			cacheDetail := fmt.Sprintf("%d records", status.CacheHealth.TotalRecords)
			if !status.CacheHealth.IntegrityOK {
				cacheState = stateBad
				cacheDetail = status.CacheHealth.Error
			}
			fmt.Fprintln(out, statusLine("cache", cacheState, cacheDetail, colorize))
			fmt.Fprintln(out, statusLine("surfaces", stateInfo, fmt.Sprintf("%d connected", status.Clients), colorize))
			fmt.Fprintln(out, statusLine("focus", stateInfo,
				fmt.Sprintf("primary %s, secondary %s", yesNo(status.PrimaryFocused), yesNo(status.SecondaryFocused)), colorize))

			if status.Primary != "" {
				fmt.Fprintln(out, statusLine("primary", stateInfo, status.Primary, colorize))
			}
			if status.Secondary != "" {
				fmt.Fprintln(out, statusLine("secondary", stateInfo, status.Secondary, colorize))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}
