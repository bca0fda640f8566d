package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"segue/internal/ratings"
)

func newLinkCommand(ctx *commandContext) *cobra.Command {
	var recordPath string

	cmd := &cobra.Command{
		Use:   "link <artist> <album>",
		Short: "Manually link a scraped record to a release",
		Long: "Link stores a scraped rating record under the given artist and album,\n" +
			"overriding the identity the scraper reported. The record is read as JSON\n" +
			"from --record or from stdin.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var reader io.Reader = cmd.InOrStdin()
			if strings.TrimSpace(recordPath) != "" {
				file, err := os.Open(recordPath)
				if err != nil {
					return fmt.Errorf("open record file: %w", err)
				}
				defer file.Close()
				reader = file
			}

			var record ratings.Record
			if err := json.NewDecoder(reader).Decode(&record); err != nil {
				return fmt.Errorf("decode record: %w", err)
			}

			payload := map[string]any{
				"target_artist": args[0],
				"target_album":  args[1],
				"record":        record,
			}
			if err := ctx.apiClient().post(cmd.Context(), "/api/events/link", payload, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Linked %s - %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.Flags().StringVar(&recordPath, "record", "", "Path to the record JSON (defaults to stdin)")
	return cmd
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.apiClient().post(cmd.Context(), "/api/notify/test", map[string]string{}, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
