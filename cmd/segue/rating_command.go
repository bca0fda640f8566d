package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"segue/internal/ratings"
)

func newRatingCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "rating <artist> <album>",
		Short: "Look up the cached rating for a release",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			query.Set("artist", args[0])
			query.Set("album", args[1])
			if force {
				query.Set("force", "true")
			}

			var record ratings.Record
			if err := ctx.apiClient().get(cmd.Context(), "/api/rating", query, &record); err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, record)
			}

			out := cmd.OutOrStdout()
			if record.Status == ratings.StatusMissing {
				fmt.Fprintf(out, "No rating cached for %s - %s\n", args[0], args[1])
				return nil
			}

			fmt.Fprintf(out, "%s - %s\n", record.ArtistName, record.AlbumName)
			fmt.Fprintf(out, "Rating: %.2f (%d ratings, %s)\n", record.Rating, record.RatingCount, record.Status)
			if len(record.Genres) > 0 {
				fmt.Fprintf(out, "Genres: %s\n", strings.Join(record.Genres, ", "))
			}
			if record.ReleaseDate != "" {
				fmt.Fprintf(out, "Released: %s\n", record.ReleaseDate)
			}
			if record.SourceURL != "" {
				fmt.Fprintf(out, "Source: %s\n", record.SourceURL)
			}

			if len(record.TrackRatings) > 0 {
				fmt.Fprintln(out, trackTable(record.TrackRatings))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Bypass freshness and re-resolve the record")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}
