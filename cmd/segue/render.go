package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"segue/internal/ratings"
)

// writeJSON prints v as indented JSON for --json output.
func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

type lineState int

const (
	stateInfo lineState = iota
	stateGood
	stateBad
)

const (
	colorReset = "\x1b[0m"
	colorRed   = "\x1b[31m"
	colorGreen = "\x1b[32m"
	colorCyan  = "\x1b[36m"
)

// statusLine renders one aligned "label detail" report line with a state
// marker, colored when writing to a terminal.
func statusLine(label string, state lineState, detail string, colorize bool) string {
	marker, color := "-", colorCyan
	switch state {
	case stateGood:
		marker, color = "+", colorGreen
	case stateBad:
		marker, color = "!", colorRed
	}
	line := fmt.Sprintf(" %s %-12s %s", marker, label, detail)
	if !colorize {
		return line
	}
	return color + line + colorReset
}

func colorizeOutput(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func formatRating(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

// trackTable renders the ordered per-track rating list.
func trackTable(tracks []ratings.TrackRating) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "Track", "Rating"})
	for i, track := range tracks {
		tw.AppendRow(table.Row{i + 1, track.Title, formatRating(track.Rating)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	return tw.Render()
}

// cacheTable renders the cache listing in the store's artist/album order.
func cacheTable(records []*ratings.Record) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Artist", "Album", "Rating", "Tracks", "Fetched"})
	for _, record := range records {
		tw.AppendRow(table.Row{
			record.ArtistName,
			record.AlbumName,
			formatRating(record.Rating),
			len(record.TrackRatings),
			record.FetchedAt.Format(time.DateOnly),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render()
}
