package main

import (
	"strings"
	"testing"

	"segue/internal/ratings"
)

func TestStatusLineStatesAndColor(t *testing.T) {
	plain := statusLine("cache", stateGood, "12 records", false)
	if !strings.HasPrefix(strings.TrimLeft(plain, " "), "+") {
		t.Fatalf("good state should use the + marker: %q", plain)
	}
	if strings.Contains(plain, "\x1b[") {
		t.Fatalf("plain output must not carry escape codes: %q", plain)
	}

	colored := statusLine("cache", stateBad, "integrity check failed", true)
	if !strings.HasPrefix(colored, colorRed) || !strings.HasSuffix(colored, colorReset) {
		t.Fatalf("bad state should render red: %q", colored)
	}
}

func TestTrackTableRendersOrderedRows(t *testing.T) {
	out := trackTable([]ratings.TrackRating{
		{Title: "Airbag", Rating: 4.3},
		{Title: "Paranoid Android", Rating: 4.55},
	})
	if !strings.Contains(out, "Airbag") || !strings.Contains(out, "4.30") {
		t.Fatalf("missing first track: %q", out)
	}
	if strings.Index(out, "Airbag") > strings.Index(out, "Paranoid Android") {
		t.Fatalf("track order not preserved: %q", out)
	}
}

func TestCacheTableCarriesTrackCounts(t *testing.T) {
	out := cacheTable([]*ratings.Record{
		{ArtistName: "Duster", AlbumName: "Stratosphere", Rating: 3.87,
			TrackRatings: []ratings.TrackRating{{Title: "Moon Age", Rating: 3.9}}},
	})
	requireContains(t, out, "Duster")
	requireContains(t, out, "3.87")
}
