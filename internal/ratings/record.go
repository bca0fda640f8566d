package ratings

import (
	"time"

	"segue/internal/identity"
)

// Status tags a record broadcast to the UI layer.
type Status string

const (
	StatusFresh   Status = "fresh"
	StatusStale   Status = "stale"
	StatusMissing Status = "missing"
)

// TrackRating is one entry of the ordered per-track rating list scraped
// from a release page.
type TrackRating struct {
	Title  string  `json:"title"`
	Rating float64 `json:"rating"`
}

// Review is a short excerpt of a user review.
type Review struct {
	Reviewer string `json:"reviewer"`
	Excerpt  string `json:"excerpt"`
}

// Record is a scraped rating entry for one release. ArtistName and
// AlbumName preserve the casing of the page they came from; identity
// comparisons go through the normalizer instead.
type Record struct {
	ArtistName      string        `json:"artist_name"`
	AlbumName       string        `json:"album_name"`
	Rating          float64       `json:"rating"`
	RatingCount     int64         `json:"rating_count"`
	SourceURL       string        `json:"source_url"`
	Genres          []string      `json:"genres"`
	SecondaryGenres []string      `json:"secondary_genres"`
	Descriptors     []string      `json:"descriptors"`
	Language        string        `json:"language"`
	Rank            int64         `json:"rank"`
	TrackRatings    []TrackRating `json:"track_ratings"`
	Reviews         []Review      `json:"reviews"`
	ReleaseDate     string        `json:"release_date"`
	FetchedAt       time.Time     `json:"fetched_at"`
	Status          Status        `json:"status,omitempty"`
}

// Identity returns the record's raw identity.
func (r *Record) Identity() identity.Identity {
	return identity.New(r.ArtistName, r.AlbumName)
}

// Complete reports whether the record carries the full scraped payload.
// Completeness is judged by payload presence, not elapsed time: a record
// without track ratings came from a search result or a partial scrape and
// must be refreshed regardless of its TTL.
func (r *Record) Complete() bool {
	return len(r.TrackRatings) > 0
}

// Missing builds the placeholder record broadcast on a true cache miss so
// the UI always receives a status-tagged payload.
func Missing(id identity.Identity, now time.Time) *Record {
	return &Record{
		ArtistName: id.Artist,
		AlbumName:  id.Album,
		FetchedAt:  now,
		Status:     StatusMissing,
	}
}
