package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"segue/internal/config"
	"segue/internal/identity"
	"segue/internal/ratings"
)

// HTTPDoer describes the HTTP client used by the remote cache client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the shared rating cache. A nil *Client is valid and
// behaves as a permanent miss, so local-only setups need no branching at
// call sites.
type Client struct {
	baseURL string
	apiKey  string
	table   string
	client  HTTPDoer
}

// NewFromConfig returns a client when the remote cache is configured and
// nil otherwise.
func NewFromConfig(cfg *config.Config) *Client {
	if cfg == nil || !cfg.RemoteEnabled() {
		return nil
	}
	timeout := time.Duration(cfg.RemoteCache.TimeoutSeconds) * time.Second
	return New(cfg.RemoteCache.URL, cfg.RemoteCache.APIKey, cfg.RemoteCache.Table, &http.Client{Timeout: timeout})
}

// New constructs a client against an explicit endpoint.
func New(baseURL, apiKey, table string, client HTTPDoer) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	if strings.TrimSpace(table) == "" {
		table = "album_ratings"
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		table:   table,
		client:  client,
	}
}

// Enabled reports whether the client can reach a remote endpoint.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != "" && c.apiKey != ""
}

// row is the remote table shape. List-valued fields travel as JSON
// strings inside text columns, matching the local store's encoding.
type row struct {
	ArtistName      string  `json:"artist_name"`
	AlbumName       string  `json:"album_name"`
	Rating          float64 `json:"rating"`
	RatingCount     int64   `json:"rating_count"`
	SourceURL       string  `json:"source_url"`
	Genres          string  `json:"genres"`
	SecondaryGenres string  `json:"secondary_genres"`
	Descriptors     string  `json:"descriptors"`
	Language        string  `json:"language"`
	Rank            int64   `json:"rank"`
	TrackRatings    string  `json:"track_ratings"`
	Reviews         string  `json:"reviews"`
	ReleaseDate     string  `json:"release_date"`
	FetchedAt       string  `json:"fetched_at"`
}

// Get performs an exact-key lookup on the raw identity. Only the raw
// pair is queried; fuzzy matching stays a local concern. A nil record
// with a nil error is a miss.
func (c *Client) Get(ctx context.Context, id identity.Identity) (*ratings.Record, error) {
	if !c.Enabled() {
		return nil, nil
	}

	query := url.Values{}
	query.Set("artist_name", "eq."+id.Artist)
	query.Set("album_name", "eq."+id.Album)
	query.Set("select", "*")
	query.Set("limit", "1")
	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", c.baseURL, url.PathEscape(c.table), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build remote get request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("remote get returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read remote response: %w", err)
	}

	var rows []row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode remote response: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].record(), nil
}

// Upsert writes the record to the shared cache, merging on the table's
// unique (artist, album) constraint so concurrent writers converge.
func (c *Client) Upsert(ctx context.Context, record *ratings.Record) error {
	if !c.Enabled() {
		return nil
	}
	if record == nil {
		return nil
	}

	payload, err := json.Marshal(toRow(record))
	if err != nil {
		return fmt.Errorf("encode remote payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, url.PathEscape(c.table))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build remote upsert request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("remote upsert: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("remote upsert returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("apikey", c.apiKey)
}

func (r row) record() *ratings.Record {
	record := &ratings.Record{
		ArtistName:      r.ArtistName,
		AlbumName:       r.AlbumName,
		Rating:          r.Rating,
		RatingCount:     r.RatingCount,
		SourceURL:       r.SourceURL,
		Genres:          decodeList(r.Genres),
		SecondaryGenres: decodeList(r.SecondaryGenres),
		Descriptors:     decodeList(r.Descriptors),
		Language:        r.Language,
		Rank:            r.Rank,
		ReleaseDate:     r.ReleaseDate,
	}
	if r.TrackRatings != "" {
		_ = json.Unmarshal([]byte(r.TrackRatings), &record.TrackRatings)
	}
	if r.Reviews != "" {
		_ = json.Unmarshal([]byte(r.Reviews), &record.Reviews)
	}
	if fetched, err := time.Parse(time.RFC3339Nano, r.FetchedAt); err == nil {
		record.FetchedAt = fetched
	}
	return record
}

func toRow(record *ratings.Record) row {
	return row{
		ArtistName:      record.ArtistName,
		AlbumName:       record.AlbumName,
		Rating:          record.Rating,
		RatingCount:     record.RatingCount,
		SourceURL:       record.SourceURL,
		Genres:          encodeList(record.Genres),
		SecondaryGenres: encodeList(record.SecondaryGenres),
		Descriptors:     encodeList(record.Descriptors),
		Language:        record.Language,
		Rank:            record.Rank,
		TrackRatings:    encodeJSON(record.TrackRatings),
		Reviews:         encodeJSON(record.Reviews),
		ReleaseDate:     record.ReleaseDate,
		FetchedAt:       record.FetchedAt.UTC().Format(time.RFC3339Nano),
	}
}

func encodeList(values []string) string {
	if len(values) == 0 {
		return ""
	}
	data, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(data)
}

func decodeList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(value), &values); err != nil {
		return nil
	}
	return values
}

func encodeJSON(value any) string {
	data, err := json.Marshal(value)
	if err != nil || string(data) == "null" {
		return ""
	}
	return string(data)
}
