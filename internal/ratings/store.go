package ratings

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"segue/internal/config"
	"segue/internal/identity"
)

//go:embed schema.sql
var schemaSQL string

// additiveColumns lists columns added after the initial schema. Applied
// best-effort on open so existing databases pick up new optional columns;
// "duplicate column" errors are expected and ignored.
var additiveColumns = []string{
	"ALTER TABLE album_ratings ADD COLUMN secondary_genres TEXT NOT NULL DEFAULT ''",
	"ALTER TABLE album_ratings ADD COLUMN descriptors TEXT NOT NULL DEFAULT ''",
	"ALTER TABLE album_ratings ADD COLUMN language TEXT NOT NULL DEFAULT ''",
	"ALTER TABLE album_ratings ADD COLUMN rank INTEGER NOT NULL DEFAULT 0",
	"ALTER TABLE album_ratings ADD COLUMN reviews TEXT NOT NULL DEFAULT ''",
}

// Store manages rating persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ratings database. This is the only
// fatal startup dependency: callers must abort when Open fails.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.DataDir, "ratings.db"))
}

// OpenPath opens the database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	for _, stmt := range additiveColumns {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "duplicate column") {
				continue
			}
			return fmt.Errorf("apply additive column: %w", err)
		}
	}
	return nil
}

// Get resolves a record for the identity. The exact case-insensitive
// match on the raw pair wins; otherwise the store is scanned for the
// first record whose normalized identity matches. A nil record with a
// nil error is a miss.
func (s *Store) Get(ctx context.Context, id identity.Identity) (*Record, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+recordColumns+` FROM album_ratings
         WHERE artist_name = ? COLLATE NOCASE AND album_name = ? COLLATE NOCASE
         LIMIT 1`,
		id.Artist,
		id.Album,
	)
	record, err := scanRecord(row)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get rating: %w", err)
	}

	return s.fuzzyScan(ctx, id)
}

// fuzzyScan walks stored records in insertion order and returns the first
// whose normalized identity matches the query. O(n) in catalog size,
// which is fine for a personal collection; first match wins even when
// several records normalize identically.
func (s *Store) fuzzyScan(ctx context.Context, id identity.Identity) (*Record, error) {
	want := id.NormalizedKey()
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM album_ratings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("fuzzy scan: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("fuzzy scan: %w", err)
		}
		if record.Identity().NormalizedKey() == want {
			return record, nil
		}
	}
	return nil, rows.Err()
}

// Upsert stores the record, replacing any existing row sharing the raw
// (artist, album) pair. Last write wins, including fetched_at.
func (s *Store) Upsert(ctx context.Context, record *Record) error {
	if record == nil {
		return errors.New("record is nil")
	}
	if record.ArtistName == "" || record.AlbumName == "" {
		return errors.New("record requires artist and album names")
	}

	fetchedAt := record.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO album_ratings (
            artist_name, album_name, rating, rating_count, source_url,
            genres, secondary_genres, descriptors, language, rank,
            track_ratings, reviews, release_date, fetched_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(artist_name, album_name) DO UPDATE SET
            rating = excluded.rating,
            rating_count = excluded.rating_count,
            source_url = excluded.source_url,
            genres = excluded.genres,
            secondary_genres = excluded.secondary_genres,
            descriptors = excluded.descriptors,
            language = excluded.language,
            rank = excluded.rank,
            track_ratings = excluded.track_ratings,
            reviews = excluded.reviews,
            release_date = excluded.release_date,
            fetched_at = excluded.fetched_at`,
		record.ArtistName,
		record.AlbumName,
		record.Rating,
		record.RatingCount,
		record.SourceURL,
		marshalList(record.Genres),
		marshalList(record.SecondaryGenres),
		marshalList(record.Descriptors),
		record.Language,
		record.Rank,
		marshalJSON(record.TrackRatings),
		marshalJSON(record.Reviews),
		record.ReleaseDate,
		fetchedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

// List returns all stored records ordered by artist then album, for cache
// inspection from the CLI.
func (s *Store) List(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+recordColumns+` FROM album_ratings ORDER BY artist_name COLLATE NOCASE, album_name COLLATE NOCASE`,
	)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list ratings: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM album_ratings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count ratings: %w", err)
	}
	return count, nil
}

// Health describes the state of the ratings database for diagnostics.
type Health struct {
	DBPath         string `json:"db_path"`
	DatabaseExists bool   `json:"database_exists"`
	Readable       bool   `json:"readable"`
	TotalRecords   int64  `json:"total_records"`
	IntegrityOK    bool   `json:"integrity_ok"`
	Error          string `json:"error,omitempty"`
}

// CheckHealth pings the database and runs an integrity check.
func (s *Store) CheckHealth(ctx context.Context) (Health, error) {
	health := Health{DBPath: s.path}

	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat ratings database: %w", err)
	}
	health.DatabaseExists = true

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping ratings database: %w", err)
	}
	health.Readable = true

	if err := s.db.QueryRowContext(connCtx, `SELECT COUNT(*) FROM album_ratings`).Scan(&health.TotalRecords); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("count ratings: %w", err)
	}

	var integrity string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityOK = strings.EqualFold(integrity, "ok")
	return health, nil
}

const recordColumns = "artist_name, album_name, rating, rating_count, source_url, genres, secondary_genres, descriptors, language, rank, track_ratings, reviews, release_date, fetched_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		record     Record
		genres     sql.NullString
		secondary  sql.NullString
		descript   sql.NullString
		language   sql.NullString
		tracks     sql.NullString
		reviews    sql.NullString
		fetchedRaw string
	)

	if err := scanner.Scan(
		&record.ArtistName,
		&record.AlbumName,
		&record.Rating,
		&record.RatingCount,
		&record.SourceURL,
		&genres,
		&secondary,
		&descript,
		&language,
		&record.Rank,
		&tracks,
		&reviews,
		&record.ReleaseDate,
		&fetchedRaw,
	); err != nil {
		return nil, err
	}

	record.Genres = unmarshalList(genres.String)
	record.SecondaryGenres = unmarshalList(secondary.String)
	record.Descriptors = unmarshalList(descript.String)
	record.Language = language.String
	record.TrackRatings = unmarshalTracks(tracks.String)
	record.Reviews = unmarshalReviews(reviews.String)

	if fetched, err := time.Parse(time.RFC3339Nano, fetchedRaw); err == nil {
		record.FetchedAt = fetched
	}
	return &record, nil
}

func marshalList(values []string) string {
	if len(values) == 0 {
		return ""
	}
	data, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(data)
}

func unmarshalList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(value), &values); err != nil {
		return nil
	}
	return values
}

func marshalJSON(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	if string(data) == "null" {
		return ""
	}
	return string(data)
}

func unmarshalTracks(value string) []TrackRating {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var tracks []TrackRating
	if err := json.Unmarshal([]byte(value), &tracks); err != nil {
		return nil
	}
	return tracks
}

func unmarshalReviews(value string) []Review {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var reviews []Review
	if err := json.Unmarshal([]byte(value), &reviews); err != nil {
		return nil
	}
	return reviews
}
