package resolver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"segue/internal/identity"
	"segue/internal/ratings"
	"segue/internal/resolver"
)

type fakeStore struct {
	records map[string]*ratings.Record
	getErr  error
	upserts []*ratings.Record
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]*ratings.Record{}}
}

func (s *fakeStore) put(record *ratings.Record) {
	s.records[record.Identity().NormalizedKey()] = record
}

func (s *fakeStore) Get(_ context.Context, id identity.Identity) (*ratings.Record, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.records[id.NormalizedKey()], nil
}

func (s *fakeStore) Upsert(_ context.Context, record *ratings.Record) error {
	s.upserts = append(s.upserts, record)
	s.put(record)
	return nil
}

type fakeRemote struct {
	record *ratings.Record
	err    error
	calls  int
}

func (r *fakeRemote) Get(context.Context, identity.Identity) (*ratings.Record, error) {
	r.calls++
	return r.record, r.err
}

var testNow = time.Date(2026, time.August, 23, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func completeRecord(artist, album string, fetchedAt time.Time) *ratings.Record {
	return &ratings.Record{
		ArtistName:   artist,
		AlbumName:    album,
		Rating:       3.9,
		ReleaseDate:  "1997",
		TrackRatings: []ratings.TrackRating{{Title: "One", Rating: 4.0}},
		FetchedAt:    fetchedAt,
	}
}

func TestFreshLocalHitSkipsRemote(t *testing.T) {
	store := newFakeStore()
	store.put(completeRecord("Björk", "Homogenic", testNow.Add(-24*time.Hour)))
	remote := &fakeRemote{err: errors.New("remote must not be invoked")}

	r := resolver.New(store, remote, nil).WithClock(clock)
	record, err := r.Resolve(context.Background(), identity.New("Björk", "Homogenic"), false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if record.Status != ratings.StatusFresh {
		t.Fatalf("status = %q, want fresh", record.Status)
	}
	if remote.calls != 0 {
		t.Fatal("fresh complete local hit must not call the remote tier")
	}
}

func TestIncompleteLocalRecordConsultsRemote(t *testing.T) {
	store := newFakeStore()
	partial := completeRecord("Low", "Double Negative", testNow.Add(-time.Hour))
	partial.TrackRatings = nil
	store.put(partial)

	remoteRecord := completeRecord("Low", "Double Negative", testNow.Add(-30*time.Minute))
	remote := &fakeRemote{record: remoteRecord}

	r := resolver.New(store, remote, nil).WithClock(clock)
	record, err := r.Resolve(context.Background(), identity.New("Low", "Double Negative"), false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if record.Status != ratings.StatusFresh {
		t.Fatalf("status = %q, want fresh from remote", record.Status)
	}
	if len(store.upserts) != 1 {
		t.Fatalf("remote record should be persisted locally, upserts = %d", len(store.upserts))
	}
}

func TestStaleCandidatesCompeteOnFetchedAt(t *testing.T) {
	store := newFakeStore()
	localStale := completeRecord("Slowdive", "Souvlaki", testNow.Add(-400*24*time.Hour))
	localStale.Rating = 3.5
	store.put(localStale)

	remoteStale := completeRecord("Slowdive", "Souvlaki", testNow.Add(-300*24*time.Hour))
	remoteStale.Rating = 3.8
	remote := &fakeRemote{record: remoteStale}

	r := resolver.New(store, remote, nil).WithClock(clock)
	record, err := r.Resolve(context.Background(), identity.New("Slowdive", "Souvlaki"), false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if record.Status != ratings.StatusStale {
		t.Fatalf("status = %q, want stale", record.Status)
	}
	if record.Rating != 3.8 {
		t.Fatalf("rating = %v, want the strictly newer remote candidate", record.Rating)
	}
}

func TestOlderRemoteDoesNotReplaceLocal(t *testing.T) {
	store := newFakeStore()
	localStale := completeRecord("Ride", "Nowhere", testNow.Add(-300*24*time.Hour))
	localStale.Rating = 3.7
	store.put(localStale)

	remoteOlder := completeRecord("Ride", "Nowhere", testNow.Add(-500*24*time.Hour))
	remoteOlder.Rating = 3.1
	remote := &fakeRemote{record: remoteOlder}

	r := resolver.New(store, remote, nil).WithClock(clock)
	record, err := r.Resolve(context.Background(), identity.New("Ride", "Nowhere"), false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if record.Rating != 3.7 {
		t.Fatalf("rating = %v, want local candidate kept", record.Rating)
	}
	if len(store.upserts) != 0 {
		t.Fatal("older remote record must not overwrite the local row")
	}
}

func TestTrueMissReturnsTaggedPlaceholder(t *testing.T) {
	r := resolver.New(newFakeStore(), &fakeRemote{}, nil).WithClock(clock)
	record, err := r.Resolve(context.Background(), identity.New("Nobody", "Nothing"), false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if record.Status != ratings.StatusMissing {
		t.Fatalf("status = %q, want missing", record.Status)
	}
	if record.ArtistName != "Nobody" || record.AlbumName != "Nothing" {
		t.Fatalf("placeholder should echo the identity: %+v", record)
	}
}

func TestRemoteErrorDegradesToStaleOrMiss(t *testing.T) {
	store := newFakeStore()
	stale := completeRecord("Hum", "Downward Is Heavenward", testNow.Add(-400*24*time.Hour))
	store.put(stale)
	remote := &fakeRemote{err: errors.New("network down")}

	r := resolver.New(store, remote, nil).WithClock(clock)
	record, err := r.Resolve(context.Background(), identity.New("Hum", "Downward Is Heavenward"), false)
	if err != nil {
		t.Fatalf("remote failure must not surface: %v", err)
	}
	if record.Status != ratings.StatusStale {
		t.Fatalf("status = %q, want stale fallback", record.Status)
	}
}

func TestLocalStoreErrorDegradesToRemote(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("disk error")
	remote := &fakeRemote{record: completeRecord("Duster", "Stratosphere", testNow.Add(-time.Hour))}

	r := resolver.New(store, remote, nil).WithClock(clock)
	record, err := r.Resolve(context.Background(), identity.New("Duster", "Stratosphere"), false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if record.Status != ratings.StatusFresh {
		t.Fatalf("status = %q, want fresh from remote despite local failure", record.Status)
	}
}

func TestForceBypassesBothFreshnessAndRemote(t *testing.T) {
	store := newFakeStore()
	fresh := completeRecord("Deftones", "White Pony", testNow.Add(-time.Hour))
	store.put(fresh)
	remote := &fakeRemote{err: errors.New("remote must not be invoked under force")}

	r := resolver.New(store, remote, nil).WithClock(clock)
	record, err := r.Resolve(context.Background(), identity.New("Deftones", "White Pony"), true)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if record.Status != ratings.StatusStale {
		t.Fatalf("status = %q, want stale under force so a re-scrape is scheduled", record.Status)
	}
	if remote.calls != 0 {
		t.Fatalf("remote calls = %d, force must skip the remote tier", remote.calls)
	}
}

func TestFreshRemoteWrittenBackDespiteNewerIncompleteLocal(t *testing.T) {
	store := newFakeStore()
	partial := completeRecord("Low", "Double Negative", testNow.Add(-time.Hour))
	partial.TrackRatings = nil
	store.put(partial)

	// Older than the local row, but fresh and complete.
	remoteRecord := completeRecord("Low", "Double Negative", testNow.Add(-2*time.Hour))
	remote := &fakeRemote{record: remoteRecord}

	r := resolver.New(store, remote, nil).WithClock(clock)
	record, err := r.Resolve(context.Background(), identity.New("Low", "Double Negative"), false)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if record.Status != ratings.StatusFresh {
		t.Fatalf("status = %q, want fresh from remote", record.Status)
	}
	if len(store.upserts) != 1 {
		t.Fatalf("fresh remote hit must be written back, upserts = %d", len(store.upserts))
	}
}
