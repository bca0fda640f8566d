package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"segue/internal/config"
	"segue/internal/ratings"
	"segue/internal/syncer"
	"segue/internal/testsupport"
)

func newTestDaemon(t *testing.T, mutate func(cfg *config.Config)) *Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if mutate != nil {
		mutate(cfg)
	}
	store := testsupport.MustOpenStore(t, cfg)

	d, err := New(cfg, store, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestSecondInstanceCannotStart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	first, err := New(cfg, store, nil)
	if err != nil {
		t.Fatalf("New first: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start first: %v", err)
	}
	defer first.Stop()

	second, err := New(cfg, store, nil)
	if err != nil {
		t.Fatalf("New second: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second instance must fail to acquire the lock")
	}
}

func TestStatusEndpoint(t *testing.T) {
	d := newTestDaemon(t, nil)
	server := httptest.NewServer(d.api.routes())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code = %d", resp.StatusCode)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.CacheDBPath == "" {
		t.Fatal("status should carry the cache path")
	}
	if status.RemoteEnabled {
		t.Fatal("default config is local-only")
	}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	d := newTestDaemon(t, func(cfg *config.Config) {
		cfg.Paths.APIToken = "sekrit"
	})
	server := httptest.NewServer(d.api.routes())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status code = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/status", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET with token: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code with token = %d", resp.StatusCode)
	}
}

func TestScrapeEventPersistsAndRatingEndpointServesIt(t *testing.T) {
	d := newTestDaemon(t, nil)
	server := httptest.NewServer(d.api.routes())
	defer server.Close()

	record := ratings.Record{
		ArtistName:   "Radiohead",
		AlbumName:    "OK Computer",
		Rating:       4.24,
		TrackRatings: []ratings.TrackRating{{Title: "Airbag", Rating: 4.3}},
		ReleaseDate:  "16 June 1997",
	}
	payload, _ := json.Marshal(record)
	resp, err := http.Post(server.URL+"/api/events/scrape", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST scrape: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("scrape status = %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/api/rating?artist=Radiohead&album=OK+Computer")
	if err != nil {
		t.Fatalf("GET rating: %v", err)
	}
	defer resp.Body.Close()
	var got ratings.Record
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode rating: %v", err)
	}
	if got.Rating != 4.24 {
		t.Fatalf("rating = %v", got.Rating)
	}
	if got.Status != ratings.StatusFresh {
		t.Fatalf("status = %q, want fresh", got.Status)
	}
}

func TestRatingEndpointRequiresIdentity(t *testing.T) {
	d := newTestDaemon(t, nil)
	server := httptest.NewServer(d.api.routes())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/rating")
	if err != nil {
		t.Fatalf("GET rating: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestPrimaryEventBroadcastsNavigationOverStream(t *testing.T) {
	d := newTestDaemon(t, nil)
	server := httptest.NewServer(d.api.routes())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial stream: %v", err)
	}
	defer conn.Close()

	// Surface must be registered before the event fires.
	deadline := time.Now().Add(2 * time.Second)
	for d.hub.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	body := []byte(`{"artist":"Duster","album":"Stratosphere"}`)
	resp, err := http.Post(server.URL+"/api/events/primary", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST primary: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("primary status = %d", resp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	seen := map[string]bool{}
	for len(seen) < 2 {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read stream (seen %v): %v", seen, err)
		}
		var event syncer.Event
		if err := json.Unmarshal(data, &event); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		seen[event.Type] = true
		if event.Type == syncer.EventSecondaryNavigate && !strings.Contains(event.Target, "rateyourmusic.com/search") {
			t.Fatalf("navigation target = %q", event.Target)
		}
	}
	if !seen[syncer.EventRatingUpdate] || !seen[syncer.EventSecondaryNavigate] {
		t.Fatalf("expected rating update and navigation, saw %v", seen)
	}
}

func TestFocusEventValidatesSurface(t *testing.T) {
	d := newTestDaemon(t, nil)
	server := httptest.NewServer(d.api.routes())
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/events/focus", "application/json",
		strings.NewReader(`{"surface":"tertiary","focused":true}`))
	if err != nil {
		t.Fatalf("POST focus: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSecondaryFocusRecordedInStatus(t *testing.T) {
	d := newTestDaemon(t, nil)
	server := httptest.NewServer(d.api.routes())
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/events/focus", "application/json",
		strings.NewReader(`{"surface":"secondary","focused":true}`))
	if err != nil {
		t.Fatalf("POST focus: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("focus status = %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.SecondaryFocused {
		t.Fatal("secondary focus should be recorded")
	}
	if !status.Initialized {
		t.Fatal("first focus should initialize the secondary surface")
	}
}

func TestCacheStatsEndpoint(t *testing.T) {
	d := newTestDaemon(t, nil)
	server := httptest.NewServer(d.api.routes())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/cache/stats")
	if err != nil {
		t.Fatalf("GET cache stats: %v", err)
	}
	defer resp.Body.Close()
	var stats cacheStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Records != 0 {
		t.Fatalf("records = %d, want 0", stats.Records)
	}
	if stats.DBPath == "" {
		t.Fatal("stats should carry the db path")
	}
}
