package notify_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"segue/internal/config"
	"segue/internal/notify"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notify.NewService(&cfg)
	if err := svc.NotifyRatingMissing(context.Background(), "Artist - Album"); err != nil {
		t.Fatalf("noop notifier should return nil, got %v", err)
	}
}

func TestNtfySendsHeadersAndBody(t *testing.T) {
	var gotTitle, gotTags, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotTags = r.Header.Get("Tags")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notify.NewService(&cfg)
	if err := svc.NotifyManualMatch(context.Background(), "a - b", "c - d"); err != nil {
		t.Fatalf("NotifyManualMatch: %v", err)
	}
	if gotTitle != "Segue - Manual Match" {
		t.Fatalf("Title = %q", gotTitle)
	}
	if !strings.Contains(gotTags, "manual") {
		t.Fatalf("Tags = %q", gotTags)
	}
	if !strings.Contains(gotBody, "Linked a - b to c - d") {
		t.Fatalf("body = %q", gotBody)
	}
}

func TestNtfyErrorNotificationsCanBeDisabled(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Errors = false

	svc := notify.NewService(&cfg)
	if err := svc.NotifyError(context.Background(), errors.New("boom"), "sync"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	if calls != 0 {
		t.Fatalf("disabled error notifications should not hit the server, calls = %d", calls)
	}
}

func TestNtfySurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notify.NewService(&cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
