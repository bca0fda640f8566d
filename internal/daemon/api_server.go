package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"segue/internal/config"
	"segue/internal/identity"
	"segue/internal/logging"
	"segue/internal/ratings"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Surfaces connect from local webviews with arbitrary origins; the
	// bearer token is the actual gate.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type apiServer struct {
	bind   string
	token  string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	srv := &apiServer{
		bind:   bind,
		token:  strings.TrimSpace(cfg.Paths.APIToken),
		logger: logging.NewComponentLogger(logger, "api"),
		daemon: d,
	}

	srv.server = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.auth(s.handleStatus))
	mux.HandleFunc("/api/rating", s.auth(s.handleRating))
	mux.HandleFunc("/api/cache/stats", s.auth(s.handleCacheStats))
	mux.HandleFunc("/api/events/primary", s.auth(s.handlePrimaryEvent))
	mux.HandleFunc("/api/events/secondary", s.auth(s.handleSecondaryEvent))
	mux.HandleFunc("/api/events/scrape", s.auth(s.handleScrapeEvent))
	mux.HandleFunc("/api/events/miss", s.auth(s.handleMissEvent))
	mux.HandleFunc("/api/events/link", s.auth(s.handleLinkEvent))
	mux.HandleFunc("/api/events/focus", s.auth(s.handleFocusEvent))
	mux.HandleFunc("/api/notify/test", s.auth(s.handleTestNotify))
	mux.HandleFunc("/api/stream", s.auth(s.handleStream))
	return mux
}

// auth validates bearer tokens. An empty configured token disables
// authentication.
func (s *apiServer) auth(next http.HandlerFunc) http.HandlerFunc {
	if s.token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") || strings.TrimPrefix(header, "Bearer ") != s.token {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

func (s *apiServer) handleRating(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := identity.New(r.URL.Query().Get("artist"), r.URL.Query().Get("album"))
	if id.IsZero() {
		s.writeError(w, http.StatusBadRequest, "artist and album query parameters are required")
		return
	}
	force := r.URL.Query().Get("force") == "true"
	record, err := s.daemon.resolver.Resolve(r.Context(), id, force)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

type cacheStats struct {
	Records int64          `json:"records"`
	DBPath  string         `json:"db_path"`
	Health  ratings.Health `json:"health"`
}

func (s *apiServer) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	count, err := s.daemon.store.Count(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	health, err := s.daemon.store.CheckHealth(r.Context())
	if err != nil {
		s.logger.Warn("cache health check failed", logging.Error(err))
	}
	s.writeJSON(w, http.StatusOK, cacheStats{Records: count, DBPath: s.daemon.store.Path(), Health: health})
}

type primaryEventRequest struct {
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	URL        string `json:"url"`
	Background bool   `json:"background"`
	Force      bool   `json:"force"`
}

func (s *apiServer) handlePrimaryEvent(w http.ResponseWriter, r *http.Request) {
	var req primaryEventRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	if err := s.daemon.syncer.PrimaryDisplayed(r.Context(), req.Artist, req.Album, req.URL, req.Background, req.Force); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type secondaryEventRequest struct {
	Artist string `json:"artist"`
	Album  string `json:"album"`
}

func (s *apiServer) handleSecondaryEvent(w http.ResponseWriter, r *http.Request) {
	var req secondaryEventRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	if err := s.daemon.syncer.SecondaryDisplayed(r.Context(), req.Artist, req.Album); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *apiServer) handleScrapeEvent(w http.ResponseWriter, r *http.Request) {
	var record ratings.Record
	if !s.decodePost(w, r, &record) {
		return
	}
	if err := s.daemon.syncer.ScrapeCompleted(r.Context(), &record); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "stored"})
}

func (s *apiServer) handleMissEvent(w http.ResponseWriter, r *http.Request) {
	var req secondaryEventRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	if err := s.daemon.syncer.ScrapeMissed(r.Context(), req.Artist, req.Album); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type linkEventRequest struct {
	TargetArtist string         `json:"target_artist"`
	TargetAlbum  string         `json:"target_album"`
	Record       ratings.Record `json:"record"`
}

func (s *apiServer) handleLinkEvent(w http.ResponseWriter, r *http.Request) {
	var req linkEventRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	target := identity.New(req.TargetArtist, req.TargetAlbum)
	if err := s.daemon.syncer.ManualLink(r.Context(), target, &req.Record); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "linked"})
}

type focusEventRequest struct {
	Surface string `json:"surface"`
	Focused bool   `json:"focused"`
}

func (s *apiServer) handleFocusEvent(w http.ResponseWriter, r *http.Request) {
	var req focusEventRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	switch strings.ToLower(strings.TrimSpace(req.Surface)) {
	case "primary":
		s.daemon.syncer.PrimaryFocusChanged(req.Focused)
	case "secondary":
		if err := s.daemon.syncer.SecondaryFocusChanged(r.Context(), req.Focused); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	default:
		s.writeError(w, http.StatusBadRequest, "surface must be primary or secondary")
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *apiServer) handleTestNotify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.daemon.notifier.TestNotification(r.Context()); err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *apiServer) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", logging.Error(err))
		return
	}
	s.daemon.hub.Add(conn)
	s.logger.Info("surface connected", logging.Int("clients", s.daemon.hub.Count()))

	// Drain until the client goes away; events flow out through the hub.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.daemon.hub.Remove(conn)
	s.logger.Info("surface disconnected", logging.Int("clients", s.daemon.hub.Count()))
}

func (s *apiServer) decodePost(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := decoder.Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return false
	}
	return true
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encode response failed", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
