package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/buildinghawk/deedwatch/internal/match"
	"github.com/buildinghawk/deedwatch/internal/normalize"
	"github.com/buildinghawk/deedwatch/internal/store"
)

// Server exposes the review queue and match-run audit trail over JSON.
type Server struct {
	store   store.Store
	matcher *match.Matcher
	srv     *http.Server
	log     *zap.Logger
}

func New(st store.Store, matcher *match.Matcher, addr string) *Server {
	s := &Server{
		store:   st,
		matcher: matcher,
		log:     zap.L().With(zap.String("component", "server")),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/review", s.handleReview)
		r.Get("/runs", s.handleRuns)
		r.Get("/watchlist/{apn}", s.handleWatchlistEntry)
		r.Post("/deeds/{id}/rematch", s.handleRematch)
	})

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves until the context is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return eris.Wrap(err, "server: listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server: shutdown")
	}
	s.log.Info("stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "store unreachable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	deeds, err := s.store.ReviewQueue(r.Context(), limit)
	if err != nil {
		s.logAndError(w, "review queue", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"count": len(deeds), "deeds": deeds})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	runs, err := s.store.ListMatchRuns(r.Context(), limit)
	if err != nil {
		s.logAndError(w, "list runs", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"count": len(runs), "runs": runs})
}

func (s *Server) handleWatchlistEntry(w http.ResponseWriter, r *http.Request) {
	apn := chi.URLParam(r, "apn")
	entry, err := s.store.GetWatchlistByAPN(r.Context(), normalize.APN(apn))
	if err != nil {
		s.logAndError(w, "watchlist lookup", err)
		return
	}
	if entry == nil {
		s.writeError(w, http.StatusNotFound, "not on watchlist")
		return
	}
	s.writeJSON(w, http.StatusOK, entry)
}

// handleRematch forces re-evaluation of one deed, terminal or not.
func (s *Server) handleRematch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deed, err := s.store.GetDeed(r.Context(), id)
	if err != nil {
		s.logAndError(w, "load deed", err)
		return
	}
	if deed == nil {
		s.writeError(w, http.StatusNotFound, "deed not found")
		return
	}

	outcome, err := s.matcher.MatchDeed(r.Context(), deed, true)
	if err != nil {
		s.logAndError(w, "rematch deed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"deed_id":    outcome.DeedID,
		"status":     outcome.Status,
		"method":     outcome.Method,
		"confidence": outcome.Confidence,
		"apn":        outcome.APN,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", zap.Error(err))
	}
}

// writeError sends a stable operator-facing message; raw errors stay in
// the logs.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) logAndError(w http.ResponseWriter, op string, err error) {
	s.log.Error(op, zap.Error(err))
	s.writeError(w, http.StatusInternalServerError, "internal error")
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
