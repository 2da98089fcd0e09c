// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes survey attempts over HTTP. Each attempt owns one
// flow.Controller; requests against an attempt are serialized by its mutex.
// Slide changes and timer gates are pushed to websocket subscribers.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/pdiddy/iqa-survey/internal/loader"
	"github.com/pdiddy/iqa-survey/internal/store"
	"github.com/pdiddy/iqa-survey/pkg/types"
)

const (
	defaultAttemptTTL   = 2 * time.Hour
	descriptionCacheTTL = 10 * time.Minute
)

// Deps are the collaborators of a Server.
type Deps struct {
	Config types.AppConfig
	Source loader.Source
	Store  store.Store
	Log    *zap.Logger
}

// Server holds in-flight attempts and serves the API.
type Server struct {
	cfg          types.AppConfig
	src          loader.Source
	store        store.Store
	descriptions *loader.Descriptions
	attempts     *cache.Cache
	log          *zap.Logger
}

// New returns a Server. In-flight attempts idle for longer than
// Config.Server.AttemptTTL are dropped and their timers stopped.
func New(d Deps) *Server {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	ttl := d.Config.Server.AttemptTTL
	if ttl <= 0 {
		ttl = defaultAttemptTTL
	}
	s := &Server{
		cfg:          d.Config,
		src:          d.Source,
		store:        d.Store,
		descriptions: loader.NewDescriptions(d.Source, descriptionCacheTTL, log),
		attempts:     cache.New(ttl, ttl/4),
		log:          log,
	}
	s.attempts.OnEvicted(func(id string, v any) {
		v.(*attempt).close()
		s.log.Debug("attempt evicted", zap.String("attempt", id))
	})
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/attempts", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/attempts/{id}", s.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/attempts/{id}/responses", s.handleResponses).Methods(http.MethodPut)
	api.HandleFunc("/attempts/{id}/next", s.handleNext).Methods(http.MethodPost)
	api.HandleFunc("/attempts/{id}/back", s.handleBack).Methods(http.MethodPost)
	api.HandleFunc("/attempts/{id}/choose", s.handleChoose).Methods(http.MethodPost)
	api.HandleFunc("/attempts/{id}/description", s.handleDescription).Methods(http.MethodGet)
	api.HandleFunc("/attempts/{id}/events", s.handleEvents).Methods(http.MethodGet)

	if dir := s.cfg.Server.StaticDir; dir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(dir)))
	}
	return r
}

// ListenAndServe serves on Config.Server.Addr until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops every in-flight attempt.
func (s *Server) Close() {
	for id := range s.attempts.Items() {
		s.attempts.Delete(id)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"attempts": s.attempts.ItemCount(),
	})
}
