// Package api exposes battles over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abhisek/mathduel/internal/battle"
	"github.com/abhisek/mathduel/internal/card"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Server serves the battle API.
type Server struct {
	Battles *battle.Manager
	Catalog *card.Catalog
	Logger  *slog.Logger

	// Countdown arms the server-side answer deadline on every player play.
	Countdown bool
}

// NewServer creates a Server with countdowns enabled.
func NewServer(battles *battle.Manager, catalog *card.Catalog, logger *slog.Logger) *Server {
	if catalog == nil {
		catalog = card.DefaultCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Battles: battles, Catalog: catalog, Logger: logger, Countdown: true}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.recoveryMiddleware)
	r.Use(s.loggingMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/cards", s.handleCards)

	r.Route("/battles", func(r chi.Router) {
		r.Post("/", s.handleStartBattle)
		r.Route("/{battleID}", func(r chi.Router) {
			r.Get("/", s.handleGetBattle)
			r.Delete("/", s.handleDeleteBattle)
			r.Post("/plays", s.handlePlayCard)
			r.Post("/plays/{playID}/answer", s.handleAnswer)
			r.Post("/plays/{playID}/timeout", s.handleTimeout)
			r.Post("/enemy-turn", s.handleEnemyTurn)
		})
	})
	return r
}

func (s *Server) logger(r *http.Request) *slog.Logger {
	return s.Logger.With("request_id", middleware.GetReqID(r.Context()))
}

// handleError writes err as a JSON error body.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := toAppError(err)
	log := s.logger(r)
	switch {
	case appErr.Status >= 500:
		log.Error("server error", "error", appErr)
	case appErr.Status >= 400:
		log.Warn("client error", "error", appErr)
	}

	writeJSON(w, appErr.Status, map[string]any{
		"error": map[string]any{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return badRequest("invalid request body: " + err.Error())
	}
	return nil
}

type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set("X-Request-ID", id)
		}

		next.ServeHTTP(sw, r)

		log := s.logger(r).With(
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"size", sw.size,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		switch {
		case sw.status >= 500:
			log.Error("request completed with server error")
		case sw.status >= 400:
			log.Warn("request completed with client error")
		default:
			log.Info("request completed")
		}
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger(r).Error("panic recovered", "panic", rec)
				writeJSON(w, http.StatusInternalServerError, map[string]any{
					"error": map[string]any{"code": ErrCodeInternal, "message": "internal server error"},
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
