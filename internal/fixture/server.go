// Package fixture serves a review fixture over HTTP the way a paged review
// API would, so the HTTP source can be exercised locally.
package fixture

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/colonyops/reviews/internal/core/review"
	"github.com/colonyops/reviews/internal/observability"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Options configures a Server.
type Options struct {
	// Source serves pages and assets, typically a filesource.Source.
	Source   review.Fetcher
	Registry *prometheus.Registry
	Logger   zerolog.Logger
	Timeout  time.Duration
}

// Server routes the fixture API.
type Server struct {
	mux    *chi.Mux
	src    review.Fetcher
	logger zerolog.Logger
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// New builds the router.
func New(opts Options) *Server {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	m := chi.NewRouter()
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)
	m.Use(metrics)
	m.Use(requestLogger(opts.Logger))
	m.Use(chimw.Timeout(opts.Timeout))

	s := &Server{mux: m, src: opts.Source, logger: opts.Logger}

	m.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	m.Get("/reviews", s.listReviews)
	m.Get("/assets/*", s.getAsset)
	if opts.Registry != nil {
		m.Handle("/metrics", observability.MetricsHandler(opts.Registry))
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("fixture server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r, "offset", 0)
	if err != nil || offset < 0 {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "offset must be a non-negative integer")
		return
	}
	limit, err := intParam(r, "limit", defaultLimit)
	if err != nil || limit <= 0 || limit > maxLimit {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "limit must be between 1 and 100")
		return
	}

	body, err := s.src.FetchPage(r.Context(), offset, limit)
	if err != nil {
		s.fail(w, err)
		return
	}

	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	w.Header().Set("ETag", etag)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(body)
}

func (s *Server) getAsset(w http.ResponseWriter, r *http.Request) {
	data, err := s.src.FetchAsset(r.Context(), "assets/"+chi.URLParam(r, "*"))
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, review.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeProblem(w, http.StatusServiceUnavailable, "Unavailable", err.Error())
	default:
		s.logger.Error().Err(err).Msg("fixture request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}
