// Package server exposes the catalog and the resolution pipeline as a small
// JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"reelhound/internal/httputil"
	"reelhound/internal/media"
	"reelhound/internal/metrics"
	"reelhound/internal/provider"
	"reelhound/internal/resolver"
)

// StreamResolver resolves a fetched episode page into streams.
type StreamResolver interface {
	Resolve(ctx context.Context, req resolver.Request) []media.Stream
}

// Options configures a Server.
type Options struct {
	Catalog  provider.Catalog
	Resolver StreamResolver
	BaseURL  string
	Headers  http.Header
	Metrics  *metrics.Metrics
	Logger   logrus.FieldLogger
}

// Server is the HTTP API.
type Server struct {
	catalog  provider.Catalog
	resolver StreamResolver
	baseURL  string
	headers  http.Header
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
}

// New creates a Server.
func New(opts Options) *Server {
	s := &Server{
		catalog:  opts.Catalog,
		resolver: opts.Resolver,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		headers:  opts.Headers,
		metrics:  opts.Metrics,
		log:      opts.Logger,
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s
}

// ResolveResponse is the body of /api/resolve.
type ResolveResponse struct {
	Page    string         `json:"page"`
	Title   string         `json:"title,omitempty"`
	Streams []media.Stream `json:"streams"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Router returns the API routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/resolve", s.handleResolve).Methods(http.MethodGet)
	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	api.HandleFunc("/latest", s.handleLatest).Methods(http.MethodGet)
	api.HandleFunc("/popular", s.handlePopular).Methods(http.MethodGet)
	api.HandleFunc("/episodes", s.handleEpisodes).Methods(http.MethodGet)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	r.Use(s.logRequests)
	return r
}

// ListenAndServe serves the API on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	target, ok := s.pageParam(w, r)
	if !ok {
		return
	}

	page, err := s.catalog.Page(r.Context(), target)
	s.metrics.ObserveFetch(err)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	streams := s.resolver.Resolve(r.Context(), resolver.Request{
		Doc:     page.Doc,
		PageURL: page.URL,
		BaseURL: s.baseURL,
		Headers: s.headers,
	})
	writeJSON(w, http.StatusOK, ResolveResponse{Page: page.URL, Title: page.Title, Streams: streams})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing q parameter"))
		return
	}
	results, err := s.catalog.Search(r.Context(), q)
	s.writeListing(w, results, err)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	results, err := s.catalog.Latest(r.Context())
	s.writeListing(w, results, err)
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	results, err := s.catalog.Popular(r.Context())
	s.writeListing(w, results, err)
}

func (s *Server) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	target, ok := s.pageParam(w, r)
	if !ok {
		return
	}
	episodes, err := s.catalog.Episodes(r.Context(), target)
	switch {
	case errors.Is(err, provider.ErrNoResults):
		writeJSON(w, http.StatusOK, []media.Episode{})
	case err != nil:
		writeError(w, http.StatusBadGateway, err)
	default:
		writeJSON(w, http.StatusOK, episodes)
	}
}

func (s *Server) writeListing(w http.ResponseWriter, results []media.SearchResult, err error) {
	switch {
	case errors.Is(err, provider.ErrNoResults):
		writeJSON(w, http.StatusOK, []media.SearchResult{})
	case err != nil:
		writeError(w, http.StatusBadGateway, err)
	default:
		writeJSON(w, http.StatusOK, results)
	}
}

// pageParam reads the url parameter, resolving relative paths against the
// site base and rejecting anything that is not http(s).
func (s *Server) pageParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("url"))
	if raw == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing url parameter"))
		return "", false
	}
	target := raw
	if u, err := url.Parse(raw); err != nil || u.Scheme == "" {
		target = httputil.Normalize(raw, s.baseURL)
	}
	if err := httputil.ValidateURL(target); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return "", false
	}
	return target, true
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.WithFields(logrus.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"elapsed": time.Since(start).Round(time.Millisecond),
		}).Debug("api request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
