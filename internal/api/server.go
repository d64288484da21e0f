// Package api serves the library over HTTP for a web front end.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/metcalfc/lector/internal/lookup"
	"github.com/metcalfc/lector/internal/state"
)

// Definer answers word lookups for the define endpoint.
type Definer interface {
	GetDefinition(ctx context.Context, word, passage, lang string) (lookup.Definition, error)
}

// Options configures a Server.
type Options struct {
	MaxUploadBytes int64
	Language       string
	// Definer may be nil; the define endpoint then reports 503.
	Definer Definer
}

// Server is the HTTP API server for lector.
type Server struct {
	router   chi.Router
	store    *state.Store
	log      zerolog.Logger
	metrics  *Metrics
	registry *prometheus.Registry
	opts     Options
}

// NewServer creates and configures the HTTP server. Each server owns its
// metrics registry.
func NewServer(store *state.Store, log zerolog.Logger, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &Server{
		store:    store,
		log:      log,
		metrics:  NewMetrics(reg),
		registry: reg,
		opts:     opts,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(Instrument(s.metrics))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/documents", s.handleListDocuments)
		r.Post("/documents", s.handleUpload)
		r.Get("/documents/{docID}", s.handleGetDocument)
		r.Get("/documents/{docID}/cover", s.handleCover)
		r.Put("/documents/{docID}/position", s.handleSetPosition)
		r.Delete("/documents/{docID}", s.handleDeleteDocument)

		r.Get("/folders", s.handleListFolders)
		r.Post("/folders", s.handleCreateFolder)
		r.Delete("/folders/{folderID}", s.handleDeleteFolder)

		r.Post("/move", s.handleMove)
		r.Post("/delete", s.handleDelete)

		r.Get("/glossary", s.handleListGlossary)
		r.Put("/glossary/{word}", s.handlePutGlossary)
		r.Delete("/glossary/{word}", s.handleDeleteGlossary)
		r.Get("/define", s.handleDefine)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)

		r.Get("/backup", s.handleExport)
		r.Post("/backup", s.handleRestore)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
