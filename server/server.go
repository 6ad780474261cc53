// Package server implements the orchestration core: it classifies inbound
// requests, runs the upload state machine, reconciles completion callbacks
// from the ingest service, and exposes the whole thing as a mountable
// http.Handler.
package server

import (
	"net/http"
	"net/url"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/uploadthing/uploadthing-go/config"
	"github.com/uploadthing/uploadthing-go/internal/common"
	"github.com/uploadthing/uploadthing-go/internal/ingest"
	"github.com/uploadthing/uploadthing-go/internal/logging"
	"github.com/uploadthing/uploadthing-go/internal/taskx"
	"github.com/uploadthing/uploadthing-go/router"
)

// Server ties one route registry to one resolved configuration. It is safe
// for unbounded concurrent requests: the registry and config are read-only
// and everything else is request-scoped.
type Server struct {
	registry *router.Registry
	cfg      *config.Config
	logger   logging.Logger
	runner   *taskx.Runner
	client   *ingest.Client
	validate *validator.Validate

	ingestBase *url.URL
	onTaskDone func(name string, err error)
}

// Option customizes Server construction.
type Option func(*Server)

// WithLogger replaces the default slog JSON logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithTaskCallback supplies the hook invoked with each detached task's
// outcome under the "callback" daemon policy.
func WithTaskCallback(fn func(name string, err error)) Option {
	return func(s *Server) { s.onTaskDone = fn }
}

// New validates cfg and builds a Server over the given registry.
func New(registry *router.Registry, cfg *config.Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		registry:   registry,
		cfg:        cfg,
		validate:   validator.New(),
		ingestBase: cfg.IngestBase(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logging.NewSlogJSON(os.Stdout, cfg.Level())
	}
	s.logger = s.logger.With("module", "uploadthing")
	s.runner = taskx.NewRunner(cfg.Policy(), s.onTaskDone, s.logger)
	s.client = ingest.NewClient(s.ingestBase, cfg.APIKey, cfg.HTTPClient, s.logger)

	return s, nil
}

// Handler returns the mountable HTTP surface:
//
//	GET  <mount>   route config introspection
//	POST <mount>   upload action or callback hook, per classification
//
// Every response carries the server protocol version header.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(versionHeader)
	r.Get("/", s.handleIntrospect)
	r.Post("/", s.handleAction)
	return r
}

// Wait blocks until all detached tasks spawned under the "await" daemon
// policy have finished. Call it before letting the process exit.
func (s *Server) Wait() {
	s.runner.Wait()
}

func versionHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(common.HeaderVersion, common.Version)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	act, uerr := s.classify(r)
	if uerr != nil {
		s.writeError(r.Context(), w, uerr)
		return
	}

	switch act.kind {
	case actionUpload:
		s.handleUpload(w, r, act)
	case actionCallback:
		s.handleCallback(w, r, act)
	}
}
