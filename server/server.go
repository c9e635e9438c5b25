package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/setlist-gate/auth"
	"github.com/jrsteele09/setlist-gate/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jrsteele09/setlist-gate/server"

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	router   chi.Router
	config   config.Config
	gate     *auth.Gate
	logger   zerolog.Logger
	gatherer prometheus.Gatherer
	tracer   trace.Tracer
}

// Option defines a function type to modify the Server instance.
type Option func(*serverOptions)

type serverOptions struct {
	logger          *zerolog.Logger
	gatherer        prometheus.Gatherer
	tracerProvider  trace.TracerProvider
	protectedRoutes func(chi.Router)
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *serverOptions) {
		o.logger = &logger
	}
}

// WithGatherer sets the registry served on /metrics. Defaults to
// prometheus.DefaultGatherer.
func WithGatherer(gatherer prometheus.Gatherer) Option {
	return func(o *serverOptions) {
		o.gatherer = gatherer
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *serverOptions) {
		o.tracerProvider = tp
	}
}

// WithProtectedRoutes mounts additional handlers under /api. They only run
// after the gate accepted the request and read the caller via
// UserIDFromContext.
func WithProtectedRoutes(mount func(chi.Router)) Option {
	return func(o *serverOptions) {
		o.protectedRoutes = mount
	}
}

func New(cfg config.Config, gate *auth.Gate, options ...Option) *Server {
	opts := serverOptions{
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range options {
		opt(&opts)
	}

	logger := log.Logger
	if opts.logger != nil {
		logger = *opts.logger
	}
	tp := opts.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	s := &Server{
		env:      cfg.GetEnv(),
		router:   chi.NewRouter(),
		config:   cfg,
		gate:     gate,
		logger:   logger,
		gatherer: opts.gatherer,
		tracer:   tp.Tracer(tracerName),
	}

	s.initRoutes(opts.protectedRoutes)
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	_ = chi.Walk(s.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		s.logger.Info().Str("method", method).Str("path", route).Msg("route")
		return nil
	})
}
