package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes(protected func(chi.Router)) {
	s.router.Use(
		s.RequestIDMiddleware,
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.SecurityHeadersMiddleware,
		cors.Handler(s.corsOptions()),
	)

	s.router.Get(RouteHealth, s.HealthHandler())
	s.router.Method(http.MethodGet, RouteMetrics, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	s.router.Route(RouteAPI, func(api chi.Router) {
		api.Use(s.RequireAuth)
		api.Get(RouteAPISession, s.SessionHandler())
		if protected != nil {
			protected(api)
		}
	})
}

// corsOptions allows credentials because the session travels in a cookie.
func (s *Server) corsOptions() cors.Options {
	return cors.Options{
		AllowedOrigins:   s.config.GetAllowedOrigins().List(),
		AllowedMethods:   s.config.GetAllowedMethods(),
		AllowedHeaders:   s.config.GetAllowedHeaders(),
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}
}
