package server

// Route path constants
const (
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"

	// Everything below RouteAPI passes through RequireAuth.
	RouteAPI        = "/api"
	RouteAPISession = "/session"
)
