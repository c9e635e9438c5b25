package server

import (
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

type sessionResponse struct {
	UserID string `json:"userId"`
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// SessionHandler reports who the caller is. Protected by RequireAuth.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		if !ok {
			// Only reachable if the route was mounted outside RequireAuth.
			s.writeError(w, r, http.StatusUnauthorized, "unauthorized", "Not authenticated")
			return
		}
		s.writeJSON(w, r, http.StatusOK, sessionResponse{UserID: userID})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Err(err).Str("request_id", RequestIDFromContext(r.Context())).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, description string) {
	s.writeJSON(w, r, status, errorResponse{Error: code, ErrorDescription: description})
}
