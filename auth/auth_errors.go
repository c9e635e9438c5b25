package auth

import "errors"

// Errors returned by Gate.Authenticate. Every credential problem is reported
// as ErrNotAuthenticated; the other two indicate a server side defect.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrContextInvalid   = errors.New("request context invalid")
	ErrConfiguration    = errors.New("authentication is not configured")
)
