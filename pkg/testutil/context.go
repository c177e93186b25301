package testutil

import (
	"net/http"
	"time"

	id "saathi/pkg/domain"
	"saathi/pkg/requestcontext"
)

// WithUser adds an authenticated user ID to the request context, simulating
// what the auth middleware does for authenticated requests.
func WithUser(req *http.Request, userID id.UserID) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// At pins the request-scoped clock, simulating the request-time middleware
// with a deterministic instant.
func At(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
