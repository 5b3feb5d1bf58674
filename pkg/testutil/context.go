package testutil

import (
	"net/http"

	"fairlend/pkg/requestcontext"
)

// WithActor adds an actor ID and role to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithActor(req *http.Request, actorID, role string) *http.Request {
	ctx := req.Context()
	if actorID != "" {
		ctx = requestcontext.WithActorID(ctx, actorID)
	}
	if role != "" {
		ctx = requestcontext.WithActorRole(ctx, role)
	}
	return req.WithContext(ctx)
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
