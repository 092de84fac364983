package security

import (
	"context"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in and out of the server
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// NewRequestID creates a new UUID for request identification
func NewRequestID() string {
	return uuid.New().String()
}

// WithRequestID stores id in the context
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id stored in ctx, or ""
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
