package httputil

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	RequestIDContextKey contextKey = "request_id"
	RequestIDHeaderName            = "X-Request-ID"
)

// WithRequestID returns ctx carrying a request id, assigning a new one if ctx has none.
func WithRequestID(ctx context.Context) (context.Context, string) {
	if reqID := RequestID(ctx); reqID != "" {
		return ctx, reqID
	}
	reqID := uuid.New().String()
	return context.WithValue(ctx, RequestIDContextKey, reqID), reqID
}

// RequestID returns the request id of ctx, empty if none was assigned.
func RequestID(ctx context.Context) string {
	reqID, _ := ctx.Value(RequestIDContextKey).(string)
	return reqID
}
