package errors

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// GenerateRequestID generates a new unique request ID
func GenerateRequestID() string {
	return uuid.NewString()
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}
