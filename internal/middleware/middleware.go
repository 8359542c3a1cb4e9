package middleware

import (
	"net/http"
	"strings"
	"time"

	apperrors "github.com/imagehost/backend/internal/errors"
	"github.com/imagehost/backend/internal/logger"
)

// RequestIDHeader is the header name for request IDs
const RequestIDHeader = "X-Request-ID"

// RequestID middleware adds request ID tracking to all requests
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Honor an incoming request ID so upstream proxies can correlate
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = apperrors.GenerateRequestID()
		}

		ctx := apperrors.WithRequestID(r.Context(), requestID)
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Logging middleware logs all HTTP requests with structured logging.
// Health probes are skipped to keep the logs readable.
func Logging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			log.Debug(r.Context(), "request started", map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"query":      sanitizeQuery(r.URL.RawQuery),
				"remote_ip":  clientIP(r),
				"user_agent": r.UserAgent(),
			})

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)

			fields := map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      wrapped.statusCode,
				"duration_ms": duration.Milliseconds(),
				"bytes":       wrapped.written,
				"remote_ip":   clientIP(r),
			}

			if wrapped.statusCode >= 500 {
				log.Error(r.Context(), "request completed with server error", nil, fields)
			} else if wrapped.statusCode >= 400 {
				log.Warn(r.Context(), "request completed with client error", fields)
			} else {
				log.Info(r.Context(), "request completed", fields)
			}
		})
	}
}

// sanitizeQuery removes sensitive parameters from query string
func sanitizeQuery(query string) string {
	if query == "" {
		return ""
	}

	sensitiveParams := []string{"token", "password", "secret", "key", "auth"}
	parts := strings.Split(query, "&")
	sanitized := make([]string, 0, len(parts))

	for _, part := range parts {
		keyVal := strings.SplitN(part, "=", 2)
		if len(keyVal) != 2 {
			sanitized = append(sanitized, part)
			continue
		}

		isSensitive := false
		lowerKey := strings.ToLower(keyVal[0])
		for _, s := range sensitiveParams {
			if strings.Contains(lowerKey, s) {
				isSensitive = true
				break
			}
		}

		if isSensitive {
			sanitized = append(sanitized, keyVal[0]+"=[REDACTED]")
		} else {
			sanitized = append(sanitized, part)
		}
	}

	return strings.Join(sanitized, "&")
}

// clientIP extracts the client IP from the request
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return r.RemoteAddr
}

// Chain applies a sequence of middlewares to a handler
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// CORS middleware adds CORS headers. Credentials are allowed because the
// refresh token travels in a cookie.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = true
					break
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
				w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Recoverer middleware recovers from panics and logs them
func Recoverer(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					requestID := apperrors.GetRequestID(r.Context())
					log.Error(r.Context(), "panic recovered", nil, map[string]interface{}{
						"panic":  rec,
						"method": r.Method,
						"path":   r.URL.Path,
					})
					apperrors.WriteError(w, requestID, apperrors.InternalError("an unexpected error occurred"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
