package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/imagehost/backend/internal/errors"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Identity is the decoded token identity attached to authenticated requests.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// Middleware gates a request on a valid bearer token. A missing token is
// UNAUTHORIZED, an expired one TOKEN_EXPIRED, anything else INVALID_TOKEN,
// so clients know whether to refresh or to log in again.
func Middleware(tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := apperrors.GetRequestID(r.Context())

			identity, err := identityFromRequest(r, tokens)
			if err != nil {
				switch {
				case errors.Is(err, errMissingToken):
					apperrors.WriteError(w, requestID, apperrors.Unauthorized("authorization required, provide a bearer token"))
				case errors.Is(err, ErrTokenExpired):
					apperrors.WriteError(w, requestID, apperrors.TokenExpired())
				default:
					apperrors.WriteError(w, requestID, apperrors.InvalidToken("invalid access token"))
				}
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalMiddleware attaches an identity when a valid bearer token is
// present and otherwise lets the request through anonymously. Used for
// public endpoints that personalize when they can.
func OptionalMiddleware(tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := identityFromRequest(r, tokens)
			if err == nil {
				ctx := context.WithValue(r.Context(), identityContextKey, identity)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

var errMissingToken = errors.New("missing bearer token")

func identityFromRequest(r *http.Request, tokens *TokenIssuer) (*Identity, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errMissingToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, errMissingToken
	}

	claims, err := tokens.VerifyAccessToken(parts[1])
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Identity{UserID: userID, Email: claims.Email}, nil
}

// IdentityFromContext returns the request identity, or nil for anonymous
// requests.
func IdentityFromContext(ctx context.Context) *Identity {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok {
		return nil
	}
	return identity
}
