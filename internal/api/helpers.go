package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/imagehost/backend/internal/errors"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// parsePagination reads limit/offset query params, clamping them to sane
// bounds.
func parsePagination(r *http.Request) (limit, offset int) {
	limit = defaultPageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// pathUUID extracts and validates a UUID path segment.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.PathValue(name)
	if raw == "" {
		return uuid.Nil, apperrors.BadRequest(name + " is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.BadRequest("invalid " + name)
	}
	return id, nil
}

// decodeJSON decodes a request body, mapping malformed input to a client
// error.
func decodeJSON(r *http.Request, dest any) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return apperrors.BadRequest("invalid request body")
	}
	return nil
}

// writeData writes the success envelope.
func writeData(w http.ResponseWriter, r *http.Request, status int, data any) {
	apperrors.WriteData(w, apperrors.GetRequestID(r.Context()), status, data)
}

// escapeLike escapes ILIKE wildcards in user-supplied search input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
