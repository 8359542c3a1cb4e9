package errors

import (
	"net/http"
)

// Handler is an http.HandlerFunc that may fail with an error
type Handler func(w http.ResponseWriter, r *http.Request) error

// HandleFunc converts a Handler to a standard http.HandlerFunc. Returned
// errors are mapped to a status/code pair by WriteError; anything that is
// not an AppError falls through as a generic internal error.
func HandleFunc(h Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			WriteError(w, GetRequestID(r.Context()), err)
		}
	}
}
