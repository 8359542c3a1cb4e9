package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	CategoryClient   ErrorCategory = "client"
	CategoryServer   ErrorCategory = "server"
	CategoryExternal ErrorCategory = "external"
)

// Common error codes
const (
	// Client errors (4xx)
	CodeValidationError = "VALIDATION_ERROR"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"

	// Authentication specific
	CodeAuthFailed          = "AUTH_FAILED"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeUserExists          = "USER_EXISTS"
	CodeNoRefreshToken      = "NO_REFRESH_TOKEN"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"

	// Resource specific
	CodeUserNotFound    = "USER_NOT_FOUND"
	CodePostNotFound    = "POST_NOT_FOUND"
	CodeCommentNotFound = "COMMENT_NOT_FOUND"
	CodeAlbumNotFound   = "ALBUM_NOT_FOUND"
	CodeTagNotFound     = "TAG_NOT_FOUND"

	// Server errors (5xx)
	CodeInternalError = "INTERNAL_ERROR"
	CodeDatabaseError = "DATABASE_ERROR"
	CodeStorageError  = "STORAGE_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Category   ErrorCategory  `json:"-"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// WithCause sets the underlying cause of the error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// ErrorResponse is the JSON structure returned to clients
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// ErrorBody contains the error details
type ErrorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// New creates a new AppError
func New(code string, message string, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Category:   category,
		HTTPStatus: httpStatus,
	}
}

// Client error constructors

func BadRequest(message string) *AppError {
	return New(CodeInvalidRequest, message, CategoryClient, http.StatusBadRequest)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message, CategoryClient, http.StatusBadRequest)
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, CategoryClient, http.StatusUnauthorized)
}

// AuthFailed is deliberately generic: "user not found" and "wrong password"
// collapse to the same code and message to prevent probing for valid emails.
func AuthFailed() *AppError {
	return New(CodeAuthFailed, "invalid email or password", CategoryClient, http.StatusUnauthorized)
}

func InvalidToken(message string) *AppError {
	return New(CodeInvalidToken, message, CategoryClient, http.StatusUnauthorized)
}

func TokenExpired() *AppError {
	return New(CodeTokenExpired, "token has expired", CategoryClient, http.StatusUnauthorized)
}

func NoRefreshToken() *AppError {
	return New(CodeNoRefreshToken, "refresh token is required", CategoryClient, http.StatusUnauthorized)
}

func InvalidRefreshToken() *AppError {
	return New(CodeInvalidRefreshToken, "invalid refresh token", CategoryClient, http.StatusUnauthorized)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message, CategoryClient, http.StatusForbidden)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), CategoryClient, http.StatusNotFound)
}

func UserNotFound() *AppError {
	return New(CodeUserNotFound, "user not found", CategoryClient, http.StatusNotFound)
}

func PostNotFound() *AppError {
	return New(CodePostNotFound, "post not found", CategoryClient, http.StatusNotFound)
}

func CommentNotFound() *AppError {
	return New(CodeCommentNotFound, "comment not found", CategoryClient, http.StatusNotFound)
}

func AlbumNotFound() *AppError {
	return New(CodeAlbumNotFound, "album not found", CategoryClient, http.StatusNotFound)
}

func TagNotFound() *AppError {
	return New(CodeTagNotFound, "tag not found", CategoryClient, http.StatusNotFound)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message, CategoryClient, http.StatusConflict)
}

func UserExists() *AppError {
	return New(CodeUserExists, "user with this email or username already exists", CategoryClient, http.StatusConflict)
}

// Server error constructors

func InternalError(message string) *AppError {
	return New(CodeInternalError, message, CategoryServer, http.StatusInternalServerError)
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message, CategoryServer, http.StatusInternalServerError)
}

func StorageError(message string) *AppError {
	return New(CodeStorageError, message, CategoryServer, http.StatusInternalServerError)
}

// WriteError writes an error response to the HTTP response writer.
// Unknown errors are wrapped as internal errors so raw error text never
// reaches the client; the cause stays available for logging.
func WriteError(w http.ResponseWriter, requestID string, err error) {
	var appErr *AppError

	switch e := err.(type) {
	case *AppError:
		appErr = e
	default:
		appErr = InternalError("an unexpected error occurred").WithCause(err)
	}

	resp := ErrorResponse{
		Success: false,
		Error: ErrorBody{
			Code:      appErr.Code,
			Message:   appErr.Message,
			RequestID: requestID,
			Details:   appErr.Details,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if requestID != "" {
		w.Header().Set("X-Request-ID", requestID)
	}
	w.WriteHeader(appErr.HTTPStatus)
	json.NewEncoder(w).Encode(resp)
}

// DataResponse is the JSON envelope for successful responses, mirroring
// ErrorResponse for failures.
type DataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// WriteData writes a success envelope around the given payload.
func WriteData(w http.ResponseWriter, requestID string, status int, data any) {
	WriteJSON(w, requestID, status, DataResponse{Success: true, Data: data})
}

// WriteJSON writes a JSON response with the request ID header
func WriteJSON(w http.ResponseWriter, requestID string, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	if requestID != "" {
		w.Header().Set("X-Request-ID", requestID)
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// IsRetryable returns true if the error is retryable
func IsRetryable(err error) bool {
	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}

	if appErr.Category == CategoryExternal {
		return true
	}

	if appErr.Category == CategoryServer {
		return appErr.Code != CodeDatabaseError
	}

	return false
}

// IsClientError returns true if the error is a client error
func IsClientError(err error) bool {
	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}
	return appErr.Category == CategoryClient
}

// IsServerError returns true if the error is a server error
func IsServerError(err error) bool {
	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}
	return appErr.Category == CategoryServer
}
