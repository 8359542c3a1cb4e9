package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAppErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"auth failed", AuthFailed(), CodeAuthFailed, http.StatusUnauthorized},
		{"token expired", TokenExpired(), CodeTokenExpired, http.StatusUnauthorized},
		{"invalid token", InvalidToken("bad signature"), CodeInvalidToken, http.StatusUnauthorized},
		{"user exists", UserExists(), CodeUserExists, http.StatusConflict},
		{"post not found", PostNotFound(), CodePostNotFound, http.StatusNotFound},
		{"forbidden", Forbidden("not the owner"), CodeForbidden, http.StatusForbidden},
		{"validation", ValidationError("title is required"), CodeValidationError, http.StatusBadRequest},
		{"internal", InternalError("boom"), CodeInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.HTTPStatus != tt.status {
				t.Errorf("status = %d, want %d", tt.err.HTTPStatus, tt.status)
			}
		})
	}
}

func TestAuthFailedDoesNotLeakWhichFieldWasWrong(t *testing.T) {
	noUser := AuthFailed()
	wrongPassword := AuthFailed()
	if noUser.Message != wrongPassword.Message || noUser.Code != wrongPassword.Code {
		t.Error("AuthFailed must be indistinguishable across causes")
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := DatabaseError("query failed").WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find the cause")
	}
	var appErr *AppError
	if !errors.As(error(err), &appErr) {
		t.Error("errors.As did not match *AppError")
	}
}

func TestWriteErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, "req-123", PostNotFound())

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID = %q", got)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success {
		t.Error("success = true on an error response")
	}
	if resp.Error.Code != CodePostNotFound {
		t.Errorf("code = %q", resp.Error.Code)
	}
	if resp.Error.RequestID != "req-123" {
		t.Errorf("request_id = %q", resp.Error.RequestID)
	}
}

func TestWriteErrorWrapsUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, "", errors.New("pq: relation does not exist"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != CodeInternalError {
		t.Errorf("code = %q, want %q", resp.Error.Code, CodeInternalError)
	}
	if resp.Error.Message == "pq: relation does not exist" {
		t.Error("raw error text leaked to the client")
	}
}

func TestWriteDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteData(rec, "req-9", http.StatusCreated, map[string]string{"id": "abc"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var resp struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Data["id"] != "abc" {
		t.Errorf("unexpected envelope: %+v", resp)
	}
}

func TestHandleFuncWritesReturnedError(t *testing.T) {
	h := HandleFunc(func(w http.ResponseWriter, r *http.Request) error {
		return Unauthorized("missing token")
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 5, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffFactor: 1}

	calls := 0
	err := Retry(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return ValidationError("bad input")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 for a non-retryable error", calls)
	}
}

func TestRetryRetriesTransientErrors(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffFactor: 1}

	calls := 0
	err := Retry(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("dial tcp: connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 10, InitialBackoff: 50 * time.Millisecond, MaxBackoff: time.Second, BackoffFactor: 2}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, cfg, func(ctx context.Context) error {
		return fmt.Errorf("timeout")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRetryWithResult(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffFactor: 1}

	calls := 0
	got, err := RetryWithResult(context.Background(), cfg, func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, fmt.Errorf("service unavailable")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("RetryWithResult: %v", err)
	}
	if got != 42 {
		t.Errorf("got = %d, want 42", got)
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc-123")
	if got := GetRequestID(ctx); got != "abc-123" {
		t.Errorf("GetRequestID = %q", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID on empty context = %q, want empty", got)
	}
}

func TestGenerateRequestIDIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		if id == "" {
			t.Fatal("empty request ID")
		}
		if seen[id] {
			t.Fatalf("duplicate request ID %q", id)
		}
		seen[id] = true
	}
}
