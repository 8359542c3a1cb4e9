package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	apperrors "github.com/imagehost/backend/internal/errors"
)

func commentBodyError(t *testing.T, err error) *apperrors.AppError {
	t.Helper()
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error %v is not an AppError", err)
	}
	return appErr
}

func TestCreateCommentRejectsBlankBody(t *testing.T) {
	h := &CommentHandlers{}

	req := httptest.NewRequest(http.MethodPost, "/api/posts/x/comments",
		strings.NewReader(`{"body":"   "}`))
	req.SetPathValue("postId", uuid.New().String())

	err := h.Create(httptest.NewRecorder(), req)
	if code := commentBodyError(t, err).Code; code != apperrors.CodeValidationError {
		t.Errorf("code = %q, want %q", code, apperrors.CodeValidationError)
	}
}

func TestUpdateCommentRejectsBlankAndOversizedBody(t *testing.T) {
	h := &CommentHandlers{}

	for _, body := range []string{"", "   ", strings.Repeat("a", maxCommentLength+1)} {
		req := httptest.NewRequest(http.MethodPut, "/api/comments/x",
			strings.NewReader(`{"body":`+jsonQuote(body)+`}`))
		req.SetPathValue("commentId", uuid.New().String())

		err := h.Update(httptest.NewRecorder(), req)
		if code := commentBodyError(t, err).Code; code != apperrors.CodeValidationError {
			t.Errorf("body %q...: code = %q, want %q", truncate(body, 10), code, apperrors.CodeValidationError)
		}
	}
}

func jsonQuote(s string) string {
	return `"` + s + `"`
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
