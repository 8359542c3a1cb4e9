package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/imagehost/backend/internal/db"
	apperrors "github.com/imagehost/backend/internal/errors"
)

func TestPostOwnerGate(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()

	tests := []struct {
		name     string
		isPublic bool
		caller   uuid.UUID
		wantCode string
	}{
		{"owner on private post", false, owner, ""},
		{"owner on public post", true, owner, ""},
		{"stranger on public post", true, stranger, apperrors.CodeForbidden},
		{"stranger on private post", false, stranger, apperrors.CodePostNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := &db.Post{ID: uuid.New(), UserID: owner, IsPublic: tt.isPublic}

			err := postOwnerGate(post, tt.caller)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var appErr *apperrors.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("error %v is not an AppError", err)
			}
			if appErr.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", appErr.Code, tt.wantCode)
			}
		})
	}
}

func TestVoteRejectsUnknownVoteType(t *testing.T) {
	h := &PostHandlers{}

	for _, voteType := range []string{"up", "down", "sideways", ""} {
		req := httptest.NewRequest(http.MethodPut, "/api/posts/x/vote",
			strings.NewReader(`{"voteType":"`+voteType+`"}`))
		req.SetPathValue("postId", uuid.New().String())

		err := h.Vote(httptest.NewRecorder(), req)

		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			t.Fatalf("voteType %q: error %v is not an AppError", voteType, err)
		}
		if appErr.Code != apperrors.CodeValidationError {
			t.Errorf("voteType %q: code = %q, want %q", voteType, appErr.Code, apperrors.CodeValidationError)
		}
		if !strings.Contains(appErr.Message, string(db.VoteUp)) || !strings.Contains(appErr.Message, string(db.VoteDown)) {
			t.Errorf("message %q should name the accepted values", appErr.Message)
		}
	}
}

func TestVoteAcceptsCanonicalVoteTypes(t *testing.T) {
	// The stored enum values, not shorthand, are the wire values.
	if db.VoteUp != "upvote" || db.VoteDown != "downvote" {
		t.Fatalf("vote enum changed: %q / %q", db.VoteUp, db.VoteDown)
	}
}
