package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/imagehost/backend/internal/auth"
	"github.com/imagehost/backend/internal/db"
	apperrors "github.com/imagehost/backend/internal/errors"
)

const maxCommentLength = 2000

// CommentHandlers serves comments under posts.
type CommentHandlers struct {
	comments *db.CommentRepository
	posts    *db.PostRepository
}

func NewCommentHandlers(comments *db.CommentRepository, posts *db.PostRepository) *CommentHandlers {
	return &CommentHandlers{comments: comments, posts: posts}
}

// List handles GET /api/posts/{postId}/comments, oldest first.
func (h *CommentHandlers) List(w http.ResponseWriter, r *http.Request) error {
	postID, err := pathUUID(r, "postId")
	if err != nil {
		return err
	}

	if err := h.checkPostVisible(r, postID); err != nil {
		return err
	}

	limit, offset := parsePagination(r)

	comments, total, err := h.comments.ListByPost(r.Context(), postID, limit, offset)
	if err != nil {
		return apperrors.DatabaseError("failed to load comments").WithCause(err)
	}

	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, commentView(c))
	}

	writeData(w, r, http.StatusOK, PageView[CommentView]{
		Items:  views,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
	return nil
}

type createCommentRequest struct {
	Body string `json:"body"`
}

// Create handles POST /api/posts/{postId}/comments.
func (h *CommentHandlers) Create(w http.ResponseWriter, r *http.Request) error {
	identity := auth.IdentityFromContext(r.Context())

	postID, err := pathUUID(r, "postId")
	if err != nil {
		return err
	}

	var req createCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		return apperrors.ValidationError("comment body is required")
	}
	if len(body) > maxCommentLength {
		return apperrors.ValidationError("comment is too long")
	}

	if err := h.checkPostVisible(r, postID); err != nil {
		return err
	}

	comment := &db.Comment{
		PostID: postID,
		UserID: identity.UserID,
		Body:   body,
	}
	if err := h.comments.Create(r.Context(), comment); err != nil {
		return apperrors.DatabaseError("failed to create comment").WithCause(err)
	}

	// Re-read to pick up the author join.
	created, err := h.comments.GetByID(r.Context(), comment.ID)
	if err != nil {
		created = comment
	}

	writeData(w, r, http.StatusCreated, map[string]any{"comment": commentView(created)})
	return nil
}

type updateCommentRequest struct {
	Body string `json:"body"`
}

// Update handles PUT /api/comments/{commentId}. Only the author may edit.
func (h *CommentHandlers) Update(w http.ResponseWriter, r *http.Request) error {
	identity := auth.IdentityFromContext(r.Context())

	commentID, err := pathUUID(r, "commentId")
	if err != nil {
		return err
	}

	var req updateCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		return apperrors.ValidationError("comment body is required")
	}
	if len(body) > maxCommentLength {
		return apperrors.ValidationError("comment is too long")
	}

	comment, err := h.comments.GetByID(r.Context(), commentID)
	if err != nil {
		if errors.Is(err, db.ErrCommentNotFound) {
			return apperrors.CommentNotFound()
		}
		return apperrors.DatabaseError("failed to load comment").WithCause(err)
	}
	if comment.UserID != identity.UserID {
		return apperrors.Forbidden("you cannot edit this comment")
	}

	if err := h.comments.Update(r.Context(), commentID, body); err != nil {
		return apperrors.DatabaseError("failed to update comment").WithCause(err)
	}

	updated, err := h.comments.GetByID(r.Context(), commentID)
	if err != nil {
		comment.Body = body
		updated = comment
	}

	writeData(w, r, http.StatusOK, map[string]any{"comment": commentView(updated)})
	return nil
}

// Delete handles DELETE /api/comments/{commentId}. The comment author and
// the post owner may both delete.
func (h *CommentHandlers) Delete(w http.ResponseWriter, r *http.Request) error {
	identity := auth.IdentityFromContext(r.Context())

	commentID, err := pathUUID(r, "commentId")
	if err != nil {
		return err
	}

	comment, err := h.comments.GetByID(r.Context(), commentID)
	if err != nil {
		if errors.Is(err, db.ErrCommentNotFound) {
			return apperrors.CommentNotFound()
		}
		return apperrors.DatabaseError("failed to load comment").WithCause(err)
	}

	if comment.UserID != identity.UserID {
		post, err := h.posts.GetByID(r.Context(), comment.PostID)
		if err != nil || post.UserID != identity.UserID {
			return apperrors.Forbidden("you cannot delete this comment")
		}
	}

	if err := h.comments.Delete(r.Context(), commentID); err != nil {
		return apperrors.DatabaseError("failed to delete comment").WithCause(err)
	}

	writeData(w, r, http.StatusOK, map[string]any{"deleted": true})
	return nil
}

func (h *CommentHandlers) checkPostVisible(r *http.Request, postID uuid.UUID) error {
	post, err := h.posts.GetByID(r.Context(), postID)
	if err != nil {
		if errors.Is(err, db.ErrPostNotFound) {
			return apperrors.PostNotFound()
		}
		return apperrors.DatabaseError("failed to load post").WithCause(err)
	}

	identity := auth.IdentityFromContext(r.Context())
	if !post.IsPublic && (identity == nil || identity.UserID != post.UserID) {
		return apperrors.PostNotFound()
	}
	return nil
}
