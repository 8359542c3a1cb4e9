package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imagehost/backend/internal/auth"
	"github.com/imagehost/backend/internal/cache"
	"github.com/imagehost/backend/internal/db"
	apperrors "github.com/imagehost/backend/internal/errors"
	"github.com/imagehost/backend/internal/logger"
	"github.com/imagehost/backend/internal/storage"
)

// presignExpiry is how long image links handed to clients stay valid.
// Cached feed pages expire well before their links do.
const presignExpiry = time.Hour

// PostHandlers serves the public feed and single-post operations.
type PostHandlers struct {
	posts  *db.PostRepository
	votes  *db.VoteRepository
	tags   *db.TagRepository
	cache  *cache.Cache
	browse *storage.Client
	log    *logger.Logger
}

func NewPostHandlers(posts *db.PostRepository, votes *db.VoteRepository, tags *db.TagRepository, c *cache.Cache, browse *storage.Client) *PostHandlers {
	return &PostHandlers{
		posts:  posts,
		votes:  votes,
		tags:   tags,
		cache:  c,
		browse: browse,
		log:    logger.Default().WithComponent("posts"),
	}
}

// imageLink swaps a storage key for a presigned URL. Posts created before
// presigning store a full URL already, those pass through untouched.
func (h *PostHandlers) imageLink(r *http.Request, key string) string {
	if key == "" || strings.Contains(key, "://") || h.browse == nil {
		return key
	}
	url, err := h.browse.PresignedGetURL(r.Context(), key, presignExpiry)
	if err != nil {
		h.log.Warn(r.Context(), "presign failed", map[string]interface{}{"key": key, "error": err.Error()})
		return key
	}
	return url
}

func (h *PostHandlers) present(r *http.Request, view *PostView) {
	view.ImageURL = h.imageLink(r, view.ImageURL)
	if view.Thumbnail != nil {
		link := h.imageLink(r, *view.Thumbnail)
		view.Thumbnail = &link
	}
}

// Feed handles GET /api/posts. Pages are cached briefly because the feed
// is the hottest read in the system.
func (h *PostHandlers) Feed(w http.ResponseWriter, r *http.Request) error {
	sort := db.SortRecent
	switch db.FeedSort(r.URL.Query().Get("sort")) {
	case db.SortPopular:
		sort = db.SortPopular
	case db.SortTrending:
		sort = db.SortTrending
	}

	limit, offset := parsePagination(r)

	key := cache.FeedKey(string(sort), limit, offset)
	if h.cache != nil {
		var page PageView[PostView]
		if h.cache.GetJSON(r.Context(), key, &page) {
			writeData(w, r, http.StatusOK, page)
			return nil
		}
	}

	posts, total, err := h.posts.ListPublic(r.Context(), sort, limit, offset)
	if err != nil {
		return apperrors.DatabaseError("failed to load feed").WithCause(err)
	}

	views := postViews(posts)
	for i := range views {
		h.present(r, &views[i])
	}

	page := PageView[PostView]{Items: views, Total: total, Limit: limit, Offset: offset}
	if h.cache != nil {
		h.cache.SetJSON(r.Context(), key, page, cache.FeedTTL)
	}

	writeData(w, r, http.StatusOK, page)
	return nil
}

// Get handles GET /api/posts/{postId}. Private posts are visible only to
// their owner and read like a missing post to everyone else.
func (h *PostHandlers) Get(w http.ResponseWriter, r *http.Request) error {
	postID, err := pathUUID(r, "postId")
	if err != nil {
		return err
	}

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

	// View counts are best effort.
	if err := h.posts.IncrementViews(r.Context(), postID); err != nil {
		h.log.Warn(r.Context(), "view increment failed", map[string]interface{}{"post_id": postID.String()})
	} else {
		post.Views++
	}

	view := postView(post)
	h.present(r, &view)

	postTags, err := h.tags.ListByPost(r.Context(), postID)
	if err == nil {
		view.Tags = tagViews(postTags)
	}

	if identity != nil {
		vote, err := h.votes.Get(r.Context(), identity.UserID, postID)
		if err == nil {
			voteType := string(vote.Type)
			view.UserVote = &voteType
		}
	}

	writeData(w, r, http.StatusOK, map[string]any{"post": view})
	return nil
}

type updatePostRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"isPublic"`
}

// Update handles PUT /api/posts/{postId}.
func (h *PostHandlers) Update(w http.ResponseWriter, r *http.Request) error {
	post, err := h.ownedPost(r)
	if err != nil {
		return err
	}

	var req updatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return apperrors.ValidationError("title cannot be empty")
	}

	updated, err := h.posts.Update(r.Context(), post.ID, req.Title, req.Description, req.IsPublic)
	if err != nil {
		return apperrors.DatabaseError("failed to update post").WithCause(err)
	}

	h.invalidate(r, post.ID)

	view := postView(updated)
	h.present(r, &view)
	writeData(w, r, http.StatusOK, map[string]any{"post": view})
	return nil
}

// Delete handles DELETE /api/posts/{postId}. The stored image stays in
// the bucket because content addressing can share it across posts.
func (h *PostHandlers) Delete(w http.ResponseWriter, r *http.Request) error {
	post, err := h.ownedPost(r)
	if err != nil {
		return err
	}

	if err := h.posts.Delete(r.Context(), post.ID); err != nil {
		return apperrors.DatabaseError("failed to delete post").WithCause(err)
	}

	h.invalidate(r, post.ID)

	writeData(w, r, http.StatusOK, map[string]any{"deleted": true})
	return nil
}

type voteRequest struct {
	VoteType string `json:"voteType"`
}

// Vote handles PUT /api/posts/{postId}/vote. Repeating the same vote is
// idempotent, the opposite vote flips it.
func (h *PostHandlers) Vote(w http.ResponseWriter, r *http.Request) error {
	identity := auth.IdentityFromContext(r.Context())
	postID, err := pathUUID(r, "postId")
	if err != nil {
		return err
	}

	var req voteRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	voteType := db.VoteType(req.VoteType)
	if voteType != db.VoteUp && voteType != db.VoteDown {
		return apperrors.ValidationError("voteType must be \"upvote\" or \"downvote\"")
	}

	if err := h.visiblePost(r, postID); err != nil {
		return err
	}

	if err := h.votes.Set(r.Context(), identity.UserID, postID, voteType); err != nil {
		return apperrors.DatabaseError("failed to record vote").WithCause(err)
	}

	h.invalidate(r, postID)

	writeData(w, r, http.StatusOK, map[string]any{"voteType": string(voteType)})
	return nil
}

// Unvote handles DELETE /api/posts/{postId}/vote.
func (h *PostHandlers) Unvote(w http.ResponseWriter, r *http.Request) error {
	identity := auth.IdentityFromContext(r.Context())
	postID, err := pathUUID(r, "postId")
	if err != nil {
		return err
	}

	if err := h.votes.Clear(r.Context(), identity.UserID, postID); err != nil {
		if errors.Is(err, db.ErrVoteNotFound) {
			return apperrors.NotFound("no vote to remove")
		}
		return apperrors.DatabaseError("failed to clear vote").WithCause(err)
	}

	h.invalidate(r, postID)

	writeData(w, r, http.StatusOK, map[string]any{"deleted": true})
	return nil
}

// ownedPost loads the post named in the path and verifies the caller owns
// it.
func (h *PostHandlers) ownedPost(r *http.Request) (*db.Post, error) {
	identity := auth.IdentityFromContext(r.Context())
	postID, err := pathUUID(r, "postId")
	if err != nil {
		return nil, err
	}

	post, err := h.posts.GetByID(r.Context(), postID)
	if err != nil {
		if errors.Is(err, db.ErrPostNotFound) {
			return nil, apperrors.PostNotFound()
		}
		return nil, apperrors.DatabaseError("failed to load post").WithCause(err)
	}

	if err := postOwnerGate(post, identity.UserID); err != nil {
		return nil, err
	}

	return post, nil
}

// postOwnerGate decides what a non-owner sees on an owner-only route. A
// private post must not be discoverable by probing update or delete, so it
// reads the same as a missing one; only public posts surface FORBIDDEN.
func postOwnerGate(post *db.Post, callerID uuid.UUID) error {
	if post.UserID == callerID {
		return nil
	}
	if !post.IsPublic {
		return apperrors.PostNotFound()
	}
	return apperrors.Forbidden("you do not own this post")
}

// visiblePost checks that the post exists and is visible to the caller.
func (h *PostHandlers) visiblePost(r *http.Request, postID uuid.UUID) error {
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

func (h *PostHandlers) invalidate(r *http.Request, postID uuid.UUID) {
	if h.cache == nil {
		return
	}
	h.cache.Delete(r.Context(), cache.PostKey(postID.String()))
	h.cache.DeletePrefix(r.Context(), cache.FeedPrefix)
}
