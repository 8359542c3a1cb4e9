package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/imagehost/backend/internal/auth"
	"github.com/imagehost/backend/internal/db"
	apperrors "github.com/imagehost/backend/internal/errors"
)

// UserHandlers serves public user profiles and the follow graph.
type UserHandlers struct {
	users   *db.UserRepository
	posts   *db.PostRepository
	albums  *db.AlbumRepository
	follows *db.FollowRepository
}

func NewUserHandlers(users *db.UserRepository, posts *db.PostRepository, albums *db.AlbumRepository, follows *db.FollowRepository) *UserHandlers {
	return &UserHandlers{users: users, posts: posts, albums: albums, follows: follows}
}

// ProfileView is the public profile shape.
type ProfileView struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Bio            *string   `json:"bio"`
	ProfileImage   *string   `json:"profileImage"`
	CreatedAt      time.Time `json:"createdAt"`
	PostCount      int       `json:"postCount"`
	FollowerCount  int       `json:"followerCount"`
	FollowingCount int       `json:"followingCount"`
	IsFollowing    bool      `json:"isFollowing"`
}

// Profile handles GET /api/users/{username}.
func (h *UserHandlers) Profile(w http.ResponseWriter, r *http.Request) error {
	user, err := h.userByPath(r)
	if err != nil {
		return err
	}

	counts, err := h.users.GetProfileCounts(r.Context(), user.ID)
	if err != nil {
		return apperrors.DatabaseError("failed to load profile").WithCause(err)
	}

	view := ProfileView{
		ID:             user.ID.String(),
		Username:       user.Username,
		Bio:            nullableString(user.Bio),
		ProfileImage:   nullableString(user.ProfileImage),
		CreatedAt:      user.CreatedAt,
		PostCount:      counts.PostCount,
		FollowerCount:  counts.FollowerCount,
		FollowingCount: counts.FollowingCount,
	}

	if identity := auth.IdentityFromContext(r.Context()); identity != nil && identity.UserID != user.ID {
		following, err := h.follows.IsFollowing(r.Context(), identity.UserID, user.ID)
		if err == nil {
			view.IsFollowing = following
		}
	}

	writeData(w, r, http.StatusOK, map[string]any{"user": view})
	return nil
}

// Posts handles GET /api/users/{username}/posts, public posts only.
func (h *UserHandlers) Posts(w http.ResponseWriter, r *http.Request) error {
	user, err := h.userByPath(r)
	if err != nil {
		return err
	}

	limit, offset := parsePagination(r)

	posts, total, err := h.posts.ListByUser(r.Context(), user.ID, limit, offset)
	if err != nil {
		return apperrors.DatabaseError("failed to load posts").WithCause(err)
	}

	writeData(w, r, http.StatusOK, PageView[PostView]{
		Items:  postViews(posts),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
	return nil
}

// Albums handles GET /api/users/{username}/albums. Private albums appear
// only to their owner.
func (h *UserHandlers) Albums(w http.ResponseWriter, r *http.Request) error {
	user, err := h.userByPath(r)
	if err != nil {
		return err
	}

	albums, err := h.albums.ListByUser(r.Context(), user.ID)
	if err != nil {
		return apperrors.DatabaseError("failed to load albums").WithCause(err)
	}

	identity := auth.IdentityFromContext(r.Context())
	isOwner := identity != nil && identity.UserID == user.ID

	views := make([]AlbumView, 0, len(albums))
	for _, a := range albums {
		if !a.IsPublic && !isOwner {
			continue
		}
		views = append(views, albumView(a))
	}

	writeData(w, r, http.StatusOK, map[string]any{"albums": views})
	return nil
}

// Follow handles POST /api/users/{userId}/follow.
func (h *UserHandlers) Follow(w http.ResponseWriter, r *http.Request) error {
	identity := auth.IdentityFromContext(r.Context())

	targetID, err := pathUUID(r, "userId")
	if err != nil {
		return err
	}
	if targetID == identity.UserID {
		return apperrors.ValidationError("you cannot follow yourself")
	}

	if _, err := h.users.GetByID(r.Context(), targetID); err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return apperrors.UserNotFound()
		}
		return apperrors.DatabaseError("failed to load user").WithCause(err)
	}

	if err := h.follows.Create(r.Context(), identity.UserID, targetID); err != nil {
		if errors.Is(err, db.ErrAlreadyFollowing) {
			return apperrors.Conflict("already following this user")
		}
		return apperrors.DatabaseError("failed to follow").WithCause(err)
	}

	writeData(w, r, http.StatusCreated, map[string]any{"following": true})
	return nil
}

// Unfollow handles DELETE /api/users/{userId}/follow.
func (h *UserHandlers) Unfollow(w http.ResponseWriter, r *http.Request) error {
	identity := auth.IdentityFromContext(r.Context())

	targetID, err := pathUUID(r, "userId")
	if err != nil {
		return err
	}

	if err := h.follows.Delete(r.Context(), identity.UserID, targetID); err != nil {
		if errors.Is(err, db.ErrFollowNotFound) {
			return apperrors.NotFound("you are not following this user")
		}
		return apperrors.DatabaseError("failed to unfollow").WithCause(err)
	}

	writeData(w, r, http.StatusOK, map[string]any{"following": false})
	return nil
}

func (h *UserHandlers) userByPath(r *http.Request) (*db.User, error) {
	username := r.PathValue("username")
	if username == "" {
		return nil, apperrors.BadRequest("username is required")
	}

	user, err := h.users.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return nil, apperrors.UserNotFound()
		}
		return nil, apperrors.DatabaseError("failed to load user").WithCause(err)
	}
	return user, nil
}
