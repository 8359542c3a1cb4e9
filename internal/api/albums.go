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

// AlbumHandlers serves album management.
type AlbumHandlers struct {
	albums *db.AlbumRepository
	posts  *db.PostRepository
}

func NewAlbumHandlers(albums *db.AlbumRepository, posts *db.PostRepository) *AlbumHandlers {
	return &AlbumHandlers{albums: albums, posts: posts}
}

type createAlbumRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"isPublic"`
}

// Create handles POST /api/albums.
func (h *AlbumHandlers) Create(w http.ResponseWriter, r *http.Request) error {
	identity := auth.IdentityFromContext(r.Context())

	var req createAlbumRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return apperrors.ValidationError("album name is required")
	}
	if len(name) > 100 {
		return apperrors.ValidationError("album name is too long")
	}

	album := &db.Album{
		UserID:   identity.UserID,
		Name:     name,
		IsPublic: true,
	}
	if req.Description != nil {
		album.Description = db.NullString(*req.Description)
	}
	if req.IsPublic != nil {
		album.IsPublic = *req.IsPublic
	}

	if err := h.albums.Create(r.Context(), album); err != nil {
		return apperrors.DatabaseError("failed to create album").WithCause(err)
	}

	writeData(w, r, http.StatusCreated, map[string]any{"album": albumView(album)})
	return nil
}

// Get handles GET /api/albums/{albumId}, including the album's posts.
func (h *AlbumHandlers) Get(w http.ResponseWriter, r *http.Request) error {
	albumID, err := pathUUID(r, "albumId")
	if err != nil {
		return err
	}

	album, err := h.albums.GetByID(r.Context(), albumID)
	if err != nil {
		if errors.Is(err, db.ErrAlbumNotFound) {
			return apperrors.AlbumNotFound()
		}
		return apperrors.DatabaseError("failed to load album").WithCause(err)
	}

	identity := auth.IdentityFromContext(r.Context())
	if !album.IsPublic && (identity == nil || identity.UserID != album.UserID) {
		return apperrors.AlbumNotFound()
	}

	view := albumView(album)

	posts, err := h.posts.ListByAlbum(r.Context(), albumID)
	if err != nil {
		return apperrors.DatabaseError("failed to load album posts").WithCause(err)
	}
	view.Posts = postViews(posts)

	writeData(w, r, http.StatusOK, map[string]any{"album": view})
	return nil
}

type addAlbumPostRequest struct {
	PostID string `json:"postId"`
}

// AddPost handles POST /api/albums/{albumId}/posts.
func (h *AlbumHandlers) AddPost(w http.ResponseWriter, r *http.Request) error {
	album, err := h.ownedAlbum(r)
	if err != nil {
		return err
	}

	var req addAlbumPostRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	postID, err := uuid.Parse(req.PostID)
	if err != nil {
		return apperrors.BadRequest("invalid postId")
	}

	post, err := h.posts.GetByID(r.Context(), postID)
	if err != nil {
		if errors.Is(err, db.ErrPostNotFound) {
			return apperrors.PostNotFound()
		}
		return apperrors.DatabaseError("failed to load post").WithCause(err)
	}
	identity := auth.IdentityFromContext(r.Context())
	if !post.IsPublic && post.UserID != identity.UserID {
		return apperrors.PostNotFound()
	}

	if err := h.albums.AddPost(r.Context(), album.ID, postID); err != nil {
		if errors.Is(err, db.ErrPostAlreadyInAlbum) {
			return apperrors.Conflict("post is already in this album")
		}
		return apperrors.DatabaseError("failed to add post to album").WithCause(err)
	}

	writeData(w, r, http.StatusCreated, map[string]any{"added": true})
	return nil
}

// RemovePost handles DELETE /api/albums/{albumId}/posts/{postId}.
func (h *AlbumHandlers) RemovePost(w http.ResponseWriter, r *http.Request) error {
	album, err := h.ownedAlbum(r)
	if err != nil {
		return err
	}

	postID, err := pathUUID(r, "postId")
	if err != nil {
		return err
	}

	if err := h.albums.RemovePost(r.Context(), album.ID, postID); err != nil {
		if errors.Is(err, db.ErrPostNotInAlbum) {
			return apperrors.NotFound("post in album")
		}
		return apperrors.DatabaseError("failed to remove post from album").WithCause(err)
	}

	writeData(w, r, http.StatusOK, map[string]any{"removed": true})
	return nil
}

// Delete handles DELETE /api/albums/{albumId}. Posts in the album stay.
func (h *AlbumHandlers) Delete(w http.ResponseWriter, r *http.Request) error {
	album, err := h.ownedAlbum(r)
	if err != nil {
		return err
	}

	if err := h.albums.Delete(r.Context(), album.ID); err != nil {
		return apperrors.DatabaseError("failed to delete album").WithCause(err)
	}

	writeData(w, r, http.StatusOK, map[string]any{"deleted": true})
	return nil
}

func (h *AlbumHandlers) ownedAlbum(r *http.Request) (*db.Album, error) {
	identity := auth.IdentityFromContext(r.Context())

	albumID, err := pathUUID(r, "albumId")
	if err != nil {
		return nil, err
	}

	album, err := h.albums.GetByID(r.Context(), albumID)
	if err != nil {
		if errors.Is(err, db.ErrAlbumNotFound) {
			return nil, apperrors.AlbumNotFound()
		}
		return nil, apperrors.DatabaseError("failed to load album").WithCause(err)
	}

	if album.UserID != identity.UserID {
		// Private albums read as missing to everyone but their owner.
		if !album.IsPublic {
			return nil, apperrors.AlbumNotFound()
		}
		return nil, apperrors.Forbidden("you do not own this album")
	}

	return album, nil
}
