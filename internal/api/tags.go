package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/imagehost/backend/internal/cache"
	"github.com/imagehost/backend/internal/db"
	apperrors "github.com/imagehost/backend/internal/errors"
)

// TagHandlers serves the tag cloud and per-tag browsing.
type TagHandlers struct {
	tags  *db.TagRepository
	posts *db.PostRepository
	cache *cache.Cache
}

func NewTagHandlers(tags *db.TagRepository, posts *db.PostRepository, c *cache.Cache) *TagHandlers {
	return &TagHandlers{tags: tags, posts: posts, cache: c}
}

// Popular handles GET /api/tags.
func (h *TagHandlers) Popular(w http.ResponseWriter, r *http.Request) error {
	limit := 30
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	key := cache.PopularTagsKey(limit)
	if h.cache != nil {
		var views []TagView
		if h.cache.GetJSON(r.Context(), key, &views) {
			writeData(w, r, http.StatusOK, map[string]any{"tags": views})
			return nil
		}
	}

	tags, err := h.tags.ListPopular(r.Context(), limit)
	if err != nil {
		return apperrors.DatabaseError("failed to load tags").WithCause(err)
	}

	views := tagViews(tags)
	if h.cache != nil {
		h.cache.SetJSON(r.Context(), key, views, cache.PopularTagsTTL)
	}

	writeData(w, r, http.StatusOK, map[string]any{"tags": views})
	return nil
}

// Posts handles GET /api/tags/{slug}/posts.
func (h *TagHandlers) Posts(w http.ResponseWriter, r *http.Request) error {
	slug := r.PathValue("slug")
	if slug == "" {
		return apperrors.BadRequest("slug is required")
	}

	tag, err := h.tags.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, db.ErrTagNotFound) {
			return apperrors.TagNotFound()
		}
		return apperrors.DatabaseError("failed to load tag").WithCause(err)
	}

	limit, offset := parsePagination(r)

	posts, err := h.posts.ListByTag(r.Context(), slug, limit, offset)
	if err != nil {
		return apperrors.DatabaseError("failed to load posts").WithCause(err)
	}

	writeData(w, r, http.StatusOK, map[string]any{
		"tag":   tagView(tag),
		"posts": postViews(posts),
	})
	return nil
}
