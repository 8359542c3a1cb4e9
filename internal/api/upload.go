package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/imagehost/backend/internal/auth"
	"github.com/imagehost/backend/internal/cache"
	"github.com/imagehost/backend/internal/db"
	apperrors "github.com/imagehost/backend/internal/errors"
	"github.com/imagehost/backend/internal/logger"
	"github.com/imagehost/backend/internal/metrics"
	"github.com/imagehost/backend/internal/storage"
	"github.com/imagehost/backend/internal/tags"
)

const maxTagsPerPost = 10

// UploadHandlers turns multipart image uploads into posts.
type UploadHandlers struct {
	store   storage.ImageStore
	posts   *db.PostRepository
	tagRepo *db.TagRepository
	cache   *cache.Cache
	metrics *metrics.Metrics
	log     *logger.Logger
}

func NewUploadHandlers(store storage.ImageStore, posts *db.PostRepository, tagRepo *db.TagRepository, c *cache.Cache, m *metrics.Metrics) *UploadHandlers {
	return &UploadHandlers{
		store:   store,
		posts:   posts,
		tagRepo: tagRepo,
		cache:   c,
		metrics: m,
		log:     logger.Default().WithComponent("upload"),
	}
}

// Upload handles POST /api/upload. The multipart form carries the image
// plus the post fields; the stored object is content addressed so the
// same image uploaded twice lands on one object.
func (h *UploadHandlers) Upload(w http.ResponseWriter, r *http.Request) error {
	identity := auth.IdentityFromContext(r.Context())

	if h.metrics != nil {
		h.metrics.IncActiveUploads()
		defer h.metrics.DecActiveUploads()
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageSize+1<<20)
	if err := r.ParseMultipartForm(storage.MaxImageSize); err != nil {
		return apperrors.BadRequest("invalid multipart form or upload too large")
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		return apperrors.ValidationError("title is required")
	}
	if len(title) > 200 {
		return apperrors.ValidationError("title is too long")
	}

	isPublic := true
	if raw := r.FormValue("isPublic"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return apperrors.ValidationError("isPublic must be a boolean")
		}
		isPublic = parsed
	}

	tagNames, err := parseTagNames(r.FormValue("tags"))
	if err != nil {
		return err
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return apperrors.ValidationError("image file is required")
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !storage.IsAllowedImageType(contentType) {
		return apperrors.ValidationError("unsupported image type")
	}

	result, err := h.store.Upload(r.Context(), file, contentType)
	if err != nil {
		return apperrors.StorageError("failed to store image").WithCause(err)
	}

	post := &db.Post{
		UserID:      identity.UserID,
		Title:       title,
		Description: db.NullString(strings.TrimSpace(r.FormValue("description"))),
		ImageURL:    result.StorageKey,
		IsPublic:    isPublic,
	}
	if err := h.posts.Create(r.Context(), post); err != nil {
		return apperrors.DatabaseError("failed to create post").WithCause(err)
	}

	view := postView(post)

	for _, name := range tagNames {
		tag, err := h.tagRepo.Upsert(r.Context(), name, tags.Slugify(name))
		if err != nil {
			h.log.Warn(r.Context(), "tag upsert failed", map[string]interface{}{"tag": name, "error": err.Error()})
			continue
		}
		if err := h.tagRepo.AttachToPost(r.Context(), post.ID, tag.ID); err != nil {
			h.log.Warn(r.Context(), "tag attach failed", map[string]interface{}{"tag": name, "error": err.Error()})
			continue
		}
		view.Tags = append(view.Tags, tagView(tag))
	}

	if h.cache != nil {
		h.cache.DeletePrefix(r.Context(), cache.FeedPrefix)
	}

	h.log.Info(r.Context(), "image uploaded", map[string]interface{}{
		"post_id":      post.ID.String(),
		"size":         result.Size,
		"deduplicated": !result.IsNew,
	})

	writeData(w, r, http.StatusCreated, map[string]any{"post": view})
	return nil
}

func parseTagNames(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	seen := make(map[string]bool)
	var names []string
	for _, part := range strings.Split(raw, ",") {
		name := tags.NormalizeName(part)
		if name == "" {
			continue
		}
		if !tags.Valid(name) {
			return nil, apperrors.ValidationError("invalid tag: " + name)
		}
		slug := tags.Slugify(name)
		if seen[slug] {
			continue
		}
		seen[slug] = true
		names = append(names, name)
	}

	if len(names) > maxTagsPerPost {
		return nil, apperrors.ValidationError("too many tags")
	}
	return names, nil
}
