package api

import (
	"net/http"
	"strings"

	"golang.org/x/text/cases"

	"github.com/imagehost/backend/internal/db"
	apperrors "github.com/imagehost/backend/internal/errors"
)

const maxSearchResults = 25

// queryFolder case-folds search input so queries match the way ILIKE
// folds ASCII but across the full unicode range.
var queryFolder = cases.Fold()

// SearchHandlers serves combined post and user search.
type SearchHandlers struct {
	posts *db.PostRepository
	users *db.UserRepository
}

func NewSearchHandlers(posts *db.PostRepository, users *db.UserRepository) *SearchHandlers {
	return &SearchHandlers{posts: posts, users: users}
}

// Search handles GET /api/search?q=&type=. Type selects posts, users, or
// both (the default).
func (h *SearchHandlers) Search(w http.ResponseWriter, r *http.Request) error {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		return apperrors.ValidationError("search query is required")
	}
	if len(q) > 200 {
		return apperrors.ValidationError("search query is too long")
	}

	pattern := escapeLike(queryFolder.String(q))
	kind := r.URL.Query().Get("type")

	result := map[string]any{}

	if kind == "" || kind == "all" || kind == "posts" {
		posts, err := h.posts.Search(r.Context(), pattern, maxSearchResults)
		if err != nil {
			return apperrors.DatabaseError("post search failed").WithCause(err)
		}
		result["posts"] = postViews(posts)
	}

	if kind == "" || kind == "all" || kind == "users" {
		users, err := h.users.SearchByUsername(r.Context(), pattern, maxSearchResults)
		if err != nil {
			return apperrors.DatabaseError("user search failed").WithCause(err)
		}
		views := make([]UserSummaryView, 0, len(users))
		for _, u := range users {
			views = append(views, userSummaryView(u))
		}
		result["users"] = views
	}

	if len(result) == 0 {
		return apperrors.ValidationError("type must be posts, users, or all")
	}

	writeData(w, r, http.StatusOK, result)
	return nil
}
