package api

import (
	"net/http"

	"github.com/imagehost/backend/internal/auth"
	apperrors "github.com/imagehost/backend/internal/errors"
	"github.com/imagehost/backend/internal/health"
	"github.com/imagehost/backend/internal/metrics"
)

// Router owns the route table. Handlers return errors; the HandleFunc
// adapter maps them to the error envelope.
type Router struct {
	mux    *http.ServeMux
	tokens *auth.TokenIssuer

	authHandlers    *auth.Handlers
	postHandlers    *PostHandlers
	commentHandlers *CommentHandlers
	userHandlers    *UserHandlers
	albumHandlers   *AlbumHandlers
	tagHandlers     *TagHandlers
	searchHandlers  *SearchHandlers
	uploadHandlers  *UploadHandlers
	healthHandler   *health.Handler
	metrics         *metrics.Metrics
}

// RouterConfig collects everything the route table serves.
type RouterConfig struct {
	Tokens   *auth.TokenIssuer
	Auth     *auth.Handlers
	Posts    *PostHandlers
	Comments *CommentHandlers
	Users    *UserHandlers
	Albums   *AlbumHandlers
	Tags     *TagHandlers
	Search   *SearchHandlers
	Upload   *UploadHandlers
	Health   *health.Handler
	Metrics  *metrics.Metrics
}

func NewRouter(cfg *RouterConfig) *Router {
	r := &Router{
		mux:             http.NewServeMux(),
		tokens:          cfg.Tokens,
		authHandlers:    cfg.Auth,
		postHandlers:    cfg.Posts,
		commentHandlers: cfg.Comments,
		userHandlers:    cfg.Users,
		albumHandlers:   cfg.Albums,
		tagHandlers:     cfg.Tags,
		searchHandlers:  cfg.Search,
		uploadHandlers:  cfg.Upload,
		healthHandler:   cfg.Health,
		metrics:         cfg.Metrics,
	}
	r.setupRoutes()
	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) setupRoutes() {
	// Operational endpoints
	r.mux.HandleFunc("GET /health", r.healthHandler.HealthHandler)
	r.mux.HandleFunc("GET /health/live", r.healthHandler.LivenessHandler)
	r.mux.HandleFunc("GET /health/ready", r.healthHandler.ReadinessHandler)
	r.mux.HandleFunc("GET /metrics", r.metrics.Handler())

	// Auth (public)
	r.mux.HandleFunc("POST /api/auth/register", apperrors.HandleFunc(r.authHandlers.Register))
	r.mux.HandleFunc("POST /api/auth/login", apperrors.HandleFunc(r.authHandlers.Login))
	r.mux.HandleFunc("POST /api/auth/logout", apperrors.HandleFunc(r.authHandlers.Logout))
	r.mux.HandleFunc("POST /api/auth/refresh", apperrors.HandleFunc(r.authHandlers.Refresh))
	r.mux.HandleFunc("GET /api/auth/profile/{userId}", apperrors.HandleFunc(r.authHandlers.Profile))

	// Auth (token required)
	r.mux.Handle("GET /api/auth/me", r.withAuth(r.authHandlers.Me))
	r.mux.Handle("PUT /api/auth/profile", r.withAuth(r.authHandlers.UpdateProfile))

	// Posts
	r.mux.Handle("GET /api/posts", r.withOptionalAuth(r.postHandlers.Feed))
	r.mux.Handle("GET /api/posts/{postId}", r.withOptionalAuth(r.postHandlers.Get))
	r.mux.Handle("PUT /api/posts/{postId}", r.withAuth(r.postHandlers.Update))
	r.mux.Handle("DELETE /api/posts/{postId}", r.withAuth(r.postHandlers.Delete))
	r.mux.Handle("PUT /api/posts/{postId}/vote", r.withAuth(r.postHandlers.Vote))
	r.mux.Handle("DELETE /api/posts/{postId}/vote", r.withAuth(r.postHandlers.Unvote))

	// Comments
	r.mux.Handle("GET /api/posts/{postId}/comments", r.withOptionalAuth(r.commentHandlers.List))
	r.mux.Handle("POST /api/posts/{postId}/comments", r.withAuth(r.commentHandlers.Create))
	r.mux.Handle("PUT /api/comments/{commentId}", r.withAuth(r.commentHandlers.Update))
	r.mux.Handle("DELETE /api/comments/{commentId}", r.withAuth(r.commentHandlers.Delete))

	// Users and the follow graph
	r.mux.Handle("GET /api/users/{username}", r.withOptionalAuth(r.userHandlers.Profile))
	r.mux.Handle("GET /api/users/{username}/posts", r.withOptionalAuth(r.userHandlers.Posts))
	r.mux.Handle("GET /api/users/{username}/albums", r.withOptionalAuth(r.userHandlers.Albums))
	r.mux.Handle("POST /api/users/{userId}/follow", r.withAuth(r.userHandlers.Follow))
	r.mux.Handle("DELETE /api/users/{userId}/follow", r.withAuth(r.userHandlers.Unfollow))

	// Albums
	r.mux.Handle("POST /api/albums", r.withAuth(r.albumHandlers.Create))
	r.mux.Handle("GET /api/albums/{albumId}", r.withOptionalAuth(r.albumHandlers.Get))
	r.mux.Handle("POST /api/albums/{albumId}/posts", r.withAuth(r.albumHandlers.AddPost))
	r.mux.Handle("DELETE /api/albums/{albumId}/posts/{postId}", r.withAuth(r.albumHandlers.RemovePost))
	r.mux.Handle("DELETE /api/albums/{albumId}", r.withAuth(r.albumHandlers.Delete))

	// Tags and search
	r.mux.HandleFunc("GET /api/tags", apperrors.HandleFunc(r.tagHandlers.Popular))
	r.mux.HandleFunc("GET /api/tags/{slug}/posts", apperrors.HandleFunc(r.tagHandlers.Posts))
	r.mux.HandleFunc("GET /api/search", apperrors.HandleFunc(r.searchHandlers.Search))

	// Upload
	r.mux.Handle("POST /api/upload", r.withAuth(r.uploadHandlers.Upload))
}

// withAuth wraps a handler with the mandatory bearer token check.
func (r *Router) withAuth(h apperrors.Handler) http.Handler {
	return auth.Middleware(r.tokens)(apperrors.HandleFunc(h))
}

// withOptionalAuth attaches an identity when one is presented but never
// rejects the request.
func (r *Router) withOptionalAuth(h apperrors.Handler) http.Handler {
	return auth.OptionalMiddleware(r.tokens)(apperrors.HandleFunc(h))
}
