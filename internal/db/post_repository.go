package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrPostNotFound = errors.New("post not found")

type Post struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Title       string
	Description sql.NullString
	ImageURL    string
	Thumbnail   sql.NullString
	Views       int
	Upvotes     int
	Downvotes   int
	IsPublic    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Author is populated on reads that join users.
	Author *AuthorSummary
}

// AuthorSummary is the slice of a user embedded in posts and comments.
type AuthorSummary struct {
	ID           uuid.UUID
	Username     string
	ProfileImage sql.NullString
}

// FeedSort selects the ordering of the public feed.
type FeedSort string

const (
	SortRecent   FeedSort = "recent"
	SortPopular  FeedSort = "popular"
	SortTrending FeedSort = "trending"
)

type PostRepository struct {
	db *DB
}

func NewPostRepository(db *DB) *PostRepository {
	return &PostRepository{db: db}
}

const postColumns = `
	p.id, p.user_id, p.title, p.description, p.image_url, p.thumbnail,
	p.views, p.upvotes, p.downvotes, p.is_public, p.created_at, p.updated_at,
	u.id, u.username, u.profile_image
`

func scanPost(scanner interface{ Scan(...any) error }) (*Post, error) {
	post := &Post{Author: &AuthorSummary{}}
	err := scanner.Scan(
		&post.ID, &post.UserID, &post.Title, &post.Description, &post.ImageURL,
		&post.Thumbnail, &post.Views, &post.Upvotes, &post.Downvotes,
		&post.IsPublic, &post.CreatedAt, &post.UpdatedAt,
		&post.Author.ID, &post.Author.Username, &post.Author.ProfileImage,
	)
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (r *PostRepository) Create(ctx context.Context, post *Post) error {
	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	now := time.Now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	if post.UpdatedAt.IsZero() {
		post.UpdatedAt = now
	}

	query := `
		INSERT INTO posts (id, user_id, title, description, image_url, thumbnail, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		post.ID, post.UserID, post.Title, post.Description, post.ImageURL,
		post.Thumbnail, post.IsPublic, post.CreatedAt, post.UpdatedAt,
	)
	return err
}

func (r *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1
	`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	return post, nil
}

// ListPublic returns a page of the public feed plus the total count.
func (r *PostRepository) ListPublic(ctx context.Context, sort FeedSort, limit, offset int) ([]*Post, int, error) {
	order := "p.created_at DESC"
	switch sort {
	case SortPopular:
		order = "p.upvotes DESC, p.created_at DESC"
	case SortTrending:
		order = "p.views DESC, p.created_at DESC"
	}

	query := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.is_public = TRUE
		ORDER BY ` + order + `
		LIMIT $1 OFFSET $2
	`

	posts, err := r.queryPosts(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE is_public = TRUE`).Scan(&total); err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

// ListByUser returns a user's public posts, newest first.
func (r *PostRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Post, int, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1 AND p.is_public = TRUE
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3
	`

	posts, err := r.queryPosts(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE user_id = $1 AND is_public = TRUE`, userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

// ListByTag returns public posts carrying the tag with the given slug.
func (r *PostRepository) ListByTag(ctx context.Context, slug string, limit, offset int) ([]*Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.user_id
		JOIN post_tags pt ON pt.post_id = p.id
		JOIN tags t ON t.id = pt.tag_id
		WHERE t.slug = $1 AND p.is_public = TRUE
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3
	`

	return r.queryPosts(ctx, query, slug, limit, offset)
}

func (r *PostRepository) ListByAlbum(ctx context.Context, albumID uuid.UUID) ([]*Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.user_id
		JOIN album_posts ap ON ap.post_id = p.id
		WHERE ap.album_id = $1
		ORDER BY ap.added_at ASC
	`

	return r.queryPosts(ctx, query, albumID)
}

// Search finds public posts whose title or description match the pattern.
func (r *PostRepository) Search(ctx context.Context, pattern string, limit int) ([]*Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.is_public = TRUE AND (p.title ILIKE $1 OR p.description ILIKE $1)
		ORDER BY p.created_at DESC
		LIMIT $2
	`

	return r.queryPosts(ctx, query, "%"+pattern+"%", limit)
}

func (r *PostRepository) queryPosts(ctx context.Context, query string, args ...any) ([]*Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	return posts, rows.Err()
}

func (r *PostRepository) Update(ctx context.Context, id uuid.UUID, title, description *string, isPublic *bool) (*Post, error) {
	query := `
		UPDATE posts
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    is_public = COALESCE($4, is_public),
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, title, description, isPublic)
	if err != nil {
		return nil, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrPostNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *PostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrPostNotFound
	}

	return nil
}

// IncrementViews bumps the view counter without touching updated_at.
func (r *PostRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE posts SET views = views + 1 WHERE id = $1`, id)
	return err
}
