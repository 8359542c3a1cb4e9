package api

import (
	"database/sql"
	"time"

	"github.com/imagehost/backend/internal/db"
)

// AuthorView is the author slice embedded in posts and comments.
type AuthorView struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	ProfileImage *string `json:"profileImage"`
}

// PostView is the JSON shape of a post.
type PostView struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description *string     `json:"description"`
	ImageURL    string      `json:"imageUrl"`
	Thumbnail   *string     `json:"thumbnail"`
	Views       int         `json:"views"`
	Upvotes     int         `json:"upvotes"`
	Downvotes   int         `json:"downvotes"`
	IsPublic    bool        `json:"isPublic"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	Author      *AuthorView `json:"author,omitempty"`
	Tags        []TagView   `json:"tags,omitempty"`
	UserVote    *string     `json:"userVote,omitempty"`
}

// CommentView is the JSON shape of a comment.
type CommentView struct {
	ID        string      `json:"id"`
	PostID    string      `json:"postId"`
	Body      string      `json:"body"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	Author    *AuthorView `json:"author,omitempty"`
}

// AlbumView is the JSON shape of an album.
type AlbumView struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	CoverImage  *string    `json:"coverImage"`
	IsPublic    bool       `json:"isPublic"`
	PostCount   int        `json:"postCount"`
	CreatedAt   time.Time  `json:"createdAt"`
	Posts       []PostView `json:"posts,omitempty"`
}

// TagView is the JSON shape of a tag.
type TagView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	PostCount int    `json:"postCount"`
}

// UserSummaryView is the public shape of a user in search results.
type UserSummaryView struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	Bio          *string `json:"bio"`
	ProfileImage *string `json:"profileImage"`
}

// PageView wraps a list with its pagination window.
type PageView[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func authorView(a *db.AuthorSummary) *AuthorView {
	if a == nil {
		return nil
	}
	return &AuthorView{
		ID:           a.ID.String(),
		Username:     a.Username,
		ProfileImage: nullableString(a.ProfileImage),
	}
}

func postView(p *db.Post) PostView {
	return PostView{
		ID:          p.ID.String(),
		Title:       p.Title,
		Description: nullableString(p.Description),
		ImageURL:    p.ImageURL,
		Thumbnail:   nullableString(p.Thumbnail),
		Views:       p.Views,
		Upvotes:     p.Upvotes,
		Downvotes:   p.Downvotes,
		IsPublic:    p.IsPublic,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Author:      authorView(p.Author),
	}
}

func postViews(posts []*db.Post) []PostView {
	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, postView(p))
	}
	return views
}

func commentView(c *db.Comment) CommentView {
	return CommentView{
		ID:        c.ID.String(),
		PostID:    c.PostID.String(),
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Author:    authorView(c.Author),
	}
}

func albumView(a *db.Album) AlbumView {
	return AlbumView{
		ID:          a.ID.String(),
		UserID:      a.UserID.String(),
		Name:        a.Name,
		Description: nullableString(a.Description),
		CoverImage:  nullableString(a.CoverImage),
		IsPublic:    a.IsPublic,
		PostCount:   a.PostCount,
		CreatedAt:   a.CreatedAt,
	}
}

func tagView(t *db.Tag) TagView {
	return TagView{
		ID:        t.ID.String(),
		Name:      t.Name,
		Slug:      t.Slug,
		PostCount: t.PostCount,
	}
}

func tagViews(tags []*db.Tag) []TagView {
	views := make([]TagView, 0, len(tags))
	for _, t := range tags {
		views = append(views, tagView(t))
	}
	return views
}

func userSummaryView(u *db.User) UserSummaryView {
	return UserSummaryView{
		ID:           u.ID.String(),
		Username:     u.Username,
		Bio:          nullableString(u.Bio),
		ProfileImage: nullableString(u.ProfileImage),
	}
}
