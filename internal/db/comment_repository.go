package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrCommentNotFound = errors.New("comment not found")

type Comment struct {
	ID        uuid.UUID
	PostID    uuid.UUID
	UserID    uuid.UUID
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time

	Author *AuthorSummary
}

type CommentRepository struct {
	db *DB
}

func NewCommentRepository(db *DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment *Comment) error {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	now := time.Now()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}
	if comment.UpdatedAt.IsZero() {
		comment.UpdatedAt = now
	}

	query := `
		INSERT INTO comments (id, post_id, user_id, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		comment.ID, comment.PostID, comment.UserID, comment.Body,
		comment.CreatedAt, comment.UpdatedAt,
	)
	return err
}

func (r *CommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*Comment, error) {
	query := `
		SELECT c.id, c.post_id, c.user_id, c.body, c.created_at, c.updated_at,
		       u.id, u.username, u.profile_image
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.id = $1
	`

	comment := &Comment{Author: &AuthorSummary{}}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&comment.ID, &comment.PostID, &comment.UserID, &comment.Body,
		&comment.CreatedAt, &comment.UpdatedAt,
		&comment.Author.ID, &comment.Author.Username, &comment.Author.ProfileImage,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	return comment, nil
}

// ListByPost returns a post's comments oldest first, with author summaries.
func (r *CommentRepository) ListByPost(ctx context.Context, postID uuid.UUID, limit, offset int) ([]*Comment, int, error) {
	query := `
		SELECT c.id, c.post_id, c.user_id, c.body, c.created_at, c.updated_at,
		       u.id, u.username, u.profile_image
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, postID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		comment := &Comment{Author: &AuthorSummary{}}
		if err := rows.Scan(
			&comment.ID, &comment.PostID, &comment.UserID, &comment.Body,
			&comment.CreatedAt, &comment.UpdatedAt,
			&comment.Author.ID, &comment.Author.Username, &comment.Author.ProfileImage,
		); err != nil {
			return nil, 0, err
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID).Scan(&total); err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

func (r *CommentRepository) Update(ctx context.Context, id uuid.UUID, body string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE comments SET body = $1, updated_at = NOW() WHERE id = $2`,
		body, id,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCommentNotFound
	}

	return nil
}

func (r *CommentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCommentNotFound
	}

	return nil
}
