package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrTagNotFound = errors.New("tag not found")

type Tag struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	PostCount int
	CreatedAt time.Time
}

type TagRepository struct {
	db *DB
}

func NewTagRepository(db *DB) *TagRepository {
	return &TagRepository{db: db}
}

// Upsert creates a tag if it does not exist and returns the stored row
// either way. Concurrent creates of the same tag resolve via the unique
// constraint on name, not an existence check.
func (r *TagRepository) Upsert(ctx context.Context, name, slug string) (*Tag, error) {
	query := `
		INSERT INTO tags (id, name, slug, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, slug, post_count, created_at
	`

	tag := &Tag{}
	err := r.db.QueryRowContext(ctx, query, uuid.New(), name, slug).Scan(
		&tag.ID, &tag.Name, &tag.Slug, &tag.PostCount, &tag.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return tag, nil
}

func (r *TagRepository) GetBySlug(ctx context.Context, slug string) (*Tag, error) {
	query := `
		SELECT id, name, slug, post_count, created_at
		FROM tags
		WHERE slug = $1
	`

	tag := &Tag{}
	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&tag.ID, &tag.Name, &tag.Slug, &tag.PostCount, &tag.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}

	return tag, nil
}

// ListPopular returns tags ordered by how many posts carry them.
func (r *TagRepository) ListPopular(ctx context.Context, limit int) ([]*Tag, error) {
	query := `
		SELECT id, name, slug, post_count, created_at
		FROM tags
		ORDER BY post_count DESC, name ASC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*Tag
	for rows.Next() {
		tag := &Tag{}
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Slug, &tag.PostCount, &tag.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}

	return tags, rows.Err()
}

// ListByPost returns the tags attached to a post.
func (r *TagRepository) ListByPost(ctx context.Context, postID uuid.UUID) ([]*Tag, error) {
	query := `
		SELECT t.id, t.name, t.slug, t.post_count, t.created_at
		FROM tags t
		JOIN post_tags pt ON pt.tag_id = t.id
		WHERE pt.post_id = $1
		ORDER BY t.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*Tag
	for rows.Next() {
		tag := &Tag{}
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Slug, &tag.PostCount, &tag.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}

	return tags, rows.Err()
}

// AttachToPost links a tag to a post and bumps the tag's post count. Linking
// the same pair twice is a no-op.
func (r *TagRepository) AttachToPost(ctx context.Context, postID, tagID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		postID, tagID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		_, err = tx.ExecContext(ctx,
			`UPDATE tags SET post_count = post_count + 1 WHERE id = $1`, tagID,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
