package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrAlbumNotFound = errors.New("album not found")
var ErrPostAlreadyInAlbum = errors.New("post already in album")
var ErrPostNotInAlbum = errors.New("post not in album")

type Album struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Description sql.NullString
	CoverImage  sql.NullString
	IsPublic    bool
	PostCount   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type AlbumRepository struct {
	db *DB
}

func NewAlbumRepository(db *DB) *AlbumRepository {
	return &AlbumRepository{db: db}
}

func (r *AlbumRepository) Create(ctx context.Context, album *Album) error {
	if album.ID == uuid.Nil {
		album.ID = uuid.New()
	}
	now := time.Now()
	if album.CreatedAt.IsZero() {
		album.CreatedAt = now
	}
	if album.UpdatedAt.IsZero() {
		album.UpdatedAt = now
	}

	query := `
		INSERT INTO albums (id, user_id, name, description, cover_image, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		album.ID, album.UserID, album.Name, album.Description,
		album.CoverImage, album.IsPublic, album.CreatedAt, album.UpdatedAt,
	)
	return err
}

func (r *AlbumRepository) GetByID(ctx context.Context, id uuid.UUID) (*Album, error) {
	query := `
		SELECT id, user_id, name, description, cover_image, is_public, post_count, created_at, updated_at
		FROM albums
		WHERE id = $1
	`

	album := &Album{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&album.ID, &album.UserID, &album.Name, &album.Description,
		&album.CoverImage, &album.IsPublic, &album.PostCount,
		&album.CreatedAt, &album.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlbumNotFound
		}
		return nil, err
	}

	return album, nil
}

// ListByUser returns a user's albums, newest first.
func (r *AlbumRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Album, error) {
	query := `
		SELECT id, user_id, name, description, cover_image, is_public, post_count, created_at, updated_at
		FROM albums
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var albums []*Album
	for rows.Next() {
		album := &Album{}
		if err := rows.Scan(
			&album.ID, &album.UserID, &album.Name, &album.Description,
			&album.CoverImage, &album.IsPublic, &album.PostCount,
			&album.CreatedAt, &album.UpdatedAt,
		); err != nil {
			return nil, err
		}
		albums = append(albums, album)
	}

	return albums, rows.Err()
}

// AddPost links a post into an album and bumps the album's post count in one
// transaction.
func (r *AlbumRepository) AddPost(ctx context.Context, albumID, postID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO album_posts (album_id, post_id, added_at) VALUES ($1, $2, NOW())`,
		albumID, postID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPostAlreadyInAlbum
		}
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE albums SET post_count = post_count + 1, updated_at = NOW() WHERE id = $1`,
		albumID,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// RemovePost unlinks a post from an album and drops the album's post count
// in one transaction. Removing a post that is not in the album is
// ErrPostNotInAlbum.
func (r *AlbumRepository) RemovePost(ctx context.Context, albumID, postID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM album_posts WHERE album_id = $1 AND post_id = $2`,
		albumID, postID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrPostNotInAlbum
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE albums SET post_count = post_count - 1, updated_at = NOW() WHERE id = $1`,
		albumID,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *AlbumRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM albums WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAlbumNotFound
	}

	return nil
}
