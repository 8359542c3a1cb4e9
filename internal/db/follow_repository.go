package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrAlreadyFollowing = errors.New("already following this user")
var ErrFollowNotFound = errors.New("follow not found")

type Follow struct {
	ID          uuid.UUID
	FollowerID  uuid.UUID
	FollowingID uuid.UUID
	CreatedAt   time.Time
}

type FollowRepository struct {
	db *DB
}

func NewFollowRepository(db *DB) *FollowRepository {
	return &FollowRepository{db: db}
}

// Create records follower → following. The unique constraint makes a double
// follow fail instead of duplicating the edge.
func (r *FollowRepository) Create(ctx context.Context, followerID, followingID uuid.UUID) error {
	query := `
		INSERT INTO follows (id, follower_id, following_id, created_at)
		VALUES ($1, $2, $3, NOW())
	`

	_, err := r.db.ExecContext(ctx, query, uuid.New(), followerID, followingID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyFollowing
		}
		return err
	}

	return nil
}

func (r *FollowRepository) Delete(ctx context.Context, followerID, followingID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`,
		followerID, followingID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrFollowNotFound
	}

	return nil
}

// IsFollowing reports whether follower follows following.
func (r *FollowRepository) IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2)`,
		followerID, followingID,
	).Scan(&exists)
	return exists, err
}
