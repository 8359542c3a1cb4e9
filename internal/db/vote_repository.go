package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrVoteNotFound = errors.New("vote not found")

type VoteType string

const (
	VoteUp   VoteType = "upvote"
	VoteDown VoteType = "downvote"
)

type Vote struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	PostID    uuid.UUID
	Type      VoteType
	CreatedAt time.Time
}

type VoteRepository struct {
	db *DB
}

func NewVoteRepository(db *DB) *VoteRepository {
	return &VoteRepository{db: db}
}

func (r *VoteRepository) Get(ctx context.Context, userID, postID uuid.UUID) (*Vote, error) {
	query := `
		SELECT id, user_id, post_id, vote_type, created_at
		FROM votes
		WHERE user_id = $1 AND post_id = $2
	`

	vote := &Vote{}
	err := r.db.QueryRowContext(ctx, query, userID, postID).Scan(
		&vote.ID, &vote.UserID, &vote.PostID, &vote.Type, &vote.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVoteNotFound
		}
		return nil, err
	}

	return vote, nil
}

// Set records a user's vote on a post and adjusts the post's counters in the
// same transaction. Re-voting the same way is a no-op; voting the other way
// flips the vote and both counters.
func (r *VoteRepository) Set(ctx context.Context, userID, postID uuid.UUID, voteType VoteType) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existing VoteType
	err = tx.QueryRowContext(ctx,
		`SELECT vote_type FROM votes WHERE user_id = $1 AND post_id = $2 FOR UPDATE`,
		userID, postID,
	).Scan(&existing)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO votes (id, user_id, post_id, vote_type, created_at) VALUES ($1, $2, $3, $4, NOW())`,
			uuid.New(), userID, postID, voteType,
		)
		if err != nil {
			return err
		}
		if err := adjustCounters(ctx, tx, postID, voteType, 1); err != nil {
			return err
		}
	case err != nil:
		return err
	case existing == voteType:
		return tx.Commit()
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE votes SET vote_type = $3 WHERE user_id = $1 AND post_id = $2`,
			userID, postID, voteType,
		)
		if err != nil {
			return err
		}
		if err := adjustCounters(ctx, tx, postID, existing, -1); err != nil {
			return err
		}
		if err := adjustCounters(ctx, tx, postID, voteType, 1); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Clear removes a user's vote and rolls back the matching counter.
func (r *VoteRepository) Clear(ctx context.Context, userID, postID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existing VoteType
	err = tx.QueryRowContext(ctx,
		`SELECT vote_type FROM votes WHERE user_id = $1 AND post_id = $2 FOR UPDATE`,
		userID, postID,
	).Scan(&existing)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrVoteNotFound
		}
		return err
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM votes WHERE user_id = $1 AND post_id = $2`,
		userID, postID,
	)
	if err != nil {
		return err
	}
	if err := adjustCounters(ctx, tx, postID, existing, -1); err != nil {
		return err
	}

	return tx.Commit()
}

func adjustCounters(ctx context.Context, tx *sql.Tx, postID uuid.UUID, voteType VoteType, delta int) error {
	column := "upvotes"
	if voteType == VoteDown {
		column = "downvotes"
	}

	_, err := tx.ExecContext(ctx,
		`UPDATE posts SET `+column+` = `+column+` + $2 WHERE id = $1`,
		postID, delta,
	)
	return err
}
