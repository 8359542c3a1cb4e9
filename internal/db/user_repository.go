package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user with this email or username already exists")

type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Bio          sql.NullString
	ProfileImage sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileCounts aggregates the collections hanging off a user.
type ProfileCounts struct {
	PostCount      int
	FollowerCount  int
	FollowingCount int
}

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. The unique constraints on username and email
// make concurrent duplicate registrations fail here rather than race past
// an existence check.
func (r *UserRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, bio, profile_image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.Bio, user.ProfileImage, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return err
	}

	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `WHERE email = $1`, email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getOne(ctx, `WHERE username = $1`, username)
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*User, error) {
	query := `
		SELECT id, username, email, password_hash, bio, profile_image, created_at, updated_at
		FROM users
	` + where

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Bio, &user.ProfileImage, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// UpdateProfile mutates only bio and profile image. Username, email and the
// password hash are not reachable through this path.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, bio, profileImage *string) (*User, error) {
	query := `
		UPDATE users
		SET bio = COALESCE($2, bio),
		    profile_image = COALESCE($3, profile_image),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, username, email, password_hash, bio, profile_image, created_at, updated_at
	`

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, id, bio, profileImage).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Bio, &user.ProfileImage, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// GetProfileCounts returns post, follower and following counts for a user.
func (r *UserRepository) GetProfileCounts(ctx context.Context, id uuid.UUID) (*ProfileCounts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM posts WHERE user_id = $1),
			(SELECT COUNT(*) FROM follows WHERE following_id = $1),
			(SELECT COUNT(*) FROM follows WHERE follower_id = $1)
	`

	counts := &ProfileCounts{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&counts.PostCount, &counts.FollowerCount, &counts.FollowingCount,
	)
	if err != nil {
		return nil, err
	}

	return counts, nil
}

// SearchByUsername finds users whose username contains the query, newest first.
func (r *UserRepository) SearchByUsername(ctx context.Context, pattern string, limit int) ([]*User, error) {
	query := `
		SELECT id, username, email, password_hash, bio, profile_image, created_at, updated_at
		FROM users
		WHERE username ILIKE $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, "%"+pattern+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user := &User{}
		if err := rows.Scan(
			&user.ID, &user.Username, &user.Email, &user.PasswordHash,
			&user.Bio, &user.ProfileImage, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}
