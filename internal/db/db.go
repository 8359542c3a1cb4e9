package db

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

type DB struct {
	*sql.DB
}

// NullString wraps a non-empty string for nullable columns.
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func New(host, port, user, password, dbname string) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

// Migrate creates the schema. Uniqueness of username, email, votes and
// follows is enforced here with constraints rather than application-level
// existence checks, so concurrent duplicate writes lose cleanly.
func (db *DB) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username VARCHAR(50) UNIQUE NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		bio TEXT,
		profile_image VARCHAR(512),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);

	CREATE TABLE IF NOT EXISTS posts (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		image_url VARCHAR(512) NOT NULL,
		thumbnail VARCHAR(512),
		views INTEGER NOT NULL DEFAULT 0,
		upvotes INTEGER NOT NULL DEFAULT 0,
		downvotes INTEGER NOT NULL DEFAULT 0,
		is_public BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts(user_id);
	CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC);

	CREATE TABLE IF NOT EXISTS comments (
		id UUID PRIMARY KEY,
		post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		body TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);

	CREATE TABLE IF NOT EXISTS votes (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		vote_type VARCHAR(10) NOT NULL CHECK (vote_type IN ('upvote', 'downvote')),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE (user_id, post_id)
	);

	CREATE TABLE IF NOT EXISTS follows (
		id UUID PRIMARY KEY,
		follower_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		following_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE (follower_id, following_id)
	);

	CREATE INDEX IF NOT EXISTS idx_follows_following_id ON follows(following_id);

	CREATE TABLE IF NOT EXISTS albums (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		cover_image VARCHAR(512),
		is_public BOOLEAN NOT NULL DEFAULT TRUE,
		post_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_albums_user_id ON albums(user_id);

	CREATE TABLE IF NOT EXISTS album_posts (
		album_id UUID NOT NULL REFERENCES albums(id) ON DELETE CASCADE,
		post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		added_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (album_id, post_id)
	);

	CREATE TABLE IF NOT EXISTS tags (
		id UUID PRIMARY KEY,
		name VARCHAR(100) UNIQUE NOT NULL,
		slug VARCHAR(100) UNIQUE NOT NULL,
		post_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_tags_slug ON tags(slug);

	CREATE TABLE IF NOT EXISTS post_tags (
		post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		tag_id UUID NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (post_id, tag_id)
	);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
