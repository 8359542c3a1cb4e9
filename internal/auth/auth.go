package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/imagehost/backend/internal/db"
)

var (
	ErrUserExists          = errors.New("user already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// UserStore is the credential store the service reads and writes through.
// *db.UserRepository satisfies it; tests substitute a fake.
type UserStore interface {
	Create(ctx context.Context, user *db.User) error
	GetByEmail(ctx context.Context, email string) (*db.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*db.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, bio, profileImage *string) (*db.User, error)
	GetProfileCounts(ctx context.Context, id uuid.UUID) (*db.ProfileCounts, error)
}

// UserPublicView is a user minus the password digest. The digest is absent
// at the type level, so no return path can leak it.
type UserPublicView struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Bio          string    `json:"bio,omitempty"`
	ProfileImage string    `json:"profileImage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProfileView is the public view plus aggregate counts.
type ProfileView struct {
	UserPublicView
	PostCount      int `json:"postCount"`
	FollowerCount  int `json:"followerCount"`
	FollowingCount int `json:"followingCount"`
}

// LoginResult bundles what a successful login returns.
type LoginResult struct {
	User   *UserPublicView
	Tokens *TokenPair
}

// UpdateProfileInput carries the only two fields mutable through the
// profile path. Anything else a client sends is dropped at decode time.
type UpdateProfileInput struct {
	Bio          *string `json:"bio"`
	ProfileImage *string `json:"profileImage"`
}

// Service orchestrates registration, login, token refresh and profile
// access. Its collaborators are injected so tests can run it against fakes.
type Service struct {
	users  UserStore
	hasher PasswordHasher
	tokens *TokenIssuer
}

func NewService(users UserStore, hasher PasswordHasher, tokens *TokenIssuer) *Service {
	return &Service{users: users, hasher: hasher, tokens: tokens}
}

// Register creates a user. Duplicate email or username surfaces as
// ErrUserExists: the store's unique constraints decide, so two concurrent
// registrations with the same credentials cannot both succeed.
func (s *Service) Register(ctx context.Context, username, email, password string) (*UserPublicView, error) {
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &db.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: digest,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	return publicView(user), nil
}

// Login checks credentials and mints a token pair. "No such user" and
// "wrong password" stay distinct here; the HTTP boundary collapses both to
// one generic failure so callers cannot probe for registered emails.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.tokens.IssuePair(user.ID.String(), user.Email)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: publicView(user), Tokens: tokens}, nil
}

// RefreshAccessToken mints a new access token from a valid refresh token.
// The refresh token itself is not rotated; it stays valid until its own
// expiration. Every verification failure collapses to one error kind.
func (s *Service) RefreshAccessToken(refreshToken string) (string, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	accessToken, err := s.tokens.IssueAccessToken(claims.Subject, claims.Email)
	if err != nil {
		return "", err
	}

	return accessToken, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*UserPublicView, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return publicView(user), nil
}

// GetUserProfile returns the public view plus post/follower/following counts.
func (s *Service) GetUserProfile(ctx context.Context, id uuid.UUID) (*ProfileView, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	counts, err := s.users.GetProfileCounts(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ProfileView{
		UserPublicView: *publicView(user),
		PostCount:      counts.PostCount,
		FollowerCount:  counts.FollowerCount,
		FollowingCount: counts.FollowingCount,
	}, nil
}

// UpdateProfile mutates bio and profile image only. Username, email and the
// password digest are unreachable through this path no matter what the
// input carries.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*UserPublicView, error) {
	user, err := s.users.UpdateProfile(ctx, id, input.Bio, input.ProfileImage)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return publicView(user), nil
}

func publicView(user *db.User) *UserPublicView {
	return &UserPublicView{
		ID:           user.ID.String(),
		Username:     user.Username,
		Email:        user.Email,
		Bio:          user.Bio.String,
		ProfileImage: user.ProfileImage.String,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}
