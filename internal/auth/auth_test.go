package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/imagehost/backend/internal/db"
)

// fakeUserStore is an in-memory UserStore enforcing the same uniqueness the
// real store gets from its constraints.
type fakeUserStore struct {
	users  map[uuid.UUID]*db.User
	counts map[uuid.UUID]*db.ProfileCounts
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:  make(map[uuid.UUID]*db.User),
		counts: make(map[uuid.UUID]*db.ProfileCounts),
	}
}

func (f *fakeUserStore) Create(_ context.Context, user *db.User) error {
	for _, u := range f.users {
		if u.Email == user.Email || u.Username == user.Username {
			return db.ErrUserExists
		}
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*db.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, db.ErrUserNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*db.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, db.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserStore) UpdateProfile(_ context.Context, id uuid.UUID, bio, profileImage *string) (*db.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, db.ErrUserNotFound
	}
	if bio != nil {
		u.Bio.String, u.Bio.Valid = *bio, true
	}
	if profileImage != nil {
		u.ProfileImage.String, u.ProfileImage.Valid = *profileImage, true
	}
	u.UpdatedAt = time.Now()
	copied := *u
	return &copied, nil
}

func (f *fakeUserStore) GetProfileCounts(_ context.Context, id uuid.UUID) (*db.ProfileCounts, error) {
	if c, ok := f.counts[id]; ok {
		return c, nil
	}
	return &db.ProfileCounts{}, nil
}

// fakeHasher avoids paying bcrypt cost in service tests.
type fakeHasher struct{}

func (fakeHasher) Hash(plaintext string) (string, error) { return "digest:" + plaintext, nil }

func (fakeHasher) Verify(plaintext, digest string) bool {
	return plaintext != "" && digest == "digest:"+plaintext
}

func newTestService() (*Service, *fakeUserStore) {
	store := newFakeUserStore()
	return NewService(store, fakeHasher{}, newTestIssuer()), store
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Username != "alice" || user.Email != "a@x.com" {
		t.Errorf("unexpected user view: %+v", user)
	}
	if user.ID == "" {
		t.Error("user ID should be set")
	}

	// Same email, different username.
	if _, err := svc.Register(ctx, "alice2", "a@x.com", "secret1"); !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate email: got %v, want ErrUserExists", err)
	}

	// Same username, different email.
	if _, err := svc.Register(ctx, "alice", "b@x.com", "secret1"); !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate username: got %v, want ErrUserExists", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "a@x.com", "secret1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	result, err := svc.Login(ctx, "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		t.Error("expected both tokens to be minted")
	}
	if result.User.Email != "a@x.com" {
		t.Errorf("user email = %q, want %q", result.User.Email, "a@x.com")
	}

	if _, err := svc.Login(ctx, "a@x.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", err)
	}

	if _, err := svc.Login(ctx, "nobody@x.com", "secret1"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown email: got %v, want ErrUserNotFound", err)
	}
}

func TestLoginTokensVerify(t *testing.T) {
	issuer := newTestIssuer()
	store := newFakeUserStore()
	svc := NewService(store, fakeHasher{}, issuer)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	result, err := svc.Login(ctx, "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	claims, err := issuer.VerifyAccessToken(result.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("access token does not verify: %v", err)
	}
	if claims.Subject != user.ID {
		t.Errorf("claims subject = %q, want %q", claims.Subject, user.ID)
	}
}

func TestRefreshAccessToken(t *testing.T) {
	issuer := newTestIssuer()
	store := newFakeUserStore()
	svc := NewService(store, fakeHasher{}, issuer)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "a@x.com", "secret1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	result, err := svc.Login(ctx, "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	accessToken, err := svc.RefreshAccessToken(result.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if _, err := issuer.VerifyAccessToken(accessToken); err != nil {
		t.Errorf("refreshed access token does not verify: %v", err)
	}

	// An access token is not accepted in place of a refresh token.
	if _, err := svc.RefreshAccessToken(result.Tokens.AccessToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("access token as refresh: got %v, want ErrInvalidRefreshToken", err)
	}

	if _, err := svc.RefreshAccessToken("garbage"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("garbage refresh token: got %v, want ErrInvalidRefreshToken", err)
	}
}

func TestUpdateProfileOnlyMutatesSafeFields(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	id := uuid.MustParse(user.ID)
	before, _ := store.GetByID(ctx, id)

	bio := "hello"
	image := "https://img.example/alice.png"
	updated, err := svc.UpdateProfile(ctx, id, UpdateProfileInput{Bio: &bio, ProfileImage: &image})
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}

	if updated.Bio != "hello" || updated.ProfileImage != image {
		t.Errorf("profile fields not updated: %+v", updated)
	}

	after, _ := store.GetByID(ctx, id)
	if after.Username != before.Username || after.Email != before.Email {
		t.Error("update profile must not change username or email")
	}
	if after.PasswordHash != before.PasswordHash {
		t.Error("update profile must not change the password digest")
	}
}

func TestGetUserProfileAggregates(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	id := uuid.MustParse(user.ID)
	store.counts[id] = &db.ProfileCounts{PostCount: 3, FollowerCount: 2, FollowingCount: 1}

	profile, err := svc.GetUserProfile(ctx, id)
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if profile.PostCount != 3 || profile.FollowerCount != 2 || profile.FollowingCount != 1 {
		t.Errorf("unexpected counts: %+v", profile)
	}

	if _, err := svc.GetUserProfile(ctx, uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing user: got %v, want ErrUserNotFound", err)
	}
}
