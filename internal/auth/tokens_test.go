package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestIssuer() *TokenIssuer {
	return NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 2*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	issuer := newTestIssuer()

	token, err := issuer.IssueAccessToken("user-123", "alice@example.com")
	if err != nil {
		t.Fatalf("failed to issue access token: %v", err)
	}

	claims, err := issuer.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("failed to verify access token: %v", err)
	}

	if claims.Subject != "user-123" {
		t.Errorf("subject = %q, want %q", claims.Subject, "user-123")
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", claims.Email, "alice@example.com")
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	issuer := newTestIssuer()

	token, err := issuer.IssueRefreshToken("user-123", "alice@example.com")
	if err != nil {
		t.Fatalf("failed to issue refresh token: %v", err)
	}

	claims, err := issuer.VerifyRefreshToken(token)
	if err != nil {
		t.Fatalf("failed to verify refresh token: %v", err)
	}

	if claims.Subject != "user-123" {
		t.Errorf("subject = %q, want %q", claims.Subject, "user-123")
	}
}

func TestCrossSecretIsolation(t *testing.T) {
	issuer := newTestIssuer()

	access, err := issuer.IssueAccessToken("user-123", "alice@example.com")
	if err != nil {
		t.Fatalf("failed to issue access token: %v", err)
	}
	refresh, err := issuer.IssueRefreshToken("user-123", "alice@example.com")
	if err != nil {
		t.Fatalf("failed to issue refresh token: %v", err)
	}

	if _, err := issuer.VerifyRefreshToken(access); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access token verified as refresh token, err = %v", err)
	}
	if _, err := issuer.VerifyAccessToken(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh token verified as access token, err = %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	issuer := newTestIssuer()
	// The constructor clamps non-positive TTLs to defaults, so build the
	// issuing side directly with already-expired lifetimes.
	short := &TokenIssuer{
		accessSecret:  []byte("access-secret"),
		refreshSecret: []byte("refresh-secret"),
		accessTTL:     -time.Minute,
		refreshTTL:    -time.Minute,
	}

	token, err := short.IssueAccessToken("user-123", "alice@example.com")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	if _, err := issuer.VerifyAccessToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}

	refresh, err := short.IssueRefreshToken("user-123", "alice@example.com")
	if err != nil {
		t.Fatalf("failed to issue refresh token: %v", err)
	}
	if _, err := issuer.VerifyRefreshToken(refresh); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired for refresh token, got %v", err)
	}
}

func TestTamperedToken(t *testing.T) {
	issuer := newTestIssuer()

	token, err := issuer.IssueAccessToken("user-123", "alice@example.com")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	// Flip one character in the signature.
	mutated := token[:len(token)-2] + "xx"
	if mutated == token {
		mutated = token[:len(token)-2] + "yy"
	}

	if _, err := issuer.VerifyAccessToken(mutated); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for tampered token, got %v", err)
	}

	if _, err := issuer.VerifyAccessToken("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestDifferentSecretsRejected(t *testing.T) {
	issuer := newTestIssuer()
	other := NewTokenIssuer("other-access", "other-refresh", time.Hour, time.Hour)

	token, err := other.IssueAccessToken("user-123", "alice@example.com")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	if _, err := issuer.VerifyAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token signed with a different secret verified, err = %v", err)
	}
}
