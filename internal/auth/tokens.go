package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims carries the identity encoded in both token kinds: the user ID in
// the registered subject, plus the email.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenPair is what login hands back; refresh re-mints only the access half.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenIssuer mints and verifies HS256 tokens. Access and refresh tokens
// are signed with distinct secrets: a token of one kind never verifies as
// the other, and leaking one secret does not compromise the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (t *TokenIssuer) IssueAccessToken(userID, email string) (string, error) {
	return t.issue(userID, email, t.accessSecret, t.accessTTL)
}

func (t *TokenIssuer) IssueRefreshToken(userID, email string) (string, error) {
	return t.issue(userID, email, t.refreshSecret, t.refreshTTL)
}

// IssuePair mints both tokens for one identity, as done at login.
func (t *TokenIssuer) IssuePair(userID, email string) (*TokenPair, error) {
	access, err := t.IssueAccessToken(userID, email)
	if err != nil {
		return nil, err
	}
	refresh, err := t.IssueRefreshToken(userID, email)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (t *TokenIssuer) issue(userID, email string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "imagehost",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyAccessToken validates an access token and returns its claims.
// Expired and otherwise-invalid tokens surface as distinct errors so the
// middleware can tell a client to refresh versus to log in again.
func (t *TokenIssuer) VerifyAccessToken(tokenString string) (*Claims, error) {
	return verify(tokenString, t.accessSecret)
}

// VerifyRefreshToken validates a refresh token and returns its claims.
func (t *TokenIssuer) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return verify(tokenString, t.refreshSecret)
}

func verify(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
