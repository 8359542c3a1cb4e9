package auth

import (
	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 12

// PasswordHasher abstracts password hashing so the service can be tested
// without paying the bcrypt cost, and the algorithm can be swapped later.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// BcryptHasher hashes with bcrypt. Each call salts independently, so equal
// inputs produce distinct digests, and comparison is constant-time inside
// the bcrypt implementation.
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher() BcryptHasher {
	return BcryptHasher{Cost: BcryptCost}
}

func (h BcryptHasher) Hash(plaintext string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = BcryptCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify returns false for empty plaintext or a malformed digest rather
// than surfacing an error; only the hashing backend itself can fail hard.
func (h BcryptHasher) Verify(plaintext, digest string) bool {
	if plaintext == "" || digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
