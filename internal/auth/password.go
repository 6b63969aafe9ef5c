package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword produces a salted bcrypt digest. bcrypt embeds a fresh random
// salt in every digest, so hashing the same password twice yields different
// strings.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(digest), nil
}

// VerifyPassword reports whether password matches the stored digest. A
// mismatch is a plain false, never an error; the underlying comparison is
// constant-time on the derived key.
func VerifyPassword(password, digest string) bool {
	if password == "" || digest == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
