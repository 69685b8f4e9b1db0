// Package auth - password.go handles credential hashing and verification with
// bcrypt. Plaintext passwords are never stored or logged; only the bcrypt hash
// is persisted on the user record.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// passwordCost is the bcrypt work factor. The default (10) keeps login latency
// in the tens of milliseconds while remaining expensive to brute force.
const passwordCost = bcrypt.DefaultCost

// minPasswordLength applies to locally-provisioned accounts.
const minPasswordLength = 8

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", errors.New("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the stored hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
