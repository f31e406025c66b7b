// Package authutil hashes and verifies admin passwords.
package authutil

import (
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 8
	// MaxPasswordBytes is bcrypt's input limit; longer input is rejected
	// rather than silently truncated.
	MaxPasswordBytes = 72
	// BcryptCost is the work factor used for new hashes.
	BcryptCost = 12
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
	ErrPasswordCommon   = errors.New("password is too common")
)

var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"12345678":    {},
	"123456789":   {},
	"1234567890":  {},
	"qwertyuiop":  {},
	"qwerty123":   {},
	"iloveyou":    {},
	"sunshine":    {},
	"football":    {},
	"baseball":    {},
	"welcome1":    {},
	"letmein1":    {},
	"abcdefgh":    {},
}

// ValidatePassword checks length bounds and rejects well-known passwords.
func ValidatePassword(pw string) error {
	if len([]rune(pw)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(pw) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	if _, ok := commonPasswords[strings.ToLower(pw)]; ok {
		return ErrPasswordCommon
	}
	return nil
}

// PasswordRules describes the password policy for error messages.
func PasswordRules() string {
	return "Passwords must be at least 8 characters, at most 72 bytes, and not a commonly used password."
}

// HashPassword returns a salted bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether pw matches hash. A malformed hash is a mismatch.
func CheckPassword(pw, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// EqualizeTiming burns one bcrypt comparison against a throwaway hash. Call it
// when the account does not exist so the response time matches a wrong password.
func EqualizeTiming(pw string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("tenanthub-timing-equalizer"), BcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(pw))
}
