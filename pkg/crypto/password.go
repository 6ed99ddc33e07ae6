package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for stored account passwords.
const PasswordCost = bcrypt.DefaultCost

// ErrPasswordMismatch reports a wrong password, or an account with no
// password hash at all.
var ErrPasswordMismatch = errors.New("crypto: password mismatch")

// HashPassword returns the bcrypt hash stored in users.hashed_password.
func HashPassword(plain string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("crypto: hash password: %w", err)
	}
	return hash, nil
}

// ComparePassword returns nil when plain matches hash and
// ErrPasswordMismatch when it does not. Malformed hashes are returned as is.
func ComparePassword(hash []byte, plain string) error {
	if len(hash) == 0 {
		return ErrPasswordMismatch
	}
	err := bcrypt.CompareHashAndPassword(hash, []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}
