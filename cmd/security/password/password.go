package password

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// Validate checks password policy. It does not mutate input.
func (c Config) Validate(password string) error {
	if utf8.RuneCountInString(password) < c.Policy.MinLength {
		return ErrPasswordTooShort
	}
	if len(password) > c.Policy.MaxLength {
		return ErrPasswordTooLong
	}
	return nil
}

// Hash hashes a password using bcrypt and returns the encoded hash string.
// bcrypt generates a fresh random salt per call, so repeated hashes of the
// same plaintext differ.
func (c Config) Hash(password string) (string, error) {
	if err := c.Validate(password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify checks whether password matches the given encoded hash.
// Returns (true, nil) for a match, (false, nil) for a mismatch,
// and (false, ErrInvalidHash) for malformed/unsupported hashes.
//
// bcrypt's comparison is constant-time over the derived key.
func (c Config) Verify(encodedHash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		// Short/garbled prefix, unknown version, absurd cost: the hash
		// string itself is broken, not the credential.
		return false, ErrInvalidHash
	}
}
