package identity

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"
)

// MemoryStore is the in-process account store used when no MongoDB is
// configured (dev mode) and in unit tests.
//
// FindUserRaw mirrors MongoDB's operator semantics for the handful of
// operators the injection demo exercises, so the vulnerable path misbehaves
// identically with or without a real database behind it.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
	order []string // insertion order, for deterministic raw lookups
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]User)}
}

// CreateUser inserts a new account, enforcing email uniqueness.
func (s *MemoryStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	fullName := NormalizeFullName(in.FullName)
	email := NormalizeEmail(in.Email)
	if fullName == "" || email == "" || strings.TrimSpace(in.PasswordHash) == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "full name, email and password hash are required"}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return User{}, ConflictError{Op: op, Field: "email"}
		}
	}

	u := User{
		ID:           id,
		FullName:     fullName,
		Email:        email,
		PasswordHash: in.PasswordHash,
		CreatedAt:    now,
	}
	s.users[id] = u
	s.order = append(s.order, id)
	return u, nil
}

// GetUserByEmail fetches an account by its exact normalized email.
func (s *MemoryStore) GetUserByEmail(ctx context.Context, emailNorm string) (User, error) {
	const op = "identity.GetUserByEmail"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		if s.users[id].Email == emailNorm {
			return s.users[id], nil
		}
	}
	return User{}, NotFoundError{Op: op, Resource: "user"}
}

// GetUserByID fetches an account by its id.
func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return u, nil
}

// FindUserRaw evaluates an unvalidated filter with MongoDB-style semantics:
// string values match by equality, document-shaped values are interpreted as
// operators ($ne, $exists, $gt, $regex). First match in insertion order wins.
func (s *MemoryStore) FindUserRaw(ctx context.Context, filter map[string]any) (User, error) {
	const op = "identity.FindUserRaw"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		u := s.users[id]
		matched := true
		for field, cond := range filter {
			val, present := rawFieldValue(u, field)
			if !condMatches(val, present, cond) {
				matched = false
				break
			}
		}
		if matched {
			return u, nil
		}
	}
	return User{}, NotFoundError{Op: op, Resource: "user"}
}

func rawFieldValue(u User, field string) (value string, present bool) {
	switch field {
	case "_id":
		return u.ID, true
	case "full_name":
		return u.FullName, true
	case "email":
		return u.Email, true
	case "password_hash":
		return u.PasswordHash, true
	default:
		return "", false
	}
}

// condMatches applies one filter condition to one field value.
// present is false for fields the schema does not have at all.
func condMatches(value string, present bool, cond any) bool {
	switch c := cond.(type) {
	case string:
		return present && value == c
	case map[string]any:
		// Operator document: all operators must hold.
		for op, arg := range c {
			if !opMatches(value, present, op, arg) {
				return false
			}
		}
		return true
	default:
		// Numbers, booleans, null: no string field equals these.
		return false
	}
}

func opMatches(value string, present bool, op string, arg any) bool {
	switch op {
	case "$ne":
		if arg == nil {
			// {"$ne": null} matches any record where the field exists.
			return present
		}
		s, ok := arg.(string)
		if !ok {
			return true
		}
		return value != s
	case "$exists":
		want, ok := arg.(bool)
		if !ok {
			return false
		}
		return present == want
	case "$gt":
		s, ok := arg.(string)
		if !ok {
			return false
		}
		return present && value > s
	case "$regex":
		s, ok := arg.(string)
		if !ok {
			return false
		}
		re, err := regexp.Compile(s)
		if err != nil {
			return false
		}
		return present && re.MatchString(value)
	default:
		return false
	}
}
