package identity

import (
	"context"
	"time"
)

// User is gatehouse's canonical account record.
//
// PasswordHash never leaves the identity/auth packages; API responses are
// built from the public fields only.
type User struct {
	ID           string    `bson:"_id"`
	FullName     string    `bson:"full_name"`
	Email        string    `bson:"email"` // normalized (lowercase)
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

// CreateUserInput describes an account registration.
//
// Email must already be normalized and PasswordHash already computed by the
// caller; the store assigns the id and sets CreatedAt exactly once.
type CreateUserInput struct {
	FullName     string
	Email        string
	PasswordHash string
	Now          time.Time
}

// Store is the account persistence boundary.
//
// GetUserByEmail matches the exact normalized email string and nothing else;
// there is no query surface here that an attacker-supplied document could
// reach.
type Store interface {
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)
	GetUserByEmail(ctx context.Context, emailNorm string) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
}

// RawLookup is the unguarded query surface used only by the opt-in vulnerable
// login endpoint. The filter is forwarded to the query layer verbatim, so a
// document-shaped value such as {"$ne": null} is interpreted as a query
// operator rather than a literal. Production handlers must never use it.
type RawLookup interface {
	FindUserRaw(ctx context.Context, filter map[string]any) (User, error)
}
