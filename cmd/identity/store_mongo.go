package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoStore implements account persistence over MongoDB.
//
// Design notes:
// - The mongo client is owned by the caller; this store must not disconnect it.
// - Email uniqueness is enforced by a unique index, not by application checks
//   alone; CreateUser maps the duplicate-key error to ConflictError so racing
//   signups still resolve to a single account.
type MongoStore struct {
	users *mongo.Collection
}

const usersCollection = "users"

// NewMongoStore constructs a MongoStore over the given database handle.
func NewMongoStore(db *mongo.Database) (*MongoStore, error) {
	if db == nil {
		return nil, fmt.Errorf("identity: nil mongo database")
	}
	return &MongoStore{users: db.Collection(usersCollection)}, nil
}

// EnsureIndexes creates the unique email index. Safe to call on every start.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("identity: ensure indexes: %w", err)
	}
	return nil
}

// CreateUser inserts a new account and returns it with its assigned id.
func (s *MongoStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

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
		return User{}, fmt.Errorf("%s: %w", op, err)
	}

	u := User{
		ID:           id,
		FullName:     fullName,
		Email:        email,
		PasswordHash: in.PasswordHash,
		CreatedAt:    now,
	}

	if _, err := s.users.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return User{}, ConflictError{Op: op, Field: "email"}
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByEmail fetches an account by its exact normalized email.
func (s *MongoStore) GetUserByEmail(ctx context.Context, emailNorm string) (User, error) {
	const op = "identity.GetUserByEmail"

	if strings.TrimSpace(emailNorm) == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "empty email"}
	}

	var u User
	err := s.users.FindOne(ctx, bson.D{{Key: "email", Value: emailNorm}}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByID fetches an account by its id.
func (s *MongoStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	if strings.TrimSpace(id) == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "empty id"}
	}

	var u User
	err := s.users.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// FindUserRaw forwards an unvalidated filter straight into a MongoDB query.
//
// A caller-supplied value shaped like {"$ne": null} is treated by the server
// as a query operator, turning an equality match into "any record where the
// field exists". That is the injection class the guarded login path refuses;
// this method exists only so the vulnerable demo endpoint can exhibit it.
func (s *MongoStore) FindUserRaw(ctx context.Context, filter map[string]any) (User, error) {
	const op = "identity.FindUserRaw"

	var u User
	err := s.users.FindOne(ctx, bson.M(filter)).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
