package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/paymi/backend/internal/models"
	"github.com/paymi/backend/internal/storage"
)

// CreateUser inserts a new user, generating ID and timestamps if unset.
// Uniqueness of email, username and wallet_address is enforced by the
// collection's unique indexes; a violation surfaces as a ConflictError.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := s.db.Collection(usersCollection).InsertOne(ctx, user)
	if err != nil {
		if mapped := conflictError(err, "email", "username", "wallet_address"); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := s.db.Collection(usersCollection).
		FindOne(ctx, bson.M{"email": email}).
		Decode(user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// ListUsers returns all users.
func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	cursor, err := s.db.Collection(usersCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}
