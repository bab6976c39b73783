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

// CreateContact inserts a new contact, generating ID and timestamp if
// unset. Email and wallet_id uniqueness is enforced by unique indexes.
func (s *Store) CreateContact(ctx context.Context, contact *models.Contact) error {
	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Collection(contactsCollection).InsertOne(ctx, contact)
	if err != nil {
		if mapped := conflictError(err, "email", "wallet_id"); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to insert contact: %w", err)
	}
	return nil
}

// GetContactByEmail retrieves a contact by its email key.
func (s *Store) GetContactByEmail(ctx context.Context, email string) (*models.Contact, error) {
	contact := &models.Contact{}
	err := s.db.Collection(contactsCollection).
		FindOne(ctx, bson.M{"email": email}).
		Decode(contact)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact by email: %w", err)
	}
	return contact, nil
}

// ListContacts returns all contacts.
func (s *Store) ListContacts(ctx context.Context) ([]*models.Contact, error) {
	cursor, err := s.db.Collection(contactsCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer cursor.Close(ctx)

	var contacts []*models.Contact
	if err := cursor.All(ctx, &contacts); err != nil {
		return nil, fmt.Errorf("failed to decode contacts: %w", err)
	}
	return contacts, nil
}
