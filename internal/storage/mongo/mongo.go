// Package mongo provides the MongoDB-backed implementation of the storage
// interfaces.
package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/paymi/backend/internal/storage"
)

const (
	databaseName = "paymi"

	usersCollection     = "users"
	contactsCollection  = "contacts"
	debtsCollection     = "debts"
	userDebtsCollection = "user_debts"
	receiptsCollection  = "receipts"

	// connectTimeout matches the generous ceilings the services have always
	// used for Atlas connections.
	connectTimeout = 30 * time.Second
)

// Ensure Store satisfies the storage interfaces.
var (
	_ storage.UserStore     = (*Store)(nil)
	_ storage.ContactStore  = (*Store)(nil)
	_ storage.DebtStore     = (*Store)(nil)
	_ storage.UserDebtStore = (*Store)(nil)
	_ storage.ReceiptStore  = (*Store)(nil)
	_ storage.Pinger        = (*Store)(nil)
)

// Store implements the storage interfaces using a single MongoDB client.
// Construct it once at process start and Close it on shutdown.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to MongoDB, verifies the connection, and creates the unique
// indexes that enforce identity- and contact-field uniqueness.
func New(ctx context.Context, uri string) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(connectTimeout).
		SetConnectTimeout(connectTimeout).
		SetSocketTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &Store{
		client: client,
		db:     client.Database(databaseName),
	}

	if err := s.createIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return s, nil
}

// Close releases the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping verifies the database connection, for health endpoints.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// createIndexes sets up the unique indexes the services rely on for
// conflict detection. Index names are fixed so duplicate-key errors can be
// mapped back to the violated field.
func (s *Store) createIndexes(ctx context.Context) error {
	unique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_" + field),
		}
	}

	if _, err := s.db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		unique("email"), unique("username"), unique("wallet_address"),
	}); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	if _, err := s.db.Collection(contactsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		unique("email"), unique("wallet_id"),
	}); err != nil {
		return fmt.Errorf("contacts indexes: %w", err)
	}

	// Non-unique lookup indexes for the ledger queries.
	if _, err := s.db.Collection(userDebtsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "creditor_email", Value: 1}, {Key: "debtor_email", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "debtor_email", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("user_debts indexes: %w", err)
	}

	if _, err := s.db.Collection(debtsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "contact_email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_contact_email"),
	}); err != nil {
		return fmt.Errorf("debts indexes: %w", err)
	}

	return nil
}

// conflictError maps a duplicate-key error to a ConflictError naming the
// violated field, using the fixed index names from createIndexes. Returns
// err unchanged when it is not a duplicate-key violation.
func conflictError(err error, fields ...string) error {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	for _, field := range fields {
		if strings.Contains(msg, "uniq_"+field) || strings.Contains(msg, field) {
			return &storage.ConflictError{Field: field}
		}
	}
	if len(fields) > 0 {
		return &storage.ConflictError{Field: fields[0]}
	}
	return err
}
