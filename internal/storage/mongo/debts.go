package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/paymi/backend/internal/models"
	"github.com/paymi/backend/internal/storage"
)

// CreateDebt inserts a new aggregate debt record for a contact.
func (s *Store) CreateDebt(ctx context.Context, debt *models.Debt) error {
	if debt.ID == "" {
		debt.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if debt.CreatedAt.IsZero() {
		debt.CreatedAt = now
	}
	debt.UpdatedAt = now

	if _, err := s.db.Collection(debtsCollection).InsertOne(ctx, debt); err != nil {
		return fmt.Errorf("failed to insert debt: %w", err)
	}
	return nil
}

// GetDebtByContactEmail retrieves the aggregate record for a contact.
func (s *Store) GetDebtByContactEmail(ctx context.Context, contactEmail string) (*models.Debt, error) {
	debt := &models.Debt{}
	err := s.db.Collection(debtsCollection).
		FindOne(ctx, bson.M{"contact_email": contactEmail}).
		Decode(debt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get debt: %w", err)
	}
	return debt, nil
}

// UpdateDebtTotals overwrites the four running totals of a contact's
// aggregate record. The single-document write is atomic; the caller's
// preceding read is not, so concurrent updates can lose increments.
func (s *Store) UpdateDebtTotals(ctx context.Context, contactEmail string, owesMe, iOwe, paidBackToMe, paidBackByMe float64) error {
	result, err := s.db.Collection(debtsCollection).UpdateOne(ctx,
		bson.M{"contact_email": contactEmail},
		bson.M{"$set": bson.M{
			"owes_me":         owesMe,
			"i_owe":           iOwe,
			"paid_back_to_me": paidBackToMe,
			"paid_back_by_me": paidBackByMe,
			"updated_at":      time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update debt: %w", err)
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CreateUserDebt inserts a fresh individualized debt record.
func (s *Store) CreateUserDebt(ctx context.Context, debt *models.UserDebt) error {
	if debt.ID == "" {
		debt.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if debt.CreatedAt.IsZero() {
		debt.CreatedAt = now
	}
	debt.UpdatedAt = now

	if _, err := s.db.Collection(userDebtsCollection).InsertOne(ctx, debt); err != nil {
		return fmt.Errorf("failed to insert user debt: %w", err)
	}
	return nil
}

// ListUserDebtsByPair returns every record between one creditor and one
// debtor, oldest first. The created_at/id ordering is what makes payment
// allocation reproducible.
func (s *Store) ListUserDebtsByPair(ctx context.Context, creditorEmail, debtorEmail string) ([]*models.UserDebt, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.db.Collection(userDebtsCollection).Find(ctx, bson.M{
		"creditor_email": creditorEmail,
		"debtor_email":   debtorEmail,
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list user debts by pair: %w", err)
	}
	defer cursor.Close(ctx)

	var debts []*models.UserDebt
	if err := cursor.All(ctx, &debts); err != nil {
		return nil, fmt.Errorf("failed to decode user debts: %w", err)
	}
	return debts, nil
}

// ListUserDebtsByParticipant returns every record where the email appears
// as creditor or debtor.
func (s *Store) ListUserDebtsByParticipant(ctx context.Context, email string) ([]*models.UserDebt, error) {
	cursor, err := s.db.Collection(userDebtsCollection).Find(ctx, bson.M{
		"$or": bson.A{
			bson.M{"creditor_email": email},
			bson.M{"debtor_email": email},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list user debts by participant: %w", err)
	}
	defer cursor.Close(ctx)

	var debts []*models.UserDebt
	if err := cursor.All(ctx, &debts); err != nil {
		return nil, fmt.Errorf("failed to decode user debts: %w", err)
	}
	return debts, nil
}

// SetUserDebtPaidBack sets the cumulative repaid amount on one record.
func (s *Store) SetUserDebtPaidBack(ctx context.Context, id string, paidBack float64) error {
	result, err := s.db.Collection(userDebtsCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"paid_back":  paidBack,
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update user debt: %w", err)
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
