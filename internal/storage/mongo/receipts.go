package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paymi/backend/internal/models"
)

// CreateReceipt persists a parsed receipt, generating ID and timestamp if
// unset.
func (s *Store) CreateReceipt(ctx context.Context, receipt *models.Receipt) error {
	if receipt.ID == "" {
		receipt.ID = uuid.New().String()
	}
	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = time.Now().UTC()
	}

	if _, err := s.db.Collection(receiptsCollection).InsertOne(ctx, receipt); err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}
	return nil
}
