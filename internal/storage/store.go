// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/paymi/backend/internal/models"
)

// ErrNotFound is returned when a referenced document does not exist.
var ErrNotFound = errors.New("not found")

// ConflictError reports a uniqueness violation on a specific field.
// The storage layer is the sole authority for uniqueness: services rely on
// the database's unique indexes and map this error, there is no
// check-then-insert pre-check.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

// IsConflict reports whether err is a uniqueness violation and, if so, on
// which field.
func IsConflict(err error) (field string, ok bool) {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict.Field, true
	}
	return "", false
}

// UserStore defines persistence for identity-service users.
// This abstraction keeps the services independent of the database driver
// and lets tests run against in-memory fakes.
type UserStore interface {
	// CreateUser inserts a new user. Returns a ConflictError naming the
	// violated field (email, username, wallet_address) on a duplicate.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns ErrNotFound when no user matches.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// ListUsers returns all users.
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// ContactStore defines persistence for ledger-service contacts.
type ContactStore interface {
	// CreateContact inserts a new contact. Returns a ConflictError naming
	// the violated field (email, wallet_id) on a duplicate.
	CreateContact(ctx context.Context, contact *models.Contact) error

	// GetContactByEmail returns ErrNotFound when no contact matches.
	GetContactByEmail(ctx context.Context, email string) (*models.Contact, error)

	// ListContacts returns all contacts.
	ListContacts(ctx context.Context) ([]*models.Contact, error)
}

// DebtStore defines persistence for the aggregate per-contact debt records.
type DebtStore interface {
	// CreateDebt inserts a new aggregate record.
	CreateDebt(ctx context.Context, debt *models.Debt) error

	// GetDebtByContactEmail returns ErrNotFound when no record exists.
	// Callers treat a missing record as all-zero totals.
	GetDebtByContactEmail(ctx context.Context, contactEmail string) (*models.Debt, error)

	// UpdateDebtTotals overwrites the four running totals of an existing
	// record and bumps its updated_at.
	UpdateDebtTotals(ctx context.Context, contactEmail string, owesMe, iOwe, paidBackToMe, paidBackByMe float64) error
}

// UserDebtStore defines persistence for the individualized debt records.
type UserDebtStore interface {
	// CreateUserDebt inserts a fresh record for one split participant.
	CreateUserDebt(ctx context.Context, debt *models.UserDebt) error

	// ListUserDebtsByPair returns every record where creditor owes-from
	// debtor, ordered oldest first (created_at, then id).
	ListUserDebtsByPair(ctx context.Context, creditorEmail, debtorEmail string) ([]*models.UserDebt, error)

	// ListUserDebtsByParticipant returns every record where the email is
	// creditor or debtor.
	ListUserDebtsByParticipant(ctx context.Context, email string) ([]*models.UserDebt, error)

	// SetUserDebtPaidBack sets the cumulative repaid amount on one record.
	SetUserDebtPaidBack(ctx context.Context, id string, paidBack float64) error
}

// ReceiptStore defines persistence for parsed receipts.
type ReceiptStore interface {
	// CreateReceipt persists a parsed receipt, generating its ID.
	CreateReceipt(ctx context.Context, receipt *models.Receipt) error
}

// Pinger reports whether the backing database is reachable, for health
// endpoints.
type Pinger interface {
	Ping(ctx context.Context) error
}
