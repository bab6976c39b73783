package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/paymi/backend/internal/models"
	"github.com/paymi/backend/internal/storage"
)

// In-memory stores mirroring the mongo layer's contract: uuid-style ID
// generation, unique-field conflicts, ErrNotFound on misses.

type fakeDB struct {
	pingErr error
}

func (f *fakeDB) Ping(ctx context.Context) error { return f.pingErr }

type fakeUserStore struct {
	mu    sync.Mutex
	users []*models.User
}

func (f *fakeUserStore) CreateUser(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		switch {
		case u.Email == user.Email:
			return &storage.ConflictError{Field: "email"}
		case u.Username == user.Username:
			return &storage.ConflictError{Field: "username"}
		case user.WalletAddress != "" && u.WalletAddress == user.WalletAddress:
			return &storage.ConflictError{Field: "wallet_address"}
		}
	}
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(f.users)+1)
	}
	user.CreatedAt = time.Now().UTC()
	f.users = append(f.users, user)
	return nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeUserStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.User(nil), f.users...), nil
}

type fakeContactStore struct {
	mu       sync.Mutex
	contacts []*models.Contact
}

func (f *fakeContactStore) CreateContact(ctx context.Context, contact *models.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contacts {
		switch {
		case c.Email == contact.Email:
			return &storage.ConflictError{Field: "email"}
		case contact.WalletID != "" && c.WalletID == contact.WalletID:
			return &storage.ConflictError{Field: "wallet_id"}
		}
	}
	if contact.ID == "" {
		contact.ID = fmt.Sprintf("contact-%d", len(f.contacts)+1)
	}
	contact.CreatedAt = time.Now().UTC()
	f.contacts = append(f.contacts, contact)
	return nil
}

func (f *fakeContactStore) GetContactByEmail(ctx context.Context, email string) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contacts {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeContactStore) ListContacts(ctx context.Context) ([]*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.Contact(nil), f.contacts...), nil
}

type fakeDebtStore struct {
	mu    sync.Mutex
	debts map[string]*models.Debt

	createErr error
}

func newFakeDebtStore() *fakeDebtStore {
	return &fakeDebtStore{debts: make(map[string]*models.Debt)}
}

func (f *fakeDebtStore) CreateDebt(ctx context.Context, debt *models.Debt) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if debt.ID == "" {
		debt.ID = fmt.Sprintf("debt-%d", len(f.debts)+1)
	}
	debt.CreatedAt = time.Now().UTC()
	f.debts[debt.ContactEmail] = debt
	return nil
}

func (f *fakeDebtStore) GetDebtByContactEmail(ctx context.Context, contactEmail string) (*models.Debt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	debt, ok := f.debts[contactEmail]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return debt, nil
}

func (f *fakeDebtStore) UpdateDebtTotals(ctx context.Context, contactEmail string, owesMe, iOwe, paidBackToMe, paidBackByMe float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	debt, ok := f.debts[contactEmail]
	if !ok {
		return storage.ErrNotFound
	}
	debt.OwesMe = owesMe
	debt.IOwe = iOwe
	debt.PaidBackToMe = paidBackToMe
	debt.PaidBackByMe = paidBackByMe
	debt.UpdatedAt = time.Now().UTC()
	return nil
}

type fakeUserDebtStore struct {
	mu    sync.Mutex
	debts []*models.UserDebt

	nextID    int
	createErr func(debt *models.UserDebt) error
}

func (f *fakeUserDebtStore) CreateUserDebt(ctx context.Context, debt *models.UserDebt) error {
	if f.createErr != nil {
		if err := f.createErr(debt); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	if debt.ID == "" {
		debt.ID = fmt.Sprintf("ud-%d", f.nextID)
	}
	if debt.CreatedAt.IsZero() {
		debt.CreatedAt = time.Now().UTC()
	}
	f.debts = append(f.debts, debt)
	return nil
}

func (f *fakeUserDebtStore) ListUserDebtsByPair(ctx context.Context, creditorEmail, debtorEmail string) ([]*models.UserDebt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.UserDebt
	for _, d := range f.debts {
		if d.CreditorEmail == creditorEmail && d.DebtorEmail == debtorEmail {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeUserDebtStore) ListUserDebtsByParticipant(ctx context.Context, email string) ([]*models.UserDebt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.UserDebt
	for _, d := range f.debts {
		if d.CreditorEmail == email || d.DebtorEmail == email {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeUserDebtStore) SetUserDebtPaidBack(ctx context.Context, id string, paidBack float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.debts {
		if d.ID == id {
			d.PaidBack = paidBack
			d.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return storage.ErrNotFound
}

type fakeReceiptStore struct {
	mu       sync.Mutex
	receipts []*models.Receipt

	createErr error
}

func (f *fakeReceiptStore) CreateReceipt(ctx context.Context, receipt *models.Receipt) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if receipt.ID == "" {
		receipt.ID = fmt.Sprintf("receipt-%d", len(f.receipts)+1)
	}
	receipt.CreatedAt = time.Now().UTC()
	f.receipts = append(f.receipts, receipt)
	return nil
}

// fakeExtractor returns a canned model answer, recording whether it was
// called at all.
type fakeExtractor struct {
	response string
	err      error
	called   bool
}

func (f *fakeExtractor) Extract(ctx context.Context, image []byte, mimeType string) (string, error) {
	f.called = true
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

var errStorageDown = errors.New("storage unavailable")
