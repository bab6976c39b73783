package models

import "time"

// Debt holds the aggregate running totals for one contact. One record per
// contact, created alongside the contact with all totals zero.
//
// A crash between the contact and debt inserts can leave a contact with no
// Debt record; readers must treat a missing record as all-zero, not as an
// error.
type Debt struct {
	// ID is the unique identifier for the debt record (UUID format).
	ID string `bson:"_id,omitempty" json:"-"`

	// ContactEmail links the record to its contact.
	ContactEmail string `bson:"contact_email" json:"contact_email"`

	// OwesMe is the total amount the contact owes the user.
	OwesMe float64 `bson:"owes_me" json:"owes_me"`

	// IOwe is the total amount the user owes the contact.
	IOwe float64 `bson:"i_owe" json:"i_owe"`

	// PaidBackToMe is how much of OwesMe has been repaid.
	PaidBackToMe float64 `bson:"paid_back_to_me" json:"paid_back_to_me"`

	// PaidBackByMe is how much of IOwe the user has repaid.
	PaidBackByMe float64 `bson:"paid_back_by_me" json:"paid_back_by_me"`

	CreatedAt time.Time `bson:"created_at" json:"-"`
	UpdatedAt time.Time `bson:"updated_at" json:"-"`
}

// SplitItem is one line item attached to a confirmed split.
type SplitItem struct {
	Name     string  `bson:"name" json:"name"`
	Quantity int     `bson:"quantity" json:"quantity"`
	Amount   float64 `bson:"amount" json:"amount"`
}

// UserDebt is one individualized debt record: a single participant's share
// of a single split event. Many records may exist per (creditor, debtor)
// pair; they are never merged, only individually paid down.
//
// Invariant: 0 <= PaidBack <= Amount, enforced at payment time.
type UserDebt struct {
	// ID is the unique identifier for the record (UUID format).
	ID string `bson:"_id,omitempty" json:"id"`

	// CreditorEmail identifies the party owed money (the split sender).
	CreditorEmail string `bson:"creditor_email" json:"creditor_email"`

	// CreditorName is the sender's display name captured at split time.
	// Shown to the debtor so the ledger reflects who split the bill even
	// if the stored contact's own name differs.
	CreditorName string `bson:"creditor_name" json:"creditor_name"`

	// DebtorEmail identifies the party who owes.
	DebtorEmail string `bson:"debtor_email" json:"debtor_email"`

	// Amount is the original per-person share of the split.
	Amount float64 `bson:"amount" json:"amount"`

	// PaidBack is the cumulative amount repaid against this record.
	// Monotonically increasing, capped at Amount.
	PaidBack float64 `bson:"paid_back" json:"paid_back"`

	// Items is the split's item list, carried for the audit trail.
	Items []SplitItem `bson:"items,omitempty" json:"items,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"-"`
}
