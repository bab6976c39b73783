package models

import "time"

// Contact is an address-book entry in the ledger service.
//
// Email is the primary lookup key and is unique across all contacts, as is
// WalletID. Contacts are created once per counterpart and never deleted.
type Contact struct {
	// ID is the unique identifier for the contact (UUID format).
	ID string `bson:"_id,omitempty" json:"contact_id"`

	FirstName string `bson:"first_name" json:"first_name"`
	LastName  string `bson:"last_name" json:"last_name"`
	Username  string `bson:"username" json:"username"`

	// Email is the contact's email address (unique key).
	Email string `bson:"email" json:"email"`

	// WalletID is the contact's unique wallet identifier.
	WalletID string `bson:"wallet_id" json:"wallet_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
