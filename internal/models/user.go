package models

import "time"

// User represents a registered account in the identity service.
//
// Email, Username and WalletAddress are each unique across all users,
// enforced by unique indexes on the users collection.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `bson:"_id,omitempty" json:"id"`

	// Email is the user's email address (unique). Used for login.
	Email string `bson:"email" json:"email"`

	// Username is the unique display handle.
	Username string `bson:"username" json:"username"`

	// PasswordHash is the bcrypt hash of the user's password.
	// Never serialized to JSON.
	PasswordHash string `bson:"password" json:"-"`

	// WalletAddress is the user's unique wallet address.
	WalletAddress string `bson:"wallet_address" json:"wallet_address"`

	FirstName string `bson:"first_name" json:"first_name"`
	LastName  string `bson:"last_name" json:"last_name"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"-"`
}

// DisplayName returns the name shown for this user when splitting bills:
// first and last name when present, falling back to the username, falling
// back to the empty string.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return u.Username
	default:
		return ""
	}
}
