package user

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrAddressNotFound is returned when an address does not exist or is
	// not owned by the given user.
	ErrAddressNotFound = errors.New("address not found")
)

// User is a registered storefront customer.
type User struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// Address is a shipping destination owned by a user.
type Address struct {
	ID         string
	UserID     string
	Recipient  string
	Street     string
	City       string
	Province   string
	PostalCode string
	Phone      string
}

// Repository provides user and address lookups.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	// GetAddress returns the address only when it exists and belongs to the
	// given user; ErrAddressNotFound otherwise.
	GetAddress(ctx context.Context, addressID, userID string) (*Address, error)
}
