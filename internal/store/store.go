// ABOUTME: Store interface and entity types for passbridge persistence
// ABOUTME: Defines Pass, Business, CustomerAccount structs and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateID is returned when trying to create an entity whose id is already taken
var ErrDuplicateID = errors.New("id already exists")

// Pass kind constants for the two pass record shapes
const (
	KindParent = "parent" // schedule/program/batch record
	KindChild  = "child"  // individual ticket/visit/card record
)

// Window is the optional validity window on a parent pass.
// TZ is advisory only; no arithmetic is done with it.
type Window struct {
	From string
	To   string
	TZ   string
}

// Pass represents a wallet pass record, either a parent (schedule,
// program) or a child (ticket, visit, card) referencing its parent.
// Profile-specific fields are optional and stay empty outside their profile.
type Pass struct {
	ID       string
	Kind     string // "parent" or "child"
	Profile  string // "logistics", "healthcare", "loyalty"
	ParentID string // child only; FK to a parent pass

	// Parent fields
	ProgramName string
	Site        string
	Window      *Window
	Capacity    int // advisory; never enforced against child count

	// Logistics child fields
	Plate   string
	Carrier string
	Client  string

	// Healthcare child fields
	PatientName string
	Procedure   string
	Doctor      string

	// Loyalty child fields
	BusinessID   string
	CustomerID   string
	CustomerName string
	MemberID     string
	Points       int

	// Free-form metadata; carries platform override blocks under
	// "googleWallet" / "appleWallet" keys.
	Metadata map[string]any

	Status    string
	Hash      string
	Signature string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Business represents a loyalty tenant.
type Business struct {
	ID               string
	Name             string
	ProgramName      string
	PointsLabel      string
	LoyaltyProgramID string // set once the program's parent pass exists
	Wallet           map[string]any
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CustomerAccount represents a loyalty customer belonging to a business.
// MemberID is the value encoded in the card barcode, distinct from ID.
type CustomerAccount struct {
	ID         string
	BusinessID string
	FullName   string
	MemberID   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store defines the interface for pass, business and customer persistence.
// Every mutation to a pass record flows through here.
type Store interface {
	// Passes
	CreatePass(ctx context.Context, pass *Pass) error
	GetPass(ctx context.Context, id string) (*Pass, error)
	UpdatePass(ctx context.Context, pass *Pass) error
	ListPasses(ctx context.Context, limit int) ([]*Pass, error)
	// ListUpdatedSince returns passes whose UpdatedAt is strictly after t,
	// for the web-service collaborator's "changed since" queries.
	ListUpdatedSince(ctx context.Context, t time.Time) ([]*Pass, error)

	// Businesses
	CreateBusiness(ctx context.Context, b *Business) error
	GetBusiness(ctx context.Context, id string) (*Business, error)
	UpdateBusiness(ctx context.Context, b *Business) error

	// Customer accounts
	CreateCustomerAccount(ctx context.Context, c *CustomerAccount) error
	GetCustomerAccount(ctx context.Context, id string) (*CustomerAccount, error)

	// Close releases any resources held by the store
	Close() error
}
