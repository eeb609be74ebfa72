// ABOUTME: Loyalty domain layer - businesses, customer accounts, programs and cards
// ABOUTME: Built entirely on the pass lifecycle engine; a program is a parent pass, a card a child

package loyalty

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sbcwallet/passbridge/internal/pass"
	"github.com/sbcwallet/passbridge/internal/profile"
	"github.com/sbcwallet/passbridge/internal/store"
)

// ErrProgramNotDefined indicates a card was requested for a business that
// has no loyalty program parent pass yet.
var ErrProgramNotDefined = errors.New("loyalty program not yet defined")

// ErrNotLoyaltyCard indicates a points operation targeted a pass that is
// not a loyalty child pass.
var ErrNotLoyaltyCard = errors.New("not a loyalty card")

// ErrCustomerMismatch indicates the customer does not belong to the
// business the card was requested for.
var ErrCustomerMismatch = errors.New("customer does not belong to business")

// BusinessInput is the input for creating a loyalty tenant.
type BusinessInput struct {
	ID          string // optional
	Name        string
	ProgramName string // defaults to "{Name} Loyalty"
	PointsLabel string // defaults to "Points"
	Wallet      map[string]any
}

// CustomerInput is the input for creating a customer account.
type CustomerInput struct {
	ID         string // optional
	BusinessID string
	FullName   string
	MemberID   string // optional; generated as SBC-<bizSuffix>-<random>
}

// ProgramInput is the input for creating a business's loyalty program.
type ProgramInput struct {
	BusinessID string
	Metadata   map[string]any // program-level overrides; win over business theming
}

// CardInput is the input for issuing a loyalty card to a customer.
type CardInput struct {
	BusinessID    string
	CustomerID    string
	InitialPoints int
	Metadata      map[string]any // card-level overrides; win over program metadata
}

// PointsInput is the input for a point-balance update. SetPoints takes
// precedence over Delta when both are present.
type PointsInput struct {
	PassID    string
	SetPoints *int
	Delta     int
}

// Service layers loyalty semantics over the lifecycle engine.
type Service struct {
	engine *pass.Engine
	store  store.Store
	logger *slog.Logger
}

// New creates a loyalty service.
func New(engine *pass.Engine, st store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		engine: engine,
		store:  st,
		logger: logger.With("component", "loyalty"),
	}
}

// CreateBusiness creates a loyalty tenant, defaulting the program name
// and points label.
func (s *Service) CreateBusiness(ctx context.Context, in BusinessInput) (*store.Business, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", pass.ErrValidation)
	}

	now := time.Now()
	b := &store.Business{
		ID:          in.ID,
		Name:        in.Name,
		ProgramName: in.ProgramName,
		PointsLabel: in.PointsLabel,
		Wallet:      in.Wallet,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if b.ID == "" {
		b.ID = "biz-" + uuid.NewString()[:8]
	}
	if b.ProgramName == "" {
		b.ProgramName = in.Name + " Loyalty"
	}
	if b.PointsLabel == "" {
		b.PointsLabel = "Points"
	}

	if err := s.store.CreateBusiness(ctx, b); err != nil {
		return nil, fmt.Errorf("storing business: %w", err)
	}
	s.logger.Debug("business created", "business_id", b.ID, "name", b.Name)
	return b, nil
}

// CreateCustomerAccount creates a customer under an existing business.
// MemberID is generated unless supplied; it is the barcode payload for
// every card issued to this customer.
func (s *Service) CreateCustomerAccount(ctx context.Context, in CustomerInput) (*store.CustomerAccount, error) {
	if in.FullName == "" {
		return nil, fmt.Errorf("%w: fullName is required", pass.ErrValidation)
	}

	b, err := s.store.GetBusiness(ctx, in.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("resolving business %q: %w", in.BusinessID, err)
	}

	now := time.Now()
	c := &store.CustomerAccount{
		ID:         in.ID,
		BusinessID: b.ID,
		FullName:   in.FullName,
		MemberID:   in.MemberID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if c.ID == "" {
		c.ID = "cust-" + uuid.NewString()[:8]
	}
	if c.MemberID == "" {
		c.MemberID = newMemberID(b.ID)
	}

	if err := s.store.CreateCustomerAccount(ctx, c); err != nil {
		return nil, fmt.Errorf("storing customer account: %w", err)
	}
	return c, nil
}

// CreateLoyaltyProgram creates the parent pass for a business's program
// and records it on the business. Business-level wallet theming is
// applied first; program-level metadata wins field-by-field.
func (s *Service) CreateLoyaltyProgram(ctx context.Context, in ProgramInput) (*store.Pass, error) {
	b, err := s.store.GetBusiness(ctx, in.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("resolving business %q: %w", in.BusinessID, err)
	}

	metadata := programMetadata(b, in.Metadata)

	program, err := s.engine.CreateParentSchedule(ctx, pass.ParentInput{
		Profile:     profile.Loyalty,
		ProgramName: b.ProgramName,
		Metadata:    metadata,
	})
	if err != nil {
		return nil, err
	}

	b.LoyaltyProgramID = program.ID
	b.UpdatedAt = time.Now()
	if err := s.store.UpdateBusiness(ctx, b); err != nil {
		return nil, fmt.Errorf("recording program on business: %w", err)
	}

	s.logger.Info("loyalty program created",
		"business_id", b.ID,
		"program_id", program.ID)
	return program, nil
}

// IssueLoyaltyCard issues a child pass card to a customer. The business
// must already have a program (ErrProgramNotDefined otherwise) and the
// customer must belong to it. The card status is forced to ACTIVE.
func (s *Service) IssueLoyaltyCard(ctx context.Context, in CardInput) (*store.Pass, error) {
	b, err := s.store.GetBusiness(ctx, in.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("resolving business %q: %w", in.BusinessID, err)
	}
	if b.LoyaltyProgramID == "" {
		return nil, fmt.Errorf("%w: business %s", ErrProgramNotDefined, b.ID)
	}

	c, err := s.store.GetCustomerAccount(ctx, in.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("resolving customer %q: %w", in.CustomerID, err)
	}
	if c.BusinessID != b.ID {
		return nil, fmt.Errorf("%w: customer %s, business %s", ErrCustomerMismatch, c.ID, b.ID)
	}
	if in.InitialPoints < 0 {
		return nil, fmt.Errorf("%w: initialPoints must be non-negative", pass.ErrValidation)
	}

	program, err := s.engine.Get(ctx, b.LoyaltyProgramID)
	if err != nil {
		return nil, fmt.Errorf("resolving program %q: %w", b.LoyaltyProgramID, err)
	}

	// Program google metadata carries forward; card overrides win.
	metadata := mergeMetadata(program.Metadata, in.Metadata)

	card, err := s.engine.CreateChildTicket(ctx, pass.ChildInput{
		Profile:      profile.Loyalty,
		ParentID:     program.ID,
		Status:       profile.StatusActive, // explicit product override
		BusinessID:   b.ID,
		CustomerID:   c.ID,
		CustomerName: c.FullName,
		MemberID:     c.MemberID,
		Points:       in.InitialPoints,
		Metadata:     metadata,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("loyalty card issued",
		"card_id", card.ID,
		"business_id", b.ID,
		"customer_id", c.ID,
		"points", card.Points)
	return card, nil
}

// UpdatePoints applies a point-balance update to a loyalty card.
// setPoints sets an absolute non-negative value; delta adjusts the
// current balance and clamps at zero.
func (s *Service) UpdatePoints(ctx context.Context, in PointsInput) (*store.Pass, error) {
	if in.SetPoints != nil && *in.SetPoints < 0 {
		return nil, fmt.Errorf("%w: setPoints must be non-negative", pass.ErrValidation)
	}

	return s.engine.Mutate(ctx, in.PassID, func(p *store.Pass) error {
		if p.Kind != store.KindChild || p.Profile != profile.Loyalty {
			return fmt.Errorf("%w: pass %s", ErrNotLoyaltyCard, p.ID)
		}
		if in.SetPoints != nil {
			p.Points = *in.SetPoints
			return nil
		}
		next := p.Points + in.Delta
		if next < 0 {
			next = 0
		}
		p.Points = next
		return nil
	})
}

// GetBusiness retrieves a business by id.
func (s *Service) GetBusiness(ctx context.Context, id string) (*store.Business, error) {
	return s.store.GetBusiness(ctx, id)
}

// GetCustomerAccount retrieves a customer account by id.
func (s *Service) GetCustomerAccount(ctx context.Context, id string) (*store.CustomerAccount, error) {
	return s.store.GetCustomerAccount(ctx, id)
}

// newMemberID builds the canonical barcode payload for a customer:
// SBC-<businessSuffix>-<random>.
func newMemberID(businessID string) string {
	suffix := businessID
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return "SBC-" + suffix + "-" + uuid.NewString()[:6]
}
