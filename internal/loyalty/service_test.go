// ABOUTME: Tests for the loyalty domain layer
// ABOUTME: Covers business/customer/program/card lifecycle and point-balance rules

package loyalty

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbcwallet/passbridge/internal/pass"
	"github.com/sbcwallet/passbridge/internal/profile"
	"github.com/sbcwallet/passbridge/internal/store"
)

func newTestService() (*Service, *store.MemoryStore) {
	st := store.NewMemoryStore()
	engine := pass.New(st, profile.NewRegistry(), nil)
	return New(engine, st, nil), st
}

// setupCard creates a business, program, customer and card with the given
// starting balance.
func setupCard(t *testing.T, s *Service, points int) (*store.Business, *store.CustomerAccount, *store.Pass) {
	t.Helper()
	ctx := context.Background()

	b, err := s.CreateBusiness(ctx, BusinessInput{Name: "Biz A"})
	require.NoError(t, err)
	_, err = s.CreateLoyaltyProgram(ctx, ProgramInput{BusinessID: b.ID})
	require.NoError(t, err)
	b, err = s.GetBusiness(ctx, b.ID)
	require.NoError(t, err)

	c, err := s.CreateCustomerAccount(ctx, CustomerInput{BusinessID: b.ID, FullName: "Alice"})
	require.NoError(t, err)

	card, err := s.IssueLoyaltyCard(ctx, CardInput{BusinessID: b.ID, CustomerID: c.ID, InitialPoints: points})
	require.NoError(t, err)
	return b, c, card
}

func TestCreateBusiness(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService()

	t.Run("defaults program name and points label", func(t *testing.T) {
		b, err := s.CreateBusiness(ctx, BusinessInput{Name: "Biz A"})
		require.NoError(t, err)
		assert.Equal(t, "Biz A Loyalty", b.ProgramName)
		assert.Equal(t, "Points", b.PointsLabel)
		assert.NotEmpty(t, b.ID)
		assert.Empty(t, b.LoyaltyProgramID)
	})

	t.Run("requires a name", func(t *testing.T) {
		_, err := s.CreateBusiness(ctx, BusinessInput{})
		assert.ErrorIs(t, err, pass.ErrValidation)
	})
}

func TestCreateCustomerAccount(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService()

	b, err := s.CreateBusiness(ctx, BusinessInput{Name: "Biz A"})
	require.NoError(t, err)

	t.Run("generates an SBC member id", func(t *testing.T) {
		c, err := s.CreateCustomerAccount(ctx, CustomerInput{BusinessID: b.ID, FullName: "Alice"})
		require.NoError(t, err)
		assert.Regexp(t, `^SBC-.+-.+$`, c.MemberID)
		assert.Equal(t, b.ID, c.BusinessID)
	})

	t.Run("honors a supplied member id", func(t *testing.T) {
		c, err := s.CreateCustomerAccount(ctx, CustomerInput{BusinessID: b.ID, FullName: "Bob", MemberID: "SBC-CUSTOM-1"})
		require.NoError(t, err)
		assert.Equal(t, "SBC-CUSTOM-1", c.MemberID)
	})

	t.Run("fails NotFound for an unknown business", func(t *testing.T) {
		_, err := s.CreateCustomerAccount(ctx, CustomerInput{BusinessID: "ghost", FullName: "X"})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestCreateLoyaltyProgram(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the parent pass and links it to the business", func(t *testing.T) {
		s, _ := newTestService()
		b, err := s.CreateBusiness(ctx, BusinessInput{Name: "Biz A"})
		require.NoError(t, err)

		program, err := s.CreateLoyaltyProgram(ctx, ProgramInput{BusinessID: b.ID})
		require.NoError(t, err)
		assert.Equal(t, store.KindParent, program.Kind)
		assert.Equal(t, profile.Loyalty, program.Profile)
		assert.Equal(t, "Biz A Loyalty", program.ProgramName)

		linked, err := s.GetBusiness(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, program.ID, linked.LoyaltyProgramID)
	})

	t.Run("business theming applies, program metadata wins field-by-field", func(t *testing.T) {
		s, _ := newTestService()
		b, err := s.CreateBusiness(ctx, BusinessInput{
			Name: "Biz A",
			Wallet: map[string]any{
				"googleWallet": map[string]any{
					"hexBackgroundColor": "#111111",
					"countryCode":        "MX",
				},
			},
		})
		require.NoError(t, err)

		program, err := s.CreateLoyaltyProgram(ctx, ProgramInput{
			BusinessID: b.ID,
			Metadata: map[string]any{
				"googleWallet": map[string]any{
					"hexBackgroundColor": "#222222",
				},
			},
		})
		require.NoError(t, err)

		g, ok := program.Metadata["googleWallet"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "#222222", g["hexBackgroundColor"], "program override wins")
		assert.Equal(t, "MX", g["countryCode"], "business key not overridden survives")
		assert.Equal(t, "Biz A", g["issuerName"], "business identity folded in")
		assert.Equal(t, "Points", g["pointsLabel"])
	})
}

func TestIssueLoyaltyCard(t *testing.T) {
	ctx := context.Background()

	t.Run("issues an active card carrying the customer's member id", func(t *testing.T) {
		s, _ := newTestService()
		_, c, card := setupCard(t, s, 5)
		assert.Equal(t, 5, card.Points)
		assert.Equal(t, profile.StatusActive, card.Status)
		assert.Equal(t, c.MemberID, card.MemberID)
		assert.Equal(t, "Alice", card.CustomerName)
	})

	t.Run("fails before a program is defined", func(t *testing.T) {
		s, _ := newTestService()
		b, err := s.CreateBusiness(ctx, BusinessInput{Name: "Biz B"})
		require.NoError(t, err)
		c, err := s.CreateCustomerAccount(ctx, CustomerInput{BusinessID: b.ID, FullName: "Alice"})
		require.NoError(t, err)

		_, err = s.IssueLoyaltyCard(ctx, CardInput{BusinessID: b.ID, CustomerID: c.ID})
		assert.ErrorIs(t, err, ErrProgramNotDefined)
	})

	t.Run("rejects a customer from another business", func(t *testing.T) {
		s, _ := newTestService()
		b, _, _ := setupCard(t, s, 0)

		other, err := s.CreateBusiness(ctx, BusinessInput{Name: "Biz C"})
		require.NoError(t, err)
		stranger, err := s.CreateCustomerAccount(ctx, CustomerInput{BusinessID: other.ID, FullName: "Mallory"})
		require.NoError(t, err)

		_, err = s.IssueLoyaltyCard(ctx, CardInput{BusinessID: b.ID, CustomerID: stranger.ID})
		assert.ErrorIs(t, err, ErrCustomerMismatch)
	})

	t.Run("card metadata overrides program metadata", func(t *testing.T) {
		s, _ := newTestService()
		b, err := s.CreateBusiness(ctx, BusinessInput{Name: "Biz D"})
		require.NoError(t, err)
		_, err = s.CreateLoyaltyProgram(ctx, ProgramInput{
			BusinessID: b.ID,
			Metadata: map[string]any{
				"googleWallet": map[string]any{"hexBackgroundColor": "#333333", "countryCode": "MX"},
			},
		})
		require.NoError(t, err)
		c, err := s.CreateCustomerAccount(ctx, CustomerInput{BusinessID: b.ID, FullName: "Alice"})
		require.NoError(t, err)

		card, err := s.IssueLoyaltyCard(ctx, CardInput{
			BusinessID: b.ID,
			CustomerID: c.ID,
			Metadata: map[string]any{
				"googleWallet": map[string]any{"hexBackgroundColor": "#444444"},
			},
		})
		require.NoError(t, err)

		g, ok := card.Metadata["googleWallet"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "#444444", g["hexBackgroundColor"], "card override wins")
		assert.Equal(t, "MX", g["countryCode"], "program key survives")
	})
}

func TestUpdatePoints(t *testing.T) {
	ctx := context.Background()

	t.Run("delta adds and floors at zero", func(t *testing.T) {
		s, _ := newTestService()
		_, _, card := setupCard(t, s, 5)

		up, err := s.UpdatePoints(ctx, PointsInput{PassID: card.ID, Delta: 7})
		require.NoError(t, err)
		assert.Equal(t, 12, up.Points)

		down, err := s.UpdatePoints(ctx, PointsInput{PassID: card.ID, Delta: -100})
		require.NoError(t, err)
		assert.Equal(t, 0, down.Points, "balance clamps at zero")
	})

	t.Run("setPoints overrides delta history", func(t *testing.T) {
		s, _ := newTestService()
		_, _, card := setupCard(t, s, 5)

		n := 42
		up, err := s.UpdatePoints(ctx, PointsInput{PassID: card.ID, SetPoints: &n, Delta: -99})
		require.NoError(t, err)
		assert.Equal(t, 42, up.Points)
	})

	t.Run("rejects negative setPoints", func(t *testing.T) {
		s, _ := newTestService()
		_, _, card := setupCard(t, s, 5)

		n := -1
		_, err := s.UpdatePoints(ctx, PointsInput{PassID: card.ID, SetPoints: &n})
		assert.ErrorIs(t, err, pass.ErrValidation)
	})

	t.Run("refreshes hash and signature on every update", func(t *testing.T) {
		s, _ := newTestService()
		_, _, card := setupCard(t, s, 5)

		up, err := s.UpdatePoints(ctx, PointsInput{PassID: card.ID, Delta: 1})
		require.NoError(t, err)
		assert.NotEqual(t, card.Hash, up.Hash)
		assert.NotEqual(t, card.Signature, up.Signature)
	})

	t.Run("rejects non-loyalty passes", func(t *testing.T) {
		s, st := newTestService()
		engine := pass.New(st, profile.NewRegistry(), nil)
		parent, err := engine.CreateParentSchedule(ctx, pass.ParentInput{Profile: profile.Logistics, ProgramName: "Yard"})
		require.NoError(t, err)
		ticket, err := engine.CreateChildTicket(ctx, pass.ChildInput{Profile: profile.Logistics, ParentID: parent.ID, Plate: "X"})
		require.NoError(t, err)

		_, err = s.UpdatePoints(ctx, PointsInput{PassID: ticket.ID, Delta: 1})
		assert.ErrorIs(t, err, ErrNotLoyaltyCard)

		// Parent loyalty pass is also not a card
		_, err = s.UpdatePoints(ctx, PointsInput{PassID: parent.ID, Delta: 1})
		assert.ErrorIs(t, err, ErrNotLoyaltyCard)
	})
}
