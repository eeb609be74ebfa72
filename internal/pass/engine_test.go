// ABOUTME: Tests for the pass lifecycle engine
// ABOUTME: Covers creation, parent linkage, status transitions, and hash freshness

package pass

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbcwallet/passbridge/internal/profile"
	"github.com/sbcwallet/passbridge/internal/store"
)

func newTestEngine() (*Engine, *store.MemoryStore) {
	st := store.NewMemoryStore()
	return New(st, profile.NewRegistry(), nil), st
}

func TestCreateParentSchedule(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a logistics schedule with initial status", func(t *testing.T) {
		e, _ := newTestEngine()
		p, err := e.CreateParentSchedule(ctx, ParentInput{
			Profile:     profile.Logistics,
			ProgramName: "Morning Yard Veracruz",
			Capacity:    50,
		})
		require.NoError(t, err)
		assert.Equal(t, "ISSUED", p.Status)
		assert.True(t, strings.HasPrefix(p.ID, "PES-"), "id %q should carry the PES prefix", p.ID)
		assert.Equal(t, store.KindParent, p.Kind)
		assert.NotEmpty(t, p.Hash)
		assert.NotEmpty(t, p.Signature)
	})

	t.Run("healthcare and loyalty get their own initial status", func(t *testing.T) {
		e, _ := newTestEngine()
		hc, err := e.CreateParentSchedule(ctx, ParentInput{Profile: profile.Healthcare, ProgramName: "Clinic A"})
		require.NoError(t, err)
		assert.Equal(t, "SCHEDULED", hc.Status)
		assert.True(t, strings.HasPrefix(hc.ID, "APB-"))

		loy, err := e.CreateParentSchedule(ctx, ParentInput{Profile: profile.Loyalty, ProgramName: "Biz A Loyalty"})
		require.NoError(t, err)
		assert.Equal(t, "ACTIVE", loy.Status)
		assert.True(t, strings.HasPrefix(loy.ID, "LPR-"))
	})

	t.Run("rejects unknown profile", func(t *testing.T) {
		e, _ := newTestEngine()
		_, err := e.CreateParentSchedule(ctx, ParentInput{Profile: "banking", ProgramName: "x"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("requires programName", func(t *testing.T) {
		e, _ := newTestEngine()
		_, err := e.CreateParentSchedule(ctx, ParentInput{Profile: profile.Logistics})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects inverted window", func(t *testing.T) {
		e, _ := newTestEngine()
		_, err := e.CreateParentSchedule(ctx, ParentInput{
			Profile:     profile.Logistics,
			ProgramName: "x",
			Window:      &store.Window{From: "2026-08-31T10:00:00Z", To: "2026-08-31T08:00:00Z"},
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("honors caller-supplied id", func(t *testing.T) {
		e, _ := newTestEngine()
		p, err := e.CreateParentSchedule(ctx, ParentInput{
			ID:          "PES-custom-1",
			Profile:     profile.Logistics,
			ProgramName: "x",
		})
		require.NoError(t, err)
		assert.Equal(t, "PES-custom-1", p.ID)
	})
}

func TestCreateChildTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("creates child under an existing parent", func(t *testing.T) {
		e, _ := newTestEngine()
		parent, err := e.CreateParentSchedule(ctx, ParentInput{
			Profile:     profile.Logistics,
			ProgramName: "Morning Yard Veracruz",
		})
		require.NoError(t, err)

		child, err := e.CreateChildTicket(ctx, ChildInput{
			Profile:  profile.Logistics,
			ParentID: parent.ID,
			Plate:    "ABC123A",
		})
		require.NoError(t, err)
		assert.Equal(t, store.KindChild, child.Kind)
		assert.Equal(t, parent.ID, child.ParentID)
		assert.Equal(t, "ISSUED", child.Status)

		// Child id embeds the parent's trailing fragment
		fragment := parent.ID[strings.LastIndex(parent.ID, "-")+1:]
		assert.Contains(t, child.ID, "-"+fragment+"-")
	})

	t.Run("fails NotFound for a missing parent and stores nothing", func(t *testing.T) {
		e, st := newTestEngine()
		_, err := e.CreateChildTicket(ctx, ChildInput{
			Profile:  profile.Logistics,
			ParentID: "NONEXISTENT",
			Plate:    "X",
		})
		assert.ErrorIs(t, err, store.ErrNotFound)

		passes, err := st.ListPasses(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, passes)
	})

	t.Run("fails NotFound when parentId points at a child", func(t *testing.T) {
		e, _ := newTestEngine()
		parent, err := e.CreateParentSchedule(ctx, ParentInput{Profile: profile.Logistics, ProgramName: "x"})
		require.NoError(t, err)
		child, err := e.CreateChildTicket(ctx, ChildInput{Profile: profile.Logistics, ParentID: parent.ID})
		require.NoError(t, err)

		_, err = e.CreateChildTicket(ctx, ChildInput{Profile: profile.Logistics, ParentID: child.ID})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("rejects a status override outside the flow", func(t *testing.T) {
		e, _ := newTestEngine()
		parent, err := e.CreateParentSchedule(ctx, ParentInput{Profile: profile.Loyalty, ProgramName: "x"})
		require.NoError(t, err)

		_, err = e.CreateChildTicket(ctx, ChildInput{
			Profile:  profile.Loyalty,
			ParentID: parent.ID,
			Status:   "EXITED",
		})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("walks the logistics flow and refreshes the hash each step", func(t *testing.T) {
		e, _ := newTestEngine()
		parent, err := e.CreateParentSchedule(ctx, ParentInput{Profile: profile.Logistics, ProgramName: "Morning Yard Veracruz"})
		require.NoError(t, err)
		child, err := e.CreateChildTicket(ctx, ChildInput{Profile: profile.Logistics, ParentID: parent.ID, Plate: "ABC123A"})
		require.NoError(t, err)

		hashes := []string{child.Hash}
		sigs := []string{child.Signature}
		for _, status := range []string{"PRESENCE", "SCALE", "OPS", "EXITED"} {
			updated, err := e.UpdateStatus(ctx, child.ID, status)
			require.NoError(t, err)
			assert.Equal(t, status, updated.Status)
			hashes = append(hashes, updated.Hash)
			sigs = append(sigs, updated.Signature)
		}

		assert.Equal(t, "EXITED", mustGet(t, e, child.ID).Status)
		for i := 1; i < len(hashes); i++ {
			assert.NotEqual(t, hashes[i-1], hashes[i], "hash must change on transition %d", i)
			assert.NotEqual(t, sigs[i-1], sigs[i], "signature must change on transition %d", i)
		}
	})

	t.Run("allows jumps and rollbacks within the flow", func(t *testing.T) {
		e, _ := newTestEngine()
		parent, err := e.CreateParentSchedule(ctx, ParentInput{Profile: profile.Logistics, ProgramName: "x"})
		require.NoError(t, err)
		child, err := e.CreateChildTicket(ctx, ChildInput{Profile: profile.Logistics, ParentID: parent.ID})
		require.NoError(t, err)

		// Jump straight to terminal, then back
		_, err = e.UpdateStatus(ctx, child.ID, "EXITED")
		require.NoError(t, err)
		updated, err := e.UpdateStatus(ctx, child.ID, "PRESENCE")
		require.NoError(t, err)
		assert.Equal(t, "PRESENCE", updated.Status)
	})

	t.Run("rejects a status outside the flow without touching the pass", func(t *testing.T) {
		e, _ := newTestEngine()
		parent, err := e.CreateParentSchedule(ctx, ParentInput{Profile: profile.Logistics, ProgramName: "x"})
		require.NoError(t, err)
		child, err := e.CreateChildTicket(ctx, ChildInput{Profile: profile.Logistics, ParentID: parent.ID})
		require.NoError(t, err)

		_, err = e.UpdateStatus(ctx, child.ID, "BOGUS_STATUS")
		assert.ErrorIs(t, err, ErrInvalidTransition)

		stored := mustGet(t, e, child.ID)
		assert.Equal(t, "ISSUED", stored.Status)
		assert.Equal(t, child.Hash, stored.Hash)
	})

	t.Run("fails NotFound for an unknown pass", func(t *testing.T) {
		e, _ := newTestEngine()
		_, err := e.UpdateStatus(ctx, "ghost", "ISSUED")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestUpdatedAtAndChangedSince(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine()

	parent, err := e.CreateParentSchedule(ctx, ParentInput{Profile: profile.Healthcare, ProgramName: "Clinic A"})
	require.NoError(t, err)

	created, err := e.UpdatedAt(ctx, parent.ID)
	require.NoError(t, err)

	updated, err := e.UpdateStatus(ctx, parent.ID, "CHECKIN")
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(created) || updated.UpdatedAt.Equal(created))

	changed, err := e.ChangedSince(ctx, created)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, parent.ID, changed[0].ID)
}

func mustGet(t *testing.T, e *Engine, id string) *store.Pass {
	t.Helper()
	p, err := e.Get(context.Background(), id)
	require.NoError(t, err)
	return p
}
