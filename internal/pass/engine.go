// ABOUTME: Pass lifecycle engine - creates parent/child passes and drives status transitions
// ABOUTME: All pass state changes flow through here; hash/signature are recomputed on every write

package pass

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sbcwallet/passbridge/internal/profile"
	"github.com/sbcwallet/passbridge/internal/store"
)

// ErrValidation indicates malformed or incomplete input to a creation call.
var ErrValidation = errors.New("invalid input")

// ErrInvalidTransition indicates the requested status is not a member of
// the pass's profile status flow.
var ErrInvalidTransition = errors.New("invalid status transition")

// ParentInput is the input for creating a parent (schedule/program) pass.
type ParentInput struct {
	ID          string // optional; generated when empty
	Profile     string
	ProgramName string
	Site        string
	Window      *store.Window
	Capacity    int
	Metadata    map[string]any
}

// ChildInput is the input for creating a child (ticket/visit/card) pass.
type ChildInput struct {
	ID       string // optional; generated when empty
	Profile  string
	ParentID string
	Status   string // optional initial-status override; must be in the flow

	Plate   string
	Carrier string
	Client  string

	PatientName string
	Procedure   string
	Doctor      string

	BusinessID   string
	CustomerID   string
	CustomerName string
	MemberID     string
	Points       int

	Metadata map[string]any
}

// Engine is the pass lifecycle state machine. It owns id generation,
// status-flow validation, and integrity hash/signature computation.
type Engine struct {
	store    store.Store
	profiles *profile.Registry
	logger   *slog.Logger

	// mu serializes status read-modify-write cycles so the membership
	// check and the store write are atomic per engine.
	mu sync.Mutex
}

// New creates a lifecycle engine over the given store and profile registry.
func New(st store.Store, profiles *profile.Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:    st,
		profiles: profiles,
		logger:   logger.With("component", "pass"),
	}
}

// CreateParentSchedule validates the input, assigns the profile's initial
// status, generates an id unless the caller supplied one, computes the
// integrity hash/signature, and stores the record.
func (e *Engine) CreateParentSchedule(ctx context.Context, in ParentInput) (*store.Pass, error) {
	prof, err := e.profiles.Get(in.Profile)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown profile %q", ErrValidation, in.Profile)
	}
	if in.ProgramName == "" {
		return nil, fmt.Errorf("%w: programName is required", ErrValidation)
	}
	if in.Capacity < 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", ErrValidation)
	}
	if in.Window != nil && in.Window.From != "" && in.Window.To != "" && in.Window.To < in.Window.From {
		return nil, fmt.Errorf("%w: window.to precedes window.from", ErrValidation)
	}

	now := time.Now()
	id := in.ID
	if id == "" {
		id = newParentID(prof.IDPrefix, now)
	}

	p := &store.Pass{
		ID:          id,
		Kind:        store.KindParent,
		Profile:     in.Profile,
		ProgramName: in.ProgramName,
		Site:        in.Site,
		Window:      in.Window,
		Capacity:    in.Capacity,
		Metadata:    in.Metadata,
		Status:      prof.InitialStatus(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	sign(p)

	if err := e.store.CreatePass(ctx, p); err != nil {
		return nil, fmt.Errorf("storing parent pass: %w", err)
	}

	e.logger.Debug("parent pass created",
		"pass_id", p.ID,
		"profile", p.Profile,
		"status", p.Status)
	return p, nil
}

// CreateChildTicket creates a child pass under an existing parent.
// Returns store.ErrNotFound if the parent does not exist or is not a
// parent-kind record. The initial status comes from the child's own
// profile's flow unless the input carries an explicit override.
func (e *Engine) CreateChildTicket(ctx context.Context, in ChildInput) (*store.Pass, error) {
	prof, err := e.profiles.Get(in.Profile)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown profile %q", ErrValidation, in.Profile)
	}
	if in.ParentID == "" {
		return nil, fmt.Errorf("%w: parentId is required", ErrValidation)
	}

	parent, err := e.store.GetPass(ctx, in.ParentID)
	if err != nil {
		return nil, fmt.Errorf("resolving parent %q: %w", in.ParentID, err)
	}
	if parent.Kind != store.KindParent {
		return nil, fmt.Errorf("resolving parent %q: %w", in.ParentID, store.ErrNotFound)
	}

	status := prof.InitialStatus()
	if in.Status != "" {
		if !prof.ValidStatus(in.Status) {
			return nil, fmt.Errorf("%w: status %q not in %s flow", ErrValidation, in.Status, prof.Name)
		}
		status = in.Status
	}

	now := time.Now()
	id := in.ID
	if id == "" {
		id = newChildID(prof.IDPrefix, parent.ID)
	}

	p := &store.Pass{
		ID:           id,
		Kind:         store.KindChild,
		Profile:      in.Profile,
		ParentID:     parent.ID,
		Plate:        in.Plate,
		Carrier:      in.Carrier,
		Client:       in.Client,
		PatientName:  in.PatientName,
		Procedure:    in.Procedure,
		Doctor:       in.Doctor,
		BusinessID:   in.BusinessID,
		CustomerID:   in.CustomerID,
		CustomerName: in.CustomerName,
		MemberID:     in.MemberID,
		Points:       in.Points,
		Metadata:     in.Metadata,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	sign(p)

	if err := e.store.CreatePass(ctx, p); err != nil {
		return nil, fmt.Errorf("storing child pass: %w", err)
	}

	e.logger.Debug("child pass created",
		"pass_id", p.ID,
		"parent_id", parent.ID,
		"profile", p.Profile,
		"status", p.Status)
	return p, nil
}

// UpdateStatus moves a pass to a new status. The check is membership
// against the whole flow, not adjacency: any declared status is reachable
// from any other, including backward. Returns store.ErrNotFound for an
// unknown pass and ErrInvalidTransition for a status outside the flow.
func (e *Engine) UpdateStatus(ctx context.Context, id, status string) (*store.Pass, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.store.GetPass(ctx, id)
	if err != nil {
		return nil, err
	}

	prof, err := e.profiles.Get(p.Profile)
	if err != nil {
		return nil, fmt.Errorf("profile for pass %q: %w", id, err)
	}
	if !prof.ValidStatus(status) {
		return nil, fmt.Errorf("%w: %q for %s pass %s", ErrInvalidTransition, status, p.Profile, id)
	}

	previous := p.Status
	p.Status = status
	p.UpdatedAt = time.Now()
	sign(p)

	if err := e.store.UpdatePass(ctx, p); err != nil {
		return nil, fmt.Errorf("persisting status update: %w", err)
	}

	e.logger.Info("pass status updated",
		"pass_id", id,
		"from", previous,
		"to", status)
	return p, nil
}

// Mutate applies fn to a pass under the engine's mutation lock, then
// recomputes the hash/signature and persists. Higher layers (loyalty
// point updates) use this so their read-modify-write cycles get the same
// atomicity as status transitions.
func (e *Engine) Mutate(ctx context.Context, id string, fn func(*store.Pass) error) (*store.Pass, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.store.GetPass(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}

	p.UpdatedAt = time.Now()
	sign(p)

	if err := e.store.UpdatePass(ctx, p); err != nil {
		return nil, fmt.Errorf("persisting pass mutation: %w", err)
	}
	return p, nil
}

// Get retrieves a pass by id.
func (e *Engine) Get(ctx context.Context, id string) (*store.Pass, error) {
	return e.store.GetPass(ctx, id)
}

// UpdatedAt returns a pass's last-modified timestamp, for the web-service
// collaborator's conditional-GET handling.
func (e *Engine) UpdatedAt(ctx context.Context, id string) (time.Time, error) {
	p, err := e.store.GetPass(ctx, id)
	if err != nil {
		return time.Time{}, err
	}
	return p.UpdatedAt, nil
}

// ChangedSince lists passes updated strictly after t.
func (e *Engine) ChangedSince(ctx context.Context, t time.Time) ([]*store.Pass, error) {
	return e.store.ListUpdatedSince(ctx, t)
}
