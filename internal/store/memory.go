// ABOUTME: In-memory Store implementation backed by mutex-guarded maps
// ABOUTME: The reference persistence layer; a database store can be swapped in behind the Store interface

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation. All state is held in
// process-local maps guarded by a single RWMutex; entities are copied on
// the way in and out to prevent external mutation.
type MemoryStore struct {
	mu         sync.RWMutex
	passes     map[string]*Pass            // keyed by pass ID
	businesses map[string]*Business        // keyed by business ID
	customers  map[string]*CustomerAccount // keyed by customer ID
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		passes:     make(map[string]*Pass),
		businesses: make(map[string]*Business),
		customers:  make(map[string]*CustomerAccount),
	}
}

// clonePass copies a pass, including its metadata map one level deep.
func clonePass(p *Pass) *Pass {
	c := *p
	if p.Window != nil {
		w := *p.Window
		c.Window = &w
	}
	if p.Metadata != nil {
		c.Metadata = make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// cloneBusiness copies a business, including its wallet block one level deep.
func cloneBusiness(b *Business) *Business {
	c := *b
	if b.Wallet != nil {
		c.Wallet = make(map[string]any, len(b.Wallet))
		for k, v := range b.Wallet {
			c.Wallet[k] = v
		}
	}
	return &c
}

// CreatePass stores a new pass record.
// Returns ErrDuplicateID if the id is already taken.
func (m *MemoryStore) CreatePass(ctx context.Context, pass *Pass) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.passes[pass.ID]; exists {
		return ErrDuplicateID
	}
	m.passes[pass.ID] = clonePass(pass)
	return nil
}

// GetPass retrieves a pass by ID.
func (m *MemoryStore) GetPass(ctx context.Context, id string) (*Pass, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.passes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePass(p), nil
}

// UpdatePass replaces an existing pass record.
func (m *MemoryStore) UpdatePass(ctx context.Context, pass *Pass) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.passes[pass.ID]; !ok {
		return ErrNotFound
	}
	m.passes[pass.ID] = clonePass(pass)
	return nil
}

// ListPasses returns passes ordered by most recent update.
func (m *MemoryStore) ListPasses(ctx context.Context, limit int) ([]*Pass, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	passes := make([]*Pass, 0, len(m.passes))
	for _, p := range m.passes {
		passes = append(passes, clonePass(p))
	}

	// Sort by UpdatedAt descending, ID as tie-breaker for stable output
	sort.Slice(passes, func(i, j int) bool {
		if !passes[i].UpdatedAt.Equal(passes[j].UpdatedAt) {
			return passes[i].UpdatedAt.After(passes[j].UpdatedAt)
		}
		return passes[i].ID < passes[j].ID
	})

	if len(passes) > limit {
		passes = passes[:limit]
	}
	return passes, nil
}

// ListUpdatedSince returns passes updated strictly after t, oldest first.
func (m *MemoryStore) ListUpdatedSince(ctx context.Context, t time.Time) ([]*Pass, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Pass
	for _, p := range m.passes {
		if p.UpdatedAt.After(t) {
			result = append(result, clonePass(p))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.Before(result[j].UpdatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// CreateBusiness stores a new business.
func (m *MemoryStore) CreateBusiness(ctx context.Context, b *Business) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.businesses[b.ID]; exists {
		return ErrDuplicateID
	}
	m.businesses[b.ID] = cloneBusiness(b)
	return nil
}

// GetBusiness retrieves a business by ID.
func (m *MemoryStore) GetBusiness(ctx context.Context, id string) (*Business, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.businesses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBusiness(b), nil
}

// UpdateBusiness replaces an existing business.
func (m *MemoryStore) UpdateBusiness(ctx context.Context, b *Business) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.businesses[b.ID]; !ok {
		return ErrNotFound
	}
	m.businesses[b.ID] = cloneBusiness(b)
	return nil
}

// CreateCustomerAccount stores a new customer account.
func (m *MemoryStore) CreateCustomerAccount(ctx context.Context, c *CustomerAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.customers[c.ID]; exists {
		return ErrDuplicateID
	}
	cc := *c
	m.customers[c.ID] = &cc
	return nil
}

// GetCustomerAccount retrieves a customer account by ID.
func (m *MemoryStore) GetCustomerAccount(ctx context.Context, id string) (*CustomerAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *c
	return &result, nil
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error {
	return nil
}

// Verify MemoryStore implements Store interface at compile time.
var _ Store = (*MemoryStore)(nil)
