// ABOUTME: Unified wallet API: lifecycle operations plus best-effort rendering
// ABOUTME: Lifecycle errors propagate; render failures degrade to empty artifact fields

package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sbcwallet/passbridge/internal/apple"
	"github.com/sbcwallet/passbridge/internal/dedupe"
	"github.com/sbcwallet/passbridge/internal/google"
	"github.com/sbcwallet/passbridge/internal/loyalty"
	"github.com/sbcwallet/passbridge/internal/pass"
	"github.com/sbcwallet/passbridge/internal/profile"
	"github.com/sbcwallet/passbridge/internal/store"
)

// IssueOptions selects which wallet artifacts to render alongside a
// lifecycle operation.
type IssueOptions struct {
	Apple  bool
	Google bool
}

// Issued is the result of a lifecycle operation plus its renders. A
// failed render leaves its fields empty; the pass itself is always set.
type Issued struct {
	Pass         *store.Pass
	Pkpass       []byte
	GoogleObject map[string]any
	SaveURL      string
	ClassID      string
}

// Service is the unified entry point: it drives the lifecycle engine
// and loyalty layer, and attaches Apple/Google artifacts on a
// best-effort basis.
type Service struct {
	engine   *pass.Engine
	loyalty  *loyalty.Service
	profiles *profile.Registry
	apple    *apple.Renderer
	google   *google.Renderer
	cache    *dedupe.Cache
	logger   *slog.Logger
}

// New creates the unified wallet service. The cache may be nil, in which
// case every fetch renders fresh.
func New(engine *pass.Engine, loyaltySvc *loyalty.Service, profiles *profile.Registry,
	appleR *apple.Renderer, googleR *google.Renderer, cache *dedupe.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		engine:   engine,
		loyalty:  loyaltySvc,
		profiles: profiles,
		apple:    appleR,
		google:   googleR,
		cache:    cache,
		logger:   logger.With("component", "wallet"),
	}
}

// Engine exposes the underlying lifecycle engine for direct reads.
func (s *Service) Engine() *pass.Engine { return s.engine }

// Loyalty exposes the loyalty layer for business/customer management.
func (s *Service) Loyalty() *loyalty.Service { return s.loyalty }

// IssueParent creates a parent schedule/program pass and renders the
// requested artifacts.
func (s *Service) IssueParent(ctx context.Context, in pass.ParentInput, opts IssueOptions) (*Issued, error) {
	p, err := s.engine.CreateParentSchedule(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.attach(ctx, p, opts), nil
}

// IssueChild creates a child ticket/visit pass under an existing parent
// and renders the requested artifacts.
func (s *Service) IssueChild(ctx context.Context, in pass.ChildInput, opts IssueOptions) (*Issued, error) {
	p, err := s.engine.CreateChildTicket(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.attach(ctx, p, opts), nil
}

// IssueLoyaltyCard issues a loyalty card through the loyalty layer and
// renders the requested artifacts.
func (s *Service) IssueLoyaltyCard(ctx context.Context, in loyalty.CardInput, opts IssueOptions) (*Issued, error) {
	p, err := s.loyalty.IssueLoyaltyCard(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.attach(ctx, p, opts), nil
}

// UpdateStatus moves a pass to a new status and re-renders the requested
// artifacts against the new state.
func (s *Service) UpdateStatus(ctx context.Context, id, status string, opts IssueOptions) (*Issued, error) {
	p, err := s.engine.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	return s.attach(ctx, p, opts), nil
}

// UpdatePoints adjusts a loyalty card's balance and re-renders the
// requested artifacts.
func (s *Service) UpdatePoints(ctx context.Context, in loyalty.PointsInput, opts IssueOptions) (*Issued, error) {
	p, err := s.loyalty.UpdatePoints(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.attach(ctx, p, opts), nil
}

// attach renders the requested artifacts for a pass. Render failures
// are logged and leave the corresponding fields empty; they never fail
// the lifecycle operation that produced the pass.
func (s *Service) attach(ctx context.Context, p *store.Pass, opts IssueOptions) *Issued {
	out := &Issued{Pass: p}

	prof, err := s.profiles.Get(p.Profile)
	if err != nil {
		s.logger.Warn("render skipped, unknown profile", "pass_id", p.ID, "profile", p.Profile)
		return out
	}

	if opts.Apple && s.apple != nil {
		archive, err := s.apple.Render(p, prof, appleKind(p))
		if err != nil {
			s.logger.Warn("apple render failed", "pass_id", p.ID, "error", err)
		} else {
			out.Pkpass = archive
		}
	}

	if opts.Google && s.google != nil {
		art, err := s.google.Render(ctx, p, prof)
		if err != nil {
			s.logger.Warn("google render failed", "pass_id", p.ID, "error", err)
		} else {
			out.GoogleObject = art.Object
			out.SaveURL = art.SaveURL
			out.ClassID = art.ClassID
		}
	}
	return out
}

// Pkpass returns the signed .pkpass archive for a pass, serving a cached
// artifact when the pass has not changed since it was rendered.
func (s *Service) Pkpass(ctx context.Context, id string) ([]byte, error) {
	p, err := s.engine.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key := dedupe.Key("pkpass:"+p.ID, p.UpdatedAt)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached, nil
		}
	}

	prof, err := s.profiles.Get(p.Profile)
	if err != nil {
		return nil, err
	}
	archive, err := s.apple.Render(p, prof, appleKind(p))
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Put(key, archive)
	}
	return archive, nil
}

// GoogleObject returns the wallet artifact for a pass, serving a cached
// copy when the pass has not changed. A cache hit also skips the API
// upsert, which already ran when the artifact was first rendered.
func (s *Service) GoogleObject(ctx context.Context, id string) (*google.Artifact, error) {
	p, err := s.engine.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key := dedupe.Key("google:"+p.ID, p.UpdatedAt)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			var art google.Artifact
			if err := json.Unmarshal(cached, &art); err == nil {
				return &art, nil
			}
		}
	}

	prof, err := s.profiles.Get(p.Profile)
	if err != nil {
		return nil, err
	}
	art, err := s.google.Render(ctx, p, prof)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if encoded, err := json.Marshal(art); err == nil {
			s.cache.Put(key, encoded)
		}
	}
	return art, nil
}

// UpdatedAt reports when a pass last changed, for conditional fetches.
func (s *Service) UpdatedAt(ctx context.Context, id string) (time.Time, error) {
	t, err := s.engine.UpdatedAt(ctx, id)
	if err != nil {
		return time.Time{}, fmt.Errorf("reading pass revision: %w", err)
	}
	return t, nil
}

// appleKind picks the Apple pass style for a pass record: transit for
// transport orders, event tickets for patient visits, store cards for
// loyalty, generic for parents and everything else.
func appleKind(p *store.Pass) apple.PassKind {
	if p.Kind == store.KindParent {
		return apple.KindGeneric
	}
	switch p.Profile {
	case profile.Logistics:
		return apple.KindTransit
	case profile.Healthcare:
		return apple.KindEvent
	case profile.Loyalty:
		return apple.KindStore
	}
	return apple.KindGeneric
}
