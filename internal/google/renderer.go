// ABOUTME: Google Wallet rendering pipeline: build payload, best-effort upsert, save URL
// ABOUTME: Loyalty parents render as classes; everything else as wallet objects

package google

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sbcwallet/passbridge/internal/config"
	"github.com/sbcwallet/passbridge/internal/profile"
	"github.com/sbcwallet/passbridge/internal/store"
)

// Artifact is the outcome of rendering a pass for Google Wallet.
type Artifact struct {
	// Object is the wallet object payload, or the class payload for
	// loyalty parents.
	Object map[string]any
	// ClassID is the class the object references (or the class's own id
	// for loyalty parents).
	ClassID string
	// SaveURL is the Save to Google Wallet link. Empty for loyalty
	// parents, which are classes and cannot be saved directly.
	SaveURL string
	// Upsert records whether the wallet API accepted the payload.
	Upsert UpsertOutcome
}

// Renderer turns pass records into Google Wallet artifacts.
type Renderer struct {
	cfg     config.GoogleConfig
	account *config.ServiceAccount
	client  *Client
	logger  *slog.Logger
}

// NewRenderer creates a Google Wallet renderer. A nil account puts the
// renderer in degraded mode: upserts are skipped and save URLs are
// unsigned references.
func NewRenderer(cfg config.GoogleConfig, account *config.ServiceAccount, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		cfg:     cfg,
		account: account,
		client:  NewClient(cfg, account),
		logger:  logger.With("component", "google_renderer"),
	}
}

// Render builds the wallet payload for a pass, attempts the API upsert,
// and produces the save URL. Only payload construction and URL signing
// can fail; a rejected upsert degrades to a skipped outcome.
func (r *Renderer) Render(ctx context.Context, p *store.Pass, prof *profile.Profile) (*Artifact, error) {
	if p.Profile == profile.Loyalty && p.Kind == store.KindParent {
		return r.renderClass(ctx, p)
	}

	obj, err := BuildObject(r.cfg.IssuerID, p, prof)
	if err != nil {
		return nil, fmt.Errorf("generating google wallet object: %w", err)
	}

	resource := "genericObject"
	if p.Profile == profile.Loyalty {
		resource = "loyaltyObject"
	}
	outcome := r.client.Upsert(ctx, resource, ObjectID(r.cfg.IssuerID, p), obj)
	if outcome.Status == UpsertSkipped {
		r.logger.Warn("wallet object upsert skipped",
			"pass_id", p.ID,
			"reason", outcome.Reason)
	}

	saveURL, err := SaveURL(r.account, obj)
	if err != nil {
		return nil, fmt.Errorf("generating google wallet object: %w", err)
	}

	return &Artifact{
		Object:  obj,
		ClassID: ClassID(r.cfg.IssuerID, p),
		SaveURL: saveURL,
		Upsert:  outcome,
	}, nil
}

// renderClass handles loyalty parents, which become shared classes for
// the program's cards rather than saveable objects.
func (r *Renderer) renderClass(ctx context.Context, p *store.Pass) (*Artifact, error) {
	class, err := BuildLoyaltyClass(r.cfg.IssuerID, r.cfg.CallbackURL, p)
	if err != nil {
		return nil, fmt.Errorf("generating google wallet class: %w", err)
	}

	classID := ClassID(r.cfg.IssuerID, p)
	outcome := r.client.Upsert(ctx, "loyaltyClass", classID, class)
	if outcome.Status == UpsertSkipped {
		r.logger.Warn("wallet class upsert skipped",
			"pass_id", p.ID,
			"reason", outcome.Reason)
	}

	return &Artifact{
		Object:  class,
		ClassID: classID,
		Upsert:  outcome,
	}, nil
}
