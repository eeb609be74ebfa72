// ABOUTME: Apple rendering adapter - merges templates with pass data into signed pkpass buffers
// ABOUTME: Precedence is base template < profile partial < instance metadata overrides

package apple

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sbcwallet/passbridge/internal/config"
	"github.com/sbcwallet/passbridge/internal/profile"
	"github.com/sbcwallet/passbridge/internal/render"
	"github.com/sbcwallet/passbridge/internal/store"
)

// Renderer turns lifecycle pass records into Apple Wallet pkpass buffers.
// Renders are side-effect-free with respect to the pass store; they read
// a snapshot and produce an artifact.
type Renderer struct {
	cfg    config.AppleConfig
	signer *Signer
	logger *slog.Logger
}

// NewRenderer creates an Apple renderer.
func NewRenderer(cfg config.AppleConfig, signer *Signer, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		cfg:    cfg,
		signer: signer,
		logger: logger.With("component", "apple"),
	}
}

// Render builds and signs a pkpass for the given pass record under its
// profile's templates. All failures, including the common
// missing-credentials case, come back wrapped and recoverable; the pass
// record itself stays valid regardless.
func (r *Renderer) Render(p *store.Pass, prof *profile.Profile, kind PassKind) ([]byte, error) {
	buf, err := r.render(p, prof, kind)
	if err != nil {
		return nil, fmt.Errorf("generating apple wallet pass: %w", err)
	}
	return buf, nil
}

func (r *Renderer) render(p *store.Pass, prof *profile.Profile, kind PassKind) ([]byte, error) {
	base, err := kind.baseTemplate()
	if err != nil {
		return nil, err
	}

	partial := prof.Templates.AppleChild
	if p.Kind == store.KindParent {
		partial = prof.Templates.AppleParent
	}

	passJSON := overlayScalars(base, partial)

	// Instance-level overrides from metadata.appleWallet win over the
	// profile partial, key by key.
	if block, ok := p.Metadata["appleWallet"].(map[string]any); ok {
		passJSON = overlayScalars(passJSON, block)
	}

	styleKey := kind.StyleKey()
	groups := mergeFieldGroups(base, partial, styleKey)
	passJSON[styleKey] = populateGroups(groups, p)

	passJSON["serialNumber"] = p.ID
	passJSON["description"] = describe(prof, p)
	passJSON["passTypeIdentifier"] = r.cfg.PassTypeIdentifier
	passJSON["teamIdentifier"] = r.cfg.TeamID
	if _, ok := passJSON["organizationName"]; !ok {
		passJSON["organizationName"] = r.cfg.OrganizationName
	}
	setBarcodeMessage(passJSON, render.Barcode(p))

	encoded, err := json.Marshal(passJSON)
	if err != nil {
		return nil, fmt.Errorf("encoding pass.json: %w", err)
	}

	r.logger.Debug("apple pass rendered",
		"pass_id", p.ID,
		"kind", string(kind),
		"signed", r.signer.Configured())
	return buildArchive(r.signer, encoded, nil)
}

// overlayScalars shallow-merges the overlay's top-level keys onto the
// base, skipping the style/group containers which merge per group.
func overlayScalars(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		if k == "generic" {
			continue
		}
		if _, isMap := v.(map[string]any); isMap {
			continue
		}
		out[k] = v
	}
	return out
}

// mergeFieldGroups resolves the field groups for the pass's style: the
// profile partial declares its groups under "generic" regardless of
// style, and each declared group replaces the base group wholesale.
func mergeFieldGroups(base, partial map[string]any, styleKey string) map[string]any {
	baseStyle, _ := base[styleKey].(map[string]any)
	if baseStyle == nil {
		baseStyle = map[string]any{}
	}
	profGroups, _ := partial["generic"].(map[string]any)
	if profGroups == nil {
		return baseStyle
	}
	return render.OverlayGroups(baseStyle, profGroups, fieldGroups)
}

// populateGroups resolves each field's value against the pass snapshot.
// Unresolvable keys yield empty strings, never errors.
func populateGroups(groups map[string]any, p *store.Pass) map[string]any {
	out := make(map[string]any, len(groups))
	for name, v := range groups {
		list, ok := v.([]any)
		if !ok {
			out[name] = v
			continue
		}
		populated := make([]any, 0, len(list))
		for _, item := range list {
			f, ok := item.(map[string]any)
			if !ok {
				continue
			}
			entry := make(map[string]any, len(f)+1)
			for k, fv := range f {
				entry[k] = fv
			}
			if _, has := entry["value"]; !has {
				key, _ := entry["key"].(string)
				entry["value"] = render.Resolve(key, p)
			}
			populated = append(populated, entry)
		}
		out[name] = populated
	}
	return out
}

// describe picks the pass description: the partial's logoText when set,
// the program name otherwise, the pass id as a last resort.
func describe(prof *profile.Profile, p *store.Pass) string {
	partial := prof.Templates.AppleChild
	if p.Kind == store.KindParent {
		partial = prof.Templates.AppleParent
	}
	if text, ok := partial["logoText"].(string); ok && text != "" {
		return text
	}
	if p.ProgramName != "" {
		return p.ProgramName
	}
	return p.ID
}

// setBarcodeMessage writes the barcode payload into every declared
// barcode entry.
func setBarcodeMessage(passJSON map[string]any, message string) {
	list, ok := passJSON["barcodes"].([]any)
	if !ok {
		passJSON["barcodes"] = []any{map[string]any{
			"format":          "PKBarcodeFormatQR",
			"message":         message,
			"messageEncoding": "iso-8859-1",
		}}
		return
	}
	updated := make([]any, 0, len(list))
	for _, item := range list {
		b, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entry := make(map[string]any, len(b)+1)
		for k, v := range b {
			entry[k] = v
		}
		entry["message"] = message
		updated = append(updated, entry)
	}
	passJSON["barcodes"] = updated
}
