// ABOUTME: Google Wallet object and class construction from pass records
// ABOUTME: Merge precedence is base template < profile partial < computed fields < objectOverrides

package google

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/sbcwallet/passbridge/internal/profile"
	"github.com/sbcwallet/passbridge/internal/render"
	"github.com/sbcwallet/passbridge/internal/store"
)

//go:embed templates/*.json
var templateFS embed.FS

// statusColors maps a logistics/healthcare status to the object's
// background color. Loyalty skips this table and keeps its flat default.
var statusColors = map[string]string{
	"ISSUED":     "#102b4a",
	"PRESENCE":   "#1c6dd0",
	"SCALE":      "#b7791f",
	"OPS":        "#2f855a",
	"EXITED":     "#4a5568",
	"SCHEDULED":  "#0a5c56",
	"CHECKIN":    "#1c6dd0",
	"PROCEDURE":  "#b7791f",
	"DISCHARGED": "#4a5568",
}

// headerText maps profile and kind to the object's card title.
func headerText(profileName, kind string) string {
	switch profileName {
	case profile.Logistics:
		if kind == store.KindParent {
			return "Yard Schedule"
		}
		return "Transport Order"
	case profile.Healthcare:
		if kind == store.KindParent {
			return "Care Agenda"
		}
		return "Patient Visit"
	default:
		if kind == store.KindParent {
			return "Loyalty Program"
		}
		return "Loyalty Card"
	}
}

// bodyText resolves the object header body from pass data: customer name,
// member id, plate, patient name, then the pass id, first non-empty wins.
func bodyText(p *store.Pass) string {
	for _, candidate := range []string{p.CustomerName, p.MemberID, p.Plate, p.PatientName} {
		if candidate != "" {
			return candidate
		}
	}
	return p.ID
}

// loadTemplate parses an embedded base template.
func loadTemplate(name string) (map[string]any, error) {
	data, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return nil, fmt.Errorf("loading template %s: %w", name, err)
	}
	var tmpl map[string]any
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", name, err)
	}
	return tmpl, nil
}

// ObjectID builds the wallet object id for a pass.
func ObjectID(issuerID string, p *store.Pass) string {
	return issuerID + "." + p.ID
}

// ClassID builds the class a wallet object references: loyalty children
// share their program's class, everything else shares a per-profile,
// per-kind class.
func ClassID(issuerID string, p *store.Pass) string {
	if p.Profile == profile.Loyalty {
		if p.Kind == store.KindParent {
			return issuerID + "." + p.ID
		}
		return issuerID + "." + p.ParentID
	}
	return issuerID + "." + p.Profile + "_" + p.Kind
}

// BuildObject constructs the wallet object payload for a pass. Loyalty
// parents are classes, not objects; callers route them to
// BuildLoyaltyClass instead.
func BuildObject(issuerID string, p *store.Pass, prof *profile.Profile) (map[string]any, error) {
	templateName := "generic_object.json"
	if p.Profile == profile.Loyalty {
		templateName = "loyalty_object.json"
	}
	base, err := loadTemplate(templateName)
	if err != nil {
		return nil, err
	}

	partial := prof.Templates.GoogleChild
	if p.Kind == store.KindParent {
		partial = prof.Templates.GoogleParent
	}
	obj := render.Overlay(base, partial)

	obj["id"] = ObjectID(issuerID, p)
	obj["classId"] = ClassID(issuerID, p)
	obj["cardTitle"] = localized(headerText(p.Profile, p.Kind))
	obj["header"] = localized(bodyText(p))

	obj["textModulesData"] = populateModules(obj["textModulesData"], p)

	obj["barcode"] = map[string]any{
		"type":  "QR_CODE",
		"value": render.Barcode(p),
	}

	// Status-derived background for logistics/healthcare; loyalty keeps
	// its flat default.
	if p.Profile != profile.Loyalty {
		if color, ok := statusColors[p.Status]; ok {
			obj["hexBackgroundColor"] = color
		}
	}

	if p.Profile == profile.Loyalty {
		applyLoyaltyExtras(obj, p)
	}

	// The raw escape hatch wins over everything computed above.
	if overrides, ok := walletBlock(p)["objectOverrides"].(map[string]any); ok {
		obj = render.Overlay(obj, overrides)
	}
	return obj, nil
}

// populateModules resolves each text module's body against the pass via
// the shared dot-path logic, with explicit overrides for the window and
// status modules.
func populateModules(raw any, p *store.Pass) []any {
	list, ok := raw.([]any)
	if !ok {
		return []any{}
	}
	out := make([]any, 0, len(list))
	for _, item := range list {
		mod, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entry := make(map[string]any, len(mod)+1)
		for k, v := range mod {
			entry[k] = v
		}
		id, _ := entry["id"].(string)
		switch id {
		case "window":
			entry["body"] = render.WindowRange(p)
		case "status":
			entry["body"] = p.Status
		default:
			entry["body"] = render.Resolve(id, p)
		}
		out = append(out, entry)
	}
	return out
}

// applyLoyaltyExtras sets loyalty account fields and copies the caller's
// geo/links/image/message extras from the wallet metadata block.
func applyLoyaltyExtras(obj map[string]any, p *store.Pass) {
	obj["accountId"] = p.MemberID
	obj["accountName"] = p.CustomerName
	obj["loyaltyPoints"] = map[string]any{
		"label": "Points",
		"balance": map[string]any{
			"int": p.Points,
		},
	}

	block := walletBlock(p)
	if label, ok := block["pointsLabel"].(string); ok && label != "" {
		obj["loyaltyPoints"].(map[string]any)["label"] = label
	}
	for _, key := range []string{"locations", "linksModuleData", "imageModulesData", "messages"} {
		if v, ok := block[key]; ok {
			obj[key] = v
		}
	}
}

// walletBlock returns the pass's googleWallet metadata block, empty when
// absent.
func walletBlock(p *store.Pass) map[string]any {
	if block, ok := p.Metadata["googleWallet"].(map[string]any); ok {
		return block
	}
	return map[string]any{}
}

func localized(value string) map[string]any {
	return map[string]any{
		"defaultValue": map[string]any{
			"language": "en-US",
			"value":    value,
		},
	}
}
