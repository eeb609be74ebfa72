// ABOUTME: Loyalty class construction - the shared program definition member objects reference
// ABOUTME: Classes have no save URL; they exist so every card in a program shares one class

package google

import (
	"github.com/sbcwallet/passbridge/internal/render"
	"github.com/sbcwallet/passbridge/internal/store"
)

// BuildLoyaltyClass constructs the loyaltyClass payload for a loyalty
// program parent pass. Business and program metadata fold in through the
// pass's googleWallet block; a classOverrides escape hatch merges last.
func BuildLoyaltyClass(issuerID, callbackURL string, p *store.Pass) (map[string]any, error) {
	base, err := loadTemplate("loyalty_class.json")
	if err != nil {
		return nil, err
	}

	cls := make(map[string]any, len(base)+8)
	for k, v := range base {
		cls[k] = v
	}

	cls["id"] = ClassID(issuerID, p)
	if p.ProgramName != "" {
		cls["programName"] = p.ProgramName
	}

	block := walletBlock(p)
	if issuer, ok := block["issuerName"].(string); ok && issuer != "" {
		cls["issuerName"] = issuer
	}
	if color, ok := block["hexBackgroundColor"].(string); ok && color != "" {
		cls["hexBackgroundColor"] = color
	}
	if v, ok := block["locations"]; ok {
		cls["locations"] = v
	}
	if v, ok := block["countryCode"]; ok {
		cls["countryCode"] = v
	}
	if uri, ok := block["homepageUrl"].(string); ok && uri != "" {
		cls["homepageUri"] = map[string]any{"uri": uri}
	}
	if uri, ok := block["logoUrl"].(string); ok && uri != "" {
		cls["programLogo"] = imageModule(uri)
	}
	if uri, ok := block["heroImageUrl"].(string); ok && uri != "" {
		cls["heroImage"] = imageModule(uri)
	}
	if uri, ok := block["wordMarkUrl"].(string); ok && uri != "" {
		cls["wordMark"] = imageModule(uri)
	}
	if callbackURL != "" {
		cls["callbackOptions"] = map[string]any{"updateRequestUrl": callbackURL}
	}

	if overrides, ok := block["classOverrides"].(map[string]any); ok {
		cls = render.Overlay(cls, overrides)
	}
	return cls, nil
}

func imageModule(uri string) map[string]any {
	return map[string]any{
		"sourceUri": map[string]any{"uri": uri},
	}
}
