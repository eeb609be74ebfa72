// ABOUTME: PassKind variants and their mapping onto Apple pass structures
// ABOUTME: Gift and transit have no native Apple equivalent and reuse storeCard/boardingPass

package apple

import (
	"embed"
	"encoding/json"
	"fmt"
)

//go:embed templates/*.json
var templateFS embed.FS

// PassKind identifies the pass layout variant.
type PassKind string

// Supported pass kinds.
const (
	KindBoarding PassKind = "boarding"
	KindEvent    PassKind = "event"
	KindStore    PassKind = "store"
	KindCoupon   PassKind = "coupon"
	KindGift     PassKind = "gift"
	KindTransit  PassKind = "transit"
	KindGeneric  PassKind = "generic"
)

// fieldGroups are the Apple field-group names merged per group during
// template overlay.
var fieldGroups = []string{
	"headerFields",
	"primaryFields",
	"secondaryFields",
	"auxiliaryFields",
	"backFields",
}

// StyleKey returns the Apple pass.json style dictionary key for the kind.
// Gift cards use the storeCard structure and transit passes the
// boardingPass structure, since Apple has no native equivalent.
func (k PassKind) StyleKey() string {
	switch k {
	case KindBoarding, KindTransit:
		return "boardingPass"
	case KindEvent:
		return "eventTicket"
	case KindStore, KindGift:
		return "storeCard"
	case KindCoupon:
		return "coupon"
	default:
		return "generic"
	}
}

// templateName returns the embedded base template file for the kind.
func (k PassKind) templateName() string {
	switch k.StyleKey() {
	case "boardingPass":
		return "templates/boarding_pass.json"
	case "eventTicket":
		return "templates/event_ticket.json"
	case "storeCard":
		return "templates/store_card.json"
	case "coupon":
		return "templates/coupon.json"
	default:
		return "templates/generic.json"
	}
}

// baseTemplate loads and parses the kind's embedded base template.
func (k PassKind) baseTemplate() (map[string]any, error) {
	data, err := templateFS.ReadFile(k.templateName())
	if err != nil {
		return nil, fmt.Errorf("loading base template for %s: %w", k, err)
	}
	var tmpl map[string]any
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing base template for %s: %w", k, err)
	}
	return tmpl, nil
}
