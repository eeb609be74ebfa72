// ABOUTME: Per-kind pass builders for the multi-type surface
// ABOUTME: One builder per PassKind producing the field layout and its barcode source

package apple

import (
	"encoding/json"
	"fmt"
)

// Field is a single display field on a built pass.
type Field struct {
	Key   string
	Label string
	Value string
}

// PassInput describes a pass for the multi-type surface. Only the
// fields relevant to the chosen kind need to be set; the per-kind
// builder picks its barcode source from them.
type PassInput struct {
	Kind     PassKind
	Title    string
	Subtitle string

	// Barcode sources, one per kind
	ConfirmationCode string // boarding
	TicketNumber     string // event, transit
	MemberID         string // store card
	PromoCode        string // coupon
	CardNumber       string // gift card
	BarcodeValue     string // generic (explicit)

	Header    []Field
	Primary   []Field
	Secondary []Field
	Auxiliary []Field
	Back      []Field
}

// builtLayout is what a kind builder produces: the style dictionary
// contents plus the barcode payload.
type builtLayout struct {
	groups  map[string]any
	barcode string
}

// build dispatches to the kind's builder.
func build(in PassInput) builtLayout {
	switch in.Kind {
	case KindBoarding:
		return buildBoarding(in)
	case KindEvent:
		return buildEvent(in)
	case KindStore:
		return buildStore(in)
	case KindCoupon:
		return buildCoupon(in)
	case KindGift:
		return buildGift(in)
	case KindTransit:
		return buildTransit(in)
	default:
		return buildGeneric(in)
	}
}

func buildBoarding(in PassInput) builtLayout {
	groups := layoutGroups(in)
	groups["transitType"] = "PKTransitTypeGeneric"
	return builtLayout{groups: groups, barcode: in.ConfirmationCode}
}

func buildEvent(in PassInput) builtLayout {
	return builtLayout{groups: layoutGroups(in), barcode: in.TicketNumber}
}

func buildStore(in PassInput) builtLayout {
	return builtLayout{groups: layoutGroups(in), barcode: in.MemberID}
}

func buildCoupon(in PassInput) builtLayout {
	return builtLayout{groups: layoutGroups(in), barcode: in.PromoCode}
}

// Gift cards ride on the storeCard structure.
func buildGift(in PassInput) builtLayout {
	return builtLayout{groups: layoutGroups(in), barcode: in.CardNumber}
}

// Transit passes ride on the boardingPass structure.
func buildTransit(in PassInput) builtLayout {
	groups := layoutGroups(in)
	groups["transitType"] = "PKTransitTypeGeneric"
	return builtLayout{groups: groups, barcode: in.TicketNumber}
}

func buildGeneric(in PassInput) builtLayout {
	return builtLayout{groups: layoutGroups(in), barcode: in.BarcodeValue}
}

// layoutGroups converts the input's field lists into Apple field groups,
// prepending the title as the first primary field when no primary
// fields were supplied.
func layoutGroups(in PassInput) map[string]any {
	primary := in.Primary
	if len(primary) == 0 && in.Title != "" {
		primary = []Field{{Key: "title", Label: in.Subtitle, Value: in.Title}}
	}
	return map[string]any{
		"headerFields":    fieldList(in.Header),
		"primaryFields":   fieldList(primary),
		"secondaryFields": fieldList(in.Secondary),
		"auxiliaryFields": fieldList(in.Auxiliary),
		"backFields":      fieldList(in.Back),
	}
}

func fieldList(fields []Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, map[string]any{
			"key":   f.Key,
			"label": f.Label,
			"value": f.Value,
		})
	}
	return out
}

// RenderInput builds and signs a pkpass from a multi-type PassInput.
// serial becomes the pass serial number.
func (r *Renderer) RenderInput(serial string, in PassInput) ([]byte, error) {
	buf, err := r.renderInput(serial, in)
	if err != nil {
		return nil, fmt.Errorf("generating apple wallet pass: %w", err)
	}
	return buf, nil
}

func (r *Renderer) renderInput(serial string, in PassInput) ([]byte, error) {
	base, err := in.Kind.baseTemplate()
	if err != nil {
		return nil, err
	}

	layout := build(in)

	passJSON := make(map[string]any, len(base)+6)
	for k, v := range base {
		passJSON[k] = v
	}
	passJSON[in.Kind.StyleKey()] = layout.groups
	passJSON["serialNumber"] = serial
	passJSON["description"] = in.Title
	passJSON["passTypeIdentifier"] = r.cfg.PassTypeIdentifier
	passJSON["teamIdentifier"] = r.cfg.TeamID
	passJSON["organizationName"] = r.cfg.OrganizationName
	setBarcodeMessage(passJSON, layout.barcode)

	encoded, err := json.Marshal(passJSON)
	if err != nil {
		return nil, fmt.Errorf("encoding pass.json: %w", err)
	}

	r.logger.Debug("apple pass rendered from input",
		"serial", serial,
		"kind", string(in.Kind))
	return buildArchive(r.signer, encoded, nil)
}
