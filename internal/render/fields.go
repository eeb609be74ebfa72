// ABOUTME: Semantic field resolution shared by the Apple and Google adapters
// ABOUTME: Maps (semantic key, pass snapshot) to a formatted display string

package render

import (
	"strconv"
	"strings"
	"time"

	"github.com/sbcwallet/passbridge/internal/store"
)

// displayTimeFormat is how window timestamps render on passes.
const displayTimeFormat = "Jan 2, 2006 15:04"

// Resolve maps a semantic key to its display value for the given pass.
// Unresolvable keys yield an empty string rather than failing. The alias
// cases (scheduleId/orderId/batchId/visitId all mean the pass id) are
// explicit, as are the formatted window aliases; everything else falls
// through to field lookup and metadata dot-path traversal.
func Resolve(key string, p *store.Pass) string {
	switch key {
	case "id", "scheduleId", "orderId", "batchId", "visitId":
		return p.ID
	case "parentId":
		return p.ParentID
	case "windowFrom":
		if p.Window != nil {
			return formatWindowTime(p.Window.From)
		}
		return ""
	case "windowTo":
		if p.Window != nil {
			return formatWindowTime(p.Window.To)
		}
		return ""
	case "window":
		return WindowRange(p)
	case "window.from":
		if p.Window != nil {
			return p.Window.From
		}
		return ""
	case "window.to":
		if p.Window != nil {
			return p.Window.To
		}
		return ""
	case "programName":
		return p.ProgramName
	case "site":
		return p.Site
	case "capacity":
		if p.Capacity > 0 {
			return strconv.Itoa(p.Capacity)
		}
		return ""
	case "plate":
		return p.Plate
	case "carrier":
		return p.Carrier
	case "client":
		return p.Client
	case "patientName":
		return p.PatientName
	case "procedure":
		return p.Procedure
	case "doctor":
		return p.Doctor
	case "businessId":
		return p.BusinessID
	case "customerId":
		return p.CustomerID
	case "customerName":
		return p.CustomerName
	case "memberId":
		return p.MemberID
	case "points":
		return strconv.Itoa(p.Points)
	case "status":
		return p.Status
	}

	if rest, ok := strings.CutPrefix(key, "metadata."); ok {
		return resolveMetadataPath(p.Metadata, rest)
	}
	return ""
}

// Barcode returns the canonical barcode payload for a pass: the loyalty
// member id when present, the pass id otherwise.
func Barcode(p *store.Pass) string {
	if p.MemberID != "" {
		return p.MemberID
	}
	return p.ID
}

// WindowRange formats a parent's validity window as a dash-joined range.
func WindowRange(p *store.Pass) string {
	if p.Window == nil {
		return ""
	}
	from := formatWindowTime(p.Window.From)
	to := formatWindowTime(p.Window.To)
	switch {
	case from != "" && to != "":
		return from + " - " + to
	case from != "":
		return from
	default:
		return to
	}
}

// formatWindowTime renders an ISO-8601-ish timestamp for display,
// falling back to the raw string when it does not parse.
func formatWindowTime(value string) string {
	if value == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(displayTimeFormat)
		}
	}
	return value
}

// resolveMetadataPath walks a dot-path through nested metadata maps.
func resolveMetadataPath(meta map[string]any, path string) string {
	var current any = meta
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current, ok = m[part]
		if !ok {
			return ""
		}
	}
	switch v := current.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
