// ABOUTME: Fixed registry of the three pass profiles and their configuration.
// ABOUTME: Declares status flows, field maps, and default rendering templates per platform.

package profile

import (
	"errors"
	"fmt"
	"sort"
)

// ErrProfileNotFound indicates the named profile is not registered.
var ErrProfileNotFound = errors.New("profile not found")

// Registered profile names.
const (
	Logistics  = "logistics"
	Healthcare = "healthcare"
	Loyalty    = "loyalty"
)

// Logistics status flow.
const (
	StatusIssued   = "ISSUED"
	StatusPresence = "PRESENCE"
	StatusScale    = "SCALE"
	StatusOps      = "OPS"
	StatusExited   = "EXITED"
)

// Healthcare status flow.
const (
	StatusScheduled  = "SCHEDULED"
	StatusCheckin    = "CHECKIN"
	StatusProcedure  = "PROCEDURE"
	StatusDischarged = "DISCHARGED"
)

// Loyalty status flow.
const (
	StatusActive    = "ACTIVE"
	StatusSuspended = "SUSPENDED"
)

// FieldMap documents the semantic field -> display label mapping for a
// profile, separately for parent and child passes. Documentation-only:
// rendering reads labels from the default templates, not from here.
type FieldMap struct {
	Parent map[string]string
	Child  map[string]string
}

// Templates holds the per-platform default rendering partials for a
// profile. Apple partials overlay the base pass.json template; Google
// partials overlay the base wallet object template.
type Templates struct {
	AppleParent  map[string]any
	AppleChild   map[string]any
	GoogleParent map[string]any
	GoogleChild  map[string]any
}

// Profile is an immutable named configuration: the legal status
// sequence, field labels, id prefix, and default templates for a pass
// family. Index 0 of StatusFlow is the initial status.
type Profile struct {
	Name       string
	IDPrefix   string
	StatusFlow []string
	FieldMap   FieldMap
	Templates  Templates
}

// InitialStatus returns the first status of the profile's flow.
func (p *Profile) InitialStatus() string {
	return p.StatusFlow[0]
}

// ValidStatus reports whether s is a member of the profile's status flow.
// Membership, not adjacency: any declared status is reachable from any
// other, including backward.
func (p *Profile) ValidStatus(s string) bool {
	for _, candidate := range p.StatusFlow {
		if candidate == s {
			return true
		}
	}
	return false
}

// Registry holds the registered profiles. Profiles are created once at
// construction and never mutated, so reads need no synchronization.
type Registry struct {
	profiles map[string]*Profile
}

// NewRegistry creates a Registry with the three built-in profiles.
func NewRegistry() *Registry {
	r := &Registry{profiles: make(map[string]*Profile)}
	for _, p := range builtinProfiles() {
		r.profiles[p.Name] = p
	}
	return r
}

// Get returns the named profile.
// Returns ErrProfileNotFound if the name is not registered.
func (r *Registry) Get(name string) (*Profile, error) {
	p, ok := r.profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	return p, nil
}

// List returns the registered profile names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// builtinProfiles constructs the three fixed profile configurations.
func builtinProfiles() []*Profile {
	return []*Profile{
		{
			Name:       Logistics,
			IDPrefix:   "PES",
			StatusFlow: []string{StatusIssued, StatusPresence, StatusScale, StatusOps, StatusExited},
			FieldMap: FieldMap{
				Parent: map[string]string{
					"programName": "Program",
					"site":        "Site",
					"windowFrom":  "Window opens",
					"windowTo":    "Window closes",
					"scheduleId":  "Schedule",
				},
				Child: map[string]string{
					"plate":   "Plate",
					"carrier": "Carrier",
					"client":  "Client",
					"orderId": "Order",
					"status":  "Status",
				},
			},
			Templates: Templates{
				AppleParent: map[string]any{
					"logoText":        "Yard Schedule",
					"backgroundColor": "rgb(16,43,74)",
					"foregroundColor": "rgb(255,255,255)",
					"generic": map[string]any{
						"primaryFields": []any{
							field("programName", "Program"),
						},
						"secondaryFields": []any{
							field("site", "Site"),
							field("windowFrom", "Window opens"),
						},
						"auxiliaryFields": []any{
							field("windowTo", "Window closes"),
						},
						"backFields": []any{
							field("scheduleId", "Schedule"),
						},
					},
				},
				AppleChild: map[string]any{
					"logoText":        "Transport Order",
					"backgroundColor": "rgb(16,43,74)",
					"foregroundColor": "rgb(255,255,255)",
					"generic": map[string]any{
						"primaryFields": []any{
							field("plate", "Plate"),
						},
						"secondaryFields": []any{
							field("carrier", "Carrier"),
							field("client", "Client"),
						},
						"auxiliaryFields": []any{
							field("status", "Status"),
						},
						"backFields": []any{
							field("orderId", "Order"),
						},
					},
				},
				GoogleParent: map[string]any{
					"hexBackgroundColor": "#102b4a",
					"textModulesData": []any{
						module("programName", "Program"),
						module("site", "Site"),
						module("window", "Window"),
					},
				},
				GoogleChild: map[string]any{
					"hexBackgroundColor": "#102b4a",
					"textModulesData": []any{
						module("plate", "Plate"),
						module("carrier", "Carrier"),
						module("status", "Status"),
					},
				},
			},
		},
		{
			Name:       Healthcare,
			IDPrefix:   "APB",
			StatusFlow: []string{StatusScheduled, StatusCheckin, StatusProcedure, StatusDischarged},
			FieldMap: FieldMap{
				Parent: map[string]string{
					"programName": "Agenda",
					"site":        "Facility",
					"windowFrom":  "Opens",
					"windowTo":    "Closes",
					"batchId":     "Agenda",
				},
				Child: map[string]string{
					"patientName": "Patient",
					"procedure":   "Procedure",
					"doctor":      "Doctor",
					"visitId":     "Visit",
					"status":      "Status",
				},
			},
			Templates: Templates{
				AppleParent: map[string]any{
					"logoText":        "Care Agenda",
					"backgroundColor": "rgb(10,92,86)",
					"foregroundColor": "rgb(255,255,255)",
					"generic": map[string]any{
						"primaryFields": []any{
							field("programName", "Agenda"),
						},
						"secondaryFields": []any{
							field("site", "Facility"),
							field("windowFrom", "Opens"),
						},
						"backFields": []any{
							field("batchId", "Agenda"),
						},
					},
				},
				AppleChild: map[string]any{
					"logoText":        "Patient Visit",
					"backgroundColor": "rgb(10,92,86)",
					"foregroundColor": "rgb(255,255,255)",
					"generic": map[string]any{
						"primaryFields": []any{
							field("patientName", "Patient"),
						},
						"secondaryFields": []any{
							field("procedure", "Procedure"),
							field("doctor", "Doctor"),
						},
						"auxiliaryFields": []any{
							field("status", "Status"),
						},
						"backFields": []any{
							field("visitId", "Visit"),
						},
					},
				},
				GoogleParent: map[string]any{
					"hexBackgroundColor": "#0a5c56",
					"textModulesData": []any{
						module("programName", "Agenda"),
						module("site", "Facility"),
						module("window", "Window"),
					},
				},
				GoogleChild: map[string]any{
					"hexBackgroundColor": "#0a5c56",
					"textModulesData": []any{
						module("patientName", "Patient"),
						module("procedure", "Procedure"),
						module("status", "Status"),
					},
				},
			},
		},
		{
			Name:       Loyalty,
			IDPrefix:   "LPR",
			StatusFlow: []string{StatusActive, StatusSuspended},
			FieldMap: FieldMap{
				Parent: map[string]string{
					"programName": "Program",
				},
				Child: map[string]string{
					"customerName": "Member",
					"memberId":     "Member ID",
					"points":       "Points",
					"status":       "Status",
				},
			},
			Templates: Templates{
				AppleParent: map[string]any{
					"logoText":        "Loyalty Program",
					"backgroundColor": "rgb(58,16,74)",
					"foregroundColor": "rgb(255,255,255)",
					"generic": map[string]any{
						"primaryFields": []any{
							field("programName", "Program"),
						},
					},
				},
				AppleChild: map[string]any{
					"logoText":        "Loyalty Card",
					"backgroundColor": "rgb(58,16,74)",
					"foregroundColor": "rgb(255,255,255)",
					"generic": map[string]any{
						"primaryFields": []any{
							field("customerName", "Member"),
						},
						"secondaryFields": []any{
							field("points", "Points"),
						},
						"backFields": []any{
							field("memberId", "Member ID"),
						},
					},
				},
				GoogleParent: map[string]any{
					"hexBackgroundColor": "#3a104a",
				},
				GoogleChild: map[string]any{
					"hexBackgroundColor": "#3a104a",
					"textModulesData": []any{
						module("customerName", "Member"),
						module("points", "Points"),
						module("status", "Status"),
					},
				},
			},
		},
	}
}

// field builds an Apple field entry: the key doubles as the semantic
// lookup path during rendering; value is populated at render time.
func field(key, label string) map[string]any {
	return map[string]any{"key": key, "label": label}
}

// module builds a Google textModulesData entry.
func module(id, header string) map[string]any {
	return map[string]any{"id": id, "header": header}
}
