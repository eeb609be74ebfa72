// ABOUTME: Tests for the profile registry including lookup, status flows, and TOML overrides.
// ABOUTME: Validates the fixed three-profile configuration stays well-formed.

package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()

	t.Run("returns registered profiles", func(t *testing.T) {
		for _, name := range []string{Logistics, Healthcare, Loyalty} {
			p, err := r.Get(name)
			if err != nil {
				t.Fatalf("unexpected error for %s: %v", name, err)
			}
			if p.Name != name {
				t.Errorf("expected name %q, got %q", name, p.Name)
			}
			if len(p.StatusFlow) == 0 {
				t.Errorf("profile %s has empty status flow", name)
			}
		}
	})

	t.Run("returns ErrProfileNotFound for unknown name", func(t *testing.T) {
		_, err := r.Get("banking")
		if !errors.Is(err, ErrProfileNotFound) {
			t.Errorf("expected ErrProfileNotFound, got %v", err)
		}
	})

	t.Run("lists all profile names sorted", func(t *testing.T) {
		names := r.List()
		want := []string{Healthcare, Logistics, Loyalty}
		if len(names) != len(want) {
			t.Fatalf("expected %d names, got %d", len(want), len(names))
		}
		for i := range want {
			if names[i] != want[i] {
				t.Errorf("expected names[%d]=%q, got %q", i, want[i], names[i])
			}
		}
	})
}

func TestStatusFlows(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		profile string
		flow    []string
	}{
		{Logistics, []string{"ISSUED", "PRESENCE", "SCALE", "OPS", "EXITED"}},
		{Healthcare, []string{"SCHEDULED", "CHECKIN", "PROCEDURE", "DISCHARGED"}},
		{Loyalty, []string{"ACTIVE", "SUSPENDED"}},
	}

	for _, tt := range tests {
		t.Run(tt.profile, func(t *testing.T) {
			p, err := r.Get(tt.profile)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(p.StatusFlow) != len(tt.flow) {
				t.Fatalf("expected %d statuses, got %d", len(tt.flow), len(p.StatusFlow))
			}
			for i, s := range tt.flow {
				if p.StatusFlow[i] != s {
					t.Errorf("flow[%d]: expected %q, got %q", i, s, p.StatusFlow[i])
				}
			}
			if p.InitialStatus() != tt.flow[0] {
				t.Errorf("expected initial status %q, got %q", tt.flow[0], p.InitialStatus())
			}
			if !p.ValidStatus(tt.flow[len(tt.flow)-1]) {
				t.Error("terminal status should be valid")
			}
			if p.ValidStatus("BOGUS_STATUS") {
				t.Error("unknown status should not be valid")
			}
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.toml")
	content := `
[profiles.logistics]
logo_text = "Acme Yard"
background_color = "rgb(0,0,0)"
hex_background_color = "#000000"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	base := NewRegistry()
	r, err := base.LoadOverrides(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, err := r.Get(Logistics)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.Templates.AppleChild["logoText"]; got != "Acme Yard" {
		t.Errorf("expected overridden logoText, got %v", got)
	}
	if got := p.Templates.GoogleChild["hexBackgroundColor"]; got != "#000000" {
		t.Errorf("expected overridden hexBackgroundColor, got %v", got)
	}

	// Base registry untouched
	orig, _ := base.Get(Logistics)
	if got := orig.Templates.AppleChild["logoText"]; got != "Transport Order" {
		t.Errorf("expected base registry unchanged, got %v", got)
	}

	// Status flow not overridable
	if len(p.StatusFlow) != 5 || p.StatusFlow[0] != StatusIssued {
		t.Error("status flow must survive overrides unchanged")
	}

	t.Run("unknown profile in overrides fails", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.toml")
		if err := os.WriteFile(bad, []byte("[profiles.banking]\nlogo_text = \"x\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := base.LoadOverrides(bad)
		if !errors.Is(err, ErrProfileNotFound) {
			t.Errorf("expected ErrProfileNotFound, got %v", err)
		}
	})
}
