// ABOUTME: Optional TOML overrides for profile display configuration
// ABOUTME: Lets deployments re-theme templates without recompiling; status flows stay fixed

package profile

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

// Overrides is the TOML file shape: one table per profile name.
// Only display concerns are overridable; status flows are part of the
// state machine and cannot be changed here.
type Overrides struct {
	Profiles map[string]ProfileOverride `toml:"profiles"`
}

// ProfileOverride carries the per-profile theming knobs.
type ProfileOverride struct {
	LogoText           string `toml:"logo_text"`
	BackgroundColor    string `toml:"background_color"`
	ForegroundColor    string `toml:"foreground_color"`
	HexBackgroundColor string `toml:"hex_background_color"`
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnv replaces ${VAR_NAME} patterns with environment variable values.
func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

// LoadOverrides reads a TOML overrides file and returns a new Registry
// with the overrides applied on top of the built-in profiles. The
// receiver registry is not modified.
func (r *Registry) LoadOverrides(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading overrides file: %w", err)
	}

	var ov Overrides
	if err := toml.Unmarshal([]byte(expandEnv(string(data))), &ov); err != nil {
		return nil, fmt.Errorf("parsing overrides file: %w", err)
	}

	out := &Registry{profiles: make(map[string]*Profile, len(r.profiles))}
	for name, p := range r.profiles {
		out.profiles[name] = p
	}

	for name, o := range ov.Profiles {
		base, ok := out.profiles[name]
		if !ok {
			return nil, fmt.Errorf("%w: overrides reference %q", ErrProfileNotFound, name)
		}
		out.profiles[name] = applyOverride(base, o)
	}
	return out, nil
}

// applyOverride returns a copy of p with the override's non-empty
// fields written into its templates.
func applyOverride(p *Profile, o ProfileOverride) *Profile {
	cp := *p
	cp.Templates = Templates{
		AppleParent:  overrideApple(p.Templates.AppleParent, o),
		AppleChild:   overrideApple(p.Templates.AppleChild, o),
		GoogleParent: overrideGoogle(p.Templates.GoogleParent, o),
		GoogleChild:  overrideGoogle(p.Templates.GoogleChild, o),
	}
	return &cp
}

func overrideApple(tmpl map[string]any, o ProfileOverride) map[string]any {
	out := make(map[string]any, len(tmpl))
	for k, v := range tmpl {
		out[k] = v
	}
	if o.LogoText != "" {
		out["logoText"] = o.LogoText
	}
	if o.BackgroundColor != "" {
		out["backgroundColor"] = o.BackgroundColor
	}
	if o.ForegroundColor != "" {
		out["foregroundColor"] = o.ForegroundColor
	}
	return out
}

func overrideGoogle(tmpl map[string]any, o ProfileOverride) map[string]any {
	out := make(map[string]any, len(tmpl))
	for k, v := range tmpl {
		out[k] = v
	}
	if o.HexBackgroundColor != "" {
		out["hexBackgroundColor"] = o.HexBackgroundColor
	}
	return out
}
