// ABOUTME: Template overlay helpers shared by the rendering adapters
// ABOUTME: Precedence is always base < profile < instance < explicit override

package render

// Overlay shallow-merges overlay onto base: overlay keys win, base keys
// absent from the overlay survive. Neither input is modified.
func Overlay(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

// OverlayGroups merges Apple-style field-group objects: each named group
// present in the overlay replaces the base group wholesale; base groups
// with no overlay counterpart fall through. There is no per-field merge
// within a group.
func OverlayGroups(base, overlay map[string]any, groups []string) map[string]any {
	out := make(map[string]any, len(base))
	for k, v := range base {
		out[k] = v
	}
	for _, g := range groups {
		if v, ok := overlay[g]; ok {
			out[g] = v
		}
	}
	return out
}
