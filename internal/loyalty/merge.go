// ABOUTME: Wallet metadata merge rules for programs and cards
// ABOUTME: Documents the base < business < program < card precedence explicitly

package loyalty

import "github.com/sbcwallet/passbridge/internal/store"

// Wallet metadata block keys inside pass metadata.
const (
	googleWalletKey = "googleWallet"
	appleWalletKey  = "appleWallet"
)

// deepMergedSubKeys are the block sub-keys that merge one level deeper
// instead of being replaced wholesale when both sides define them.
var deepMergedSubKeys = []string{"locations", "countryCode", "homepageUrl"}

// programMetadata folds business identity and wallet theming into the
// program's metadata blocks, then applies the caller's program-level
// metadata with precedence. Precedence order: business theming <
// program metadata, merged one level deep per wallet block.
func programMetadata(b *store.Business, programMeta map[string]any) map[string]any {
	base := map[string]any{
		googleWalletKey: map[string]any{
			"issuerName":  b.Name,
			"programName": b.ProgramName,
			"pointsLabel": b.PointsLabel,
		},
		appleWalletKey: map[string]any{
			"organizationName": b.Name,
			"logoText":         b.ProgramName,
		},
	}
	if g, ok := b.Wallet[googleWalletKey].(map[string]any); ok {
		base[googleWalletKey] = mergeWalletBlock(base[googleWalletKey].(map[string]any), g)
	}
	if a, ok := b.Wallet[appleWalletKey].(map[string]any); ok {
		base[appleWalletKey] = mergeWalletBlock(base[appleWalletKey].(map[string]any), a)
	}
	return mergeMetadata(base, programMeta)
}

// mergeMetadata merges two metadata records with override precedence.
// Top-level keys are replaced wholesale, except the wallet blocks, which
// merge one level deep via mergeWalletBlock.
func mergeMetadata(base, override map[string]any) map[string]any {
	if base == nil && override == nil {
		return nil
	}
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if k == googleWalletKey || k == appleWalletKey {
			if baseBlock, ok := out[k].(map[string]any); ok {
				if ovBlock, ok := v.(map[string]any); ok {
					out[k] = mergeWalletBlock(baseBlock, ovBlock)
					continue
				}
			}
		}
		out[k] = v
	}
	return out
}

// mergeWalletBlock merges a wallet block field-by-field: override keys
// win, base keys absent from the override survive. The named sub-keys in
// deepMergedSubKeys merge one further level when both sides hold maps;
// everything else is replaced at this level.
func mergeWalletBlock(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if isDeepMergedKey(k) {
			if baseSub, ok := out[k].(map[string]any); ok {
				if ovSub, ok := v.(map[string]any); ok {
					merged := make(map[string]any, len(baseSub)+len(ovSub))
					for sk, sv := range baseSub {
						merged[sk] = sv
					}
					for sk, sv := range ovSub {
						merged[sk] = sv
					}
					out[k] = merged
					continue
				}
			}
		}
		out[k] = v
	}
	return out
}

func isDeepMergedKey(k string) bool {
	for _, candidate := range deepMergedSubKeys {
		if k == candidate {
			return true
		}
	}
	return false
}
