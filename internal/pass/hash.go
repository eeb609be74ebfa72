// ABOUTME: Integrity hash and signature computation for pass records
// ABOUTME: Change markers recomputed on every create/mutate, not a cryptographic guarantee

package pass

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/sbcwallet/passbridge/internal/store"
)

// sign recomputes and replaces the pass's hash and signature in place.
// UpdatedAt participates in the hash so every mutation yields fresh
// values even when the visible fields are unchanged.
func sign(p *store.Pass) {
	p.Hash = computeHash(p)
	p.Signature = computeSignature(p)
}

// computeHash digests the pass's canonical fields.
func computeHash(p *store.Pass) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%s|%d|%s|%d",
		p.ID, p.Kind, p.Profile, p.ParentID,
		p.ProgramName, p.Status, p.MemberID, p.Points,
		p.Plate, p.UpdatedAt.UnixNano())
	return hex.EncodeToString(h.Sum(nil))
}

// computeSignature digests the hash together with the pass identity.
// A real deployment can substitute an asymmetric scheme here without
// changing the engine's contract.
func computeSignature(p *store.Pass) string {
	h := sha256.New()
	h.Write([]byte(p.Hash))
	h.Write([]byte(p.ID))
	h.Write([]byte(strconv.FormatInt(p.UpdatedAt.UnixNano(), 10)))
	return hex.EncodeToString(h.Sum(nil))
}
