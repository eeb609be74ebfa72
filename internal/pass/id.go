// ABOUTME: Pass id generation - profile-prefixed, date-stamped, random-suffixed
// ABOUTME: Child ids embed the parent's trailing fragment for traceability

package pass

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// randSuffix returns a short random fragment derived from a fresh UUID.
func randSuffix() string {
	return uuid.NewString()[:4]
}

// newParentID builds a parent pass id: {prefix}-{YYYYMMDD}-{4-char-random}.
func newParentID(prefix string, now time.Time) string {
	return prefix + "-" + now.Format("20060102") + "-" + randSuffix()
}

// newChildID builds a child pass id embedding the parent's trailing id
// fragment: {prefix}-{parentFragment}-{4-char-random}.
func newChildID(prefix, parentID string) string {
	fragment := parentID
	if idx := strings.LastIndex(parentID, "-"); idx >= 0 {
		fragment = parentID[idx+1:]
	}
	return prefix + "-" + fragment + "-" + randSuffix()
}
