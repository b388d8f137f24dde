package engine

import (
	"strings"

	"github.com/reviveci/revive/internal/build"
)

// Trigger family markers. Each cause description embeds its family's
// marker so the depth scan can count after-build and periodic restarts
// independently.
const (
	afterbuildMarker = "(Afterbuild restart)"
	periodicMarker   = "(Periodic restart)"
)

// withinDepth reports whether another automatic restart of the given
// trigger family is still allowed. maxDepth <= 0 means unlimited. The
// walk starts at the build under decision and follows the previous-build
// chain, counting builds whose cause belongs to the family; the build
// under decision carries no cause of its own yet, so the count covers
// prior attempts only. Builds without a cause, or caused by the other
// family, do not increment the count and do not stop the walk.
func withinDepth(b *build.Build, maxDepth int, familyMarker string) bool {
	if maxDepth <= 0 {
		return true
	}
	count := 0
	for ; b != nil; b = b.Previous() {
		if b.Cause == nil || !strings.Contains(b.Cause.Description, familyMarker) {
			continue
		}
		count++
		if count >= maxDepth {
			return false
		}
	}
	return true
}
