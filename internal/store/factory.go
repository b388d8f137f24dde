package store

import (
	"fmt"
	"strings"
)

// SupportedDrivers enumerates the persistence drivers a config file may
// select.
var SupportedDrivers = []string{"bbolt", "json"}

// NewStore opens the build history and restart ledger under the given
// driver. "bbolt" keeps everything in a single BoltDB file and is the
// default; "json" writes a plain JSON file that is easy to inspect when
// debugging restart decisions. Both drivers persist the same three
// record kinds: per-job build chains, pending-cause slots, and the
// restart ledger.
func NewStore(driver, path string) (Store, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))

	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}

	switch driver {
	case "bbolt":
		return NewBoltStore(path)
	case "json":
		return NewJSONStore(path)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s (supported: %v)", driver, SupportedDrivers)
	}
}
