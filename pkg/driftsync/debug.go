package driftsync

import (
	"os"
)

// DebugEnabled controls whether or not debugging is enabled for driftsync. It
// is set automatically based on the DRIFTSYNC_DEBUG environment variable.
var DebugEnabled bool

func init() {
	// Check whether or not debugging should be enabled.
	DebugEnabled = os.Getenv("DRIFTSYNC_DEBUG") == "1"
}
