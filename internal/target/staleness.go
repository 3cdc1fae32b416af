package target

import (
	"os"
	"time"
)

// NeedsRefresh decides whether the artifact at targetPath must be
// (re)materialized for a record whose catalog timestamp is
// sourceLastModified.
//
// Absent target: always refresh. Present target: refresh iff the
// source is strictly later than the target's modification time. This
// is a heuristic freshness check under the single-writer assumption,
// not a content comparison: a target touched externally can read as
// fresh, and clock skew between catalog and filesystem can force a
// redundant copy. Both are accepted; re-running is always safe.
func NeedsRefresh(sourceLastModified time.Time, targetPath string) bool {
	info, err := os.Stat(targetPath)
	if err != nil {
		return true
	}
	return sourceLastModified.After(info.ModTime())
}
