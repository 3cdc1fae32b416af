// Package target handles the target-folder side of a convergence run:
// snapshotting the artifacts currently present, deciding whether a
// record's artifact is stale, and materializing a record's file at its
// canonical path through a staged, atomic copy.
//
// The snapshot is only ever the universe for cleanup. Staleness
// decisions stat the specific target path directly, so a snapshot
// taken at run start can never mask a file that appeared or vanished
// since.
package target
