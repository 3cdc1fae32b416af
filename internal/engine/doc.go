// Package engine drives a convergence run: one linear pass over the
// catalog that makes the target folder and sidecar tree reflect the
// current library contents under the canonical naming scheme.
//
// Per record the driver resolves a format, consults the staleness
// check, conditionally materializes, and reconciles the record's
// sidecar entries; the canonical names it produces form the kept set,
// and a terminal cleanup deletes every snapshot artifact outside it.
// Failures local to one record are recorded on the run report and
// processing continues; only failures before the first record (bad
// paths, unreachable catalog) abort the run.
//
// Records are processed sequentially in catalog order. Catalog exports
// may shell out to a single-instance external process behind the
// scenes, so the baseline never materializes concurrently; re-running
// the whole pass is the recovery mechanism for interruptions.
package engine
