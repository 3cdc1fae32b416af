// Package profile defines the immutable configuration value a
// convergence run is parameterized by: the naming template, the format
// preference order, field value remaps, and the sidecar metadata
// filename candidates.
//
// A profile is either the compiled-in default or loaded from a single
// CUE file. Loading goes through the CUE Go API directly and reports
// errors with file positions, so a malformed profile fails the run
// before any mutation with a message pointing at the offending field.
package profile
