// Package catalog provides read-only access to the library catalog: a
// Calibre-style SQLite database (metadata.db) sitting at the root of a
// library directory tree that also holds the stored book files.
//
// The catalog is the source of truth for the convergence run. It is
// consumed through two operations: Enumerate, which reads every record
// with its author/series/format joins and custom fields, and Export,
// which materializes one record's stored file at a caller-chosen path
// preserving the source modification time.
//
// Custom columns are discovered once at open time and resolved into a
// tagged variant (plain value column vs. enumeration join table), so
// record enumeration never dispatches on column datatype per row.
package catalog
