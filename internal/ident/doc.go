// Package ident extracts the numeric correlation id embedded in
// filesystem names by the shared naming convention.
//
// Any name ending in "(<digits>)<suffix>" carries the id <digits>,
// where <suffix> is a book format extension for files or the sidecar
// directory suffix for reader-state directories. The id is the durable
// link between a catalog record, its materialized file, and its
// sidecar entry; filenames around it are free to change.
package ident
