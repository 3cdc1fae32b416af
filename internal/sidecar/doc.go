// Package sidecar indexes and reconciles reader-state directories.
//
// A sidecar entry is a directory named "<base> (<id>).sdr" holding the
// reader's per-book state (position, bookmarks, highlights) plus a
// structured metadata file whose "doc_path" field records the absolute
// path of the book file the state belongs to.
//
// The index is built once per run by walking the sidecar tree; matched
// directories are never descended into, since their interior belongs
// to the reader. Reconciliation then keeps each entry attached to its
// record as canonical names change: the directory is renamed to the
// canonical base name and the doc_path value is patched in place,
// leaving every other byte of the metadata file untouched.
package sidecar
