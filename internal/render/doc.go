// Package render derives canonical target names from catalog records.
//
// A naming template is a plain string with substitution segments:
//
//	{field}              value of field, "" when absent
//	{field:|pre|post}    pre + value + post, only when field is present
//
// pre and post may themselves contain substitution segments, which is
// how series markers nest an index inside a conditional bracket:
//
//	{title}{series:| [| #{series_index}]} - {author_sort}
//
// Rendering is a pure function of the record and profile: the same
// inputs always produce byte-identical output, which the convergence
// engine relies on for idempotence. Output is NFC-normalized and
// sanitized for filesystem use before the correlation id and format
// extension are appended.
package render
