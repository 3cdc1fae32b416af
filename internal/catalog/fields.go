package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// fieldKind discriminates how a custom column stores its values.
type fieldKind int

const (
	// fieldPlain stores values directly in custom_column_<id>.value.
	fieldPlain fieldKind = iota
	// fieldEnumeration stores values in custom_column_<id> rows
	// referenced through books_customcolumn_<id>_link.
	fieldEnumeration
)

// customField is one resolved custom column. The kind is decided once
// at open time so enumeration never type-checks per record.
type customField struct {
	id       int64
	label    string
	datatype string
	kind     fieldKind
}

// resolveCustomFields discovers the catalog's custom columns and
// resolves each into its dispatch variant. Columns with datatypes the
// renderer cannot consume (composites, timestamps, ratings and the
// like) are skipped with a debug log, not an error.
func (c *SQLite) resolveCustomFields(ctx context.Context) error {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, label, datatype, normalized
		FROM custom_columns
		ORDER BY id ASC
	`)
	if err != nil {
		// Older or minimal catalogs may lack the table entirely.
		slog.Debug("no custom columns table", "error", err)
		return nil
	}
	defer rows.Close()

	for rows.Next() {
		var f customField
		var normalized int
		if err := rows.Scan(&f.id, &f.label, &f.datatype, &normalized); err != nil {
			return fmt.Errorf("scan custom column: %w", err)
		}
		switch f.datatype {
		case "text", "enumeration", "int":
		default:
			slog.Debug("skipping custom column", "label", f.label, "datatype", f.datatype)
			continue
		}
		if normalized != 0 {
			f.kind = fieldEnumeration
		} else {
			f.kind = fieldPlain
		}
		c.fields = append(c.fields, f)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate custom columns: %w", err)
	}

	return nil
}

// readCustomFields fills each record's Extra map, one batched query
// per resolved column.
func (c *SQLite) readCustomFields(ctx context.Context, records []Record, index map[int64]int) error {
	for _, f := range c.fields {
		if err := c.readCustomField(ctx, f, records, index); err != nil {
			return err
		}
	}
	return nil
}

// readCustomField runs the query shape selected by the field's kind
// and merges the values into the records.
func (c *SQLite) readCustomField(ctx context.Context, f customField, records []Record, index map[int64]int) error {
	var rows *sql.Rows
	var err error
	switch f.kind {
	case fieldEnumeration:
		rows, err = c.db.QueryContext(ctx, fmt.Sprintf(`
			SELECT l.book, v.value
			FROM books_customcolumn_%d_link l
			JOIN custom_column_%d v ON v.id = l.value
		`, f.id, f.id))
	default:
		rows, err = c.db.QueryContext(ctx, fmt.Sprintf(`
			SELECT book, value
			FROM custom_column_%d
		`, f.id))
	}
	if err != nil {
		return fmt.Errorf("query custom column %q: %w", f.label, err)
	}
	defer rows.Close()

	for rows.Next() {
		var book int64
		var value FieldValue
		if f.datatype == "int" {
			var n int64
			if err := rows.Scan(&book, &n); err != nil {
				return fmt.Errorf("scan custom column %q: %w", f.label, err)
			}
			value = IntValue(n)
		} else {
			var s string
			if err := rows.Scan(&book, &s); err != nil {
				return fmt.Errorf("scan custom column %q: %w", f.label, err)
			}
			value = StringValue(s)
		}
		if i, ok := index[book]; ok {
			records[i].Extra[f.label] = value
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate custom column %q: %w", f.label, err)
	}

	return nil
}
