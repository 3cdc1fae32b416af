package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// MetadataFile is the database filename at the root of a library tree.
const MetadataFile = "metadata.db"

// SQLite reads a Calibre-style metadata.db. It is the only Catalog
// implementation; tests construct it over fixture libraries.
type SQLite struct {
	db   *sql.DB
	root string

	// fields is the custom-column dispatch table, resolved once at
	// open time.
	fields []customField
}

var _ Catalog = (*SQLite)(nil)

// Open opens the catalog database inside libraryRoot read-only.
//
// The connection is configured with:
//   - mode=ro so a convergence run can never write the catalog
//   - 5-second busy timeout for lock contention with the library app
//
// Custom columns are discovered here; see fields.go.
func Open(libraryRoot string) (*SQLite, error) {
	dbPath := filepath.Join(libraryRoot, MetadataFile)
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("catalog database not found: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", url.PathEscape(dbPath))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to catalog database: %w", err)
	}

	// Single reader is plenty for a linear pass.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c := &SQLite{db: db, root: libraryRoot}
	if err := c.resolveCustomFields(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the database connection.
func (c *SQLite) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Root returns the library root directory the catalog was opened at.
func (c *SQLite) Root() string { return c.root }

// Enumerate returns every record ordered by id.
//
// The record core comes from the fixed five-table join (books, the
// authors link and authors, the series link and series); per-format
// availability comes from the data table; custom attributes from the
// resolved custom-column queries. All three reads are batched across
// the whole catalog rather than issued per record.
func (c *SQLite) Enumerate(ctx context.Context) ([]Record, error) {
	records, index, err := c.readRecordCores(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.readFormats(ctx, records, index); err != nil {
		return nil, err
	}

	if err := c.readCustomFields(ctx, records, index); err != nil {
		return nil, err
	}

	return records, nil
}

// readRecordCores reads the five-table join and returns records plus
// an index from record id to slice position.
func (c *SQLite) readRecordCores(ctx context.Context) ([]Record, map[int64]int, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT b.id, b.title,
		       COALESCE(NULLIF(b.author_sort, ''), a.sort, a.name, '') AS author_sort,
		       b.path,
		       COALESCE(b.series_index, 0),
		       b.last_modified,
		       COALESCE(s.name, '') AS series
		FROM books b
		LEFT JOIN books_authors_link bal ON bal.book = b.id
		LEFT JOIN authors a ON a.id = bal.author
		LEFT JOIN books_series_link bsl ON bsl.book = b.id
		LEFT JOIN series s ON s.id = bsl.series
		GROUP BY b.id
		ORDER BY b.id ASC
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	index := make(map[int64]int)
	for rows.Next() {
		var rec Record
		var lastModified string
		if err := rows.Scan(
			&rec.ID, &rec.Title, &rec.AuthorSort, &rec.StoragePath,
			&rec.SeriesIndex, &lastModified, &rec.Series,
		); err != nil {
			return nil, nil, fmt.Errorf("scan record: %w", err)
		}
		rec.LastModified, err = parseCatalogTime(lastModified)
		if err != nil {
			return nil, nil, fmt.Errorf("record %d: %w", rec.ID, err)
		}
		rec.Extra = make(map[string]FieldValue)
		index[rec.ID] = len(records)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, index, nil
}

// readFormats fills each record's Formats from the data table.
func (c *SQLite) readFormats(ctx context.Context, records []Record, index map[int64]int) error {
	rows, err := c.db.QueryContext(ctx, `
		SELECT book, format, name
		FROM data
		ORDER BY book ASC, format ASC
	`)
	if err != nil {
		return fmt.Errorf("query formats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var book int64
		var f Format
		if err := rows.Scan(&book, &f.Tag, &f.BaseName); err != nil {
			return fmt.Errorf("scan format: %w", err)
		}
		if i, ok := index[book]; ok {
			records[i].Formats = append(records[i].Formats, f)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate formats: %w", err)
	}

	return nil
}

// catalogTimeLayouts are the timestamp encodings observed in catalog
// databases, most common first.
var catalogTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

// parseCatalogTime parses a catalog timestamp column value.
func parseCatalogTime(s string) (time.Time, error) {
	for _, layout := range catalogTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
