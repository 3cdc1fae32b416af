package catalog

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

//go:embed fixture_schema.sql
var fixtureSchemaSQL string

// FixtureBook describes one record in a fixture library.
type FixtureBook struct {
	ID           int64
	Title        string
	Author       string // display name; sort defaults to the same
	AuthorSort   string
	Series       string
	SeriesIndex  float64
	LastModified time.Time
	Formats      []string // upper-case tags; one stored file each
	Content      string   // stored file content, shared across formats
}

// CreateFixture builds a fixture library under root: a metadata.db
// populated with the given books plus the stored book files the data
// rows point at. Used by package tests and the conformance harness;
// the real catalog is only ever opened read-only.
func CreateFixture(root string, books []FixtureBook) error {
	db, err := OpenFixtureDB(root)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, b := range books {
		if err := insertFixtureBook(db, root, b); err != nil {
			return fmt.Errorf("fixture book %d: %w", b.ID, err)
		}
	}

	return nil
}

// OpenFixtureDB creates (or opens) a fixture metadata.db read-write
// with the fixture schema applied. Tests use the returned handle to
// add rows the FixtureBook shape does not cover, such as custom
// columns.
func OpenFixtureDB(root string) (*sql.DB, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create fixture root: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(root, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("open fixture database: %w", err)
	}
	if _, err := db.Exec(fixtureSchemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply fixture schema: %w", err)
	}
	return db, nil
}

// insertFixtureBook writes one book's rows and stored files.
func insertFixtureBook(db *sql.DB, root string, b FixtureBook) error {
	authorSort := b.AuthorSort
	if authorSort == "" {
		authorSort = b.Author
	}
	seriesIndex := b.SeriesIndex
	if seriesIndex == 0 {
		seriesIndex = 1.0
	}
	storagePath := fmt.Sprintf("%s/%s (%d)", sanitizeFixtureSegment(b.Author), sanitizeFixtureSegment(b.Title), b.ID)

	if _, err := db.Exec(`
		INSERT INTO books (id, title, author_sort, path, series_index, last_modified)
		VALUES (?, ?, ?, ?, ?, ?)
	`, b.ID, b.Title, authorSort, storagePath, seriesIndex,
		b.LastModified.UTC().Format("2006-01-02 15:04:05.000000-07:00")); err != nil {
		return fmt.Errorf("insert book: %w", err)
	}

	if b.Author != "" {
		var authorID int64
		err := db.QueryRow(`SELECT id FROM authors WHERE name = ?`, b.Author).Scan(&authorID)
		if err == sql.ErrNoRows {
			res, insErr := db.Exec(`INSERT INTO authors (name, sort) VALUES (?, ?)`, b.Author, authorSort)
			if insErr != nil {
				return fmt.Errorf("insert author: %w", insErr)
			}
			authorID, _ = res.LastInsertId()
		} else if err != nil {
			return fmt.Errorf("find author: %w", err)
		}
		if _, err := db.Exec(`INSERT INTO books_authors_link (book, author) VALUES (?, ?)`, b.ID, authorID); err != nil {
			return fmt.Errorf("link author: %w", err)
		}
	}

	if b.Series != "" {
		var seriesID int64
		err := db.QueryRow(`SELECT id FROM series WHERE name = ?`, b.Series).Scan(&seriesID)
		if err == sql.ErrNoRows {
			res, insErr := db.Exec(`INSERT INTO series (name) VALUES (?)`, b.Series)
			if insErr != nil {
				return fmt.Errorf("insert series: %w", insErr)
			}
			seriesID, _ = res.LastInsertId()
		} else if err != nil {
			return fmt.Errorf("find series: %w", err)
		}
		if _, err := db.Exec(`INSERT INTO books_series_link (book, series) VALUES (?, ?)`, b.ID, seriesID); err != nil {
			return fmt.Errorf("link series: %w", err)
		}
	}

	bookDir := filepath.Join(root, filepath.FromSlash(storagePath))
	if err := os.MkdirAll(bookDir, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}

	baseName := sanitizeFixtureSegment(b.Title)
	for _, tag := range b.Formats {
		if _, err := db.Exec(`INSERT INTO data (book, format, name) VALUES (?, ?, ?)`, b.ID, tag, baseName); err != nil {
			return fmt.Errorf("insert format: %w", err)
		}
		content := b.Content
		if content == "" {
			content = fmt.Sprintf("fixture content for %s (%d)\n", b.Title, b.ID)
		}
		storedPath := filepath.Join(bookDir, baseName+"."+strings.ToLower(tag))
		if err := os.WriteFile(storedPath, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write stored file: %w", err)
		}
		if !b.LastModified.IsZero() {
			if err := os.Chtimes(storedPath, b.LastModified, b.LastModified); err != nil {
				return fmt.Errorf("stamp stored file: %w", err)
			}
		}
	}

	return nil
}

// sanitizeFixtureSegment makes a string usable as a fixture path
// segment.
func sanitizeFixtureSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, s)
	if s == "" {
		return "_"
	}
	return s
}
