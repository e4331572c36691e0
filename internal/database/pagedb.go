package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the name of the cache database inside its directory.
const FileName = "pages.db"

// PageDB is a SQLite cache of fetched pages.
type PageDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// now returns the current time. Replaced in tests.
	now func() time.Time
}

// Options configures PageDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the page cache in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*PageDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pdb := &PageDB{
		db:     db,
		dbPath: dbPath,
		now:    time.Now,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := pdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pdb, nil
}

// Path returns the path of the database file.
func (pdb *PageDB) Path() string {
	return pdb.dbPath
}

// Close closes the database connection.
func (pdb *PageDB) Close() error {
	return pdb.db.Close()
}

func (pdb *PageDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		url TEXT PRIMARY KEY,
		body BLOB NOT NULL,
		fetched_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pages_fetched_at ON pages(fetched_at);
	`

	_, err := pdb.db.ExecContext(context.Background(), schema)
	return err
}

// Get returns the cached body of url if it was stored less than maxAge
// ago. A maxAge of zero or less accepts entries of any age.
func (pdb *PageDB) Get(ctx context.Context, url string, maxAge time.Duration) ([]byte, bool, error) {
	var body []byte
	var fetchedAt int64

	err := pdb.db.QueryRowContext(ctx, `SELECT body, fetched_at FROM pages WHERE url = ?`, url).Scan(&body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get page %s: %w", url, err)
	}

	if maxAge > 0 && pdb.now().Sub(time.UnixMilli(fetchedAt)) >= maxAge {
		return nil, false, nil
	}
	return body, true, nil
}

// Put stores body for url, replacing an older entry.
func (pdb *PageDB) Put(ctx context.Context, url string, body []byte) error {
	query := `
	INSERT INTO pages (url, body, fetched_at)
	VALUES (?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		body = excluded.body,
		fetched_at = excluded.fetched_at
	`

	if _, err := pdb.db.ExecContext(ctx, query, url, body, pdb.now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to put page %s: %w", url, err)
	}
	return nil
}

// Purge deletes entries stored maxAge or longer ago and returns how many
// were removed. A maxAge of zero or less removes nothing.
func (pdb *PageDB) Purge(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, nil
	}

	cutoff := pdb.now().Add(-maxAge).UnixMilli()
	result, err := pdb.db.ExecContext(ctx, `DELETE FROM pages WHERE fetched_at <= ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge pages: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the number of cached pages.
func (pdb *PageDB) Count(ctx context.Context) (int, error) {
	var count int
	if err := pdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return count, nil
}
