// Package pagecache is a small sqlite-backed cache of fetched pages,
// keyed by URL. It exists to bound load on the source site when the
// pipeline runs repeatedly (daemon mode); a nil *Cache disables it.
package pagecache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS pages (
    url        TEXT PRIMARY KEY,
    body       TEXT NOT NULL,
    hash       TEXT NOT NULL,
    fetched_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pages_fetched ON pages(fetched_at);
`

// Cache stores fetched page bodies with a freshness window.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Open opens (or creates) the cache database at path. Entries older than
// ttl are treated as absent.
func Open(path string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("pagecache: open: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pagecache: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("pagecache: apply schema: %w", err)
	}

	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{db: db, ttl: ttl, now: time.Now}, nil
}

// Get returns the cached body for url if present and fresh.
func (c *Cache) Get(ctx context.Context, url string) (string, bool) {
	if c == nil {
		return "", false
	}
	var body string
	var fetchedAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT body, fetched_at FROM pages WHERE url = ?`, url).Scan(&body, &fetchedAt)
	if err != nil {
		return "", false
	}
	if c.now().UnixMilli()-fetchedAt > c.ttl.Milliseconds() {
		return "", false
	}
	return body, true
}

// Put stores a page body, replacing any previous entry for the URL.
func (c *Cache) Put(ctx context.Context, url, body string) error {
	if c == nil {
		return nil
	}
	h := sha256.Sum256([]byte(body))
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO pages (url, body, hash, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET body = excluded.body,
		  hash = excluded.hash, fetched_at = excluded.fetched_at`,
		url, body, fmt.Sprintf("%x", h), c.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("pagecache: put: %w", err)
	}
	return nil
}

// Prune deletes entries older than the freshness window.
func (c *Cache) Prune(ctx context.Context) error {
	if c == nil {
		return nil
	}
	cutoff := c.now().Add(-c.ttl).UnixMilli()
	_, err := c.db.ExecContext(ctx, `DELETE FROM pages WHERE fetched_at < ?`, cutoff)
	return err
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}
