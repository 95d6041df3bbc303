package speech

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/cornellj834-lang/Lego-Adventure-App/internal/config"
)

// Cache is the persistent audio store: decoded PCM blobs keyed by a slug of
// the spoken text, namespaced under a generation tag so a voice or model
// change invalidates every prior entry without migration. Entries are
// immutable and never evicted.
//
// A cache that fails to open degrades to always-miss with no-op writes;
// audio playback must never fail because storage is unavailable, so OpenCache
// does not return an error.
type Cache struct {
	db         *sql.DB
	generation string
	log        *slog.Logger
	clock      func() time.Time
}

func OpenCache(ctx context.Context, cfg config.CacheConfig, log *slog.Logger) *Cache {
	c := &Cache{
		generation: cfg.Generation,
		log:        log.With(slog.String("component", "audio-cache")),
		clock:      time.Now,
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			c.log.Warn("cache dir unavailable, running without audio cache",
				slog.String("error", err.Error()))
			return c
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		c.log.Warn("cache open failed, running without audio cache",
			slog.String("error", err.Error()))
		return c
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		c.log.Warn("cache ping failed, running without audio cache",
			slog.String("error", err.Error()))
		return c
	}

	ddl := `
CREATE TABLE IF NOT EXISTS utterances (
    generation TEXT NOT NULL,
    cache_key TEXT NOT NULL,
    audio BLOB NOT NULL,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (generation, cache_key)
);
`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		c.log.Warn("cache schema init failed, running without audio cache",
			slog.String("error", err.Error()))
		return c
	}

	c.db = db
	c.log.Info("audio cache ready",
		slog.String("path", cfg.Path),
		slog.String("generation", cfg.Generation))
	return c
}

func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the stored audio for text, if any. Read failures count as
// misses.
func (c *Cache) Get(ctx context.Context, text string) ([]byte, bool) {
	if c == nil || c.db == nil {
		return nil, false
	}
	var audio []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT audio FROM utterances WHERE generation = ? AND cache_key = ?`,
		c.generation, CacheKey(text)).Scan(&audio)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		c.log.Warn("cache read failed", slog.String("error", err.Error()))
		return nil, false
	}
	return audio, true
}

// Put stores audio for text. Fire-and-forget: failures are logged and
// swallowed so a broken cache never fails the caller's playback. Existing
// entries are left untouched.
func (c *Cache) Put(ctx context.Context, text string, audio []byte) {
	if c == nil || c.db == nil || len(audio) == 0 {
		return
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO utterances(generation, cache_key, audio, created_at)
		 VALUES(?, ?, ?, ?)`,
		c.generation, CacheKey(text), audio, c.clock().UTC())
	if err != nil {
		c.log.Warn("cache write failed", slog.String("error", err.Error()))
	}
}

// CacheKey derives the deterministic lookup key for a text: an escaped slug
// of the first 32 characters plus the full length. Bounded in size and
// distinguishing enough in practice, though not guaranteed collision-free.
func CacheKey(text string) string {
	runes := []rune(text)
	head := runes
	if len(head) > 32 {
		head = head[:32]
	}
	return url.QueryEscape(string(head)) + "-" + strconv.Itoa(len(runes))
}
