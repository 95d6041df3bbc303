package speech

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cornellj834-lang/Lego-Adventure-App/internal/config"
)

func openTestCache(t *testing.T, generation string) *Cache {
	t.Helper()
	c := OpenCache(context.Background(), config.CacheConfig{
		Path:       filepath.Join(t.TempDir(), "cache.db"),
		Generation: generation,
	}, testLogger())
	t.Cleanup(func() { c.Close() })
	if c.db == nil {
		t.Fatal("cache backend did not open")
	}
	return c
}

func TestCachePutGet(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t, "v9-puck")

	if _, ok := c.Get(ctx, "Hello builder!"); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	audio := []byte{1, 2, 3, 4}
	c.Put(ctx, "Hello builder!", audio)

	got, ok := c.Get(ctx, "Hello builder!")
	if !ok {
		t.Fatal("expected hit after put")
	}
	if string(got) != string(audio) {
		t.Fatalf("got %v, want %v", got, audio)
	}
}

func TestCacheGenerationNamespacing(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.db")

	old := OpenCache(ctx, config.CacheConfig{Path: path, Generation: "v8"}, testLogger())
	old.Put(ctx, "Blast off!", []byte("old-voice"))
	old.Close()

	cur := OpenCache(ctx, config.CacheConfig{Path: path, Generation: "v9-puck"}, testLogger())
	defer cur.Close()
	if _, ok := cur.Get(ctx, "Blast off!"); ok {
		t.Fatal("new generation must not see old entries")
	}
}

func TestCachePutKeepsFirstEntry(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t, "v9-puck")

	c.Put(ctx, "Choose a world", []byte("first"))
	c.Put(ctx, "Choose a world", []byte("second"))
	got, _ := c.Get(ctx, "Choose a world")
	if string(got) != "first" {
		t.Fatalf("existing entry overwritten, got %q", got)
	}
}

func TestCacheDegradesWithoutBackend(t *testing.T) {
	ctx := context.Background()
	c := &Cache{generation: "v9-puck", log: testLogger()}

	c.Put(ctx, "anything", []byte("x"))
	if _, ok := c.Get(ctx, "anything"); ok {
		t.Fatal("backendless cache should always miss")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestCacheKey(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"hi", "hi-2"},
		{"Hello builder!", "Hello+builder%21-14"},
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaabbbb", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa-36"},
	}
	for _, tc := range cases {
		if got := CacheKey(tc.text); got != tc.want {
			t.Errorf("CacheKey(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}
