package cache

import (
	"path/filepath"
	"testing"

	"github.com/galeep/plugin-librarian/pkg/minhash"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "signatures.db")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_MissOnEmpty(t *testing.T) {
	c := openTestCache(t)
	if _, ok := c.Get("abc123", 128, 42); ok {
		t.Fatal("expected miss on empty cache")
	}
}

func TestCache_PutThenGetHits(t *testing.T) {
	c := openTestCache(t)
	sig := minhash.Signature{1, 2, 3}

	if err := c.Put("deadbeef", sig, 128, 42); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entry, ok := c.Get("deadbeef", 128, 42)
	if !ok {
		t.Fatal("expected hit after put")
	}
	if len(entry.Signature) != len(sig) {
		t.Fatalf("signature length mismatch: got %d want %d", len(entry.Signature), len(sig))
	}
	for i := range sig {
		if entry.Signature[i] != sig[i] {
			t.Fatalf("signature[%d] = %d, want %d", i, entry.Signature[i], sig[i])
		}
	}
}

func TestCache_MismatchedParamsIsAMiss(t *testing.T) {
	c := openTestCache(t)
	sig := minhash.Signature{1, 2, 3}
	if err := c.Put("deadbeef", sig, 128, 42); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if _, ok := c.Get("deadbeef", 64, 42); ok {
		t.Fatal("expected miss on permutation count mismatch")
	}
	if _, ok := c.Get("deadbeef", 128, 7); ok {
		t.Fatal("expected miss on seed mismatch")
	}
}

func TestCache_Size(t *testing.T) {
	c := openTestCache(t)
	if n, err := c.Size(); err != nil || n != 0 {
		t.Fatalf("expected empty cache, got %d (err %v)", n, err)
	}

	_ = c.Put("a", minhash.Signature{1}, 128, 42)
	_ = c.Put("b", minhash.Signature{2}, 128, 42)

	n, err := c.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if n != 2 {
		t.Fatalf("size=%d want 2", n)
	}
}

func TestCache_ReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signatures.db")

	c1, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c1.Put("persisted", minhash.Signature{9, 9, 9}, 128, 42); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c2.Close()

	if _, ok := c2.Get("persisted", 128, 42); !ok {
		t.Fatal("expected entry to survive reopen")
	}
}
