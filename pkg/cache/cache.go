// Package cache provides a persistent, content-addressed cache of MinHash
// signatures, keyed by a content hash of each file. Rescanning a corpus
// where most files are unchanged from the prior run skips tokenization and
// MinHash entirely for any file whose content hash is already cached,
// which matters once a corpus grows into the tens of thousands of files
// the report's sanity rules are tuned for.
//
// This is a supplementary feature beyond the minimal scan pipeline; the
// core pipeline in pkg/scan works correctly with a nil cache.
package cache

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/galeep/plugin-librarian/pkg/minhash"
)

// SchemaVersion is the current cache schema version, stamped into
// BucketMeta on first open and checked on every subsequent open.
var SchemaVersion uint64 = 1

var (
	BucketSignatures = []byte("signatures")
	BucketMeta       = []byte("meta")
)

// Cache wraps a bbolt database mapping a content hash to its MinHash
// signature and the permutation configuration it was computed with.
type Cache struct {
	db *bolt.DB
}

// Entry is the cached value for one content hash.
type Entry struct {
	Signature       minhash.Signature `json:"signature"`
	NumPermutations int               `json:"num_permutations"`
	Seed            int64             `json:"seed"`
	ComputedAt      time.Time         `json:"computed_at"`
}

// Open opens or creates a signature cache at path.
func Open(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{BucketSignatures, BucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		meta := tx.Bucket(BucketMeta)
		stored := meta.Get([]byte("schema_version"))
		if stored == nil {
			return putUint64(meta, "schema_version", SchemaVersion)
		}
		if len(stored) != 8 || binary.BigEndian.Uint64(stored) != SchemaVersion {
			return fmt.Errorf("schema version mismatch, want %d", SchemaVersion)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: init buckets: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached entry for contentHash, if present and computed
// with the same permutation count and seed the caller is about to use
// (a mismatch is treated as a miss, never a stale hit).
func (c *Cache) Get(contentHash string, numPermutations int, seed int64) (Entry, bool) {
	var entry Entry
	var found bool
	_ = c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(BucketSignatures)
		data := b.Get([]byte(contentHash))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil // corrupt entry treated as a miss, not a fatal error
		}
		if entry.NumPermutations != numPermutations || entry.Seed != seed {
			return nil
		}
		found = true
		return nil
	})
	return entry, found
}

// Put stores sig under contentHash.
func (c *Cache) Put(contentHash string, sig minhash.Signature, numPermutations int, seed int64) error {
	entry := Entry{Signature: sig, NumPermutations: numPermutations, Seed: seed, ComputedAt: time.Now().UTC()}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache: marshal entry: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(BucketSignatures).Put([]byte(contentHash), data)
	})
}

// Size returns the number of cached entries.
func (c *Cache) Size() (int, error) {
	n := 0
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(BucketSignatures).ForEach(func(_, _ []byte) error {
			n++
			return nil
		})
	})
	return n, err
}

func putUint64(b *bolt.Bucket, key string, v uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return b.Put([]byte(key), buf)
}
