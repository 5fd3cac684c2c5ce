// Package store persists fetched catalogue pages in BoltDB so that a restarted
// or offline client can still show the last known data.
package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketPages = []byte("pages")

// record is the stored form of one fetched page
type record struct {
	Total   int             `json:"total"`
	Items   json.RawMessage `json:"items"`
	SavedAt time.Time       `json:"saved_at"`
}

// PageStore caches raw pages keyed by scope, offset and limit. Reads are
// promoted into memory. An empty path gives a memory-only store.
type PageStore struct {
	db *bolt.DB
	mu sync.RWMutex // protects cache

	cache map[string][]byte
	now   func() time.Time
}

// NewPageStore opens (or creates) the database at path
func NewPageStore(path string) (*PageStore, error) {
	s := &PageStore{cache: make(map[string][]byte), now: time.Now}
	if path == "" {
		return s, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPages)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	return s, nil
}

// Close releases the database
func (s *PageStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Scope derives a stable scope name from a server URL and a query key
func Scope(serverURL, queryKey string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6]) + "/" + queryKey
}

func pageKey(scope string, offset, limit int) string {
	return fmt.Sprintf("%s@%d+%d", scope, offset, limit)
}

// Save stores a page of items
func (s *PageStore) Save(scope string, offset, limit, total int, items any) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode page: %w", err)
	}
	data, err := json.Marshal(record{Total: total, Items: raw, SavedAt: s.now()})
	if err != nil {
		return fmt.Errorf("failed to encode page: %w", err)
	}

	key := pageKey(scope, offset, limit)
	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPages).Put([]byte(key), data)
	})
}

// Load decodes a stored page into items. It returns the stored total, the
// page age and false when nothing usable is stored.
func (s *PageStore) Load(scope string, offset, limit int, items any) (total int, age time.Duration, ok bool) {
	data := s.get(pageKey(scope, offset, limit))
	if data == nil {
		return 0, 0, false
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return 0, 0, false
	}
	if err := json.Unmarshal(rec.Items, items); err != nil {
		return 0, 0, false
	}
	return rec.Total, s.now().Sub(rec.SavedAt), true
}

func (s *PageStore) get(key string) []byte {
	s.mu.RLock()
	if data, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return data
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketPages).Get([]byte(key)); v != nil {
			data = bytes.Clone(v)
		}
		return nil
	})
	if data == nil {
		return nil
	}

	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()
	return data
}

// InvalidateScope drops every page stored under scope
func (s *PageStore) InvalidateScope(scope string) error {
	return s.deletePrefix(scope + "@")
}

// InvalidateServer drops every page stored for serverURL, whatever its query
func (s *PageStore) InvalidateServer(serverURL string) error {
	return s.deletePrefix(Scope(serverURL, ""))
}

// InvalidateAll drops every stored page
func (s *PageStore) InvalidateAll() error {
	return s.deletePrefix("")
}

func (s *PageStore) deletePrefix(prefix string) error {
	s.mu.Lock()
	for k := range s.cache {
		if strings.HasPrefix(k, prefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPages)
		var keys [][]byte
		c := b.Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, bytes.Clone(k))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
