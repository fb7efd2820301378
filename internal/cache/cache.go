// Package cache stores similarity reports keyed by the compared contents.
//
// Lookups go through a bounded in-process tier keyed by xxhash and then an
// on-disk tier of JSON entries named by their BLAKE3 key.
package cache

import (
	"container/list"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"

	"github.com/panbanda/codesim/pkg/models"
)

// Cache is safe for concurrent use. A disabled cache never stores anything.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool

	mu      sync.Mutex
	limit   int
	order   *list.List
	entries map[uint64]*list.Element
}

// Entry is the on-disk representation of a cached report.
type Entry struct {
	Key       string         `json:"key"`
	Timestamp time.Time      `json:"timestamp"`
	Report    *models.Report `json:"report"`
}

type memEntry struct {
	sum    uint64
	key    string
	stored time.Time
	report *models.Report
}

// New creates a cache under dir. memoryEntries bounds the in-process tier;
// zero keeps only the disk tier.
func New(dir string, ttl time.Duration, memoryEntries int, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &Cache{
		dir:     dir,
		ttl:     ttl,
		enabled: true,
		limit:   memoryEntries,
		order:   list.New(),
		entries: make(map[uint64]*list.Element),
	}, nil
}

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool { return c.enabled }

// HashBytes computes a BLAKE3 hash of data as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Key identifies one comparison. fingerprint covers every setting that can
// change the report.
func Key(fingerprint, language, source, target string) string {
	h := blake3.New()
	for _, part := range []string{fingerprint, language, source, target} {
		// length prefix keeps ("ab","c") and ("a","bc") apart
		fmt.Fprintf(h, "%d:", len(part))
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the report stored under key if it has not expired.
func (c *Cache) Get(key string) (*models.Report, bool) {
	if !c.enabled {
		return nil, false
	}

	if r, ok := c.getMemory(key); ok {
		return r, true
	}

	path := c.keyPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Key != key || entry.Report == nil {
		return nil, false
	}

	if c.expired(entry.Timestamp) {
		os.Remove(path)
		return nil, false
	}

	c.putMemory(key, entry.Report, entry.Timestamp)
	return entry.Report, true
}

// Set stores report under key in both tiers.
func (c *Cache) Set(key string, report *models.Report) error {
	if !c.enabled || report == nil {
		return nil
	}

	now := time.Now()
	c.putMemory(key, report, now)

	data, err := json.Marshal(Entry{Key: key, Timestamp: now, Report: report})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	return os.WriteFile(c.keyPath(key), data, 0o600)
}

// Invalidate removes a cache entry.
func (c *Cache) Invalidate(key string) error {
	if !c.enabled {
		return nil
	}
	c.mu.Lock()
	if el, ok := c.entries[xxhash.Sum64String(key)]; ok {
		c.order.Remove(el)
		delete(c.entries, el.Value.(*memEntry).sum)
	}
	c.mu.Unlock()

	if err := os.Remove(c.keyPath(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	c.mu.Lock()
	c.order.Init()
	clear(c.entries)
	c.mu.Unlock()
	return os.RemoveAll(c.dir)
}

func (c *Cache) expired(stored time.Time) bool {
	return c.ttl > 0 && time.Since(stored) > c.ttl
}

func (c *Cache) getMemory(key string) (*models.Report, bool) {
	if c.limit <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[xxhash.Sum64String(key)]
	if !ok {
		return nil, false
	}
	e := el.Value.(*memEntry)
	if e.key != key || c.expired(e.stored) {
		return nil, false
	}
	c.order.MoveToFront(el)
	return e.report, true
}

func (c *Cache) putMemory(key string, report *models.Report, stored time.Time) {
	if c.limit <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	sum := xxhash.Sum64String(key)
	if el, ok := c.entries[sum]; ok {
		el.Value = &memEntry{sum: sum, key: key, stored: stored, report: report}
		c.order.MoveToFront(el)
		return
	}
	c.entries[sum] = c.order.PushFront(&memEntry{sum: sum, key: key, stored: stored, report: report})
	for c.order.Len() > c.limit {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*memEntry).sum)
	}
}

// keyPath converts a key to a filesystem path.
func (c *Cache) keyPath(key string) string {
	hash := blake3.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:])+".json")
}

// Stats returns cache statistics.
type Stats struct {
	Entries       int           `json:"entries"`
	MemoryEntries int           `json:"memory_entries"`
	TotalSize     int64         `json:"total_size"`
	OldestAge     time.Duration `json:"oldest_age"`
	NewestAge     time.Duration `json:"newest_age"`
}

// GetStats returns statistics about the cache.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.enabled {
		return &Stats{}, nil
	}

	c.mu.Lock()
	stats := &Stats{MemoryEntries: c.order.Len()}
	c.mu.Unlock()

	var oldest, newest time.Time
	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		stats.Entries++
		stats.TotalSize += info.Size()

		modTime := info.ModTime()
		if oldest.IsZero() || modTime.Before(oldest) {
			oldest = modTime
		}
		if newest.IsZero() || modTime.After(newest) {
			newest = modTime
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !oldest.IsZero() {
		stats.OldestAge = time.Since(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = time.Since(newest)
	}
	return stats, nil
}
