package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/panbanda/codesim/pkg/models"
)

func newCache(t *testing.T, ttl time.Duration, memory int) *Cache {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "cache"), ttl, memory, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func report(overall float64) *models.Report {
	r := models.NewReport("python")
	r.OverallSimilarity = overall
	return r
}

func TestNew(t *testing.T) {
	c := newCache(t, time.Hour, 4)
	if !c.Enabled() {
		t.Error("cache should be enabled")
	}

	c, err := New("", 0, 0, false)
	if err != nil {
		t.Fatalf("New() error for disabled cache: %v", err)
	}
	if c.Enabled() {
		t.Error("cache should be disabled")
	}
	if err := c.Set("k", report(1)); err != nil {
		t.Errorf("Set() on disabled cache error: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("disabled cache returned an entry")
	}
}

func TestNewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache", "dir")
	if _, err := New(dir, time.Hour, 0, true); err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("New() should create cache directory")
	}
}

func TestSetAndGet(t *testing.T) {
	for _, memory := range []int{0, 8} {
		c := newCache(t, time.Hour, memory)
		key := Key("cfg", "python", "a", "b")

		if err := c.Set(key, report(0.75)); err != nil {
			t.Fatalf("Set() error: %v", err)
		}
		got, ok := c.Get(key)
		if !ok {
			t.Fatalf("Get() miss with memory=%d", memory)
		}
		if got.OverallSimilarity != 0.75 {
			t.Errorf("OverallSimilarity = %v, want 0.75", got.OverallSimilarity)
		}
	}
}

func TestDiskTierSurvivesRestart(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c, _ := New(dir, time.Hour, 8, true)
	key := Key("cfg", "java", "x", "y")
	if err := c.Set(key, report(0.5)); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	reopened, _ := New(dir, time.Hour, 8, true)
	got, ok := reopened.Get(key)
	if !ok || got.OverallSimilarity != 0.5 {
		t.Fatalf("Get() after reopen = %v, %v", got, ok)
	}
	if reopened.order.Len() != 1 {
		t.Errorf("disk hit should populate memory tier, len = %d", reopened.order.Len())
	}
}

func TestExpiredEntry(t *testing.T) {
	c := newCache(t, time.Millisecond, 0)
	key := Key("cfg", "c", "1", "2")
	if err := c.Set(key, report(1)); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, ok := c.Get(key); ok {
		t.Error("Get() should miss expired entry")
	}
	if _, err := os.Stat(c.keyPath(key)); !os.IsNotExist(err) {
		t.Error("expired entry should be removed from disk")
	}
}

func TestMemoryEviction(t *testing.T) {
	c := newCache(t, time.Hour, 2)
	for i, k := range []string{"a", "b", "c"} {
		if err := c.Set(k, report(float64(i))); err != nil {
			t.Fatalf("Set(%s) error: %v", k, err)
		}
	}
	if c.order.Len() != 2 {
		t.Errorf("memory tier len = %d, want 2", c.order.Len())
	}
	// evicted from memory but still on disk
	if _, ok := c.Get("a"); !ok {
		t.Error("Get(a) should fall through to disk")
	}
}

func TestKeyDistinguishesParts(t *testing.T) {
	if Key("f", "python", "ab", "c") == Key("f", "python", "a", "bc") {
		t.Error("Key should not collide when parts shift")
	}
	if Key("f", "python", "a", "b") == Key("g", "python", "a", "b") {
		t.Error("Key should include the fingerprint")
	}
	if Key("f", "python", "a", "b") != Key("f", "python", "a", "b") {
		t.Error("Key should be deterministic")
	}
}

func TestInvalidateAndClear(t *testing.T) {
	c := newCache(t, time.Hour, 4)
	_ = c.Set("a", report(1))
	_ = c.Set("b", report(1))

	if err := c.Invalidate("a"); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) after Invalidate should miss")
	}
	if err := c.Invalidate("missing"); err != nil {
		t.Errorf("Invalidate(missing) error: %v", err)
	}

	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.Entries != 1 || stats.MemoryEntries != 1 {
		t.Errorf("stats = %+v, want 1 disk and 1 memory entry", stats)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, ok := c.Get("b"); ok {
		t.Error("Get(b) after Clear should miss")
	}
}

func TestHashBytes(t *testing.T) {
	h := HashBytes([]byte("hello"))
	if len(h) != 64 {
		t.Errorf("len(HashBytes) = %d, want 64", len(h))
	}
	if h == HashBytes([]byte("hello!")) {
		t.Error("different inputs should hash differently")
	}
}
