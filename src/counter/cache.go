package counter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"

	"github.com/slocwatch/slocwatch/src/config"
)

const (
	cacheVersion = 3
	cacheDir     = ".slocwatch/cache"
	cacheFile    = "metrics.json"
	lockWait     = 5 * time.Second
)

// cacheEntry stores one file's counted stats plus the metadata used to
// decide whether the count is still current.
type cacheEntry struct {
	Hash  string `json:"hash"`
	Mtime int64  `json:"mtime"`
	Size  int64  `json:"size"`
	Stats Stats  `json:"stats"`
}

type cacheDocument struct {
	Version    int                   `json:"version"`
	ConfigHash string                `json:"config_hash"`
	Files      map[string]cacheEntry `json:"files"`
}

// Cache holds counted metrics across runs. Entries are validated by
// mtime+size before reuse and the whole document is discarded when the
// configuration hash changes, since config can alter classification.
type Cache struct {
	root    string
	doc     cacheDocument
	dirty   bool
	enabled bool
}

// ConfigHash fingerprints the parts of the config that influence counting.
func ConfigHash(cfg *config.Config) string {
	data, err := toml.Marshal(struct {
		Content   config.ContentSpec             `toml:"content"`
		Languages map[string]config.LanguageSpec `toml:"languages"`
	}{cfg.Content, cfg.Languages})
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// OpenCache loads the metrics cache under root, starting fresh on version
// or config mismatch. A disabled cache is a no-op on every method.
func OpenCache(root, configHash string, enabled bool) *Cache {
	c := &Cache{
		root:    root,
		enabled: enabled,
		doc: cacheDocument{
			Version:    cacheVersion,
			ConfigHash: configHash,
			Files:      map[string]cacheEntry{},
		},
	}
	if !enabled {
		return c
	}

	path := c.path()
	lock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), lockWait)
	defer cancel()
	if ok, err := lock.TryRLockContext(ctx, 100*time.Millisecond); err == nil && ok {
		defer lock.Unlock()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	var doc cacheDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return c
	}
	if doc.Version != cacheVersion || doc.ConfigHash != configHash {
		return c
	}
	if doc.Files == nil {
		doc.Files = map[string]cacheEntry{}
	}
	c.doc = doc
	return c
}

// Get returns cached stats for a path when its metadata still matches.
func (c *Cache) Get(path string, mtime, size int64) (Stats, string, bool) {
	if !c.enabled {
		return Stats{}, "", false
	}
	entry, ok := c.doc.Files[path]
	if !ok || entry.Mtime != mtime || entry.Size != size {
		return Stats{}, "", false
	}
	return entry.Stats, entry.Hash, true
}

// Put records freshly counted stats.
func (c *Cache) Put(path, hash string, mtime, size int64, stats Stats) {
	if !c.enabled {
		return
	}
	c.doc.Files[path] = cacheEntry{Hash: hash, Mtime: mtime, Size: size, Stats: stats}
	c.dirty = true
}

// Flush persists the cache when anything changed. A busy lock skips the
// write; the cache is a warm-run accelerator, never a source of truth.
func (c *Cache) Flush() error {
	if !c.enabled || !c.dirty {
		return nil
	}

	path := c.path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	lock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), lockWait)
	defer cancel()
	ok, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil || !ok {
		return nil
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(c.doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	c.dirty = false
	return nil
}

// ClearCache removes the on-disk metrics cache under root.
func ClearCache(root string) error {
	return os.RemoveAll(filepath.Join(root, cacheDir))
}

func (c *Cache) path() string {
	return filepath.Join(c.root, cacheDir, cacheFile)
}
