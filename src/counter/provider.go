package counter

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/slocwatch/slocwatch/src/checker"
)

// Provider is the default checker.MetricsProvider. It counts files under
// Root with the registry's comment syntax and caches results across runs.
type Provider struct {
	Root     string
	Registry *Registry
	Cache    *Cache

	mu sync.Mutex
}

// Metrics counts one file, preferring a cache hit validated by mtime+size.
// The path is slash-separated and relative to Root.
func (p *Provider) Metrics(rel string) (checker.FileMetrics, error) {
	abs := filepath.Join(p.Root, filepath.FromSlash(rel))
	info, err := os.Stat(abs)
	if err != nil {
		return checker.FileMetrics{}, fmt.Errorf("stat %s: %w", rel, err)
	}
	mtime, size := info.ModTime().UnixNano(), info.Size()

	p.mu.Lock()
	stats, hash, ok := p.Cache.Get(rel, mtime, size)
	p.mu.Unlock()
	if ok {
		return toMetrics(stats, hash), nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return checker.FileMetrics{}, fmt.Errorf("reading %s: %w", rel, err)
	}
	sum := sha256.Sum256(data)
	hash = hex.EncodeToString(sum[:])

	stats = Count(data, p.Registry.Lookup(path.Ext(rel)))

	p.mu.Lock()
	p.Cache.Put(rel, hash, mtime, size, stats)
	p.mu.Unlock()

	return toMetrics(stats, hash), nil
}

func toMetrics(stats Stats, hash string) checker.FileMetrics {
	return checker.FileMetrics{
		Total:   stats.Total,
		Code:    stats.Code,
		Comment: stats.Comment,
		Blank:   stats.Blank,
		Hash:    hash,
	}
}
