// Package baseline persists known violations so existing debt can be
// grandfathered while the ratchet prevents it from silently growing.
package baseline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Version is the current baseline document format.
const Version = 2

// lockWait bounds how long load/save waits on the advisory lock before
// degrading. Two CI jobs on the same checkout must not corrupt the file,
// but neither should one stall the other indefinitely.
const lockWait = 5 * time.Second

// ContentEntry records a grandfathered content violation. The hash makes
// grandfathering content-addressed: an edited file re-triggers enforcement
// even at the same length.
type ContentEntry struct {
	Lines int64  `json:"lines"`
	Hash  string `json:"hash"`
}

// StructureEntry records a grandfathered structure violation by kind and
// exact count; any count change invalidates it.
type StructureEntry struct {
	Kind  string `json:"kind"`
	Count int64  `json:"count"`
}

// Baseline is the persisted violation inventory.
type Baseline struct {
	Version   int                         `json:"version"`
	Content   map[string]ContentEntry     `json:"content,omitempty"`
	Structure map[string][]StructureEntry `json:"structure,omitempty"`
}

// New returns an empty baseline at the current version.
func New() *Baseline {
	return &Baseline{
		Version:   Version,
		Content:   map[string]ContentEntry{},
		Structure: map[string][]StructureEntry{},
	}
}

// v1Document is the original format: content entries only, under "files".
type v1Document struct {
	Version int                     `json:"version"`
	Files   map[string]ContentEntry `json:"files"`
}

// Load reads a baseline document, migrating older formats in memory. A
// missing file yields an empty baseline; corrupt content is an error.
func Load(path string) (*Baseline, error) {
	lock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), lockWait)
	defer cancel()
	if ok, err := lock.TryRLockContext(ctx, 100*time.Millisecond); err == nil && ok {
		defer lock.Unlock()
	}
	// Lock timeout degrades to an unguarded read rather than a stall.

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("reading baseline: %w", err)
	}

	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parsing baseline %s: %w", path, err)
	}

	switch probe.Version {
	case 1:
		var v1 v1Document
		if err := json.Unmarshal(data, &v1); err != nil {
			return nil, fmt.Errorf("parsing baseline %s: %w", path, err)
		}
		b := New()
		for p, e := range v1.Files {
			b.Content[p] = e
		}
		return b, nil
	case Version:
		b := New()
		if err := json.Unmarshal(data, b); err != nil {
			return nil, fmt.Errorf("parsing baseline %s: %w", path, err)
		}
		if b.Content == nil {
			b.Content = map[string]ContentEntry{}
		}
		if b.Structure == nil {
			b.Structure = map[string][]StructureEntry{}
		}
		return b, nil
	default:
		return nil, fmt.Errorf("baseline %s: unsupported version %d", path, probe.Version)
	}
}

// Save writes the baseline under an exclusive advisory lock with a bounded
// wait. On lock timeout the write is skipped and reported, not fatal.
func Save(b *Baseline, path string) error {
	lock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), lockWait)
	defer cancel()
	ok, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil || !ok {
		return fmt.Errorf("baseline %s: lock busy, skipping write", path)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// SetContent records a content violation.
func (b *Baseline) SetContent(path string, lines int64, hash string) {
	b.Content[path] = ContentEntry{Lines: lines, Hash: hash}
}

// AddStructure records a structure violation, replacing any prior entry of
// the same kind for the path.
func (b *Baseline) AddStructure(path, kind string, count int64) {
	entries := b.Structure[path]
	for i, e := range entries {
		if e.Kind == kind {
			entries[i].Count = count
			b.Structure[path] = entries
			return
		}
	}
	b.Structure[path] = append(entries, StructureEntry{Kind: kind, Count: count})
}

// Len returns the total entry count across both dimensions.
func (b *Baseline) Len() int {
	n := len(b.Content)
	for _, entries := range b.Structure {
		n += len(entries)
	}
	return n
}
