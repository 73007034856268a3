package baseline

import (
	"sort"
	"sync"
)

// RatchetOutcome summarizes baseline entries whose recorded violation no
// longer reproduces. Ratchet mode decides the consequence; computing the
// set is policy-free.
type RatchetOutcome struct {
	StaleEntryCount int      `json:"stale_entry_count"`
	StalePaths      []string `json:"stale_paths,omitempty"`
}

// Comparator answers grandfathering queries during a run and tracks which
// entries actually reproduced, so staleness can be computed afterwards.
// Safe for concurrent use by evaluator workers.
type Comparator struct {
	b *Baseline

	mu       sync.Mutex
	observed map[string]bool
	hit      map[string]bool
}

// NewComparator wraps a loaded baseline. A nil baseline yields a
// comparator that covers nothing.
func NewComparator(b *Baseline) *Comparator {
	if b == nil {
		b = New()
	}
	return &Comparator{
		b:        b,
		observed: map[string]bool{},
		hit:      map[string]bool{},
	}
}

// Observe marks a path as evaluated this run. Only observed paths can be
// declared stale; entries for paths outside the run's scope are left alone.
func (c *Comparator) Observe(path string) {
	c.mu.Lock()
	c.observed[path] = true
	c.mu.Unlock()
}

// CoversContent reports whether a failing content verdict is grandfathered.
// Content matching is hash-addressed: a recorded entry only applies while
// the file's content is byte-identical to what was baselined.
func (c *Comparator) CoversContent(path, hash string) bool {
	entry, ok := c.b.Content[path]
	if !ok || entry.Hash != hash {
		return false
	}
	c.mu.Lock()
	c.hit[contentKey(path)] = true
	c.mu.Unlock()
	return true
}

// CoversStructure reports whether a failing structure issue is
// grandfathered. Matching requires the exact recorded count; any change
// invalidates the entry.
func (c *Comparator) CoversStructure(path, kind string, count int64) bool {
	for _, entry := range c.b.Structure[path] {
		if entry.Kind == kind && entry.Count == count {
			c.mu.Lock()
			c.hit[structureKey(path, kind)] = true
			c.mu.Unlock()
			return true
		}
	}
	return false
}

// Outcome lists entries whose path was evaluated but whose recorded
// violation never reproduced. Those entries are dead weight: keeping them
// would let a future regression hide behind them.
func (c *Comparator) Outcome() RatchetOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stale []string
	for path := range c.b.Content {
		if c.observed[path] && !c.hit[contentKey(path)] {
			stale = append(stale, path)
		}
	}
	for path, entries := range c.b.Structure {
		if !c.observed[path] {
			continue
		}
		for _, entry := range entries {
			if !c.hit[structureKey(path, entry.Kind)] {
				stale = append(stale, path)
				break
			}
		}
	}
	sort.Strings(stale)
	return RatchetOutcome{StaleEntryCount: len(stale), StalePaths: stale}
}

// Pruned returns a copy of the baseline with stale entries removed, for
// ratchet auto mode.
func (c *Comparator) Pruned() *Baseline {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := New()
	for path, entry := range c.b.Content {
		if c.observed[path] && !c.hit[contentKey(path)] {
			continue
		}
		out.Content[path] = entry
	}
	for path, entries := range c.b.Structure {
		for _, entry := range entries {
			if c.observed[path] && !c.hit[structureKey(path, entry.Kind)] {
				continue
			}
			out.Structure[path] = append(out.Structure[path], entry)
		}
	}
	return out
}

func contentKey(path string) string { return "c\x00" + path }

func structureKey(path, kind string) string { return "s\x00" + path + "\x00" + kind }
