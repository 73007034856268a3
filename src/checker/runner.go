package checker

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/slocwatch/slocwatch/src/baseline"
	"github.com/slocwatch/slocwatch/src/rules"
	"golang.org/x/sync/semaphore"
)

// Runner fans evaluation out across paths. Configuration and RuleIndex are
// immutable by the time a Runner exists, so workers share them without
// synchronization; each verdict is a pure function of the index and that
// path's observations.
type Runner struct {
	Index    *rules.Index
	Metrics  MetricsProvider
	Baseline *baseline.Comparator

	// Progress, when non-nil, is incremented per completed path. Nothing
	// reads it from inside the evaluators.
	Progress *atomic.Int64
}

// RunResult aggregates one run's output. Verdicts are ordered by path;
// per-path errors ride alongside instead of aborting the run.
type RunResult struct {
	Verdicts []Verdict
	Errors   []PathError
}

// Counts tallies verdicts by status for one dimension or both.
type Counts struct {
	Passed        int
	Warnings      int
	Failed        int
	Grandfathered int
	Skipped       int
}

// Run evaluates every file (content) and directory (structure). Order of
// evaluation is unspecified; the result is sorted for stable output.
func (r *Runner) Run(ctx context.Context, files []string, dirs []DirInfo) *RunResult {
	var (
		mu     sync.Mutex
		result RunResult
		wg     sync.WaitGroup
	)

	sem := semaphore.NewWeighted(int64(runtime.NumCPU() * 2))

	record := func(v Verdict) {
		mu.Lock()
		result.Verdicts = append(result.Verdicts, v)
		mu.Unlock()
		if r.Progress != nil {
			r.Progress.Add(1)
		}
	}

	for _, file := range files {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer sem.Release(1)

			if r.Baseline != nil {
				r.Baseline.Observe(path)
			}
			m, err := r.Metrics.Metrics(path)
			if err != nil {
				mu.Lock()
				result.Errors = append(result.Errors, PathError{Path: path, Err: err})
				mu.Unlock()
				return
			}
			record(EvaluateContent(r.Index, path, m, r.Baseline))
		}(file)
	}

	for _, dir := range dirs {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(d DirInfo) {
			defer wg.Done()
			defer sem.Release(1)

			if r.Baseline != nil {
				r.Baseline.Observe(d.Path)
			}
			record(EvaluateStructure(r.Index, d, r.Baseline))
		}(dir)
	}

	wg.Wait()

	sort.Slice(result.Verdicts, func(i, j int) bool {
		if result.Verdicts[i].Path != result.Verdicts[j].Path {
			return result.Verdicts[i].Path < result.Verdicts[j].Path
		}
		return result.Verdicts[i].Dimension < result.Verdicts[j].Dimension
	})
	sort.Slice(result.Errors, func(i, j int) bool {
		return result.Errors[i].Path < result.Errors[j].Path
	})
	return &result
}

// Count tallies verdicts, optionally restricted to one dimension
// (empty string counts everything).
func (res *RunResult) Count(dim Dimension) Counts {
	var c Counts
	for _, v := range res.Verdicts {
		if dim != "" && v.Dimension != dim {
			continue
		}
		if v.Skipped {
			c.Skipped++
			continue
		}
		switch v.Status {
		case StatusPassed:
			c.Passed++
		case StatusWarning:
			c.Warnings++
		case StatusFailed:
			c.Failed++
		case StatusGrandfathered:
			c.Grandfathered++
		}
	}
	return c
}

// Failing reports whether the run should exit non-zero.
func (res *RunResult) Failing(strict bool) bool {
	for _, v := range res.Verdicts {
		if v.Failing(strict) {
			return true
		}
	}
	return false
}
