package checker

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/slocwatch/slocwatch/src/baseline"
	"github.com/slocwatch/slocwatch/src/config"
	"github.com/slocwatch/slocwatch/src/rules"
)

// DirInfo is the per-directory observation from the scanner: immediate
// child names plus depth relative to the scan root.
type DirInfo struct {
	Path  string
	Files []string
	Dirs  []string
	Depth int64
}

// DirStats are the aggregate counts for a directory after count-exclude
// filtering.
type DirStats struct {
	FileCount int64
	DirCount  int64
	Depth     int64
}

// EvaluateStructure produces the structure verdict for one directory. The
// independently checked dimensions are merged into a single verdict whose
// status is the worst surviving issue.
func EvaluateStructure(idx *rules.Index, dir DirInfo, bl *baseline.Comparator) Verdict {
	res := idx.ResolveStructure(dir.Path)
	stats := countChildren(idx.Config().Structure.CountExclude, dir)

	v := Verdict{
		Path:       dir.Path,
		Dimension:  DimStructure,
		Observed:   stats.FileCount,
		Provenance: res.Provenance,
	}
	if res.MaxFiles != nil {
		v.Limit = *res.MaxFiles
	} else {
		v.Limit = config.Unlimited
	}
	v.WarnAt = res.WarnAtFiles

	var issues []Issue
	issues = append(issues, limitIssue(KindFileCount, stats.FileCount, res.MaxFiles, res.WarnAtFiles)...)
	issues = append(issues, limitIssue(KindDirCount, stats.DirCount, res.MaxDirs, res.WarnAtDirs)...)
	issues = append(issues, depthIssue(stats.Depth, res)...)
	issues = append(issues, filterIssues(res.Filter, dir.Files)...)
	issues = append(issues, namingIssues(res, dir.Files)...)
	issues = append(issues, siblingIssues(res.Siblings, dir.Files)...)

	// Baseline suppression happens per issue so a directory with one
	// recorded violation and one new one still fails on the new one.
	grandfathered := false
	if bl != nil {
		kept := issues[:0]
		for _, is := range issues {
			if !is.Warn && bl.CoversStructure(dir.Path, string(is.Kind), is.Actual) {
				grandfathered = true
				continue
			}
			kept = append(kept, is)
		}
		issues = kept
	}

	v.Issues = issues
	v.Status = mergeStatus(issues, grandfathered)
	if len(issues) > 0 {
		v.Observed = issues[0].Actual
		v.Limit = issues[0].Limit
	}
	return v
}

func mergeStatus(issues []Issue, grandfathered bool) Status {
	status := StatusPassed
	for _, is := range issues {
		if !is.Warn {
			return StatusFailed
		}
		status = StatusWarning
	}
	if status == StatusPassed && grandfathered {
		return StatusGrandfathered
	}
	return status
}

// countChildren applies count-exclude patterns; excluded entries stay
// visible to the other checks but do not count toward quotas.
func countChildren(countExclude []string, dir DirInfo) DirStats {
	stats := DirStats{Depth: dir.Depth}
	for _, name := range dir.Files {
		if !matchesAny(countExclude, name) {
			stats.FileCount++
		}
	}
	for _, name := range dir.Dirs {
		if !matchesAny(countExclude, name) {
			stats.DirCount++
		}
	}
	return stats
}

func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

func limitIssue(kind ViolationKind, actual int64, limit *int64, warnAt int64) []Issue {
	if limit == nil || *limit == config.Unlimited {
		return nil
	}
	noun := "files"
	if kind == KindDirCount {
		noun = "subdirectories"
	}
	switch {
	case actual > *limit:
		return []Issue{{
			Kind:    kind,
			Message: fmt.Sprintf("%d %s, limit is %d", actual, noun, *limit),
			Actual:  actual,
			Limit:   *limit,
		}}
	case actual == *limit:
		return nil
	case warnAt > 0 && actual >= warnAt:
		return []Issue{{
			Kind:    kind,
			Message: fmt.Sprintf("%d %s, approaching limit %d", actual, noun, *limit),
			Actual:  actual,
			Limit:   *limit,
			Warn:    true,
		}}
	default:
		return nil
	}
}

func depthIssue(depth int64, res rules.StructureResolution) []Issue {
	if res.MaxDepth == nil || *res.MaxDepth == config.Unlimited {
		return nil
	}
	effective := depth - res.DepthOffset
	if effective < 0 {
		effective = 0
	}
	if effective <= *res.MaxDepth {
		return nil
	}
	return []Issue{{
		Kind:    KindMaxDepth,
		Message: fmt.Sprintf("nesting depth %d, limit is %d", effective, *res.MaxDepth),
		Actual:  effective,
		Limit:   *res.MaxDepth,
	}}
}

func filterIssues(filter rules.ChildFilter, files []string) []Issue {
	var issues []Issue
	for _, name := range files {
		if pattern, rejected := filter.Rejects(name); rejected {
			msg := fmt.Sprintf("file %q is denied by pattern %q", name, pattern)
			if filter.Mode == rules.FilterAllow {
				msg = fmt.Sprintf("file %q does not match the allow list (%s)", name, pattern)
			}
			issues = append(issues, Issue{
				Kind:    KindDisallowedFile,
				Message: msg,
				Actual:  1,
				Pattern: pattern,
			})
		}
	}
	return issues
}

func namingIssues(res rules.StructureResolution, files []string) []Issue {
	if res.Naming == nil {
		return nil
	}
	var issues []Issue
	for _, name := range files {
		if !res.Naming.MatchString(name) {
			issues = append(issues, Issue{
				Kind:    KindNaming,
				Message: fmt.Sprintf("file %q does not match naming pattern %q", name, res.Naming.String()),
				Actual:  1,
				Pattern: res.Naming.String(),
			})
		}
	}
	return issues
}

func siblingIssues(siblings []rules.CompiledSibling, files []string) []Issue {
	present := make(map[string]bool, len(files))
	for _, name := range files {
		present[name] = true
	}

	var issues []Issue
	for _, sib := range siblings {
		if sib.IsGroup() {
			issues = append(issues, groupIssue(sib, present)...)
			continue
		}
		for _, name := range files {
			ok, err := doublestar.Match(sib.Match, name)
			if err != nil || !ok {
				continue
			}
			stem := strings.TrimSuffix(name, path.Ext(name))
			for _, want := range sib.ExpandStem(stem) {
				if present[want] {
					continue
				}
				issues = append(issues, Issue{
					Kind:    KindSiblingMissing,
					Message: fmt.Sprintf("%q requires sibling %q", name, want),
					Actual:  1,
					Pattern: want,
					Warn:    sib.Warn,
				})
			}
		}
	}
	return issues
}

func groupIssue(sib rules.CompiledSibling, present map[string]bool) []Issue {
	var have, missing []string
	for _, member := range sib.Group {
		if present[member] {
			have = append(have, member)
		} else {
			missing = append(missing, member)
		}
	}
	if len(have) == 0 || len(missing) == 0 {
		return nil
	}
	return []Issue{{
		Kind: KindGroupIncomplete,
		Message: fmt.Sprintf("group incomplete: have %s, missing %s",
			strings.Join(have, ", "), strings.Join(missing, ", ")),
		Actual:  int64(len(have)),
		Limit:   int64(len(sib.Group)),
		Pattern: strings.Join(sib.Group, ","),
		Warn:    sib.Warn,
	}}
}
