package rules

import (
	"math"
	"regexp"

	"github.com/slocwatch/slocwatch/src/config"
)

// FilterMode tags a child filter as allow-list or deny-list. The two modes
// are mutually exclusive by construction: a ChildFilter carries exactly one.
type FilterMode int

const (
	FilterNone FilterMode = iota
	// FilterAllow rejects anything not matching a pattern.
	FilterAllow
	// FilterDeny rejects anything matching a pattern.
	FilterDeny
)

// ChildFilter is the resolved allow-or-deny filter for directory entries.
type ChildFilter struct {
	Mode     FilterMode
	Patterns []string
}

// Rejects reports whether the filter forbids the given basename, returning
// the pattern responsible when it does.
func (f ChildFilter) Rejects(name string) (string, bool) {
	switch f.Mode {
	case FilterAllow:
		if _, ok := matchAny(f.Patterns, name); ok {
			return "", false
		}
		return joinPatterns(f.Patterns), true
	case FilterDeny:
		if p, ok := matchAny(f.Patterns, name); ok {
			return p, true
		}
	}
	return "", false
}

func joinPatterns(patterns []string) string {
	if len(patterns) == 1 {
		return patterns[0]
	}
	out := ""
	for i, p := range patterns {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// Provenance names the rule (or default) that produced a resolved value.
type Provenance struct {
	// RuleIndex is the declaration index of the matched rule, -1 when
	// spec defaults apply.
	RuleIndex int    `json:"rule_index"`
	Pattern   string `json:"pattern,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Defaulted reports whether no rule matched.
func (p Provenance) Defaulted() bool { return p.RuleIndex < 0 }

// ContentResolution is the effective content rule for one file path.
type ContentResolution struct {
	// Excluded means the path is invisible to content checking. It stays
	// visible to structure checking; the dimensions are decoupled.
	Excluded       bool
	ExcludePattern string

	// Limit is the effective line limit; config.Unlimited disables it.
	Limit int64
	// WarnAt is the absolute warning boundary (code_lines >= WarnAt warns).
	// Zero when warnings are disabled (unlimited limit).
	WarnAt       int64
	SkipComments bool
	SkipBlank    bool

	Provenance Provenance
	Trail      []Step
}

// ResolveContent computes the effective content rule for a file path.
func (idx *Index) ResolveContent(path string) ContentResolution {
	spec := idx.cfg.Content

	res := ContentResolution{
		Limit:        spec.MaxLines,
		SkipComments: spec.SkipComments,
		SkipBlank:    spec.SkipBlank,
		Provenance:   Provenance{RuleIndex: -1},
	}

	if pattern, ok := matchAny(spec.Exclude, path); ok {
		res.Excluded = true
		res.ExcludePattern = pattern
		return res
	}

	winner, trail := selectRule("content.rules", idx.content, path, idx.now)
	res.Trail = trail

	var rule *config.ContentRule
	if winner >= 0 {
		rule = &idx.content[winner].rule
		res.Provenance = Provenance{RuleIndex: winner, Pattern: rule.Pattern, Reason: rule.Reason}
		if rule.MaxLines != nil {
			res.Limit = *rule.MaxLines
		}
		if rule.SkipComments != nil {
			res.SkipComments = *rule.SkipComments
		}
		if rule.SkipBlank != nil {
			res.SkipBlank = *rule.SkipBlank
		}
	}

	res.WarnAt = contentWarnAt(spec, rule, res.Limit)
	return res
}

// contentWarnAt computes the warning boundary through the fallback chain:
// rule absolute, rule percentage, spec absolute, spec percentage, built-in
// default. Absolute outranks percentage at the same scope because
// percentage arithmetic on small limits rounds unreliably.
func contentWarnAt(spec config.ContentSpec, rule *config.ContentRule, limit int64) int64 {
	if limit == config.Unlimited {
		return 0
	}
	if rule != nil {
		if rule.WarnAt != nil {
			return *rule.WarnAt
		}
		if rule.WarnThreshold != nil {
			return thresholdOf(limit, *rule.WarnThreshold)
		}
	}
	if spec.WarnAt > 0 {
		return spec.WarnAt
	}
	if spec.WarnThreshold > 0 {
		return thresholdOf(limit, spec.WarnThreshold)
	}
	return thresholdOf(limit, config.DefaultWarnThreshold)
}

func thresholdOf(limit int64, fraction float64) int64 {
	return int64(math.Ceil(float64(limit) * fraction))
}

// StructureResolution is the effective structure rule for one directory.
type StructureResolution struct {
	// Limits; nil means "not checked", config.Unlimited means explicitly
	// unlimited (same outcome, different provenance).
	MaxFiles *int64
	MaxDirs  *int64
	MaxDepth *int64
	// DepthOffset is subtracted from the observed depth before comparing
	// against MaxDepth; non-zero only for relative depth rules.
	DepthOffset int64

	// WarnAtFiles/WarnAtDirs are absolute warning boundaries; zero
	// disables the warning band for that dimension.
	WarnAtFiles int64
	WarnAtDirs  int64

	Filter   ChildFilter
	Naming   *regexp.Regexp
	Siblings []CompiledSibling

	Provenance Provenance
	Trail      []Step
}

// ResolveStructure computes the effective structure rule for a directory.
func (idx *Index) ResolveStructure(dir string) StructureResolution {
	spec := idx.cfg.Structure

	res := StructureResolution{
		MaxFiles:   spec.MaxFiles,
		MaxDirs:    spec.MaxDirs,
		MaxDepth:   spec.MaxDepth,
		Provenance: Provenance{RuleIndex: -1},
	}
	res.Filter = filterFrom(spec.AllowFiles, spec.DenyFiles)

	warnThreshold := config.DefaultWarnThreshold
	warnAt := int64(0)
	if spec.WarnThreshold != nil {
		warnThreshold = *spec.WarnThreshold
	}
	if spec.WarnAt != nil {
		warnAt = *spec.WarnAt
	}

	winner, trail := selectRule("structure.rules", idx.structure, dir, idx.now)
	res.Trail = trail

	if winner >= 0 {
		entry := idx.structure[winner]
		rule := entry.rule
		res.Provenance = Provenance{RuleIndex: winner, Pattern: rule.Scope, Reason: rule.Reason}
		if rule.MaxFiles != nil {
			res.MaxFiles = rule.MaxFiles
		}
		if rule.MaxDirs != nil {
			res.MaxDirs = rule.MaxDirs
		}
		if rule.MaxDepth != nil {
			res.MaxDepth = rule.MaxDepth
			if rule.DepthMode == config.DepthRelative {
				res.DepthOffset = entry.scopeDepth
			}
		}
		if len(rule.AllowFiles) > 0 || len(rule.DenyFiles) > 0 {
			res.Filter = filterFrom(rule.AllowFiles, rule.DenyFiles)
		}
		res.Naming = entry.naming
		res.Siblings = entry.siblings
		if rule.WarnAt != nil {
			warnAt = *rule.WarnAt
			warnThreshold = 0
		} else if rule.WarnThreshold != nil {
			warnThreshold = *rule.WarnThreshold
			warnAt = 0
		}
	}

	res.WarnAtFiles = structureWarnAt(res.MaxFiles, warnAt, warnThreshold)
	res.WarnAtDirs = structureWarnAt(res.MaxDirs, warnAt, warnThreshold)
	return res
}

func structureWarnAt(limit *int64, warnAt int64, threshold float64) int64 {
	if limit == nil || *limit == config.Unlimited {
		return 0
	}
	if warnAt > 0 {
		return warnAt
	}
	if threshold > 0 {
		return thresholdOf(*limit, threshold)
	}
	return 0
}

func filterFrom(allow, deny []string) ChildFilter {
	switch {
	case len(allow) > 0:
		return ChildFilter{Mode: FilterAllow, Patterns: allow}
	case len(deny) > 0:
		return ChildFilter{Mode: FilterDeny, Patterns: deny}
	default:
		return ChildFilter{}
	}
}
