package rules

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/slocwatch/slocwatch/src/config"
)

// Index is the compiled, declaration-ordered rule set for one run. Built
// once per Configuration and shared read-only across workers.
type Index struct {
	cfg *config.Config

	content   []contentEntry
	structure []structureEntry

	// now anchors expiry checks so a run is self-consistent.
	now time.Time
}

type contentEntry struct {
	rule config.ContentRule
}

func (e contentEntry) scope() string  { return e.rule.Pattern }
func (e contentEntry) expiry() string { return e.rule.Expires }

type structureEntry struct {
	rule     config.StructureRule
	naming   *regexp.Regexp
	siblings []CompiledSibling
	// scopeDepth is the directory depth of the scope's literal prefix,
	// used when the rule measures depth relative to its scope root.
	scopeDepth int64
}

func (e structureEntry) scope() string  { return e.rule.Scope }
func (e structureEntry) expiry() string { return e.rule.Expires }

// CompiledSibling is a sibling requirement ready for evaluation.
type CompiledSibling struct {
	// Directed form: Match pattern plus {stem} templates.
	Match     string
	Templates []string
	// Group form: all-or-none member names.
	Group []string
	// Warn downgrades violations to warning severity.
	Warn bool
}

// IsGroup reports whether this is the all-or-none form.
func (s CompiledSibling) IsGroup() bool { return len(s.Group) > 0 }

// ExpandStem substitutes the {stem} placeholder in every template.
func (s CompiledSibling) ExpandStem(stem string) []string {
	out := make([]string, len(s.Templates))
	for i, tmpl := range s.Templates {
		out[i] = strings.ReplaceAll(tmpl, "{stem}", stem)
	}
	return out
}

// NewIndex compiles the configuration's rules. The config must already be
// validated; compilation failures here indicate a programming error.
func NewIndex(cfg *config.Config, now time.Time) (*Index, error) {
	idx := &Index{cfg: cfg, now: now}

	for _, rule := range cfg.Content.Rules {
		idx.content = append(idx.content, contentEntry{rule: rule})
	}

	for i, rule := range cfg.Structure.Rules {
		entry := structureEntry{rule: rule, scopeDepth: scopeRootDepth(rule.Scope)}
		if rule.Naming != "" {
			re, err := regexp.Compile(rule.Naming)
			if err != nil {
				return nil, fmt.Errorf("structure.rules[%d]: naming: %w", i, err)
			}
			entry.naming = re
		}
		for _, sib := range rule.Siblings {
			cs := CompiledSibling{
				Match:     sib.Match,
				Templates: sib.Require,
				Group:     sib.Group,
				Warn:      sib.Severity == config.SiblingWarn,
			}
			entry.siblings = append(entry.siblings, cs)
		}
		idx.structure = append(idx.structure, entry)
	}

	return idx, nil
}

// Config returns the configuration the index was compiled from.
func (idx *Index) Config() *config.Config { return idx.cfg }

// scopeRootDepth counts the path segments of a glob's literal prefix.
// "src/components/**" has a scope root of src/components, depth 2.
func scopeRootDepth(scope string) int64 {
	var depth int64
	for _, seg := range strings.Split(scope, "/") {
		if strings.ContainsAny(seg, "*?[{") {
			break
		}
		if seg != "" {
			depth++
		}
	}
	return depth
}
