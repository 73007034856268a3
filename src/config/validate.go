package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Validate checks semantic invariants of a merged Config. Every problem is
// collected before returning so one run surfaces the full list. Invalid
// patterns are fatal here: a rule dropped at match time would be a silent
// enforcement gap.
func Validate(cfg *Config) error {
	var errs []string

	checkGlobs := func(field string, patterns []string) {
		for i, p := range patterns {
			if !doublestar.ValidatePattern(p) {
				errs = append(errs, fmt.Sprintf("%s[%d]: invalid glob pattern %q", field, i, p))
			}
		}
	}

	checkGlobs("scanner.exclude", cfg.Scanner.Exclude)
	checkGlobs("content.exclude", cfg.Content.Exclude)
	checkGlobs("structure.count_exclude", cfg.Structure.CountExclude)

	// ── Content ──────────────────────────────────────────────────────────

	if cfg.Content.MaxLines < Unlimited {
		errs = append(errs, fmt.Sprintf("content.max_lines: invalid value %d; use -1 for unlimited or a positive number", cfg.Content.MaxLines))
	}
	if t := cfg.Content.WarnThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Sprintf("content.warn_threshold: must be within 0.0..1.0, got %g", t))
	}
	if cfg.Content.WarnAt < 0 {
		errs = append(errs, fmt.Sprintf("content.warn_at: must be non-negative, got %d", cfg.Content.WarnAt))
	}

	for i, rule := range cfg.Content.Rules {
		field := fmt.Sprintf("content.rules[%d]", i)
		if rule.Pattern == "" {
			errs = append(errs, field+": pattern is required")
		} else if !doublestar.ValidatePattern(rule.Pattern) {
			errs = append(errs, fmt.Sprintf("%s: invalid glob pattern %q", field, rule.Pattern))
		}
		if rule.MaxLines != nil && *rule.MaxLines < Unlimited {
			errs = append(errs, fmt.Sprintf("%s: invalid max_lines %d; use -1 for unlimited or a positive number", field, *rule.MaxLines))
		}
		if rule.WarnThreshold != nil && (*rule.WarnThreshold < 0 || *rule.WarnThreshold > 1) {
			errs = append(errs, fmt.Sprintf("%s: warn_threshold must be within 0.0..1.0, got %g", field, *rule.WarnThreshold))
		}
		if rule.Expires != "" {
			if _, err := ParseExpiry(rule.Expires); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", field, err))
			}
		}
	}

	// ── Structure ────────────────────────────────────────────────────────

	checkLimit := func(field string, v *int64) {
		if v != nil && *v < Unlimited {
			errs = append(errs, fmt.Sprintf("%s: invalid value %d; use -1 for unlimited, 0 for prohibited, or a positive number", field, *v))
		}
	}
	checkLimit("structure.max_files", cfg.Structure.MaxFiles)
	checkLimit("structure.max_dirs", cfg.Structure.MaxDirs)
	checkLimit("structure.max_depth", cfg.Structure.MaxDepth)
	if t := cfg.Structure.WarnThreshold; t != nil && (*t < 0 || *t > 1) {
		errs = append(errs, fmt.Sprintf("structure.warn_threshold: must be within 0.0..1.0, got %g", *t))
	}

	if len(cfg.Structure.AllowFiles) > 0 && len(cfg.Structure.DenyFiles) > 0 {
		errs = append(errs, "structure: allow_files and deny_files are mutually exclusive; pick one mode")
	}
	checkGlobs("structure.allow_files", cfg.Structure.AllowFiles)
	checkGlobs("structure.deny_files", cfg.Structure.DenyFiles)

	for i, rule := range cfg.Structure.Rules {
		field := fmt.Sprintf("structure.rules[%d]", i)
		if rule.Scope == "" {
			errs = append(errs, field+": scope is required")
		} else if !doublestar.ValidatePattern(rule.Scope) {
			errs = append(errs, fmt.Sprintf("%s: invalid glob pattern %q", field, rule.Scope))
		}
		checkLimit(field+".max_files", rule.MaxFiles)
		checkLimit(field+".max_dirs", rule.MaxDirs)
		checkLimit(field+".max_depth", rule.MaxDepth)
		if rule.WarnThreshold != nil && (*rule.WarnThreshold < 0 || *rule.WarnThreshold > 1) {
			errs = append(errs, fmt.Sprintf("%s: warn_threshold must be within 0.0..1.0, got %g", field, *rule.WarnThreshold))
		}
		if rule.DepthMode != "" && rule.DepthMode != DepthAbsolute && rule.DepthMode != DepthRelative {
			errs = append(errs, fmt.Sprintf("%s: unknown depth_mode %q (supported: absolute, relative)", field, rule.DepthMode))
		}
		if len(rule.AllowFiles) > 0 && len(rule.DenyFiles) > 0 {
			errs = append(errs, field+": allow_files and deny_files are mutually exclusive; pick one mode")
		}
		checkGlobs(field+".allow_files", rule.AllowFiles)
		checkGlobs(field+".deny_files", rule.DenyFiles)
		if rule.Naming != "" {
			if _, err := regexp.Compile(rule.Naming); err != nil {
				errs = append(errs, fmt.Sprintf("%s: invalid naming regex: %v", field, err))
			}
		}
		if rule.Expires != "" {
			if _, err := ParseExpiry(rule.Expires); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", field, err))
			}
		}
		errs = append(errs, validateSiblings(field, rule.Siblings)...)
	}

	// ── Check / Baseline / Trend ─────────────────────────────────────────

	switch cfg.Baseline.Ratchet {
	case "", RatchetWarn, RatchetAuto, RatchetStrict:
	default:
		errs = append(errs, fmt.Sprintf("baseline.ratchet: unknown mode %q (supported: warn, auto, strict)", cfg.Baseline.Ratchet))
	}
	if cfg.Trend.Enabled && cfg.Trend.Path == "" {
		errs = append(errs, "trend.path: required when trend.enabled is true")
	}

	for name, lang := range cfg.Languages {
		if len(lang.Extensions) == 0 {
			errs = append(errs, fmt.Sprintf("languages.%s: extensions is required", name))
		}
	}

	if len(errs) > 0 {
		return &SemanticError{Field: "config", Msg: strings.Join(errs, "; ")}
	}
	return nil
}

func validateSiblings(field string, siblings []SiblingRule) []string {
	var errs []string
	for j, s := range siblings {
		sfield := fmt.Sprintf("%s.siblings[%d]", field, j)
		directed := s.Match != "" || len(s.Require) > 0
		if directed && s.IsGroup() {
			errs = append(errs, sfield+": match/require and group are mutually exclusive")
			continue
		}
		switch {
		case directed:
			if s.Match == "" {
				errs = append(errs, sfield+": match pattern is required")
			} else if !doublestar.ValidatePattern(s.Match) {
				errs = append(errs, fmt.Sprintf("%s: invalid glob pattern %q", sfield, s.Match))
			}
			if len(s.Require) == 0 {
				errs = append(errs, sfield+": require is required")
			}
			for _, tmpl := range s.Require {
				if tmpl == "" {
					errs = append(errs, sfield+": empty require template")
				} else if !strings.Contains(tmpl, "{stem}") {
					errs = append(errs, fmt.Sprintf("%s: require template %q must contain {stem}", sfield, tmpl))
				}
			}
		case s.IsGroup():
			if len(s.Group) < 2 {
				errs = append(errs, sfield+": group needs at least 2 members")
			}
		default:
			errs = append(errs, sfield+": either match/require or group is required")
		}
		switch s.Severity {
		case "", SiblingError, SiblingWarn:
		default:
			errs = append(errs, fmt.Sprintf("%s: unknown severity %q (supported: error, warn)", sfield, s.Severity))
		}
	}
	return errs
}
