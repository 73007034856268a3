// Package rules compiles a resolved configuration into an index and answers
// "which rule governs this path" for both enforcement dimensions with one
// matching algorithm. The trail it records is the same data the explain
// surface renders, so explanation can never drift from enforcement.
package rules

import (
	"fmt"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// MatchStatus classifies one rule's part in a match decision.
type MatchStatus string

const (
	// StatusMatched marks the selected rule.
	StatusMatched MatchStatus = "matched"
	// StatusSuperseded marks a match overridden by a later declaration.
	StatusSuperseded MatchStatus = "superseded"
	// StatusNoMatch marks a rule whose scope did not cover the path.
	StatusNoMatch MatchStatus = "no_match"
	// StatusExpired marks a scope match ignored because the rule expired.
	StatusExpired MatchStatus = "expired"
)

// Step is one entry in a match trail.
type Step struct {
	// Source identifies the rule, e.g. "content.rules[2]".
	Source  string      `json:"source"`
	Pattern string      `json:"pattern"`
	Status  MatchStatus `json:"status"`
}

// scoped is what the generic matcher needs from either rule kind.
type scoped interface {
	scope() string
	expiry() string
}

// selectRule walks rules in declaration order and returns the index of the
// winning rule (-1 for none) plus the full trail. Later declarations beat
// earlier ones; expired rules are skipped as if absent but stay on the
// trail for diagnostics.
func selectRule[R scoped](kind string, list []R, path string, now time.Time) (int, []Step) {
	winner := -1
	trail := make([]Step, 0, len(list))
	for i, rule := range list {
		step := Step{
			Source:  fmt.Sprintf("%s[%d]", kind, i),
			Pattern: rule.scope(),
		}
		matched, err := doublestar.Match(rule.scope(), path)
		switch {
		case err != nil || !matched:
			step.Status = StatusNoMatch
		case expired(rule.expiry(), now):
			step.Status = StatusExpired
		default:
			if winner >= 0 {
				trail[winner].Status = StatusSuperseded
			}
			step.Status = StatusMatched
			winner = i
		}
		trail = append(trail, step)
	}
	return winner, trail
}

func expired(date string, now time.Time) bool {
	if date == "" {
		return false
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false
	}
	return now.After(t.Add(24 * time.Hour))
}

// matchAny reports whether any pattern matches the path. Invalid patterns
// never reach here; config validation rejects them at load.
func matchAny(patterns []string, path string) (string, bool) {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, path); err == nil && ok {
			return p, true
		}
	}
	return "", false
}
