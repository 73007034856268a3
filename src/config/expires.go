package config

import (
	"fmt"
	"time"
)

const expiryLayout = "2006-01-02"

// ParseExpiry parses a rule expiry in YYYY-MM-DD form.
func ParseExpiry(date string) (time.Time, error) {
	t, err := time.Parse(expiryLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid expires date %q: expected YYYY-MM-DD", date)
	}
	return t, nil
}

// Expired reports whether date has passed relative to now. Unparseable
// dates count as not expired here; validation rejects them at load time.
func Expired(date string, now time.Time) bool {
	if date == "" {
		return false
	}
	t, err := ParseExpiry(date)
	if err != nil {
		return false
	}
	return now.After(t.Add(24 * time.Hour))
}

// ExpiredRuleKind tags which rule list an expired rule came from.
type ExpiredRuleKind string

const (
	ExpiredContent   ExpiredRuleKind = "content"
	ExpiredStructure ExpiredRuleKind = "structure"
)

// ExpiredRule records a rule skipped because its expiry passed. Skipped
// rules are still reported so exemptions cannot lapse invisibly.
type ExpiredRule struct {
	Kind    ExpiredRuleKind
	Index   int
	Pattern string
	Expires string
	Reason  string
}

// CollectExpiredRules lists every expired rule in the config as of now.
func CollectExpiredRules(cfg *Config, now time.Time) []ExpiredRule {
	var expired []ExpiredRule
	for i, rule := range cfg.Content.Rules {
		if Expired(rule.Expires, now) {
			expired = append(expired, ExpiredRule{
				Kind: ExpiredContent, Index: i, Pattern: rule.Pattern,
				Expires: rule.Expires, Reason: rule.Reason,
			})
		}
	}
	for i, rule := range cfg.Structure.Rules {
		if Expired(rule.Expires, now) {
			expired = append(expired, ExpiredRule{
				Kind: ExpiredStructure, Index: i, Pattern: rule.Scope,
				Expires: rule.Expires, Reason: rule.Reason,
			})
		}
	}
	return expired
}
