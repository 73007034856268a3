package checker

import (
	"fmt"

	"github.com/slocwatch/slocwatch/src/rules"
)

// Status is the outcome of evaluating one path.
type Status int

const (
	StatusPassed Status = iota
	StatusWarning
	StatusFailed
	// StatusGrandfathered is a failing result suppressed by the baseline.
	StatusGrandfathered
)

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusWarning:
		return "warning"
	case StatusFailed:
		return "failed"
	case StatusGrandfathered:
		return "grandfathered"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalJSON renders statuses by name in machine output.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Dimension tags which evaluator produced a verdict.
type Dimension string

const (
	DimContent   Dimension = "content"
	DimStructure Dimension = "structure"
)

// ViolationKind classifies a single structure or content finding.
type ViolationKind string

const (
	KindLineCount       ViolationKind = "line_count"
	KindFileCount       ViolationKind = "file_count"
	KindDirCount        ViolationKind = "dir_count"
	KindMaxDepth        ViolationKind = "max_depth"
	KindDisallowedFile  ViolationKind = "disallowed_file"
	KindNaming          ViolationKind = "naming"
	KindSiblingMissing  ViolationKind = "sibling_missing"
	KindGroupIncomplete ViolationKind = "group_incomplete"
)

// Issue is one diagnostic finding inside a Warning or Failed verdict.
type Issue struct {
	Kind    ViolationKind `json:"kind"`
	Message string        `json:"message"`
	Actual  int64         `json:"actual,omitempty"`
	Limit   int64         `json:"limit,omitempty"`
	// Pattern is the triggering allow/deny pattern, naming regex, or
	// sibling template, where one applies.
	Pattern string `json:"pattern,omitempty"`
	// Warn downgrades this issue to warning severity.
	Warn bool `json:"warn,omitempty"`
}

// Verdict is the result of evaluating one path on one dimension. It carries
// everything a renderer needs; no resolution logic has to be re-derived
// downstream.
type Verdict struct {
	Path      string    `json:"path"`
	Dimension Dimension `json:"dimension"`
	Status    Status    `json:"status"`

	// Observed is code lines for content, the worst-offending count for
	// structure.
	Observed int64 `json:"observed"`
	// Limit is the resolved effective limit for the observed value.
	Limit  int64 `json:"limit"`
	WarnAt int64 `json:"warn_at,omitempty"`

	Provenance rules.Provenance `json:"provenance"`
	Issues     []Issue          `json:"issues,omitempty"`

	// Skipped marks paths invisible to this dimension (content excludes).
	Skipped bool `json:"skipped,omitempty"`
	// Hash is the content hash backing grandfathering decisions.
	Hash string `json:"-"`
}

// Failing reports whether the verdict counts against the exit code.
// Strict mode promotes warnings.
func (v Verdict) Failing(strict bool) bool {
	switch v.Status {
	case StatusFailed:
		return true
	case StatusWarning:
		return strict
	default:
		return false
	}
}

// UsagePercent is observed/limit for display; zero when unlimited.
func (v Verdict) UsagePercent() float64 {
	if v.Limit <= 0 {
		return 0
	}
	return float64(v.Observed) / float64(v.Limit) * 100
}

// PathError reports a path that could not be evaluated. Isolated per path:
// one unreadable file never aborts a run.
type PathError struct {
	Path string
	Err  error
}

func (e PathError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }
func (e PathError) Unwrap() error { return e.Err }
