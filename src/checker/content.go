package checker

import (
	"fmt"

	"github.com/slocwatch/slocwatch/src/baseline"
	"github.com/slocwatch/slocwatch/src/config"
	"github.com/slocwatch/slocwatch/src/rules"
)

// FileMetrics are the per-file observations supplied by a metrics provider.
// Line classification is entirely the provider's concern.
type FileMetrics struct {
	Total   int64
	Code    int64
	Comment int64
	Blank   int64
	// Hash is the sha256 of the file content, hex encoded.
	Hash string
}

// MetricsProvider supplies FileMetrics for requested files. Implementations
// may be cache-backed; the evaluators only need the values.
type MetricsProvider interface {
	Metrics(path string) (FileMetrics, error)
}

// EvaluateContent produces the content verdict for one file. Pure function
// of the index, the observations, and the baseline; safe to call from many
// workers at once.
func EvaluateContent(idx *rules.Index, path string, m FileMetrics, bl *baseline.Comparator) Verdict {
	res := idx.ResolveContent(path)

	v := Verdict{
		Path:       path,
		Dimension:  DimContent,
		Limit:      res.Limit,
		WarnAt:     res.WarnAt,
		Provenance: res.Provenance,
		Hash:       m.Hash,
	}

	if res.Excluded {
		v.Skipped = true
		v.Status = StatusPassed
		return v
	}

	code := m.Total
	if res.SkipComments {
		code -= m.Comment
	}
	if res.SkipBlank {
		code -= m.Blank
	}
	if code < 0 {
		code = 0
	}
	v.Observed = code

	if res.Limit == config.Unlimited {
		v.Status = StatusPassed
		return v
	}

	switch {
	case code > res.Limit:
		v.Status = StatusFailed
		v.Issues = append(v.Issues, Issue{
			Kind:    KindLineCount,
			Message: fmt.Sprintf("%d lines of code, limit is %d", code, res.Limit),
			Actual:  code,
			Limit:   res.Limit,
		})
	case code == res.Limit:
		// Exactly at the limit still passes; the warning band covers
		// warn_at up to but not including the limit.
		v.Status = StatusPassed
	case res.WarnAt > 0 && code >= res.WarnAt:
		v.Status = StatusWarning
		v.Issues = append(v.Issues, Issue{
			Kind:    KindLineCount,
			Message: fmt.Sprintf("%d lines of code, approaching limit %d", code, res.Limit),
			Actual:  code,
			Limit:   res.Limit,
			Warn:    true,
		})
	default:
		v.Status = StatusPassed
	}

	if v.Status == StatusFailed || v.Status == StatusWarning {
		if bl != nil && bl.CoversContent(path, m.Hash) {
			v.Status = StatusGrandfathered
			v.Issues = nil
		}
	}

	return v
}
