package checker

import (
	"testing"
	"time"

	"github.com/slocwatch/slocwatch/src/baseline"
	"github.com/slocwatch/slocwatch/src/config"
	"github.com/slocwatch/slocwatch/src/rules"
)

var testNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func buildIndex(t *testing.T, cfg *config.Config) *rules.Index {
	t.Helper()

	idx, err := rules.NewIndex(cfg, testNow)
	if err != nil {
		t.Fatalf("building index: %v", err)
	}
	return idx
}

func int64p(v int64) *int64 { return &v }

// limit 500, warn threshold 0.8: warnings start at 400, the limit itself
// still passes, one line over fails.
func TestEvaluateContentBoundaries(t *testing.T) {
	cfg := config.Default()
	cfg.Content.SkipComments = false
	cfg.Content.SkipBlank = false
	idx := buildIndex(t, cfg)

	cases := []struct {
		lines int64
		want  Status
	}{
		{399, StatusPassed},
		{400, StatusWarning},
		{401, StatusWarning},
		{499, StatusWarning},
		{500, StatusPassed},
		{501, StatusFailed},
	}
	for _, tc := range cases {
		m := FileMetrics{Total: tc.lines, Code: tc.lines, Hash: "h"}
		v := EvaluateContent(idx, "src/file.go", m, nil)
		if v.Status != tc.want {
			t.Errorf("%d lines: status = %s, want %s", tc.lines, v.Status, tc.want)
		}
	}
}

func TestEvaluateContentSkipArithmetic(t *testing.T) {
	cfg := config.Default()
	cfg.Content.MaxLines = 100
	cfg.Content.SkipComments = true
	cfg.Content.SkipBlank = true
	idx := buildIndex(t, cfg)

	// 120 total, 15 comment, 10 blank: 95 effective lines, under 100.
	m := FileMetrics{Total: 120, Comment: 15, Blank: 10, Hash: "h"}
	v := EvaluateContent(idx, "src/file.go", m, nil)
	if v.Observed != 95 {
		t.Errorf("observed = %d, want 95", v.Observed)
	}
	if v.Status != StatusWarning { // warn at ceil(0.8*100) = 80
		t.Errorf("status = %s, want warning", v.Status)
	}

	cfg.Content.SkipComments = false
	cfg.Content.SkipBlank = false
	v = EvaluateContent(buildIndex(t, cfg), "src/file.go", m, nil)
	if v.Observed != 120 {
		t.Errorf("observed = %d, want raw total 120", v.Observed)
	}
	if v.Status != StatusFailed {
		t.Errorf("status = %s, want failed", v.Status)
	}
}

func TestEvaluateContentUnlimited(t *testing.T) {
	cfg := config.Default()
	cfg.Content.MaxLines = config.Unlimited
	idx := buildIndex(t, cfg)

	v := EvaluateContent(idx, "src/huge.go", FileMetrics{Total: 99999, Hash: "h"}, nil)
	if v.Status != StatusPassed {
		t.Errorf("status = %s, want passed for unlimited", v.Status)
	}
}

func TestEvaluateContentExcludedIsSkipped(t *testing.T) {
	cfg := config.Default()
	cfg.Content.Exclude = []string{"gen/**"}
	cfg.Content.SkipComments = false
	cfg.Content.SkipBlank = false
	idx := buildIndex(t, cfg)

	v := EvaluateContent(idx, "gen/api.go", FileMetrics{Total: 9000, Hash: "h"}, nil)
	if !v.Skipped || v.Status != StatusPassed {
		t.Errorf("excluded file: skipped=%v status=%s", v.Skipped, v.Status)
	}
}

func TestEvaluateContentGrandfatheringIsHashAddressed(t *testing.T) {
	cfg := config.Default()
	cfg.Content.SkipComments = false
	cfg.Content.SkipBlank = false
	idx := buildIndex(t, cfg)

	b := baseline.New()
	b.SetContent("src/old.go", 700, "recorded-hash")

	m := FileMetrics{Total: 700, Code: 700, Hash: "recorded-hash"}
	v := EvaluateContent(idx, "src/old.go", m, baseline.NewComparator(b))
	if v.Status != StatusGrandfathered {
		t.Errorf("status = %s, want grandfathered while content is unchanged", v.Status)
	}
	if len(v.Issues) != 0 {
		t.Errorf("grandfathered verdict carried %d issues", len(v.Issues))
	}

	// Same path, same length, different content: enforcement returns.
	edited := FileMetrics{Total: 700, Code: 700, Hash: "different-hash"}
	v = EvaluateContent(idx, "src/old.go", edited, baseline.NewComparator(b))
	if v.Status != StatusFailed {
		t.Errorf("status = %s, want failed after content changed", v.Status)
	}
}

func TestEvaluateContentProvenance(t *testing.T) {
	cfg := config.Default()
	cfg.Content.SkipComments = false
	cfg.Content.SkipBlank = false
	cfg.Content.Rules = []config.ContentRule{
		{Pattern: "vendor/legacy/**", MaxLines: int64p(50), Reason: "vendored snapshot"},
	}
	idx := buildIndex(t, cfg)

	v := EvaluateContent(idx, "vendor/legacy/blob.go", FileMetrics{Total: 60, Code: 60, Hash: "h"}, nil)
	if v.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", v.Status)
	}
	if v.Provenance.Reason != "vendored snapshot" {
		t.Errorf("reason = %q, want carried through", v.Provenance.Reason)
	}
	if v.Provenance.RuleIndex != 0 {
		t.Errorf("rule index = %d, want 0", v.Provenance.RuleIndex)
	}
}
