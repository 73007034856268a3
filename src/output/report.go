package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slocwatch/slocwatch/src/baseline"
	"github.com/slocwatch/slocwatch/src/checker"
)

// reportVersion is the machine-output schema version.
const reportVersion = 1

// Summary mirrors checker.Counts in the report.
type Summary struct {
	Checked       int `json:"checked"`
	Passed        int `json:"passed"`
	Warnings      int `json:"warnings"`
	Failed        int `json:"failed"`
	Grandfathered int `json:"grandfathered"`
	Skipped       int `json:"skipped"`
}

// Report is the JSON document for one check run.
type Report struct {
	Version   int               `json:"version"`
	Passed    bool              `json:"passed"`
	Summary   Summary           `json:"summary"`
	Verdicts  []checker.Verdict `json:"verdicts"`
	Errors    []string          `json:"errors,omitempty"`
	Ratchet   *baseline.RatchetOutcome `json:"ratchet,omitempty"`
	ElapsedMS int64             `json:"elapsed_ms"`
}

// NewReport assembles the machine view of a run. Passed and skipped
// verdicts are included; consumers filter.
func NewReport(res *checker.RunResult, ratchet *baseline.RatchetOutcome, strict bool, elapsed time.Duration) *Report {
	c := res.Count("")
	rep := &Report{
		Version: reportVersion,
		Passed:  !res.Failing(strict),
		Summary: Summary{
			Checked:       len(res.Verdicts) - c.Skipped,
			Passed:        c.Passed,
			Warnings:      c.Warnings,
			Failed:        c.Failed,
			Grandfathered: c.Grandfathered,
			Skipped:       c.Skipped,
		},
		Verdicts:  res.Verdicts,
		ElapsedMS: elapsed.Milliseconds(),
	}
	for _, e := range res.Errors {
		rep.Errors = append(rep.Errors, e.Error())
	}
	if ratchet != nil && ratchet.StaleEntryCount > 0 {
		rep.Ratchet = ratchet
	}
	return rep
}

// Render writes the report as indented JSON.
func (r *Report) Render(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// RenderJSON writes any explain or config value as indented JSON.
func RenderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
