// Package output renders check results for terminals and machines. The
// evaluators hand over complete verdicts; nothing here re-derives policy.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/slocwatch/slocwatch/src/baseline"
	"github.com/slocwatch/slocwatch/src/checker"
	"github.com/slocwatch/slocwatch/src/rules"
)

// Colors for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// Printer formats and writes check results.
type Printer struct {
	Writer  io.Writer
	Color   bool
	Verbose bool
}

// NewPrinter creates a printer writing to stdout with color auto-detection.
func NewPrinter() *Printer {
	return &Printer{
		Writer: os.Stdout,
		Color:  UseColor(),
	}
}

// Print writes every reportable verdict. Passed and skipped paths stay
// silent unless Verbose is set.
func (p *Printer) Print(res *checker.RunResult) {
	for _, v := range res.Verdicts {
		if v.Skipped {
			continue
		}
		if v.Status == checker.StatusPassed && !p.Verbose {
			continue
		}
		p.printVerdict(v)
	}

	for _, e := range res.Errors {
		fmt.Fprintf(p.Writer, "%s %s: %v\n", p.colorize("ERROR", colorRed), e.Path, e.Err)
	}
}

func (p *Printer) printVerdict(v checker.Verdict) {
	tag := p.statusTag(v.Status)

	head := fmt.Sprintf("%s %s", tag, p.colorize(v.Path, colorBold))
	if v.Limit > 0 {
		head += fmt.Sprintf("  %s", p.colorize(fmt.Sprintf("%d/%d (%.0f%%)",
			v.Observed, v.Limit, v.UsagePercent()), colorGray))
	}
	fmt.Fprintln(p.Writer, head)

	for _, issue := range v.Issues {
		fmt.Fprintf(p.Writer, "    %s %s\n", p.colorize(string(issue.Kind), colorCyan), issue.Message)
	}
	if v.Provenance.Reason != "" {
		fmt.Fprintf(p.Writer, "    %s\n", p.colorize("reason: "+v.Provenance.Reason, colorGray))
	}
}

// Summary writes the closing line for a run.
func (p *Printer) Summary(res *checker.RunResult, elapsed time.Duration) {
	c := res.Count("")

	parts := []string{}
	if c.Failed > 0 {
		parts = append(parts, p.colorize(fmt.Sprintf("%d failed", c.Failed), colorRed))
	}
	if c.Warnings > 0 {
		parts = append(parts, p.colorize(fmt.Sprintf("%d warning", c.Warnings), colorYellow))
	}
	if c.Grandfathered > 0 {
		parts = append(parts, p.colorize(fmt.Sprintf("%d grandfathered", c.Grandfathered), colorGray))
	}
	parts = append(parts, fmt.Sprintf("%d passed", c.Passed))

	checked := len(res.Verdicts) - c.Skipped
	fmt.Fprintf(p.Writer, "\n%s in %d paths (%s)\n",
		strings.Join(parts, ", "), checked, elapsed.Round(time.Millisecond))
}

// Ratchet reports stale baseline entries per the configured mode.
func (p *Printer) Ratchet(outcome baseline.RatchetOutcome, mode string) {
	if outcome.StaleEntryCount == 0 {
		return
	}
	tag := p.colorize("RATCHET", colorYellow)
	if mode == "strict" {
		tag = p.colorize("RATCHET", colorRed)
	}
	fmt.Fprintf(p.Writer, "\n%s %d baseline entries no longer reproduce:\n", tag, outcome.StaleEntryCount)
	for _, path := range outcome.StalePaths {
		fmt.Fprintf(p.Writer, "    %s\n", path)
	}
	switch mode {
	case "strict":
		fmt.Fprintf(p.Writer, "    run with --update-baseline to prune them\n")
	case "auto":
		fmt.Fprintf(p.Writer, "    pruned automatically\n")
	}
}

// ExplainContent renders the resolution chain for one file.
func (p *Printer) ExplainContent(exp rules.ContentExplanation) {
	fmt.Fprintf(p.Writer, "%s (content)\n", p.colorize(exp.Path, colorBold))
	if exp.Excluded {
		fmt.Fprintf(p.Writer, "  excluded by %s\n", exp.ExcludePattern)
		return
	}
	limit := fmt.Sprintf("%d", exp.EffectiveLimit)
	if exp.EffectiveLimit < 0 {
		limit = "unlimited"
	}
	fmt.Fprintf(p.Writer, "  limit %s, warn at %d, skip comments %t, skip blank %t\n",
		limit, exp.WarnAt, exp.SkipComments, exp.SkipBlank)
	p.printMatch(exp.Matched)
	p.printTrail(exp.Trail)
}

// ExplainStructure renders the resolution chain for one directory.
func (p *Printer) ExplainStructure(exp rules.StructureExplanation) {
	fmt.Fprintf(p.Writer, "%s (structure)\n", p.colorize(exp.Path, colorBold))
	limits := []string{}
	if exp.MaxFiles != nil {
		limits = append(limits, fmt.Sprintf("max_files %d", *exp.MaxFiles))
	}
	if exp.MaxDirs != nil {
		limits = append(limits, fmt.Sprintf("max_dirs %d", *exp.MaxDirs))
	}
	if exp.MaxDepth != nil {
		limits = append(limits, fmt.Sprintf("max_depth %d", *exp.MaxDepth))
	}
	if exp.Naming != "" {
		limits = append(limits, fmt.Sprintf("naming %s", exp.Naming))
	}
	if exp.FilterMode != "" {
		limits = append(limits, fmt.Sprintf("%s filter", exp.FilterMode))
	}
	if len(limits) == 0 {
		limits = append(limits, "no limits")
	}
	fmt.Fprintf(p.Writer, "  %s\n", strings.Join(limits, ", "))
	p.printMatch(exp.Matched)
	p.printTrail(exp.Trail)
}

func (p *Printer) printMatch(prov rules.Provenance) {
	if prov.Defaulted() {
		fmt.Fprintf(p.Writer, "  source: defaults\n")
		return
	}
	fmt.Fprintf(p.Writer, "  source: rule %d (%s)\n", prov.RuleIndex, prov.Pattern)
	if prov.Reason != "" {
		fmt.Fprintf(p.Writer, "  reason: %s\n", prov.Reason)
	}
}

func (p *Printer) printTrail(trail []rules.Step) {
	if len(trail) == 0 {
		return
	}
	fmt.Fprintf(p.Writer, "  rule chain:\n")
	for _, step := range trail {
		color := colorGray
		switch step.Status {
		case rules.StatusMatched:
			color = colorGreen
		case rules.StatusSuperseded:
			color = colorYellow
		}
		fmt.Fprintf(p.Writer, "    %s %s %s\n",
			p.colorize(string(step.Status), color), step.Source, step.Pattern)
	}
}

func (p *Printer) statusTag(s checker.Status) string {
	switch s {
	case checker.StatusFailed:
		return p.colorize("FAIL", colorRed)
	case checker.StatusWarning:
		return p.colorize("WARN", colorYellow)
	case checker.StatusGrandfathered:
		return p.colorize("BASE", colorGray)
	default:
		return p.colorize("PASS", colorGreen)
	}
}

func (p *Printer) colorize(text, color string) string {
	if !p.Color {
		return text
	}
	return color + text + colorReset
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// UseColor respects NO_COLOR, TERM=dumb, and terminal detection.
func UseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminal()
}
