package cmd

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/spf13/cobra"

	"github.com/slocwatch/slocwatch/src/baseline"
	"github.com/slocwatch/slocwatch/src/checker"
	"github.com/slocwatch/slocwatch/src/config"
	"github.com/slocwatch/slocwatch/src/counter"
	"github.com/slocwatch/slocwatch/src/gitdelta"
	"github.com/slocwatch/slocwatch/src/output"
	"github.com/slocwatch/slocwatch/src/rules"
	"github.com/slocwatch/slocwatch/src/scanner"
)

var (
	checkStrict     bool
	checkChanged    bool
	checkStaged     bool
	checkUpdateBase bool
	checkNoCache    bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Enforce line and structure limits",
	Long: `Walk the tree, evaluate every file against its resolved line limit and
every directory against its structure limits, and report violations.

Existing violations recorded in the baseline are grandfathered; the
ratchet reports baseline entries that no longer reproduce.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "treat warnings as failures")
	checkCmd.Flags().BoolVar(&checkChanged, "changed", false, "check only git-changed files")
	checkCmd.Flags().BoolVar(&checkStaged, "staged", false, "check only files with uncommitted changes")
	checkCmd.Flags().BoolVar(&checkUpdateBase, "update-baseline", false, "record current violations as the new baseline")
	checkCmd.Flags().BoolVar(&checkNoCache, "no-cache", false, "disable the metrics cache")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := cmd.Context()

	idx, err := rules.NewIndex(cfg, time.Now())
	if err != nil {
		return err
	}

	tree, err := (&scanner.Scanner{
		Root:      rootDir,
		Exclude:   cfg.Scanner.Exclude,
		Gitignore: cfg.Scanner.Gitignore,
	}).Scan()
	if err != nil {
		return fmt.Errorf("scanning %s: %w", rootDir, err)
	}

	files := filterExtensions(tree.Files, cfg.Content.Extensions)
	if checkChanged || checkStaged || cfg.Check.ChangedOnly {
		delta := &gitdelta.Delta{
			Root:         rootDir,
			TargetBranch: cfg.Check.TargetBranch,
			WorktreeOnly: checkStaged,
		}
		changed, err := delta.ChangedFiles(ctx)
		if err != nil {
			return err
		}
		files = gitdelta.Filter(files, changed)
		if verbose && changed != nil {
			fmt.Fprintf(os.Stderr, "delta: %d of %d files changed\n", len(files), len(tree.Files))
		}
	}

	registry := counter.NewRegistry()
	registry.Apply(cfg.Languages)
	cache := counter.OpenCache(rootDir, counter.ConfigHash(cfg), !checkNoCache)
	provider := &counter.Provider{Root: rootDir, Registry: registry, Cache: cache}

	if checkUpdateBase {
		// Baseline capture evaluates without grandfathering so every
		// current violation is recorded.
		runner := &checker.Runner{Index: idx, Metrics: provider}
		res := runner.Run(ctx, files, tree.Dirs)
		flushCache(cache)
		return writeBaseline(res)
	}

	bl, err := baseline.Load(baselinePath())
	if err != nil {
		return err
	}
	cmp := baseline.NewComparator(bl)

	runner := &checker.Runner{Index: idx, Metrics: provider, Baseline: cmp}
	res := runner.Run(ctx, files, tree.Dirs)
	flushCache(cache)

	strict := checkStrict || cfg.Check.Strict
	mode := cfg.Baseline.Ratchet
	if mode == "" {
		mode = config.RatchetWarn
	}

	outcome := cmp.Outcome()
	if mode == config.RatchetAuto && outcome.StaleEntryCount > 0 {
		if err := baseline.Save(cmp.Pruned(), baselinePath()); err != nil {
			fmt.Fprintf(os.Stderr, "baseline: prune failed: %v\n", err)
		}
	}

	elapsed := time.Since(start)
	failing := res.Failing(strict) ||
		(mode == config.RatchetStrict && outcome.StaleEntryCount > 0)

	if jsonOut {
		rep := output.NewReport(res, &outcome, strict, elapsed)
		rep.Passed = !failing
		if err := rep.Render(os.Stdout); err != nil {
			return err
		}
	} else {
		p := printer()
		p.Print(res)
		p.Ratchet(outcome, string(mode))
		p.Summary(res, elapsed)
	}

	if failing {
		return errViolations
	}
	return nil
}

// writeBaseline persists the failing verdicts of a grandfather-free run.
func writeBaseline(res *checker.RunResult) error {
	b := baseline.New()
	for _, v := range res.Verdicts {
		if v.Status != checker.StatusFailed {
			continue
		}
		switch v.Dimension {
		case checker.DimContent:
			b.SetContent(v.Path, v.Observed, v.Hash)
		case checker.DimStructure:
			for _, is := range v.Issues {
				if !is.Warn {
					b.AddStructure(v.Path, string(is.Kind), is.Actual)
				}
			}
		}
	}
	if err := baseline.Save(b, baselinePath()); err != nil {
		return err
	}
	fmt.Printf("baseline written: %d entries in %s\n", b.Len(), baselinePath())
	return nil
}

func flushCache(cache *counter.Cache) {
	if err := cache.Flush(); err != nil && verbose {
		fmt.Fprintf(os.Stderr, "cache: flush failed: %v\n", err)
	}
}

// filterExtensions keeps files whose extension is in the content list.
// An empty list keeps everything.
func filterExtensions(files []string, exts []string) []string {
	if len(exts) == 0 {
		return files
	}
	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		want[e] = true
	}
	kept := files[:0:0]
	for _, f := range files {
		ext := path.Ext(f)
		if ext != "" && want[ext[1:]] {
			kept = append(kept, f)
		}
	}
	return kept
}

func printer() *output.Printer {
	p := output.NewPrinter()
	if noColor {
		p.Color = false
	}
	p.Verbose = verbose
	return p
}
