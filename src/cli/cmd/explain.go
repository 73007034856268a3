package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/slocwatch/slocwatch/src/output"
	"github.com/slocwatch/slocwatch/src/rules"
)

var explainStructure bool

var explainCmd = &cobra.Command{
	Use:   "explain <path>",
	Short: "Show which rule governs a path and why",
	Long: `Resolve the effective limits for one path and print the full rule
chain: every declared rule, whether it matched, and which one won.

Paths that exist on disk are classified automatically; use --structure
to explain directory limits for a path that does not exist yet.`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().BoolVar(&explainStructure, "structure", false, "explain directory limits instead of line limits")

	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	target := filepath.ToSlash(args[0])

	idx, err := rules.NewIndex(cfg, time.Now())
	if err != nil {
		return err
	}

	isDir := explainStructure
	if !isDir {
		if info, err := os.Stat(filepath.Join(rootDir, filepath.FromSlash(target))); err == nil {
			isDir = info.IsDir()
		}
	}

	p := printer()
	if isDir {
		exp := idx.ExplainStructure(target)
		if jsonOut {
			return output.RenderJSON(os.Stdout, exp)
		}
		p.ExplainStructure(exp)
		return nil
	}

	exp := idx.ExplainContent(target)
	if jsonOut {
		return output.RenderJSON(os.Stdout, exp)
	}
	p.ExplainContent(exp)
	return nil
}
