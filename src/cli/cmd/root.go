package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/slocwatch/slocwatch/src/config"
)

// errViolations signals a clean run that found failing paths, so main can
// exit 1 instead of the 2 reserved for config and usage errors.
var errViolations = errors.New("limit violations found")

var (
	cfgFile      string
	verbose      bool
	noColor      bool
	jsonOut      bool
	offline      bool
	forceRefresh bool

	rootDir string
	cfg     *config.Config
	chain   []config.Fragment
)

var rootCmd = &cobra.Command{
	Use:   "slocwatch",
	Short: "Source tree limit enforcement",
	Long: `slocwatch enforces per-file line limits and per-directory structure
limits, with config inheritance, baselines for existing debt, and a
ratchet that keeps the debt from growing.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Commands that create or ignore config skip loading.
		switch cmd.Name() {
		case "version", "init":
			return nil
		}
		return loadConfig()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .slocwatch.toml or .slocwatch.yml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "C", ".", "directory to operate in")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "serve remote configs from cache only")
	rootCmd.PersistentFlags().BoolVar(&forceRefresh, "force-refresh", false, "bypass the remote config cache")
}

// loadConfig resolves the effective configuration for rootDir. A missing
// config file falls back to defaults; a broken one is fatal.
func loadConfig() error {
	path := cfgFile
	if path == "" {
		found, err := config.Discover(rootDir)
		if errors.Is(err, config.ErrNotFound) {
			cfg = config.Default()
			chain = nil
			return nil
		}
		if err != nil {
			return err
		}
		path = found
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(rootDir, path)
	}

	resolver := &config.Resolver{Fetcher: config.NewFetcher(nil, fetchPolicy())}
	result, err := resolver.Resolve(path)
	if err != nil {
		return err
	}
	cfg = result.Config
	chain = result.Chain

	if verbose {
		for _, w := range result.Warnings {
			fmt.Fprintf(os.Stderr, "config: %s\n", w)
		}
	}
	return nil
}

func fetchPolicy() config.FetchPolicy {
	switch {
	case forceRefresh:
		return config.FetchForceRefresh
	case offline:
		return config.FetchOffline
	default:
		return config.FetchNormal
	}
}

// baselinePath resolves the baseline file location under rootDir.
func baselinePath() string {
	path := cfg.Baseline.Path
	if path == "" {
		path = ".slocwatch-baseline.json"
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(rootDir, path)
	}
	return path
}

// Execute runs the root command and maps errors to exit codes: 0 clean,
// 1 limit violations, 2 config or usage errors.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errViolations) {
			return 1
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 2
	}
	return 0
}
