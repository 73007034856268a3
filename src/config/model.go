package config

// CurrentVersion is the config schema version this build reads natively.
// Older versions with the same major are migrated on load; a different
// major is rejected.
const CurrentVersion = "2.1"

// Unlimited is the sentinel limit value meaning "explicitly no limit".
// Distinct from an unset field, which inherits the spec default.
const Unlimited int64 = -1

// DefaultMaxLines is the content limit applied when no rule and no
// spec-level override matches.
const DefaultMaxLines = 500

// DefaultWarnThreshold is the built-in fraction of a limit at which
// warnings begin when neither rule nor spec sets a threshold.
const DefaultWarnThreshold = 0.8

// Config is the fully merged configuration for one run. It is built once
// by the resolver and treated as immutable afterwards.
type Config struct {
	Version string `toml:"version" yaml:"version"`

	// Extends names the base this config inherits from: a local path, an
	// http(s) URL, or "preset:<name>". Consumed during resolution; the
	// merged Config keeps it for diagnostics only.
	Extends string `toml:"extends,omitempty" yaml:"extends,omitempty"`

	// ExtendsSHA256 optionally pins the content hash of a remote base.
	ExtendsSHA256 string `toml:"extends_sha256,omitempty" yaml:"extends_sha256,omitempty"`

	Scanner   ScannerSpec   `toml:"scanner" yaml:"scanner"`
	Content   ContentSpec   `toml:"content" yaml:"content"`
	Structure StructureSpec `toml:"structure" yaml:"structure"`
	Check     CheckSpec     `toml:"check" yaml:"check"`
	Baseline  BaselineSpec  `toml:"baseline" yaml:"baseline"`
	Trend     TrendSpec     `toml:"trend" yaml:"trend"`

	// Languages adds or overrides comment syntax for the line counter.
	Languages map[string]LanguageSpec `toml:"languages,omitempty" yaml:"languages,omitempty"`
}

// ScannerSpec controls tree traversal before any rule is consulted.
type ScannerSpec struct {
	// Exclude holds physical exclude globs; matching paths are never
	// visited, for either dimension.
	Exclude   []string `toml:"exclude,omitempty" yaml:"exclude,omitempty"`
	Gitignore bool     `toml:"gitignore" yaml:"gitignore"`
}

// ContentSpec holds defaults and rules for the line-count dimension.
type ContentSpec struct {
	Extensions    []string `toml:"extensions,omitempty" yaml:"extensions,omitempty"`
	MaxLines      int64    `toml:"max_lines" yaml:"max_lines"`
	WarnThreshold float64  `toml:"warn_threshold,omitempty" yaml:"warn_threshold,omitempty"`
	// WarnAt is the spec-level absolute warning line count. When set it
	// outranks WarnThreshold.
	WarnAt       int64 `toml:"warn_at,omitempty" yaml:"warn_at,omitempty"`
	SkipComments bool  `toml:"skip_comments" yaml:"skip_comments"`
	SkipBlank    bool  `toml:"skip_blank" yaml:"skip_blank"`

	// Exclude makes paths invisible to content checking only; structure
	// checking still sees them.
	Exclude []string `toml:"exclude,omitempty" yaml:"exclude,omitempty"`

	Rules []ContentRule `toml:"rules,omitempty" yaml:"rules,omitempty"`
}

// ContentRule overrides content limits for paths matching Pattern.
// Declaration order is precedence order: the last matching rule wins.
type ContentRule struct {
	Pattern       string   `toml:"pattern" yaml:"pattern"`
	MaxLines      *int64   `toml:"max_lines,omitempty" yaml:"max_lines,omitempty"`
	WarnAt        *int64   `toml:"warn_at,omitempty" yaml:"warn_at,omitempty"`
	WarnThreshold *float64 `toml:"warn_threshold,omitempty" yaml:"warn_threshold,omitempty"`
	SkipComments  *bool    `toml:"skip_comments,omitempty" yaml:"skip_comments,omitempty"`
	SkipBlank     *bool    `toml:"skip_blank,omitempty" yaml:"skip_blank,omitempty"`
	// Reason marks the rule as an exemption and is surfaced in verdicts.
	Reason string `toml:"reason,omitempty" yaml:"reason,omitempty"`
	// Expires is a YYYY-MM-DD date after which the rule is ignored.
	Expires string `toml:"expires,omitempty" yaml:"expires,omitempty"`
}

// StructureSpec holds defaults and rules for the directory dimension.
type StructureSpec struct {
	MaxFiles      *int64   `toml:"max_files,omitempty" yaml:"max_files,omitempty"`
	MaxDirs       *int64   `toml:"max_dirs,omitempty" yaml:"max_dirs,omitempty"`
	MaxDepth      *int64   `toml:"max_depth,omitempty" yaml:"max_depth,omitempty"`
	WarnThreshold *float64 `toml:"warn_threshold,omitempty" yaml:"warn_threshold,omitempty"`
	WarnAt        *int64   `toml:"warn_at,omitempty" yaml:"warn_at,omitempty"`

	// CountExclude patterns keep matching entries visible but uncounted.
	CountExclude []string `toml:"count_exclude,omitempty" yaml:"count_exclude,omitempty"`

	// AllowFiles and DenyFiles are mutually exclusive; validation rejects
	// configs setting both at the spec level.
	AllowFiles []string `toml:"allow_files,omitempty" yaml:"allow_files,omitempty"`
	DenyFiles  []string `toml:"deny_files,omitempty" yaml:"deny_files,omitempty"`

	Rules []StructureRule `toml:"rules,omitempty" yaml:"rules,omitempty"`
}

// DepthMode selects how a rule's max_depth is anchored.
type DepthMode string

const (
	// DepthAbsolute measures from the scan root.
	DepthAbsolute DepthMode = "absolute"
	// DepthRelative measures from the matched rule's scope root.
	DepthRelative DepthMode = "relative"
)

// StructureRule overrides structure limits for directories matching Scope.
// Declaration order is precedence order: the last matching rule wins.
type StructureRule struct {
	Scope         string    `toml:"scope" yaml:"scope"`
	MaxFiles      *int64    `toml:"max_files,omitempty" yaml:"max_files,omitempty"`
	MaxDirs       *int64    `toml:"max_dirs,omitempty" yaml:"max_dirs,omitempty"`
	MaxDepth      *int64    `toml:"max_depth,omitempty" yaml:"max_depth,omitempty"`
	DepthMode     DepthMode `toml:"depth_mode,omitempty" yaml:"depth_mode,omitempty"`
	WarnThreshold *float64  `toml:"warn_threshold,omitempty" yaml:"warn_threshold,omitempty"`
	WarnAt        *int64    `toml:"warn_at,omitempty" yaml:"warn_at,omitempty"`

	AllowFiles []string `toml:"allow_files,omitempty" yaml:"allow_files,omitempty"`
	DenyFiles  []string `toml:"deny_files,omitempty" yaml:"deny_files,omitempty"`

	// Naming, when set, is a regex every file basename in scope must match.
	Naming string `toml:"naming,omitempty" yaml:"naming,omitempty"`

	Siblings []SiblingRule `toml:"siblings,omitempty" yaml:"siblings,omitempty"`

	Reason  string `toml:"reason,omitempty" yaml:"reason,omitempty"`
	Expires string `toml:"expires,omitempty" yaml:"expires,omitempty"`
}

// SiblingSeverity controls whether a sibling violation fails or warns.
type SiblingSeverity string

const (
	SiblingError SiblingSeverity = "error"
	SiblingWarn  SiblingSeverity = "warn"
)

// SiblingRule requires files to co-exist within a directory. Exactly one of
// the two forms is used:
//
//   - Directed: a file matching Match requires every Require template,
//     expanded with {stem} substituted by the matching file's stem.
//   - Group: if any member of Group exists, all members must exist.
type SiblingRule struct {
	Match    string          `toml:"match,omitempty" yaml:"match,omitempty"`
	Require  []string        `toml:"require,omitempty" yaml:"require,omitempty"`
	Group    []string        `toml:"group,omitempty" yaml:"group,omitempty"`
	Severity SiblingSeverity `toml:"severity,omitempty" yaml:"severity,omitempty"`
}

// IsGroup reports whether the rule is the group (all-or-none) form.
func (s SiblingRule) IsGroup() bool { return len(s.Group) > 0 }

// CheckSpec tunes check-run behavior.
type CheckSpec struct {
	// Strict promotes warnings to failures for exit-code purposes.
	Strict bool `toml:"strict" yaml:"strict"`
	// ChangedOnly restricts content checking to git-changed files.
	ChangedOnly bool `toml:"changed_only" yaml:"changed_only"`
	// TargetBranch overrides delta detection's diff base.
	TargetBranch string `toml:"target_branch,omitempty" yaml:"target_branch,omitempty"`
}

// RatchetMode governs what happens when a baseline entry goes stale.
type RatchetMode string

const (
	// RatchetWarn reports stale entries and leaves the baseline alone.
	RatchetWarn RatchetMode = "warn"
	// RatchetAuto rewrites the baseline, dropping stale entries.
	RatchetAuto RatchetMode = "auto"
	// RatchetStrict treats staleness as a failing condition.
	RatchetStrict RatchetMode = "strict"
)

// BaselineSpec locates the baseline document and sets ratchet policy.
type BaselineSpec struct {
	Path    string      `toml:"path,omitempty" yaml:"path,omitempty"`
	Ratchet RatchetMode `toml:"ratchet,omitempty" yaml:"ratchet,omitempty"`
}

// TrendSpec is handed to external history storage; the core never reads it
// beyond validation.
type TrendSpec struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Path    string `toml:"path,omitempty" yaml:"path,omitempty"`
}

// LanguageSpec declares comment syntax for the built-in line counter.
type LanguageSpec struct {
	Extensions    []string    `toml:"extensions,omitempty" yaml:"extensions,omitempty"`
	LineComments  []string    `toml:"line_comments,omitempty" yaml:"line_comments,omitempty"`
	BlockComments [][2]string `toml:"block_comments,omitempty" yaml:"block_comments,omitempty"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Scanner: ScannerSpec{
			Exclude:   []string{".git/**", "node_modules/**", "target/**", "vendor/**"},
			Gitignore: true,
		},
		Content: ContentSpec{
			Extensions:    []string{"go", "rs", "py", "js", "ts", "c", "cpp", "java"},
			MaxLines:      DefaultMaxLines,
			WarnThreshold: DefaultWarnThreshold,
			SkipComments:  true,
			SkipBlank:     true,
		},
		Structure: StructureSpec{},
		Baseline: BaselineSpec{
			Path:    ".slocwatch-baseline.json",
			Ratchet: RatchetWarn,
		},
	}
}
