package rules

// ContentExplanation is the explain-surface view of one file's resolution:
// a direct projection of the matcher's trail plus the final effective
// values. Rendered by collaborators; never re-derived.
type ContentExplanation struct {
	Path           string `json:"path"`
	Excluded       bool   `json:"excluded"`
	ExcludePattern string `json:"exclude_pattern,omitempty"`

	EffectiveLimit int64 `json:"effective_limit"`
	WarnAt         int64 `json:"warn_at"`
	SkipComments   bool  `json:"skip_comments"`
	SkipBlank      bool  `json:"skip_blank"`

	Matched Provenance `json:"matched"`
	Trail   []Step     `json:"rule_chain"`
}

// ExplainContent projects the content resolution for one path.
func (idx *Index) ExplainContent(path string) ContentExplanation {
	res := idx.ResolveContent(path)
	return ContentExplanation{
		Path:           path,
		Excluded:       res.Excluded,
		ExcludePattern: res.ExcludePattern,
		EffectiveLimit: res.Limit,
		WarnAt:         res.WarnAt,
		SkipComments:   res.SkipComments,
		SkipBlank:      res.SkipBlank,
		Matched:        res.Provenance,
		Trail:          res.Trail,
	}
}

// StructureExplanation is the explain-surface view of one directory.
type StructureExplanation struct {
	Path string `json:"path"`

	MaxFiles    *int64 `json:"max_files,omitempty"`
	MaxDirs     *int64 `json:"max_dirs,omitempty"`
	MaxDepth    *int64 `json:"max_depth,omitempty"`
	WarnAtFiles int64  `json:"warn_at_files,omitempty"`
	WarnAtDirs  int64  `json:"warn_at_dirs,omitempty"`
	Naming      string `json:"naming,omitempty"`
	FilterMode  string `json:"filter_mode,omitempty"`

	Matched Provenance `json:"matched"`
	Trail   []Step     `json:"rule_chain"`
}

// ExplainStructure projects the structure resolution for one directory.
func (idx *Index) ExplainStructure(dir string) StructureExplanation {
	res := idx.ResolveStructure(dir)
	exp := StructureExplanation{
		Path:        dir,
		MaxFiles:    res.MaxFiles,
		MaxDirs:     res.MaxDirs,
		MaxDepth:    res.MaxDepth,
		WarnAtFiles: res.WarnAtFiles,
		WarnAtDirs:  res.WarnAtDirs,
		Matched:     res.Provenance,
		Trail:       res.Trail,
	}
	if res.Naming != nil {
		exp.Naming = res.Naming.String()
	}
	switch res.Filter.Mode {
	case FilterAllow:
		exp.FilterMode = "allow"
	case FilterDeny:
		exp.FilterMode = "deny"
	}
	return exp
}
