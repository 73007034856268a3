// Package scanner walks a source tree once and emits the raw observations
// the evaluators consume: candidate file paths and per-directory child
// listings. Only physical filtering happens here (exclude globs,
// gitignore); content-based extension filtering belongs to the evaluators.
package scanner

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/slocwatch/slocwatch/src/checker"
)

// Tree is one traversal's output. Paths are slash-separated and relative
// to the scan root.
type Tree struct {
	Files []string
	Dirs  []checker.DirInfo
}

// Scanner configures a traversal.
type Scanner struct {
	Root string
	// Exclude holds physical exclude globs from the scanner spec.
	Exclude []string
	// Gitignore additionally honors .gitignore files under Root.
	Gitignore bool
}

// Scan walks the root in a single pass.
func (s *Scanner) Scan() (*Tree, error) {
	var matcher gitignore.Matcher
	if s.Gitignore {
		patterns, err := gitignore.ReadPatterns(osfs.New(s.Root), nil)
		if err == nil {
			matcher = gitignore.NewMatcher(patterns)
		}
		// An unreadable .gitignore degrades to no gitignore filtering.
	}

	tree := &Tree{}
	listings := map[string]*checker.DirInfo{}

	getDir := func(rel string, depth int64) *checker.DirInfo {
		if d, ok := listings[rel]; ok {
			return d
		}
		d := &checker.DirInfo{Path: rel, Depth: depth}
		listings[rel] = d
		return d
	}

	err := filepath.WalkDir(s.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.Root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			getDir(".", 0)
			return nil
		}

		if entry.IsDir() {
			if s.excluded(rel, true) || s.ignored(matcher, rel, true) {
				return filepath.SkipDir
			}
			depth := int64(strings.Count(rel, "/") + 1)
			getDir(rel, depth)
			parent := getDir(parentOf(rel), depth-1)
			parent.Dirs = append(parent.Dirs, entry.Name())
			return nil
		}

		if !entry.Type().IsRegular() {
			return nil
		}
		if s.excluded(rel, false) || s.ignored(matcher, rel, false) {
			return nil
		}

		depth := int64(strings.Count(rel, "/"))
		parent := getDir(parentOf(rel), depth)
		parent.Files = append(parent.Files, entry.Name())
		tree.Files = append(tree.Files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	order := make([]string, 0, len(listings))
	for rel := range listings {
		order = append(order, rel)
	}
	sort.Strings(order)
	for _, rel := range order {
		tree.Dirs = append(tree.Dirs, *listings[rel])
	}
	return tree, nil
}

func parentOf(rel string) string {
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		return rel[:i]
	}
	return "."
}

// excluded tests the physical exclude globs. Directory pruning also
// matches "dir/**" style patterns against the directory itself so an
// excluded subtree is never entered.
func (s *Scanner) excluded(rel string, isDir bool) bool {
	for _, pattern := range s.Exclude {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		if isDir {
			trimmed := strings.TrimSuffix(pattern, "/**")
			if trimmed != pattern {
				if ok, err := doublestar.Match(trimmed, rel); err == nil && ok {
					return true
				}
			}
		}
	}
	return false
}

func (s *Scanner) ignored(matcher gitignore.Matcher, rel string, isDir bool) bool {
	if matcher == nil {
		return false
	}
	return matcher.Match(strings.Split(rel, "/"), isDir)
}
