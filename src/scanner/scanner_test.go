package scanner

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/slocwatch/slocwatch/src/checker"
)

func buildTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

func dirByPath(tree *Tree, path string) (checker.DirInfo, bool) {
	for _, d := range tree.Dirs {
		if d.Path == path {
			return d, true
		}
	}
	return checker.DirInfo{}, false
}

func TestScanCollectsFilesAndDirs(t *testing.T) {
	root := buildTree(t, map[string]string{
		"main.go":        "",
		"pkg/a.go":       "",
		"pkg/b.go":       "",
		"pkg/sub/c.go":   "",
		"docs/readme.md": "",
	})

	tree, err := (&Scanner{Root: root}).Scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	wantFiles := []string{"docs/readme.md", "main.go", "pkg/a.go", "pkg/b.go", "pkg/sub/c.go"}
	gotFiles := append([]string(nil), tree.Files...)
	sort.Strings(gotFiles)
	if !reflect.DeepEqual(gotFiles, wantFiles) {
		t.Errorf("files = %v, want %v", gotFiles, wantFiles)
	}

	pkg, ok := dirByPath(tree, "pkg")
	if !ok {
		t.Fatal("pkg directory missing")
	}
	if len(pkg.Files) != 2 || len(pkg.Dirs) != 1 {
		t.Errorf("pkg listing = %d files %d dirs, want 2 and 1", len(pkg.Files), len(pkg.Dirs))
	}
	if pkg.Depth != 1 {
		t.Errorf("pkg depth = %d, want 1", pkg.Depth)
	}

	sub, _ := dirByPath(tree, "pkg/sub")
	if sub.Depth != 2 {
		t.Errorf("pkg/sub depth = %d, want 2", sub.Depth)
	}

	rootDir, ok := dirByPath(tree, ".")
	if !ok {
		t.Fatal("root directory missing")
	}
	if rootDir.Depth != 0 || len(rootDir.Dirs) != 2 {
		t.Errorf("root = depth %d, %d dirs", rootDir.Depth, len(rootDir.Dirs))
	}
}

func TestScanExcludePrunesSubtrees(t *testing.T) {
	root := buildTree(t, map[string]string{
		"src/a.go":              "",
		"node_modules/x/y.js":   "",
		"target/debug/build.rs": "",
	})

	tree, err := (&Scanner{
		Root:    root,
		Exclude: []string{"node_modules/**", "target/**"},
	}).Scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(tree.Files) != 1 || tree.Files[0] != "src/a.go" {
		t.Errorf("files = %v, want only src/a.go", tree.Files)
	}
	if _, ok := dirByPath(tree, "node_modules"); ok {
		t.Error("excluded subtree still visited")
	}
}

func TestScanFileExclude(t *testing.T) {
	root := buildTree(t, map[string]string{
		"src/a.go":     "",
		"src/a_gen.go": "",
		"src/b_gen.go": "",
	})

	tree, err := (&Scanner{Root: root, Exclude: []string{"**/*_gen.go"}}).Scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(tree.Files) != 1 {
		t.Errorf("files = %v, want only src/a.go", tree.Files)
	}
}

func TestScanGitignore(t *testing.T) {
	root := buildTree(t, map[string]string{
		".gitignore": "dist/\n*.log\n",
		"src/a.go":   "",
		"dist/out":   "",
		"debug.log":  "",
	})

	tree, err := (&Scanner{Root: root, Gitignore: true}).Scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	for _, f := range tree.Files {
		if f == "dist/out" || f == "debug.log" {
			t.Errorf("gitignored path %s scanned", f)
		}
	}

	// With the flag off, everything is visible.
	tree, err = (&Scanner{Root: root}).Scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	found := false
	for _, f := range tree.Files {
		if f == "debug.log" {
			found = true
		}
	}
	if !found {
		t.Error("gitignore applied while disabled")
	}
}
