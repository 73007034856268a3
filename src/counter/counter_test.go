package counter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/slocwatch/slocwatch/src/config"
)

func TestCountGoSource(t *testing.T) {
	src := []byte(`package main

// entry point
func main() {
	println("hi") // trailing comments do not reclassify the line
}

/*
block
*/
`)
	stats := Count(src, NewRegistry().Lookup("go"))

	if stats.Total != 10 {
		t.Errorf("total = %d, want 10", stats.Total)
	}
	if stats.Code != 4 {
		t.Errorf("code = %d, want 4", stats.Code)
	}
	if stats.Comment != 4 {
		t.Errorf("comment = %d, want 4", stats.Comment)
	}
	if stats.Blank != 2 {
		t.Errorf("blank = %d, want 2", stats.Blank)
	}
}

func TestCountBlockClosingOnOpeningLine(t *testing.T) {
	src := []byte("/* one line */\ncode()\n")
	stats := Count(src, NewRegistry().Lookup("go"))
	if stats.Comment != 1 || stats.Code != 1 {
		t.Errorf("stats = %+v, want 1 comment 1 code", stats)
	}
}

func TestCountPythonDocstring(t *testing.T) {
	src := []byte("def f():\n    \"\"\"\n    docs\n    \"\"\"\n    return 1\n")
	stats := Count(src, NewRegistry().Lookup("py"))
	if stats.Comment != 3 {
		t.Errorf("comment = %d, want 3", stats.Comment)
	}
	if stats.Code != 2 {
		t.Errorf("code = %d, want 2", stats.Code)
	}
}

func TestCountUnknownExtensionIsAllCode(t *testing.T) {
	src := []byte("# looks like a comment\nbut is not\n")
	stats := Count(src, NewRegistry().Lookup("xyz"))
	if stats.Code != 2 {
		t.Errorf("code = %d, want 2 for unknown syntax", stats.Code)
	}
}

func TestRegistryApplyCustomLanguage(t *testing.T) {
	r := NewRegistry()
	r.Apply(map[string]config.LanguageSpec{
		"fishscript": {
			Extensions:   []string{"fsh"},
			LineComments: []string{";;"},
		},
	})

	stats := Count([]byte(";; comment\ncode\n"), r.Lookup("fsh"))
	if stats.Comment != 1 || stats.Code != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRegistryApplyOverridesBuiltin(t *testing.T) {
	r := NewRegistry()
	r.Apply(map[string]config.LanguageSpec{
		"mygo": {Extensions: []string{"go"}, LineComments: []string{"##"}},
	})

	// The // marker is gone after the override.
	stats := Count([]byte("// not a comment anymore\n"), r.Lookup("go"))
	if stats.Code != 1 {
		t.Errorf("code = %d, want 1", stats.Code)
	}
}

func TestProviderMetricsAndCache(t *testing.T) {
	root := t.TempDir()
	rel := "main.go"
	content := []byte("package main\n\n// doc\nfunc main() {}\n")
	if err := os.WriteFile(filepath.Join(root, rel), content, 0o644); err != nil {
		t.Fatal(err)
	}

	cache := OpenCache(root, "confighash", true)
	p := &Provider{Root: root, Registry: NewRegistry(), Cache: cache}

	m, err := p.Metrics(rel)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if m.Total != 4 || m.Code != 2 || m.Comment != 1 || m.Blank != 1 {
		t.Errorf("metrics = %+v", m)
	}
	if m.Hash == "" {
		t.Error("hash missing")
	}

	if err := cache.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	// A fresh cache must serve the entry without recounting, and a
	// touched file must invalidate it.
	warm := OpenCache(root, "confighash", true)
	info, _ := os.Stat(filepath.Join(root, rel))
	if _, _, ok := warm.Get(rel, info.ModTime().UnixNano(), info.Size()); !ok {
		t.Error("warm cache missed an unchanged file")
	}
	if _, _, ok := warm.Get(rel, info.ModTime().UnixNano()+1, info.Size()); ok {
		t.Error("cache served a stale entry after mtime change")
	}
}

func TestCacheConfigHashMismatchStartsFresh(t *testing.T) {
	root := t.TempDir()
	cache := OpenCache(root, "hash-a", true)
	cache.Put("f.go", "h", 1, 2, Stats{Total: 3})
	if err := cache.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	other := OpenCache(root, "hash-b", true)
	if _, _, ok := other.Get("f.go", 1, 2); ok {
		t.Error("cache survived a config change")
	}
}

func TestConfigHashReflectsContentSpec(t *testing.T) {
	a := config.Default()
	b := config.Default()
	if ConfigHash(a) != ConfigHash(b) {
		t.Error("identical configs hash differently")
	}
	b.Content.SkipComments = !b.Content.SkipComments
	if ConfigHash(a) == ConfigHash(b) {
		t.Error("classification-relevant change did not alter the hash")
	}
}
