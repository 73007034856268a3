package checker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/slocwatch/slocwatch/src/config"
)

// mapMetrics serves canned metrics and fails for unknown paths.
type mapMetrics map[string]FileMetrics

func (m mapMetrics) Metrics(path string) (FileMetrics, error) {
	fm, ok := m[path]
	if !ok {
		return FileMetrics{}, errors.New("unreadable")
	}
	return fm, nil
}

func TestRunnerEvaluatesBothDimensions(t *testing.T) {
	cfg := config.Default()
	cfg.Content.SkipComments = false
	cfg.Content.SkipBlank = false
	cfg.Structure.MaxFiles = int64p(1)
	idx := buildIndex(t, cfg)

	metrics := mapMetrics{
		"src/a.go": {Total: 100, Code: 100, Hash: "ha"},
		"src/b.go": {Total: 600, Code: 600, Hash: "hb"},
	}
	r := &Runner{Index: idx, Metrics: metrics}
	res := r.Run(context.Background(),
		[]string{"src/a.go", "src/b.go"},
		[]DirInfo{{Path: "src", Files: []string{"a.go", "b.go"}, Depth: 1}})

	if len(res.Verdicts) != 3 {
		t.Fatalf("got %d verdicts, want 3", len(res.Verdicts))
	}
	content := res.Count(DimContent)
	if content.Failed != 1 || content.Passed != 1 {
		t.Errorf("content counts = %+v", content)
	}
	structure := res.Count(DimStructure)
	if structure.Failed != 1 {
		t.Errorf("structure counts = %+v", structure)
	}
	if !res.Failing(false) {
		t.Error("run with failures reported as passing")
	}
}

func TestRunnerIsolatesPathErrors(t *testing.T) {
	idx := buildIndex(t, config.Default())

	metrics := mapMetrics{"ok.go": {Total: 10, Code: 10, Hash: "h"}}
	r := &Runner{Index: idx, Metrics: metrics}
	res := r.Run(context.Background(), []string{"ok.go", "broken.go"}, nil)

	if len(res.Errors) != 1 || res.Errors[0].Path != "broken.go" {
		t.Errorf("errors = %+v", res.Errors)
	}
	if len(res.Verdicts) != 1 {
		t.Errorf("got %d verdicts, want the readable file evaluated", len(res.Verdicts))
	}
}

func TestRunnerOutputIsSorted(t *testing.T) {
	idx := buildIndex(t, config.Default())

	metrics := mapMetrics{}
	var files []string
	for i := 0; i < 50; i++ {
		path := fmt.Sprintf("pkg/f%02d.go", i)
		files = append(files, path)
		metrics[path] = FileMetrics{Total: 10, Code: 10, Hash: "h"}
	}
	// Feed in reverse to make accidental input-order stability visible.
	sort.Sort(sort.Reverse(sort.StringSlice(files)))

	r := &Runner{Index: idx, Metrics: metrics}
	res := r.Run(context.Background(), files, nil)

	for i := 1; i < len(res.Verdicts); i++ {
		if res.Verdicts[i-1].Path > res.Verdicts[i].Path {
			t.Fatalf("verdicts unsorted at %d: %s > %s", i, res.Verdicts[i-1].Path, res.Verdicts[i].Path)
		}
	}
}

func TestRunnerStrictPromotion(t *testing.T) {
	cfg := config.Default()
	cfg.Content.SkipComments = false
	cfg.Content.SkipBlank = false
	idx := buildIndex(t, cfg)

	metrics := mapMetrics{"warm.go": {Total: 450, Code: 450, Hash: "h"}}
	r := &Runner{Index: idx, Metrics: metrics}
	res := r.Run(context.Background(), []string{"warm.go"}, nil)

	if res.Failing(false) {
		t.Error("warning failed a lenient run")
	}
	if !res.Failing(true) {
		t.Error("warning passed a strict run")
	}
}
