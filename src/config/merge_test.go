package config

import (
	"reflect"
	"testing"
)

func TestMergeEmptyChildIsIdentity(t *testing.T) {
	base := map[string]any{
		"version": "2.1",
		"content": map[string]any{
			"max_lines": int64(500),
			"exclude":   []any{"a/**", "b/**"},
		},
	}

	got := Merge(base, map[string]any{})
	if !reflect.DeepEqual(got, base) {
		t.Errorf("merge with empty child changed the tree:\n got %#v\nwant %#v", got, base)
	}
}

func TestMergeScalarOverwrite(t *testing.T) {
	base := map[string]any{"version": "2.0", "strict": false}
	child := map[string]any{"strict": true}

	got := Merge(base, child)
	if got["strict"] != true {
		t.Errorf("strict = %v, want true", got["strict"])
	}
	if got["version"] != "2.0" {
		t.Errorf("version = %v, want kept from base", got["version"])
	}
}

func TestMergeMapsRecursively(t *testing.T) {
	base := map[string]any{
		"content": map[string]any{"max_lines": int64(500), "skip_blank": true},
	}
	child := map[string]any{
		"content": map[string]any{"max_lines": int64(300)},
	}

	got := Merge(base, child)
	content := got["content"].(map[string]any)
	if content["max_lines"] != int64(300) {
		t.Errorf("max_lines = %v, want 300", content["max_lines"])
	}
	if content["skip_blank"] != true {
		t.Error("skip_blank lost during recursive merge")
	}
}

func TestMergeListsAppend(t *testing.T) {
	base := map[string]any{"exclude": []any{"a"}}
	child := map[string]any{"exclude": []any{"b"}}

	got := Merge(base, child)
	want := []any{"a", "b"}
	if !reflect.DeepEqual(got["exclude"], want) {
		t.Errorf("exclude = %v, want %v", got["exclude"], want)
	}
}

func TestMergeResetReplacesList(t *testing.T) {
	base := map[string]any{"exclude": []any{"a", "b"}}
	child := map[string]any{"exclude": []any{ResetMarker, "c"}}

	got := Merge(base, child)
	want := []any{"c"}
	if !reflect.DeepEqual(got["exclude"], want) {
		t.Errorf("exclude = %v, want %v", got["exclude"], want)
	}
}

func TestMergeResetInRuleTable(t *testing.T) {
	base := map[string]any{
		"rules": []any{
			map[string]any{"pattern": "old/**", "max_lines": int64(100)},
		},
	}
	child := map[string]any{
		"rules": []any{
			map[string]any{"pattern": ResetMarker},
			map[string]any{"pattern": "new/**", "max_lines": int64(200)},
		},
	}

	got := Merge(base, child)
	rules := got["rules"].([]any)
	if len(rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(rules))
	}
	if rules[0].(map[string]any)["pattern"] != "new/**" {
		t.Errorf("surviving rule = %v", rules[0])
	}
}

func TestValidateResetPositions(t *testing.T) {
	bad := map[string]any{
		"content": map[string]any{
			"exclude": []any{"a", ResetMarker},
		},
	}
	if err := ValidateResetPositions(bad); err == nil {
		t.Error("non-leading reset marker accepted")
	}

	good := map[string]any{
		"content": map[string]any{
			"exclude": []any{ResetMarker, "a"},
		},
	}
	if err := ValidateResetPositions(good); err != nil {
		t.Errorf("leading reset marker rejected: %v", err)
	}
}

func TestStripResetMarkers(t *testing.T) {
	raw := map[string]any{
		"exclude": []any{ResetMarker, "a"},
	}
	StripResetMarkers(raw)
	want := []any{"a"}
	if !reflect.DeepEqual(raw["exclude"], want) {
		t.Errorf("exclude = %v, want %v", raw["exclude"], want)
	}
}
