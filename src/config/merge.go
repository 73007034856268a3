package config

import "fmt"

// ResetMarker, as the first element of a list, discards the inherited base
// list during merge. Inside a rule table it appears as pattern/scope value.
const ResetMarker = "$reset"

// Merge combines a child raw tree over a base. Scalars: child overwrites.
// Maps: key-wise recursive merge. Lists: append base-then-child, unless the
// child list leads with the reset marker, which replaces the base list with
// the remaining child elements.
func Merge(base, child map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(child))
	for k, v := range base {
		out[k] = v
	}
	for k, cv := range child {
		bv, exists := out[k]
		if !exists {
			out[k] = cv
			continue
		}
		out[k] = mergeValue(bv, cv)
	}
	return out
}

func mergeValue(base, child any) any {
	switch cv := child.(type) {
	case map[string]any:
		if bv, ok := base.(map[string]any); ok {
			return Merge(bv, cv)
		}
		return cv
	case []any:
		if bv, ok := base.([]any); ok {
			return mergeLists(bv, cv)
		}
		return cv
	default:
		return child
	}
}

func mergeLists(base, child []any) []any {
	if len(child) > 0 && isResetElement(child[0]) {
		return append([]any(nil), child[1:]...)
	}
	merged := make([]any, 0, len(base)+len(child))
	merged = append(merged, base...)
	merged = append(merged, child...)
	return merged
}

// isResetElement recognizes the marker both as a bare string and as a rule
// table whose pattern or scope field carries it.
func isResetElement(v any) bool {
	switch t := v.(type) {
	case string:
		return t == ResetMarker
	case map[string]any:
		for _, key := range []string{"pattern", "scope"} {
			if s, ok := t[key].(string); ok && s == ResetMarker {
				return true
			}
		}
	}
	return false
}

// StripResetMarkers removes leading reset markers from every list in the
// tree. Handles standalone configs that carry a marker with nothing to
// reset; the merge path consumes markers itself.
func StripResetMarkers(raw map[string]any) {
	for k, v := range raw {
		raw[k] = stripValue(v)
	}
}

func stripValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		StripResetMarkers(t)
		return t
	case []any:
		if len(t) > 0 && isResetElement(t[0]) {
			t = t[1:]
		}
		for i, e := range t {
			t[i] = stripValue(e)
		}
		return t
	default:
		return v
	}
}

// ValidateResetPositions rejects reset markers anywhere but list head.
// A swallowed mid-list marker would silently change which rules exist.
func ValidateResetPositions(raw map[string]any) error {
	return validateResetValue(raw, "")
}

func validateResetValue(v any, path string) error {
	switch t := v.(type) {
	case map[string]any:
		for k, cv := range t {
			child := k
			if path != "" {
				child = path + "." + k
			}
			if err := validateResetValue(cv, child); err != nil {
				return err
			}
		}
	case []any:
		for i, e := range t {
			if i > 0 && isResetElement(e) {
				return &SemanticError{
					Field: path,
					Msg:   fmt.Sprintf("%q must be the first element, found at position %d", ResetMarker, i),
				}
			}
			if err := validateResetValue(e, path); err != nil {
				return err
			}
		}
	}
	return nil
}
