package config

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Migrate checks the version field in a raw tree and rewrites older
// same-major documents to the current schema in place. A missing version is
// treated as the current schema. A different major is rejected outright.
func Migrate(raw map[string]any) error {
	found, ok := peekVersion(raw)
	if !ok {
		raw["version"] = CurrentVersion
		return nil
	}

	fv, err := semver.NewVersion(found)
	if err != nil {
		return &SemanticError{
			Field:      "version",
			Msg:        fmt.Sprintf("invalid version %q", found),
			Suggestion: fmt.Sprintf("use %q", CurrentVersion),
		}
	}
	cv := semver.MustParse(CurrentVersion)

	if fv.Major() != cv.Major() {
		return &VersionError{Found: found, Want: CurrentVersion}
	}
	if fv.GreaterThan(cv) {
		return &VersionError{Found: found, Want: CurrentVersion}
	}

	if fv.LessThan(cv) {
		migrateMinor(raw, fv)
	}
	raw["version"] = CurrentVersion
	return nil
}

// migrateMinor upgrades older same-major documents field by field.
func migrateMinor(raw map[string]any, from *semver.Version) {
	// 2.0 named the content exclude list content.exclude_patterns.
	if from.Minor() < 1 {
		if content, ok := raw["content"].(map[string]any); ok {
			if v, ok := content["exclude_patterns"]; ok {
				if _, exists := content["exclude"]; !exists {
					content["exclude"] = v
				}
				delete(content, "exclude_patterns")
			}
		}
	}
}

// peekVersion reads the version field without typed decoding. TOML delivers
// strings; a bare integer like `version = 2` is tolerated too.
func peekVersion(raw map[string]any) (string, bool) {
	switch v := raw["version"].(type) {
	case string:
		return v, v != ""
	case int64:
		return fmt.Sprintf("%d", v), true
	case int:
		return fmt.Sprintf("%d", v), true
	case float64:
		return fmt.Sprintf("%g", v), true
	default:
		return "", false
	}
}
