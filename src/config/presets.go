package config

import (
	"fmt"
	"sort"
	"strings"
)

// PresetPrefix marks an extends reference as a built-in preset.
const PresetPrefix = "preset:"

// Presets returns the available preset names, sorted.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsPreset reports whether an extends reference names a built-in preset.
func IsPreset(ref string) bool { return strings.HasPrefix(ref, PresetPrefix) }

// LoadPreset parses a built-in preset into a raw tree. Presets involve no
// I/O and no further extends resolution.
func LoadPreset(name string) (map[string]any, error) {
	content, ok := presets[name]
	if !ok {
		return nil, &SemanticError{
			Field:      "extends",
			Msg:        fmt.Sprintf("unknown preset %q", name),
			Suggestion: "available presets: " + strings.Join(Presets(), ", "),
		}
	}
	raw, err := DecodeRaw([]byte(content), FormatTOML, PresetSource(name))
	if err != nil {
		return nil, fmt.Errorf("parsing preset %q: %w", name, err)
	}
	return raw, nil
}

var presets = map[string]string{
	"rust-strict": `
version = "2.1"

[scanner]
exclude = [".git/**", "target/**", "vendor/**", "benches/**"]

[content]
extensions = ["rs"]
max_lines = 600
warn_threshold = 0.85
skip_comments = true
skip_blank = true

[[content.rules]]
pattern = "**/*_test.rs"
max_lines = 1000
reason = "Test files need more space for fixtures and assertions"

[[content.rules]]
pattern = "**/tests/**/*.rs"
max_lines = 1000
reason = "Integration test files need more space"

[[content.rules]]
pattern = "**/examples/**/*.rs"
max_lines = 800
reason = "Example files may be more verbose for clarity"

[structure]
max_files = 20
max_dirs = 10
warn_threshold = 0.9
deny_files = ["*.bak", "*.tmp", ".DS_Store", "Thumbs.db"]
`,

	"go-strict": `
version = "2.1"

[scanner]
exclude = [".git/**", "vendor/**", "bin/**"]

[content]
extensions = ["go"]
max_lines = 500
warn_threshold = 0.85
skip_comments = true
skip_blank = true

[[content.rules]]
pattern = "**/*_test.go"
max_lines = 1200
reason = "Table-driven tests carry large fixtures"

[[content.rules]]
pattern = "**/*.pb.go"
max_lines = -1
reason = "Generated protobuf code"

[structure]
max_files = 25
max_dirs = 12
warn_threshold = 0.9
deny_files = ["*.bak", "*.tmp", ".DS_Store"]
`,

	"node-strict": `
version = "2.1"

[scanner]
exclude = [".git/**", "node_modules/**", "dist/**", "build/**", "coverage/**"]

[content]
extensions = ["js", "jsx", "ts", "tsx"]
max_lines = 400
warn_threshold = 0.85
skip_comments = true
skip_blank = true

[[content.rules]]
pattern = "**/*.test.*"
max_lines = 800
reason = "Test files need more space for fixtures"

[[content.rules]]
pattern = "**/*.spec.*"
max_lines = 800
reason = "Spec files need more space for fixtures"

[structure]
max_files = 15
max_dirs = 8
warn_threshold = 0.9
deny_files = ["*.bak", "*.tmp", ".DS_Store", "Thumbs.db"]
`,

	"python-strict": `
version = "2.1"

[scanner]
exclude = [".git/**", "__pycache__/**", ".venv/**", "venv/**", "*.egg-info/**"]

[content]
extensions = ["py"]
max_lines = 500
warn_threshold = 0.85
skip_comments = true
skip_blank = true

[[content.rules]]
pattern = "**/test_*.py"
max_lines = 1000
reason = "Test files need more space for fixtures"

[[content.rules]]
pattern = "**/conftest.py"
max_lines = 800
reason = "Shared pytest fixtures accumulate"

[structure]
max_files = 20
max_dirs = 10
warn_threshold = 0.9
deny_files = ["*.pyc", "*.bak", ".DS_Store"]
`,

	"monorepo-base": `
version = "2.1"

[scanner]
exclude = [
  ".git/**", "node_modules/**", "target/**", "vendor/**",
  "dist/**", "build/**", ".cache/**",
]

[content]
max_lines = 800
warn_threshold = 0.9
skip_comments = true
skip_blank = true

[structure]
max_files = 40
max_dirs = 20
warn_threshold = 0.9
`,
}
