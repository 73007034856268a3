// Package counter classifies source lines into code, comment, and blank
// and serves per-file metrics to the evaluators, with a metadata-validated
// on-disk cache so warm runs skip unchanged files.
package counter

import (
	"strings"

	"github.com/slocwatch/slocwatch/src/config"
)

// Syntax describes how a language marks comments. Block markers are
// (open, close) pairs; the close may equal the open.
type Syntax struct {
	Line  []string
	Block [][2]string
}

// Registry maps file extensions (without the dot) to comment syntax.
type Registry struct {
	byExt map[string]Syntax
}

// NewRegistry returns the built-in languages.
func NewRegistry() *Registry {
	r := &Registry{byExt: map[string]Syntax{}}

	slashes := Syntax{Line: []string{"//"}, Block: [][2]string{{"/*", "*/"}}}
	r.register(slashes, "go", "rs", "js", "mjs", "cjs", "ts", "mts", "cts",
		"tsx", "jsx", "c", "h", "cpp", "cc", "cxx", "hpp", "java", "kt",
		"swift", "scala", "cs", "dart", "zig")

	r.register(Syntax{
		Line:  []string{"#"},
		Block: [][2]string{{"'''", "'''"}, {`"""`, `"""`}},
	}, "py", "pyi")

	r.register(Syntax{Line: []string{"#"}}, "sh", "bash", "zsh", "yml",
		"yaml", "toml", "tf", "rb", "pl", "mk")

	r.register(Syntax{
		Line:  []string{"--"},
		Block: [][2]string{{"--[[", "]]"}},
	}, "lua")
	r.register(Syntax{Line: []string{"--"}, Block: [][2]string{{"/*", "*/"}}}, "sql")
	r.register(Syntax{Block: [][2]string{{"<!--", "-->"}}}, "html", "xml", "vue", "svelte", "md")
	r.register(Syntax{Block: [][2]string{{"/*", "*/"}}}, "css", "scss", "less")
	r.register(Syntax{Line: []string{";"}}, "lisp", "clj", "el")
	r.register(Syntax{Line: []string{"%"}}, "erl", "tex")
	r.register(Syntax{Line: []string{"--"}, Block: [][2]string{{"{-", "-}"}}}, "hs", "elm")

	return r
}

func (r *Registry) register(syn Syntax, exts ...string) {
	for _, ext := range exts {
		r.byExt[ext] = syn
	}
}

// Apply layers user-declared languages on top of the built-ins. A user
// language claiming a built-in extension overrides it.
func (r *Registry) Apply(langs map[string]config.LanguageSpec) {
	for _, spec := range langs {
		syn := Syntax{Line: spec.LineComments}
		for _, pair := range spec.BlockComments {
			syn.Block = append(syn.Block, pair)
		}
		for _, ext := range spec.Extensions {
			r.byExt[strings.TrimPrefix(ext, ".")] = syn
		}
	}
}

// Lookup returns the syntax for an extension. Unknown extensions get an
// empty syntax, which classifies every non-blank line as code.
func (r *Registry) Lookup(ext string) Syntax {
	return r.byExt[strings.TrimPrefix(ext, ".")]
}
