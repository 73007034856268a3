package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxExtendsDepth bounds inheritance chains. Depth 0 is the root config;
// each resolved extends increments it.
const MaxExtendsDepth = 10

// Result is a fully resolved configuration plus its provenance.
type Result struct {
	Config *Config
	// Chain lists contributing fragments, base first, root last. A single
	// fragment for configs without extends.
	Chain []Fragment
	// Warnings holds non-fatal findings (expired rules are reported at
	// evaluation time, not here).
	Warnings []string
}

// Resolver loads a config file and resolves its extends chain into one
// merged, validated Configuration.
type Resolver struct {
	// Fetcher retrieves remote bases. Nil means a default Normal-policy
	// fetcher.
	Fetcher *Fetcher
	// ReadFile is injectable for tests; nil means os.ReadFile.
	ReadFile func(path string) ([]byte, error)
}

func (r *Resolver) readFile(path string) ([]byte, error) {
	if r.ReadFile != nil {
		return r.ReadFile(path)
	}
	return os.ReadFile(path)
}

func (r *Resolver) fetcher() *Fetcher {
	if r.Fetcher == nil {
		r.Fetcher = NewFetcher(nil, FetchNormal)
	}
	return r.Fetcher
}

// Discover probes the default config file names under dir. Returns
// ErrNotFound if none exists.
func Discover(dir string) (string, error) {
	for _, name := range DefaultFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrNotFound
}

// Resolve loads the config at path and resolves its extends chain.
func (r *Resolver) Resolve(path string) (*Result, error) {
	data, err := r.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	origin := LocalSource(path)
	raw, err := DecodeRaw(data, FormatFor(path), origin)
	if err != nil {
		return nil, err
	}

	extends, _ := peekExtends(raw)
	if extends == "" {
		return r.resolveStandalone(path, data, raw, origin)
	}

	visited := []string{}
	merged, chain, err := r.resolveChain(origin, raw, filepath.Dir(path), visited, 0)
	if err != nil {
		return nil, err
	}

	if err := ValidateResetPositions(merged); err != nil {
		return nil, err
	}
	StripResetMarkers(merged)
	if err := Migrate(merged); err != nil {
		return nil, err
	}

	cfg, err := FromRaw(merged)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return &Result{Config: cfg, Chain: chain}, nil
}

// resolveStandalone is the no-extends fast path. Decoding the original
// bytes directly keeps parser positions intact for syntax errors.
func (r *Resolver) resolveStandalone(path string, data []byte, raw map[string]any, origin Source) (*Result, error) {
	if err := ValidateResetPositions(raw); err != nil {
		return nil, err
	}
	// Reset markers or an older schema force the generic decode path;
	// otherwise decode the original bytes so parser positions survive.
	needRaw := hasResetMarkers(raw)
	if v, ok := peekVersion(raw); ok && v != CurrentVersion {
		needRaw = true
	}
	if err := Migrate(raw); err != nil {
		return nil, err
	}

	var cfg *Config
	var err error
	if needRaw {
		StripResetMarkers(raw)
		cfg, err = FromRaw(raw)
	} else {
		cfg, err = DecodeStrict(data, FormatFor(path), origin)
	}
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return &Result{Config: cfg, Chain: []Fragment{{Source: origin, Raw: raw}}}, nil
}

// resolveChain merges the fragment's base chain under it and returns the
// merged tree plus contributing fragments, base first.
func (r *Resolver) resolveChain(origin Source, raw map[string]any, baseDir string, visited []string, depth int) (map[string]any, []Fragment, error) {
	if depth > MaxExtendsDepth {
		return nil, nil, &TooDeepError{Chain: append(visited, origin.String()), Max: MaxExtendsDepth}
	}

	key := r.chainKey(origin, baseDir)
	for _, seen := range visited {
		if seen == key {
			return nil, nil, &CircularExtendsError{Chain: append(append([]string{}, visited...), key)}
		}
	}
	visited = append(visited, key)

	extends, sha := peekExtends(raw)
	if extends == "" {
		return raw, []Fragment{{Source: origin, Raw: raw}}, nil
	}

	baseRaw, baseSource, baseDirNext, err := r.loadBase(extends, sha, baseDir)
	if err != nil {
		return nil, nil, err
	}

	mergedBase, baseChain, err := r.resolveChain(baseSource, baseRaw, baseDirNext, visited, depth+1)
	if err != nil {
		return nil, nil, err
	}

	merged := Merge(mergedBase, raw)
	// The merged tree no longer extends anything.
	delete(merged, "extends")
	delete(merged, "extends_sha256")

	chain := append(baseChain, Fragment{Source: origin, Raw: raw})
	return merged, chain, nil
}

// loadBase resolves one extends reference into a raw tree.
func (r *Resolver) loadBase(ref, sha, baseDir string) (map[string]any, Source, string, error) {
	switch {
	case IsPreset(ref):
		name := strings.TrimPrefix(ref, PresetPrefix)
		raw, err := LoadPreset(name)
		if err != nil {
			return nil, Source{}, "", err
		}
		return raw, PresetSource(name), baseDir, nil

	case IsRemoteURL(ref):
		data, err := r.fetcher().Fetch(ref, sha)
		if err != nil {
			return nil, Source{}, "", err
		}
		source := RemoteSource(ref, sha)
		raw, err := DecodeRaw(data, FormatTOML, source)
		if err != nil {
			return nil, Source{}, "", err
		}
		// Relative local extends inside a remote config have no anchor.
		return raw, source, "", nil

	default:
		path := ref
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := r.readFile(path)
		if err != nil {
			return nil, Source{}, "", fmt.Errorf("reading extends base %s: %w", path, err)
		}
		source := LocalSource(path)
		raw, err := DecodeRaw(data, FormatFor(path), source)
		if err != nil {
			return nil, Source{}, "", err
		}
		return raw, source, filepath.Dir(path), nil
	}
}

// chainKey canonicalizes a source for cycle detection so the same file
// reached through different relative spellings is still caught.
func (r *Resolver) chainKey(origin Source, baseDir string) string {
	if origin.Kind != SourceLocal {
		return origin.String()
	}
	path := origin.Ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, filepath.Base(path))
	}
	if resolved, err := filepath.Abs(path); err == nil {
		path = resolved
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return path
}

func hasResetMarkers(raw map[string]any) bool {
	return hasResetValue(raw)
}

func hasResetValue(v any) bool {
	switch t := v.(type) {
	case map[string]any:
		for _, cv := range t {
			if hasResetValue(cv) {
				return true
			}
		}
	case []any:
		for _, e := range t {
			if isResetElement(e) || hasResetValue(e) {
				return true
			}
		}
	}
	return false
}
