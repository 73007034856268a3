package config

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies the on-disk config encoding.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// DefaultFiles lists config file names probed in order when no explicit
// path is given.
var DefaultFiles = []string{".slocwatch.toml", ".slocwatch.yml", ".slocwatch.yaml"}

// FormatFor picks the codec from a file name or URL. TOML is the default;
// remote configs and presets are always TOML.
func FormatFor(ref string) Format {
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".yml", ".yaml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// DecodeRaw parses a config document into a generic tree for merging.
// Numbers decode as int64 or float64 depending on the codec; the merge
// layer treats both uniformly.
func DecodeRaw(data []byte, format Format, origin Source) (map[string]any, error) {
	var raw map[string]any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, yamlSyntaxError(err, origin)
		}
	default:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, tomlSyntaxError(err, origin)
		}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// DecodeStrict parses a document directly into the typed model, preserving
// parser positions for syntax errors. Used on the no-extends fast path.
func DecodeStrict(data []byte, format Format, origin Source) (*Config, error) {
	cfg := Default()
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, yamlSyntaxError(err, origin)
		}
	default:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, tomlSyntaxError(err, origin)
		}
	}
	return cfg, nil
}

// FromRaw converts a merged raw tree into the typed model by re-encoding.
// Position information is gone by this point, which is why syntax errors on
// the fast path never take this route.
func FromRaw(raw map[string]any) (*Config, error) {
	data, err := toml.Marshal(raw)
	if err != nil {
		return nil, &SemanticError{Field: "config", Msg: err.Error()}
	}
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		// No single origin to attribute: the value is a merge product.
		return nil, &SemanticError{Field: "config", Msg: describeDecodeError(err)}
	}
	return cfg, nil
}

// peekExtends reads extends/version fields out of a raw tree.
func peekExtends(raw map[string]any) (extends, sha string) {
	if v, ok := raw["extends"].(string); ok {
		extends = v
	}
	if v, ok := raw["extends_sha256"].(string); ok {
		sha = v
	}
	return extends, sha
}

func tomlSyntaxError(err error, origin Source) error {
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		row, col := derr.Position()
		return &SyntaxError{Origin: origin, Line: row, Column: col, Msg: derr.Error()}
	}
	var serr *toml.StrictMissingError
	if errors.As(err, &serr) {
		return &SyntaxError{Origin: origin, Msg: serr.String()}
	}
	return &SyntaxError{Origin: origin, Msg: err.Error()}
}

var yamlLineRe = regexp.MustCompile(`line (\d+):`)

func yamlSyntaxError(err error, origin Source) error {
	se := &SyntaxError{Origin: origin, Msg: err.Error()}
	if m := yamlLineRe.FindStringSubmatch(err.Error()); m != nil {
		se.Line, _ = strconv.Atoi(m[1])
	}
	return se
}

func describeDecodeError(err error) string {
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		return derr.Error()
	}
	return err.Error()
}
