package config

import "fmt"

// SourceKind tags where a config fragment came from.
type SourceKind int

const (
	SourceLocal SourceKind = iota
	SourceRemote
	SourcePreset
)

func (k SourceKind) String() string {
	switch k {
	case SourceLocal:
		return "file"
	case SourceRemote:
		return "remote"
	case SourcePreset:
		return "preset"
	default:
		return fmt.Sprintf("source(%d)", int(k))
	}
}

// Source identifies one configuration origin in an extends chain. Used for
// error attribution and explain-style tracing.
type Source struct {
	Kind SourceKind
	// Ref is the path, URL, or preset name.
	Ref string
	// SHA256 is the expected content hash for remote sources, if pinned.
	SHA256 string
}

// LocalSource returns a Source for a config file on disk.
func LocalSource(path string) Source { return Source{Kind: SourceLocal, Ref: path} }

// RemoteSource returns a Source for an http(s) config, optionally pinned.
func RemoteSource(url, sha256 string) Source {
	return Source{Kind: SourceRemote, Ref: url, SHA256: sha256}
}

// PresetSource returns a Source for a built-in preset.
func PresetSource(name string) Source { return Source{Kind: SourcePreset, Ref: name} }

func (s Source) String() string {
	if s.Kind == SourcePreset {
		return "preset:" + s.Ref
	}
	return s.Ref
}

// Fragment pairs a raw parsed document with its origin. The resolver keeps
// the chain of fragments so `config show --sources` and error messages can
// attribute values to the source that contributed them.
type Fragment struct {
	Source Source
	// Raw is the decoded document before merging.
	Raw map[string]any
}
