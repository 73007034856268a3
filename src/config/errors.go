package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no config file exists at any default location.
var ErrNotFound = errors.New("config: no configuration file found")

// SyntaxError reports a malformed config document. Line and Column are only
// populated on the single-file fast path, where the parser position maps
// directly to user-visible source; inherited configs report the source chain
// instead.
type SyntaxError struct {
	Origin Source
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Origin, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Origin, e.Msg)
}

// SemanticError reports an out-of-range or contradictory setting in an
// otherwise well-formed config.
type SemanticError struct {
	Field      string
	Msg        string
	Suggestion string
}

func (e *SemanticError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Field, e.Msg, e.Suggestion)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// CircularExtendsError reports a source reappearing in its own ancestry.
type CircularExtendsError struct {
	Chain []string
}

func (e *CircularExtendsError) Error() string {
	return "circular extends chain: " + strings.Join(e.Chain, " -> ")
}

// TooDeepError reports an extends chain exceeding MaxExtendsDepth.
type TooDeepError struct {
	Chain []string
	Max   int
}

func (e *TooDeepError) Error() string {
	return fmt.Sprintf("extends chain exceeds maximum depth %d: %s",
		e.Max, strings.Join(e.Chain, " -> "))
}

// RemoteFetchError reports a failed remote config retrieval.
type RemoteFetchError struct {
	URL string
	Err error
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("fetching remote config %s: %v", e.URL, e.Err)
}

func (e *RemoteFetchError) Unwrap() error { return e.Err }

// HashMismatchError reports remote content failing its pinned hash check.
// Always fatal, regardless of fetch policy.
type HashMismatchError struct {
	URL      string
	Expected string
	Actual   string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("remote config %s: sha256 mismatch: expected %s, got %s",
		e.URL, e.Expected, e.Actual)
}

// VersionError reports an incompatible config schema version.
type VersionError struct {
	Found string
	Want  string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("unsupported config version %q (this build reads %s.x)",
		e.Found, strings.SplitN(e.Want, ".", 2)[0])
}
