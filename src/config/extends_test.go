package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestResolveStandalone(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, ".slocwatch.toml", `
version = "2.1"

[content]
max_lines = 300
`)

	result, err := (&Resolver{}).Resolve(path)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Config.Content.MaxLines != 300 {
		t.Errorf("max_lines = %d, want 300", result.Config.Content.MaxLines)
	}
	if len(result.Chain) != 1 {
		t.Errorf("chain length = %d, want 1", len(result.Chain))
	}
}

func TestResolveExtendsChain(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.toml", `
version = "2.1"

[content]
max_lines = 400
exclude = ["base/**"]
`)
	path := writeConfig(t, dir, ".slocwatch.toml", `
version = "2.1"
extends = "base.toml"

[content]
exclude = ["child/**"]
`)

	result, err := (&Resolver{}).Resolve(path)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Config.Content.MaxLines != 400 {
		t.Errorf("max_lines = %d, want inherited 400", result.Config.Content.MaxLines)
	}
	want := []string{"base/**", "child/**"}
	if !reflect.DeepEqual(result.Config.Content.Exclude, want) {
		t.Errorf("exclude = %v, want %v", result.Config.Content.Exclude, want)
	}
	if len(result.Chain) != 2 {
		t.Fatalf("chain length = %d, want 2", len(result.Chain))
	}
	if filepath.Base(result.Chain[0].Source.Ref) != "base.toml" {
		t.Errorf("chain[0] = %s, want base first", result.Chain[0].Source.Ref)
	}
}

func TestResolveExtendsReset(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.toml", `
version = "2.1"

[content]
exclude = ["base/**"]
`)
	path := writeConfig(t, dir, ".slocwatch.toml", `
version = "2.1"
extends = "base.toml"

[content]
exclude = ["$reset", "only/**"]
`)

	result, err := (&Resolver{}).Resolve(path)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := []string{"only/**"}
	if !reflect.DeepEqual(result.Config.Content.Exclude, want) {
		t.Errorf("exclude = %v, want %v", result.Config.Content.Exclude, want)
	}
}

func TestResolveCycle(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.toml", "version = \"2.1\"\nextends = \"b.toml\"\n")
	writeConfig(t, dir, "b.toml", "version = \"2.1\"\nextends = \"c.toml\"\n")
	writeConfig(t, dir, "c.toml", "version = \"2.1\"\nextends = \"a.toml\"\n")

	_, err := (&Resolver{}).Resolve(filepath.Join(dir, "a.toml"))
	var cycErr *CircularExtendsError
	if !errors.As(err, &cycErr) {
		t.Fatalf("got %v, want CircularExtendsError", err)
	}
	if len(cycErr.Chain) != 4 {
		t.Errorf("chain = %v, want the full cycle with the repeat", cycErr.Chain)
	}
	if cycErr.Chain[0] != cycErr.Chain[len(cycErr.Chain)-1] {
		t.Errorf("chain %v does not close on the entry point", cycErr.Chain)
	}
}

func TestResolveTooDeep(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i <= MaxExtendsDepth+1; i++ {
		body := "version = \"2.1\"\n"
		if i <= MaxExtendsDepth {
			body += fmt.Sprintf("extends = \"f%d.toml\"\n", i+1)
		}
		writeConfig(t, dir, fmt.Sprintf("f%d.toml", i), body)
	}

	_, err := (&Resolver{}).Resolve(filepath.Join(dir, "f0.toml"))
	var deepErr *TooDeepError
	if !errors.As(err, &deepErr) {
		t.Fatalf("got %v, want TooDeepError", err)
	}
}

func TestResolvePreset(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, ".slocwatch.toml", `
version = "2.1"
extends = "preset:go-strict"
`)

	result, err := (&Resolver{}).Resolve(path)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Config.Content.MaxLines <= 0 {
		t.Errorf("preset contributed no content limit: %d", result.Config.Content.MaxLines)
	}
	if result.Chain[0].Source.Kind != SourcePreset {
		t.Errorf("chain[0].Kind = %v, want preset", result.Chain[0].Source.Kind)
	}
}

func TestResolveMigratesOlderMinor(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, ".slocwatch.toml", `
version = "2.0"

[content]
exclude_patterns = ["gen/**"]
`)

	result, err := (&Resolver{}).Resolve(path)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Config.Version != CurrentVersion {
		t.Errorf("version = %s, want %s", result.Config.Version, CurrentVersion)
	}
	want := []string{"gen/**"}
	if !reflect.DeepEqual(result.Config.Content.Exclude, want) {
		t.Errorf("exclude = %v, want migrated %v", result.Config.Content.Exclude, want)
	}
}

func TestResolveRejectsMajorMismatch(t *testing.T) {
	dir := t.TempDir()
	for _, v := range []string{"3.0", "1.0"} {
		path := writeConfig(t, dir, ".slocwatch.toml", fmt.Sprintf("version = %q\n", v))
		_, err := (&Resolver{}).Resolve(path)
		var verr *VersionError
		if !errors.As(err, &verr) {
			t.Errorf("version %s: got %v, want VersionError", v, err)
		}
	}
}

func TestResolveIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.toml", `
version = "2.1"

[content]
max_lines = 250
`)
	path := writeConfig(t, dir, ".slocwatch.toml", `
version = "2.1"
extends = "base.toml"
`)

	r := &Resolver{}
	first, err := r.Resolve(path)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := r.Resolve(path)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if !reflect.DeepEqual(first.Config, second.Config) {
		t.Error("repeated resolution produced a different config")
	}
}

type fakeClient struct {
	responses map[string][]byte
	calls     int
}

func (c *fakeClient) Get(url string) ([]byte, error) {
	c.calls++
	data, ok := c.responses[url]
	if !ok {
		return nil, fmt.Errorf("no response for %s", url)
	}
	return data, nil
}

func TestResolveRemoteExtends(t *testing.T) {
	remote := []byte("version = \"2.1\"\n\n[content]\nmax_lines = 150\n")
	client := &fakeClient{responses: map[string][]byte{
		"https://example.com/shared.toml": remote,
	}}
	fetcher := NewFetcher(client, FetchNormal)
	fetcher.CacheRoot = t.TempDir()

	dir := t.TempDir()
	path := writeConfig(t, dir, ".slocwatch.toml", `
version = "2.1"
extends = "https://example.com/shared.toml"
`)

	result, err := (&Resolver{Fetcher: fetcher}).Resolve(path)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Config.Content.MaxLines != 150 {
		t.Errorf("max_lines = %d, want remote 150", result.Config.Content.MaxLines)
	}
}

func TestResolveRemoteHashMismatch(t *testing.T) {
	remote := []byte("version = \"2.1\"\n")
	client := &fakeClient{responses: map[string][]byte{
		"https://example.com/pinned.toml": remote,
	}}
	fetcher := NewFetcher(client, FetchNormal)
	fetcher.CacheRoot = t.TempDir()

	wrong := sha256.Sum256([]byte("something else"))
	dir := t.TempDir()
	path := writeConfig(t, dir, ".slocwatch.toml", fmt.Sprintf(`
version = "2.1"
extends = "https://example.com/pinned.toml"
extends_sha256 = %q
`, hex.EncodeToString(wrong[:])))

	_, err := (&Resolver{Fetcher: fetcher}).Resolve(path)
	var hashErr *HashMismatchError
	if !errors.As(err, &hashErr) {
		t.Fatalf("got %v, want HashMismatchError", err)
	}
}

func TestFetchOfflineWithoutCache(t *testing.T) {
	client := &fakeClient{responses: map[string][]byte{}}
	fetcher := NewFetcher(client, FetchOffline)
	fetcher.CacheRoot = t.TempDir()

	_, err := fetcher.Fetch("https://example.com/never-seen.toml", "")
	if err == nil {
		t.Fatal("offline fetch with empty cache succeeded")
	}
	if client.calls != 0 {
		t.Errorf("offline policy hit the network %d times", client.calls)
	}
}

func TestFetchServesFromDiskCache(t *testing.T) {
	remote := []byte("version = \"2.1\"\n")
	url := "https://example.com/cached.toml"
	cacheRoot := t.TempDir()

	warm := NewFetcher(&fakeClient{responses: map[string][]byte{url: remote}}, FetchNormal)
	warm.CacheRoot = cacheRoot
	if _, err := warm.Fetch(url, ""); err != nil {
		t.Fatalf("warmup fetch: %v", err)
	}

	offlineClient := &fakeClient{responses: map[string][]byte{}}
	cold := NewFetcher(offlineClient, FetchOffline)
	cold.CacheRoot = cacheRoot
	data, err := cold.Fetch(url, "")
	if err != nil {
		t.Fatalf("offline fetch with warm cache: %v", err)
	}
	if string(data) != string(remote) {
		t.Error("cached bytes differ from fetched bytes")
	}
	if offlineClient.calls != 0 {
		t.Error("offline fetch went to the network")
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	if _, err := Discover(dir); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty dir: got %v, want ErrNotFound", err)
	}

	writeConfig(t, dir, ".slocwatch.toml", "version = \"2.1\"\n")
	path, err := Discover(dir)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if filepath.Base(path) != ".slocwatch.toml" {
		t.Errorf("discovered %s", path)
	}
}
