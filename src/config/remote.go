package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	remoteCacheDir = "slocwatch/configs"
	// CacheTTL bounds how long a cached remote config is served without
	// refetching under the Normal policy.
	CacheTTL       = time.Hour
	requestTimeout = 30 * time.Second

	memoryCacheSize = 64
)

// FetchPolicy controls cache behavior for remote config retrieval.
type FetchPolicy int

const (
	// FetchNormal serves from cache within TTL, refreshes on miss/expiry.
	FetchNormal FetchPolicy = iota
	// FetchOffline serves any cached copy regardless of TTL; errors if
	// no copy exists.
	FetchOffline
	// FetchForceRefresh bypasses the cache entirely.
	FetchForceRefresh
)

// HTTPClient abstracts the transport so resolution is testable without a
// live server.
type HTTPClient interface {
	Get(url string) ([]byte, error)
}

type defaultHTTPClient struct{}

func (defaultHTTPClient) Get(url string) ([]byte, error) {
	client := &http.Client{Timeout: requestTimeout}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// IsRemoteURL reports whether an extends reference is an http(s) URL.
func IsRemoteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Fetcher retrieves remote configs through a two-level cache: an in-process
// TTL LRU in front of a per-user disk cache keyed by sha256(url).
type Fetcher struct {
	Client HTTPClient
	Policy FetchPolicy
	// CacheRoot overrides the default user cache directory (tests).
	CacheRoot string

	memory *expirable.LRU[string, []byte]
}

// NewFetcher builds a fetcher with the given transport and policy. A nil
// client uses the production HTTP transport.
func NewFetcher(client HTTPClient, policy FetchPolicy) *Fetcher {
	if client == nil {
		client = defaultHTTPClient{}
	}
	return &Fetcher{
		Client: client,
		Policy: policy,
		memory: expirable.NewLRU[string, []byte](memoryCacheSize, nil, CacheTTL),
	}
}

// Fetch returns the config bytes for url, honoring the fetch policy. When
// expectedSHA is non-empty the content hash is verified before the bytes are
// returned; a mismatch is fatal under every policy.
func (f *Fetcher) Fetch(url, expectedSHA string) ([]byte, error) {
	if !IsRemoteURL(url) {
		return nil, &RemoteFetchError{URL: url, Err: errors.New("not an http(s) URL")}
	}

	data, err := f.retrieve(url)
	if err != nil {
		return nil, err
	}

	if expectedSHA != "" {
		actual := hashBytes(data)
		if !strings.EqualFold(actual, expectedSHA) {
			return nil, &HashMismatchError{URL: url, Expected: strings.ToLower(expectedSHA), Actual: actual}
		}
	}
	return data, nil
}

func (f *Fetcher) retrieve(url string) ([]byte, error) {
	switch f.Policy {
	case FetchOffline:
		if data, ok := f.cached(url, false); ok {
			return data, nil
		}
		return nil, &RemoteFetchError{URL: url, Err: errors.New("offline and no cached copy")}
	case FetchForceRefresh:
		// fall through to network
	default:
		if data, ok := f.cached(url, true); ok {
			return data, nil
		}
	}

	data, err := f.Client.Get(url)
	if err != nil {
		return nil, &RemoteFetchError{URL: url, Err: err}
	}
	f.store(url, data)
	return data, nil
}

// cached checks memory then disk. checkTTL applies the disk TTL; the memory
// layer expires on its own.
func (f *Fetcher) cached(url string, checkTTL bool) ([]byte, bool) {
	if f.memory != nil {
		if data, ok := f.memory.Get(url); ok {
			return data, true
		}
	}

	path, err := f.cachePath(url)
	if err != nil {
		return nil, false
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if checkTTL && time.Since(info.ModTime()) >= CacheTTL {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	if f.memory != nil {
		f.memory.Add(url, data)
	}
	return data, true
}

// store writes through both cache levels. Disk write failure is non-fatal;
// the fetched bytes are still used for this run.
func (f *Fetcher) store(url string, data []byte) {
	if f.memory != nil {
		f.memory.Add(url, data)
	}
	path, err := f.cachePath(url)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0o644)
}

// ClearCache removes every cached remote config. Returns the count removed.
func (f *Fetcher) ClearCache() (int, error) {
	dir, err := f.cacheDir()
	if err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		if os.Remove(filepath.Join(dir, e.Name())) == nil {
			count++
		}
	}
	if f.memory != nil {
		f.memory.Purge()
	}
	return count, nil
}

func (f *Fetcher) cacheDir() (string, error) {
	if f.CacheRoot != "" {
		return filepath.Join(f.CacheRoot, remoteCacheDir), nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, remoteCacheDir), nil
}

func (f *Fetcher) cachePath(url string) (string, error) {
	dir, err := f.cacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, hashBytes([]byte(url))+".toml"), nil
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
