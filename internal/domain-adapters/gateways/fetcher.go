package gateways

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ochairo/javabuild/internal/domain/interfaces"
)

// HTTPClient is the subset of *http.Client the fetcher needs
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads archives into a cache directory, reusing cached files
type Fetcher struct {
	httpClient HTTPClient
	logger     interfaces.Logger
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client HTTPClient) FetcherOption {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// WithFetchLogger sets the logger used for cache and download messages
func WithFetchLogger(logger interfaces.Logger) FetcherOption {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher creates a new fetcher. The default client has no timeout:
// JDK archives are large and a slow mirror is not an error.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{},
		logger:     &interfaces.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ArchiveName returns the cache file name for a download URL: the last path
// segment, as written in the URL, without query or fragment.
func ArchiveName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid download URL %q: %w", rawURL, err)
	}

	name := path.Base(u.EscapedPath())
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("download URL %q has no file name", rawURL)
	}
	return name, nil
}

// Fetch returns the cached archive for rawURL, downloading it first when no
// file with the same name exists in cacheDir. hit reports a cache reuse.
// Cached files are not validated.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, cacheDir string) (archivePath string, hit bool, err error) {
	archivePath, hit, err = f.Lookup(rawURL, cacheDir)
	if err != nil {
		return "", false, err
	}
	name := filepath.Base(archivePath)
	if hit {
		f.logger.Info("Cache: " + name)
		return archivePath, true, nil
	}

	if err := os.MkdirAll(cacheDir, 0750); err != nil {
		return "", false, fmt.Errorf("failed to create cache directory: %w", err)
	}

	f.logger.Info("Downloading " + name)
	written, err := f.download(ctx, rawURL, archivePath)
	if err != nil {
		return "", false, fmt.Errorf("download failed: %w", err)
	}
	f.logger.Success("Download complete", interfaces.F("file", name), interfaces.F("bytes", written))

	return archivePath, false, nil
}

// Lookup returns where the archive for rawURL is cached and whether it is
// present, without touching the network
func (f *Fetcher) Lookup(rawURL, cacheDir string) (string, bool, error) {
	name, err := ArchiveName(rawURL)
	if err != nil {
		return "", false, err
	}

	archivePath := filepath.Join(cacheDir, name)
	if _, err := os.Stat(archivePath); err == nil {
		return archivePath, true, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", false, fmt.Errorf("failed to inspect cache: %w", err)
	}
	return archivePath, false, nil
}

// download streams url into dest through a temp file in the same directory,
// so an interrupted transfer never takes the final name
func (f *Fetcher) download(ctx context.Context, rawURL, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "javabuild/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(resp.Status))
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	written, err := io.Copy(tmp, resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return 0, fmt.Errorf("failed to finalize file: %w", err)
	}

	return written, nil
}
