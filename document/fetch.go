package document

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"

	schemaerrors "github.com/speakeasy-api/schemac/errors"
	"github.com/speakeasy-api/schemac/location"
)

// Fetcher returns the text stored at a fetch-form location (no fragment).
type Fetcher interface {
	Fetch(ctx context.Context, loc location.Location) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, loc location.Location) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, loc location.Location) ([]byte, error) {
	return f(ctx, loc)
}

// FileFetcher reads file: locations. With FS set, paths are resolved inside
// it (leading slash stripped); otherwise the local filesystem is used.
type FileFetcher struct {
	FS fs.FS
}

// Fetch implements Fetcher.
func (f FileFetcher) Fetch(_ context.Context, loc location.Location) ([]byte, error) {
	if loc.Origin() != "file://" {
		return nil, fmt.Errorf("file fetcher cannot read %s", loc)
	}
	p := strings.Join(loc.Path(), "/")
	if f.FS != nil {
		return fs.ReadFile(f.FS, strings.TrimPrefix(p, "/"))
	}
	return os.ReadFile(p)
}

// HTTPFetcher reads http: and https: locations.
type HTTPFetcher struct {
	Client *http.Client
}

// Fetch implements Fetcher.
func (f HTTPFetcher) Fetch(ctx context.Context, loc location.Location) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/schema+json, application/json, application/yaml;q=0.9, */*;q=0.5")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// MapFetcher serves documents from memory, keyed by fetch-form string.
type MapFetcher map[string]string

// Fetch implements Fetcher.
func (m MapFetcher) Fetch(_ context.Context, loc location.Location) ([]byte, error) {
	text, ok := m[loc.String()]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(text), nil
}

// SchemeFetcher routes a location to a fetcher by its scheme.
type SchemeFetcher map[string]Fetcher

// Fetch implements Fetcher.
func (s SchemeFetcher) Fetch(ctx context.Context, loc location.Location) ([]byte, error) {
	scheme, _, _ := strings.Cut(loc.Origin(), ":")
	f, ok := s[scheme]
	if !ok {
		return nil, fmt.Errorf("no fetcher for scheme %q", scheme)
	}
	return f.Fetch(ctx, loc)
}

// DefaultFetcher reads local files and http(s) URLs.
func DefaultFetcher() Fetcher {
	h := HTTPFetcher{}
	return SchemeFetcher{"file": FileFetcher{}, "http": h, "https": h}
}

func fetch(ctx context.Context, f Fetcher, loc location.Location) ([]byte, error) {
	data, err := f.Fetch(ctx, loc)
	if err != nil {
		return nil, schemaerrors.Wrap(schemaerrors.FetchFailed, loc.String(), err)
	}
	return data, nil
}
