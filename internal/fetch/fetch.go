// Package fetch retrieves unstamped certificate documents.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/adamscao/certstamp/internal/models"
)

// Fetcher returns the bytes stored at a document location
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// HTTPFetcher downloads documents over HTTP(S). There are no retries: a
// failed download is reported and the certificate skipped.
type HTTPFetcher struct {
	Client  *http.Client
	MaxSize int64
}

// NewHTTPFetcher returns a fetcher with a per-request timeout
func NewHTTPFetcher(timeout time.Duration, maxSize int64) *HTTPFetcher {
	return &HTTPFetcher{
		Client:  &http.Client{Timeout: timeout},
		MaxSize: maxSize,
	}
}

// Fetch performs a GET and requires a 200 response
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid request: %v", models.ErrFetch, err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", models.ErrFetch, location, resp.Status)
	}

	return readLimited(resp.Body, f.MaxSize)
}

// FileFetcher reads documents from a filesystem
type FileFetcher struct {
	Fs      afero.Fs
	MaxSize int64
}

// Fetch reads a bare path or a file:// URL
func (f *FileFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	path := location
	if strings.HasPrefix(location, "file://") {
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrFetch, err)
		}
		path = u.Path
	}

	file, err := f.Fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFetch, err)
	}
	defer file.Close()

	return readLimited(file, f.MaxSize)
}

// Router picks a fetcher by URL scheme: http and https go to HTTP,
// everything else is treated as a local path
type Router struct {
	HTTP Fetcher
	File Fetcher
}

// Fetch dispatches location to the matching fetcher
func (r *Router) Fetch(ctx context.Context, location string) ([]byte, error) {
	if location == "" {
		return nil, fmt.Errorf("%w: missing document location", models.ErrFetch)
	}

	lower := strings.ToLower(location)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		if r.HTTP == nil {
			return nil, fmt.Errorf("%w: http fetching disabled", models.ErrFetch)
		}
		return r.HTTP.Fetch(ctx, location)
	default:
		if r.File == nil {
			return nil, fmt.Errorf("%w: local fetching disabled", models.ErrFetch)
		}
		return r.File.Fetch(ctx, location)
	}
}

func readLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrFetch, err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFetch, err)
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w: document larger than %d bytes", models.ErrFetch, max)
	}

	return data, nil
}
