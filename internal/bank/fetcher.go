package bank

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"qcm-runner/internal/domain"
)

// Fetcher retrieves the raw JSON payload of one source.
type Fetcher interface {
	Fetch(ctx context.Context, src domain.Source) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, src domain.Source) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, src domain.Source) ([]byte, error) {
	return f(ctx, src)
}

// HTTPFetcher loads sources over HTTP(S). Relative URLs resolve against BaseURL.
type HTTPFetcher struct {
	client  *http.Client
	baseURL *url.URL
}

func NewHTTPFetcher(client *http.Client, baseURL string) (*HTTPFetcher, error) {
	if client == nil {
		client = http.DefaultClient
	}
	f := &HTTPFetcher{client: client}
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		f.baseURL = u
	}
	return f, nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, src domain.Source) ([]byte, error) {
	target := src.URL
	if f.baseURL != nil {
		ref, err := url.Parse(src.URL)
		if err != nil {
			return nil, fmt.Errorf("parse url %s: %w", src.URL, err)
		}
		target = f.baseURL.ResolveReference(ref).String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %s: %s", resp.Status, target)
	}
	return io.ReadAll(resp.Body)
}

// FileFetcher reads sources from local JSON files, relative paths resolving against Dir.
type FileFetcher struct {
	Dir string
}

func (f FileFetcher) Fetch(ctx context.Context, src domain.Source) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := strings.TrimPrefix(src.URL, "file://")
	if f.Dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(f.Dir, path)
	}
	return os.ReadFile(path)
}

// SchemeRouter dispatches to a fetcher by URL scheme. URLs without a scheme use
// the "" entry, which lets relative source paths work for both file and HTTP hosts.
type SchemeRouter map[string]Fetcher

func (r SchemeRouter) Fetch(ctx context.Context, src domain.Source) ([]byte, error) {
	scheme := ""
	if i := strings.Index(src.URL, ":"); i > 0 && !strings.ContainsAny(src.URL[:i], "/\\.") {
		scheme = strings.ToLower(src.URL[:i])
	}
	f, ok := r[scheme]
	if !ok {
		return nil, fmt.Errorf("%w %q: %s", domain.ErrUnknownScheme, scheme, src.URL)
	}
	return f.Fetch(ctx, src)
}
