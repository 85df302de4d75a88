/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package load

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"bennypowers.dev/dualpack/internal/version"
)

const (
	// DefaultTimeout bounds a single fetch attempt.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxSize caps a remote module body at 10 MB.
	DefaultMaxSize int64 = 10 * 1024 * 1024

	// maxRedirects matches what registries like deno.land/x and esm.sh
	// need to reach a pinned version.
	maxRedirects = 10

	acceptModules = "application/typescript, text/typescript, application/javascript, text/javascript, application/json;q=0.9, */*;q=0.8"
)

// Response is a fetched remote module.
type Response struct {
	// URL is where the body came from after redirects.
	URL string

	// ContentType is the raw Content-Type header, possibly empty.
	ContentType string

	Body []byte
}

// Fetcher retrieves remote modules.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// retryable is implemented by fetch errors that know whether another
// attempt could succeed.
type retryable interface {
	Retryable() bool
}

// StatusError reports a response other than 200 OK.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: %s", e.URL, e.Status)
}

// Retryable is true for timeouts, rate limiting and server errors. Any
// other client error will repeat on every attempt.
func (e *StatusError) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	default:
		return e.StatusCode >= 500
	}
}

// SizeError reports a module body larger than the fetcher's limit.
type SizeError struct {
	URL   string
	Limit int64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("response from %s exceeds maximum size of %d bytes", e.URL, e.Limit)
}

func (e *SizeError) Retryable() bool { return false }

// HTTPFetcher fetches remote modules over HTTP(S).
type HTTPFetcher struct {
	maxSize int64
	timeout time.Duration
	client  *http.Client
}

// NewHTTPFetcher returns a fetcher that rejects bodies over maxSize bytes.
// A maxSize of zero or less disables the limit.
func NewHTTPFetcher(maxSize int64) *HTTPFetcher {
	return &HTTPFetcher{
		maxSize: maxSize,
		timeout: DefaultTimeout,
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
	}
}

// WithTimeout sets the per-attempt timeout. Zero means no timeout.
func (f *HTTPFetcher) WithTimeout(timeout time.Duration) *HTTPFetcher {
	f.timeout = timeout
	return f
}

// Fetch GETs url, following redirects, and returns the final body with
// the URL and content type it was served under.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", acceptModules)

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("timeout fetching %s: %w", url, err)
		}
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var body io.Reader = resp.Body
	if f.maxSize > 0 {
		if resp.ContentLength > f.maxSize {
			return nil, &SizeError{URL: url, Limit: f.maxSize}
		}
		body = io.LimitReader(resp.Body, f.maxSize+1)
	}
	content, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", url, err)
	}
	if f.maxSize > 0 && int64(len(content)) > f.maxSize {
		return nil, &SizeError{URL: url, Limit: f.maxSize}
	}

	final := url
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return &Response{URL: final, ContentType: resp.Header.Get("Content-Type"), Body: content}, nil
}
