/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package testutil

import (
	"context"
	"fmt"
	"sync"

	"bennypowers.dev/dualpack/load"
)

// MapFetcher serves remote modules from memory and counts requests per URL.
type MapFetcher struct {
	mu           sync.Mutex
	content      map[string]string
	calls        map[string]int
	redirects    map[string]string
	contentTypes map[string]string
}

// NewMapFetcher creates a fetcher serving url → body pairs. Unknown URLs
// fail with a 404 StatusError.
func NewMapFetcher(content map[string]string) *MapFetcher {
	return &MapFetcher{
		content:      content,
		calls:        make(map[string]int),
		redirects:    make(map[string]string),
		contentTypes: make(map[string]string),
	}
}

// Redirect makes requests for from serve the body of to, reporting to as
// the final URL.
func (f *MapFetcher) Redirect(from, to string) *MapFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.redirects[from] = to
	return f
}

// ServeAs sets the Content-Type header returned for url.
func (f *MapFetcher) ServeAs(url, contentType string) *MapFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contentTypes[url] = contentType
	return f
}

func (f *MapFetcher) Fetch(ctx context.Context, url string) (*load.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	final := url
	for hops := 0; hops < 10; hops++ {
		to, ok := f.redirects[final]
		if !ok {
			break
		}
		final = to
	}
	body, ok := f.content[final]
	if !ok {
		return nil, &load.StatusError{URL: url, StatusCode: 404, Status: fmt.Sprintf("%d Not Found", 404)}
	}
	return &load.Response{URL: final, ContentType: f.contentTypes[final], Body: []byte(body)}, nil
}

// Calls returns how many times url was fetched.
func (f *MapFetcher) Calls(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}
