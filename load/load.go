/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package load retrieves module source text for canonical specifiers.
//
// Local modules are read from a FileSystem and remote modules are fetched
// through a Fetcher. Registry and builtin specifiers are never fetched; they
// load as external references. Every specifier is loaded at most once per
// Loader, even when many goroutines ask for it at the same time.
package load

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"sync"

	"bennypowers.dev/dualpack/fs"
	"bennypowers.dev/dualpack/internal/logger"
	"bennypowers.dev/dualpack/specifier"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrNotFound indicates that a local module does not exist.
	ErrNotFound = errors.New("module not found")

	// ErrFetchFailed indicates that a remote module could not be fetched.
	ErrFetchFailed = errors.New("fetch failed")
)

// Source is the text of a local or remote module.
type Source struct {
	Specifier specifier.ModuleSpecifier
	MediaType specifier.MediaType
	Text      []byte

	// Redirect is the URL a remote module was finally served from, when
	// that differs from Specifier. Relative imports inside the module
	// resolve against it.
	Redirect specifier.ModuleSpecifier
}

// Base returns the specifier relative imports in the source resolve
// against.
func (s *Source) Base() specifier.ModuleSpecifier {
	if s.Redirect != "" {
		return s.Redirect
	}
	return s.Specifier
}

// ExternalRef is a registry package or runtime builtin. It has no source
// and becomes a dependency entry rather than a graph node.
type ExternalRef struct {
	Specifier specifier.ModuleSpecifier

	// Package is nil for builtins.
	Package *specifier.Package

	Builtin bool
}

// Result holds exactly one of Source or External.
type Result struct {
	Source   *Source
	External *ExternalRef
}

// IsExternal reports whether the result is an external reference.
func (r *Result) IsExternal() bool {
	return r.External != nil
}

// Stats counts the I/O a Loader performed.
type Stats struct {
	// Reads is the number of local file reads.
	Reads int
	// Fetches is the number of remote fetches, counting one per specifier
	// regardless of retries.
	Fetches int
	// Cached is the number of results held in the cache.
	Cached int
}

// Loader loads modules with an at-most-once cache keyed by canonical specifier.
type Loader struct {
	fs      fs.FileSystem
	fetcher Fetcher

	group singleflight.Group

	mu      sync.Mutex
	cache   map[specifier.ModuleSpecifier]*Result
	reads   int
	fetches int
}

// NewLoader creates a Loader. fetcher may be nil, in which case remote
// modules fail to load.
func NewLoader(filesystem fs.FileSystem, fetcher Fetcher) *Loader {
	return &Loader{
		fs:      filesystem,
		fetcher: fetcher,
		cache:   make(map[specifier.ModuleSpecifier]*Result),
	}
}

// Load returns the module for spec, loading it on first request.
// Concurrent callers for the same specifier share one in-flight load.
func (l *Loader) Load(ctx context.Context, spec specifier.ModuleSpecifier) (*Result, error) {
	if cached, ok := l.cached(spec); ok {
		return cached, nil
	}

	v, err, _ := l.group.Do(string(spec), func() (any, error) {
		// A previous flight may have finished between the cache check and Do.
		if cached, ok := l.cached(spec); ok {
			return cached, nil
		}
		result, err := l.load(ctx, spec)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.cache[spec] = result
		l.mu.Unlock()
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (l *Loader) cached(spec specifier.ModuleSpecifier) (*Result, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.cache[spec]
	return r, ok
}

func (l *Loader) load(ctx context.Context, spec specifier.ModuleSpecifier) (*Result, error) {
	switch spec.Kind() {
	case specifier.KindLocal:
		return l.loadLocal(spec)
	case specifier.KindRemote:
		return l.loadRemote(ctx, spec)
	case specifier.KindRegistry:
		pkg, err := specifier.ParsePackage(string(spec))
		if err != nil {
			return nil, err
		}
		return &Result{External: &ExternalRef{Specifier: spec, Package: pkg}}, nil
	default:
		return &Result{External: &ExternalRef{Specifier: spec, Builtin: true}}, nil
	}
}

func (l *Loader) loadLocal(spec specifier.ModuleSpecifier) (*Result, error) {
	path := spec.Path()
	l.mu.Lock()
	l.reads++
	l.mu.Unlock()

	logger.Debugw("reading module", "path", path)
	text, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &Result{Source: &Source{
		Specifier: spec,
		MediaType: specifier.MediaTypeOf(spec),
		Text:      text,
	}}, nil
}

func (l *Loader) loadRemote(ctx context.Context, spec specifier.ModuleSpecifier) (*Result, error) {
	if l.fetcher == nil {
		return nil, fmt.Errorf("%w: %s: remote modules are disabled", ErrFetchFailed, spec)
	}
	l.mu.Lock()
	l.fetches++
	l.mu.Unlock()

	logger.Debugw("fetching module", "url", spec)
	resp, err := l.fetcher.Fetch(ctx, string(spec))
	if err != nil {
		if errors.Is(err, ErrFetchFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	src := &Source{Specifier: spec, Text: resp.Body}
	served := spec
	if resp.URL != "" && resp.URL != string(spec) {
		served = specifier.ModuleSpecifier(resp.URL)
		src.Redirect = served
		logger.Debugw("module redirected", "from", spec, "to", served)
	}
	src.MediaType = specifier.MediaTypeFromContentType(resp.ContentType, served)
	return &Result{Source: src}, nil
}

// Stats returns the loader's I/O counters.
func (l *Loader) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{Reads: l.reads, Fetches: l.fetches, Cached: len(l.cache)}
}
