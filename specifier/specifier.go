/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package specifier classifies and canonicalizes module specifiers.
//
// A raw specifier is the string written in an import statement. Classify
// sorts it into exactly one Kind without I/O, and Resolve turns it into a
// canonical ModuleSpecifier so two spellings of the same module compare equal.
package specifier

import (
	"errors"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Kind indicates the type of specifier.
type Kind int

const (
	// KindLocal is a file on the local filesystem.
	KindLocal Kind = iota
	// KindRemote is an http: or https: URL.
	KindRemote
	// KindRegistry is a package registry reference (npm:, jsr: or a bare name).
	KindRegistry
	// KindBuiltin is a module provided by the target runtime (node:, data:, ...).
	KindBuiltin
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindRemote:
		return "remote"
	case KindRegistry:
		return "registry"
	case KindBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// ErrInvalidSpecifier is returned when a specifier cannot be canonicalized.
var ErrInvalidSpecifier = errors.New("invalid specifier")

var (
	// schemePattern requires two or more characters so that "C:" stays a path.
	schemePattern = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.\-]+):`)

	windowsPathPattern = regexp.MustCompile(`^[a-zA-Z]:[\\/]`)
)

// Classify returns the kind of a raw specifier. It is total: every input,
// including the empty string, maps to exactly one kind.
func Classify(raw string) Kind {
	if m := schemePattern.FindStringSubmatch(raw); m != nil {
		switch strings.ToLower(m[1]) {
		case "http", "https":
			return KindRemote
		case "npm", "jsr":
			return KindRegistry
		case "file":
			return KindLocal
		default:
			// node: and every other runtime namespace is left to the runtime.
			return KindBuiltin
		}
	}
	if isPathLike(raw) {
		return KindLocal
	}
	if IsNodeBuiltin(raw) {
		return KindBuiltin
	}
	return KindRegistry
}

func isPathLike(raw string) bool {
	return strings.HasPrefix(raw, "./") ||
		strings.HasPrefix(raw, "../") ||
		strings.HasPrefix(raw, "/") ||
		raw == "." || raw == ".." ||
		windowsPathPattern.MatchString(raw)
}

// ModuleSpecifier is a canonical, absolute module reference: a file: URL for
// local modules, a normalized http(s) URL for remote modules, or the
// registry/builtin form ("npm:pkg@1", "node:fs").
type ModuleSpecifier string

// String returns the canonical text.
func (s ModuleSpecifier) String() string {
	return string(s)
}

// Kind classifies the canonical form.
func (s ModuleSpecifier) Kind() Kind {
	return Classify(string(s))
}

// IsLocal reports whether the specifier is a file: URL.
func (s ModuleSpecifier) IsLocal() bool {
	return s.Kind() == KindLocal
}

// IsRemote reports whether the specifier is an http(s) URL.
func (s ModuleSpecifier) IsRemote() bool {
	return s.Kind() == KindRemote
}

// IsExternal reports whether the specifier names a package or builtin
// rather than a module with source text.
func (s ModuleSpecifier) IsExternal() bool {
	k := s.Kind()
	return k == KindRegistry || k == KindBuiltin
}

// Path returns the absolute slash path of a local specifier.
// It returns "" for non-local specifiers.
func (s ModuleSpecifier) Path() string {
	rest, ok := strings.CutPrefix(string(s), "file://")
	if !ok {
		return ""
	}
	if len(rest) >= 3 && rest[0] == '/' && windowsPathPattern.MatchString(rest[1:]) {
		return rest[1:]
	}
	return rest
}

// URL parses a remote specifier.
func (s ModuleSpecifier) URL() (*url.URL, error) {
	return url.Parse(string(s))
}

// FromPath builds the canonical specifier for an absolute filesystem path.
func FromPath(p string) ModuleSpecifier {
	p = strings.ReplaceAll(p, "\\", "/")
	if windowsPathPattern.MatchString(p) {
		return ModuleSpecifier("file:///" + path.Clean(p))
	}
	return ModuleSpecifier("file://" + path.Clean("/"+p))
}

// Ext returns the lowercase extension of the specifier's path, treating
// ".d.ts" and friends as one extension.
func (s ModuleSpecifier) Ext() string {
	p := string(s)
	if s.IsRemote() {
		if u, err := s.URL(); err == nil {
			p = u.Path
		}
	} else if s.IsLocal() {
		p = s.Path()
	}
	return Ext(p)
}

// Ext returns the lowercase extension of a path, treating declaration file
// suffixes (".d.ts", ".d.mts", ".d.cts") as a single extension.
func Ext(p string) string {
	base := strings.ToLower(path.Base(p))
	for _, decl := range []string{".d.ts", ".d.mts", ".d.cts"} {
		if strings.HasSuffix(base, decl) {
			return decl
		}
	}
	return path.Ext(base)
}
