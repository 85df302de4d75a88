/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package rewrite

import (
	"fmt"
	"path"
	"strings"

	"bennypowers.dev/dualpack/internal/logger"
	"bennypowers.dev/dualpack/specifier"
	"github.com/cespare/xxhash/v2"
)

// DepsDir is the output directory holding vendored remote modules.
const DepsDir = "deps"

var knownExts = map[string]bool{
	".ts": true, ".tsx": true, ".mts": true, ".cts": true,
	".d.ts": true, ".d.mts": true, ".d.cts": true,
	".js": true, ".jsx": true, ".mjs": true, ".cjs": true,
	".json": true,
}

// EmittedExt maps a source extension to the extension the compiled file
// has, which is what import specifiers in the output must name.
func EmittedExt(ext string) string {
	switch ext {
	case ".ts", ".tsx", ".jsx", ".d.ts":
		return ".js"
	case ".mts", ".d.mts":
		return ".mjs"
	case ".cts", ".d.cts":
		return ".cjs"
	case ".json":
		return ".json.js"
	default:
		return ext
	}
}

// Layout assigns every module an output path, relative to the output
// source directory and slash separated.
type Layout struct {
	root  string
	paths map[specifier.ModuleSpecifier]string
}

// NewLayout lays out modules. Local modules keep their position relative
// to the deepest directory containing all of them; remote modules go under
// DepsDir. Reserved paths belong to generated files and are never assigned.
//
// No two modules share an emitted path. Local modules claim theirs first,
// in the order given, then remote modules; a module whose path is taken
// gets a hash of its specifier before the extension instead.
func NewLayout(modules []specifier.ModuleSpecifier, opts ...LayoutOption) *Layout {
	cfg := layoutConfig{mediaType: specifier.MediaTypeOf}
	for _, opt := range opts {
		opt(&cfg)
	}
	l := &Layout{paths: make(map[specifier.ModuleSpecifier]string, len(modules))}

	var locals, remotes []specifier.ModuleSpecifier
	var localPaths []string
	for _, m := range modules {
		switch {
		case m.IsLocal():
			locals = append(locals, m)
			localPaths = append(localPaths, m.Path())
		case m.IsRemote():
			remotes = append(remotes, m)
		}
	}
	l.root = commonDir(localPaths)

	taken := make(map[string]specifier.ModuleSpecifier, len(modules)+len(cfg.reserved))
	for _, r := range cfg.reserved {
		taken[emitted(r)] = ""
	}
	assign := func(m specifier.ModuleSpecifier, p string) {
		if cfg.mediaType(m).IsJSON() {
			p += ".js"
		}
		if _, ok := l.paths[m]; ok {
			return
		}
		if owner, clash := taken[emitted(p)]; clash {
			unique := withSuffix(p, hashOf(string(m)))
			for n := 1; ; n++ {
				if _, ok := taken[emitted(unique)]; !ok {
					break
				}
				unique = withSuffix(p, hashOf(fmt.Sprintf("%s#%d", m, n)))
			}
			logger.Debugw("output path clash", "module", m, "path", p, "owner", owner, "renamed", unique)
			p = unique
		}
		taken[emitted(p)] = m
		l.paths[m] = p
	}
	for _, m := range locals {
		assign(m, strings.TrimPrefix(strings.TrimPrefix(m.Path(), l.root), "/"))
	}
	for _, m := range remotes {
		assign(m, remotePath(m, cfg.mediaType(m)))
	}
	return l
}

type layoutConfig struct {
	reserved  []string
	mediaType func(specifier.ModuleSpecifier) specifier.MediaType
}

// A LayoutOption adjusts NewLayout.
type LayoutOption func(*layoutConfig)

// Reserve keeps paths free for generated files.
func Reserve(paths ...string) LayoutOption {
	return func(c *layoutConfig) { c.reserved = append(c.reserved, paths...) }
}

// WithMediaTypes supplies the media type of each module, for remote
// modules whose Content-Type disagrees with their URL. The default infers
// it from the extension.
func WithMediaTypes(mediaType func(specifier.ModuleSpecifier) specifier.MediaType) LayoutOption {
	return func(c *layoutConfig) { c.mediaType = mediaType }
}

// withSuffix inserts "_"+suffix before the first extension of the file
// name in p, so "deps/host/a.json.js" becomes "deps/host/a_<suffix>.json.js".
func withSuffix(p, suffix string) string {
	dir, base := path.Split(p)
	stem, ext := base, ""
	if i := strings.Index(base[1:], "."); i >= 0 {
		stem, ext = base[:i+1], base[i+1:]
	}
	return dir + stem + "_" + suffix + ext
}

// Root returns the directory local paths are relative to.
func (l *Layout) Root() string {
	return l.root
}

// Path returns the output file path of spec.
func (l *Layout) Path(spec specifier.ModuleSpecifier) (string, bool) {
	p, ok := l.paths[spec]
	return p, ok
}

// EmittedPath returns the path of spec after compilation.
func (l *Layout) EmittedPath(spec specifier.ModuleSpecifier) (string, bool) {
	p, ok := l.paths[spec]
	if !ok {
		return "", false
	}
	return emitted(p), true
}

func emitted(p string) string {
	ext := specifier.Ext(p)
	return p[:len(p)-len(ext)] + EmittedExt(ext)
}

// remotePath derives deps/<host>[_<port>]/<path> from a URL. A query string
// becomes a hash suffix so distinct queries get distinct files. When the
// URL has no extension, or one that contradicts mt, the extension of mt is
// appended so the file compiles as what it contains.
func remotePath(spec specifier.ModuleSpecifier, mt specifier.MediaType) string {
	u, err := spec.URL()
	if err != nil {
		return path.Join(DepsDir, "invalid", hashOf(string(spec))+".js")
	}
	host := strings.ReplaceAll(u.Host, ":", "_")
	p := u.Path
	if p == "" || strings.HasSuffix(p, "/") {
		p += "index"
	}
	ext := specifier.Ext(p)
	if !knownExts[ext] {
		ext = ""
	}
	if u.RawQuery != "" {
		p = p[:len(p)-len(ext)] + "_" + hashOf(u.RawQuery) + p[len(p)-len(ext):]
	}
	if ext == "" || specifier.MediaTypeOfExt(ext) != mt {
		p += mt.Ext()
	}
	return path.Join(DepsDir, host, p)
}

func hashOf(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))[:8]
}

func commonDir(paths []string) string {
	if len(paths) == 0 {
		return "/"
	}
	common := strings.Split(path.Dir(paths[0]), "/")
	for _, p := range paths[1:] {
		parts := strings.Split(path.Dir(p), "/")
		n := 0
		for n < len(common) && n < len(parts) && common[n] == parts[n] {
			n++
		}
		common = common[:n]
	}
	dir := strings.Join(common, "/")
	if dir == "" {
		return "/"
	}
	return dir
}

// Relative returns a "./" or "../" specifier from the directory of the
// output file from to the output file to.
func Relative(from, to string) string {
	fromDir := path.Dir(from)
	var fromParts []string
	if fromDir != "." {
		fromParts = strings.Split(fromDir, "/")
	}
	toParts := strings.Split(to, "/")

	n := 0
	for n < len(fromParts) && n < len(toParts)-1 && fromParts[n] == toParts[n] {
		n++
	}
	parts := make([]string, 0, len(fromParts)-n+len(toParts)-n)
	for range fromParts[n:] {
		parts = append(parts, "..")
	}
	parts = append(parts, toParts[n:]...)

	rel := strings.Join(parts, "/")
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel
}
