/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package specifier

import "strings"

// nodeBuiltinModules lists Node.js core modules (module.builtinModules,
// Node.js v24, without the underscore-prefixed internals). Subpath exports
// such as "fs/promises" match through their top-level name.
var nodeBuiltinModules = map[string]bool{
	"assert":              true,
	"async_hooks":         true,
	"buffer":              true,
	"child_process":       true,
	"cluster":             true,
	"console":             true,
	"constants":           true,
	"crypto":              true,
	"dgram":               true,
	"diagnostics_channel": true,
	"dns":                 true,
	"domain":              true,
	"events":              true,
	"fs":                  true,
	"http":                true,
	"http2":               true,
	"https":               true,
	"inspector":           true,
	"module":              true,
	"net":                 true,
	"os":                  true,
	"path":                true,
	"perf_hooks":          true,
	"process":             true,
	"punycode":            true,
	"querystring":         true,
	"readline":            true,
	"repl":                true,
	"stream":              true,
	"string_decoder":      true,
	"sys":                 true,
	"timers":              true,
	"tls":                 true,
	"trace_events":        true,
	"tty":                 true,
	"url":                 true,
	"util":                true,
	"v8":                  true,
	"vm":                  true,
	"wasi":                true,
	"worker_threads":      true,
	"zlib":                true,
}

// IsNodeBuiltin checks if a module name is a Node.js built-in module.
// It accepts bare names ("fs"), subpaths ("fs/promises") and "node:" names.
func IsNodeBuiltin(name string) bool {
	name = strings.TrimPrefix(name, "node:")
	top, _, _ := strings.Cut(name, "/")
	return nodeBuiltinModules[top]
}

// BuiltinResolver handles node: and other runtime-provided namespaces.
type BuiltinResolver struct{}

// NewBuiltinResolver creates a resolver for runtime builtins.
func NewBuiltinResolver() *BuiltinResolver {
	return &BuiltinResolver{}
}

// Resolve adds the "node:" prefix to bare Node.js builtins and returns
// every other builtin unchanged.
func (r *BuiltinResolver) Resolve(raw string, _ ModuleSpecifier) (ModuleSpecifier, error) {
	if schemePattern.MatchString(raw) {
		return ModuleSpecifier(raw), nil
	}
	return ModuleSpecifier("node:" + raw), nil
}

// CanResolve returns true for specifiers classified as builtin.
func (r *BuiltinResolver) CanResolve(raw string, _ ModuleSpecifier) bool {
	return Classify(raw) == KindBuiltin
}
