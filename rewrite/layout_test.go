/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package rewrite_test

import (
	"regexp"
	"testing"

	"bennypowers.dev/dualpack/rewrite"
	"bennypowers.dev/dualpack/specifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_Paths(t *testing.T) {
	specs := []specifier.ModuleSpecifier{
		"file:///project/src/mod.ts",
		"file:///project/src/util/a.ts",
		"file:///project/data.json",
		"https://deno.land/x/lib@1.0.0/mod.ts",
		"http://localhost:8080/a.js",
		"https://esm.sh/preact",
		"https://example.com/",
		"npm:chalk@5",
		"node:fs",
	}
	layout := rewrite.NewLayout(specs)

	assert.Equal(t, "/project", layout.Root())

	tests := []struct {
		spec    specifier.ModuleSpecifier
		path    string
		emitted string
	}{
		{"file:///project/src/mod.ts", "src/mod.ts", "src/mod.js"},
		{"file:///project/src/util/a.ts", "src/util/a.ts", "src/util/a.js"},
		{"file:///project/data.json", "data.json.js", "data.json.js"},
		{"https://deno.land/x/lib@1.0.0/mod.ts", "deps/deno.land/x/lib@1.0.0/mod.ts", "deps/deno.land/x/lib@1.0.0/mod.js"},
		{"http://localhost:8080/a.js", "deps/localhost_8080/a.js", "deps/localhost_8080/a.js"},
		{"https://esm.sh/preact", "deps/esm.sh/preact.js", "deps/esm.sh/preact.js"},
		{"https://example.com/", "deps/example.com/index.js", "deps/example.com/index.js"},
	}
	for _, tt := range tests {
		t.Run(string(tt.spec), func(t *testing.T) {
			p, ok := layout.Path(tt.spec)
			require.True(t, ok)
			assert.Equal(t, tt.path, p)
			e, ok := layout.EmittedPath(tt.spec)
			require.True(t, ok)
			assert.Equal(t, tt.emitted, e)
		})
	}

	_, ok := layout.Path("npm:chalk@5")
	assert.False(t, ok, "registry specifiers have no output file")
	_, ok = layout.Path("node:fs")
	assert.False(t, ok)
}

func TestLayout_SingleDirectoryRoot(t *testing.T) {
	layout := rewrite.NewLayout([]specifier.ModuleSpecifier{"file:///project/mod.ts"})
	assert.Equal(t, "/project", layout.Root())
	p, _ := layout.Path("file:///project/mod.ts")
	assert.Equal(t, "mod.ts", p)
}

func TestLayout_QueryHash(t *testing.T) {
	a := specifier.ModuleSpecifier("https://esm.sh/x.js?target=es2022")
	b := specifier.ModuleSpecifier("https://esm.sh/x.js?target=es2020")
	layout := rewrite.NewLayout([]specifier.ModuleSpecifier{a, b})

	pa, _ := layout.Path(a)
	pb, _ := layout.Path(b)
	assert.Regexp(t, regexp.MustCompile(`^deps/esm\.sh/x_[0-9a-f]{8}\.js$`), pa)
	assert.NotEqual(t, pa, pb)

	again := rewrite.NewLayout([]specifier.ModuleSpecifier{a})
	pa2, _ := again.Path(a)
	assert.Equal(t, pa, pa2, "layout must be deterministic")
}

func TestLayout_UniquePaths(t *testing.T) {
	tests := []struct {
		name     string
		specs    []specifier.ModuleSpecifier
		reserved []string
		kept     specifier.ModuleSpecifier
		keptPath string
		renamed  specifier.ModuleSpecifier
		pattern  string
	}{
		{
			name:     "extensionless and .js remote",
			specs:    []specifier.ModuleSpecifier{"https://host/a", "https://host/a.js"},
			kept:     "https://host/a",
			keptPath: "deps/host/a.js",
			renamed:  "https://host/a.js",
			pattern:  `^deps/host/a_[0-9a-f]{8}\.js$`,
		},
		{
			name:     "local shadows remote",
			specs:    []specifier.ModuleSpecifier{"https://host/a.ts", "file:///project/mod.ts", "file:///project/deps/host/a.ts"},
			kept:     "file:///project/deps/host/a.ts",
			keptPath: "deps/host/a.ts",
			renamed:  "https://host/a.ts",
			pattern:  `^deps/host/a_[0-9a-f]{8}\.ts$`,
		},
		{
			name:     "sources compiling to the same file",
			specs:    []specifier.ModuleSpecifier{"file:///project/a.ts", "file:///project/a.js"},
			kept:     "file:///project/a.ts",
			keptPath: "a.ts",
			renamed:  "file:///project/a.js",
			pattern:  `^a_[0-9a-f]{8}\.js$`,
		},
		{
			name:     "generated file name",
			specs:    []specifier.ModuleSpecifier{"file:///project/mod.ts", "file:///project/_dnt.shims.ts"},
			reserved: []string{"_dnt.shims.ts"},
			kept:     "file:///project/mod.ts",
			keptPath: "mod.ts",
			renamed:  "file:///project/_dnt.shims.ts",
			pattern:  `^_dnt_[0-9a-f]{8}\.shims\.ts$`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := rewrite.NewLayout(tt.specs, rewrite.Reserve(tt.reserved...))

			p, ok := layout.Path(tt.kept)
			require.True(t, ok)
			assert.Equal(t, tt.keptPath, p)

			p, ok = layout.Path(tt.renamed)
			require.True(t, ok)
			assert.Regexp(t, regexp.MustCompile(tt.pattern), p)

			seen := map[string]specifier.ModuleSpecifier{}
			for _, spec := range tt.specs {
				e, ok := layout.EmittedPath(spec)
				require.True(t, ok)
				if other, dup := seen[e]; dup {
					t.Errorf("%s and %s both emit %s", other, spec, e)
				}
				seen[e] = spec
			}
		})
	}
}

func TestLayout_ServedMediaType(t *testing.T) {
	served := map[specifier.ModuleSpecifier]specifier.MediaType{
		"https://esm.sh/lib@1":       specifier.MediaTypeScript,
		"https://host/mod.js":        specifier.MediaTypeScript,
		"https://host/data":          specifier.MediaJSON,
		"https://host/plain.ts":      specifier.MediaTypeScript,
		"https://host/view?v=2":      specifier.MediaTSX,
		"https://esm.sh/preact@10.0": specifier.MediaJavaScript,
	}
	specs := make([]specifier.ModuleSpecifier, 0, len(served))
	for s := range served {
		specs = append(specs, s)
	}
	layout := rewrite.NewLayout(specs, rewrite.WithMediaTypes(func(s specifier.ModuleSpecifier) specifier.MediaType {
		return served[s]
	}))

	tests := []struct {
		spec    specifier.ModuleSpecifier
		path    string
		emitted string
	}{
		{"https://esm.sh/lib@1", "deps/esm.sh/lib@1.ts", "deps/esm.sh/lib@1.js"},
		{"https://host/mod.js", "deps/host/mod.js.ts", "deps/host/mod.js.js"},
		{"https://host/data", "deps/host/data.json.js", "deps/host/data.json.js"},
		{"https://host/plain.ts", "deps/host/plain.ts", "deps/host/plain.js"},
		{"https://esm.sh/preact@10.0", "deps/esm.sh/preact@10.0.js", "deps/esm.sh/preact@10.0.js"},
	}
	for _, tt := range tests {
		t.Run(string(tt.spec), func(t *testing.T) {
			p, ok := layout.Path(tt.spec)
			require.True(t, ok)
			assert.Equal(t, tt.path, p)
			e, _ := layout.EmittedPath(tt.spec)
			assert.Equal(t, tt.emitted, e)
		})
	}

	p, _ := layout.Path("https://host/view?v=2")
	assert.Regexp(t, regexp.MustCompile(`^deps/host/view_[0-9a-f]{8}\.tsx$`), p)
}

func TestLayout_UniquePathsStable(t *testing.T) {
	specs := []specifier.ModuleSpecifier{"https://host/a", "https://host/a.js"}
	first := rewrite.NewLayout(specs)
	second := rewrite.NewLayout(specs)
	for _, spec := range specs {
		a, _ := first.Path(spec)
		b, _ := second.Path(spec)
		assert.Equal(t, a, b)
	}
}

func TestRelative(t *testing.T) {
	tests := []struct {
		from, to, want string
	}{
		{"mod.ts", "util.js", "./util.js"},
		{"src/mod.ts", "deps/x/a.js", "../deps/x/a.js"},
		{"deps/a/b/c.ts", "deps/a/d.js", "../d.js"},
		{"a/b.ts", "a/b/c.js", "./b/c.js"},
		{"mod.ts", "_dnt.shims.js", "./_dnt.shims.js"},
		{"deps/deno.land/x/mod.ts", "_dnt.shims.js", "../../../_dnt.shims.js"},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, rewrite.Relative(tt.from, tt.to))
		})
	}
}

func TestEmittedExt(t *testing.T) {
	tests := map[string]string{
		".ts":   ".js",
		".tsx":  ".js",
		".jsx":  ".js",
		".js":   ".js",
		".mts":  ".mjs",
		".mjs":  ".mjs",
		".cts":  ".cjs",
		".cjs":  ".cjs",
		".d.ts": ".js",
		".json": ".json.js",
	}
	for in, want := range tests {
		assert.Equal(t, want, rewrite.EmittedExt(in), in)
	}
}
