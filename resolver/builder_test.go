/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bennypowers.dev/dualpack/importmap"
	"bennypowers.dev/dualpack/internal/mapfs"
	"bennypowers.dev/dualpack/load"
	"bennypowers.dev/dualpack/resolver"
	"bennypowers.dev/dualpack/specifier"
	"bennypowers.dev/dualpack/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const libURL = "https://deno.land/x/lib@1.0.0/mod.ts"

func specs(modules []*resolver.Module) []string {
	result := make([]string, len(modules))
	for i, m := range modules {
		result[i] = string(m.Specifier)
	}
	return result
}

func newBuilder(files map[string]string, remote map[string]string, opts resolver.Options) (*resolver.Builder, *testutil.MapFetcher) {
	fetcher := testutil.NewMapFetcher(remote)
	loader := load.NewLoader(mapfs.FromMap(files), fetcher)
	if opts.Root == "" {
		opts.Root = "/project"
	}
	return resolver.NewBuilder(loader, opts), fetcher
}

func TestBuild_DiscoveryOrder(t *testing.T) {
	b, _ := newBuilder(map[string]string{
		"/project/mod.ts": `import { a } from "./a.ts";
import "./b.ts";
import chalk from "npm:chalk@5";
import { readFile } from "node:fs";
export * from "` + libURL + `";
`,
		"/project/a.ts": `import "./c.ts"; export const a = 1;`,
		"/project/b.ts": `export {};`,
		"/project/c.ts": `export {};`,
	}, map[string]string{
		libURL:                                  `export * from "./util.ts";`,
		"https://deno.land/x/lib@1.0.0/util.ts": `export const util = 1;`,
	}, resolver.Options{})

	result, err := b.Build(context.Background(), []string{"mod.ts"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"file:///project/mod.ts",
		"file:///project/a.ts",
		"file:///project/b.ts",
		libURL,
		"file:///project/c.ts",
		"https://deno.land/x/lib@1.0.0/util.ts",
	}, specs(result.Main.Modules()))
	assert.Equal(t, []specifier.ModuleSpecifier{"file:///project/mod.ts"}, result.Main.EntryPoints())

	mod := result.Main.Get("file:///project/mod.ts")
	require.NotNil(t, mod)
	assert.True(t, mod.Entry)
	require.Len(t, mod.Edges, 5)

	chalk := mod.Edges[2]
	require.NotNil(t, chalk.External)
	require.NotNil(t, chalk.External.Package)
	assert.Equal(t, "chalk", chalk.External.Package.Name)
	assert.Equal(t, "5", chalk.External.Package.Version)

	fs := mod.Edges[3]
	require.NotNil(t, fs.External)
	assert.True(t, fs.External.Builtin)
	assert.Equal(t, specifier.ModuleSpecifier("node:fs"), fs.Target)

	assert.Empty(t, result.Test.Modules())
	assert.Empty(t, result.Warnings)
}

func TestBuild_TestPartitionExcludesMain(t *testing.T) {
	b, _ := newBuilder(map[string]string{
		"/project/mod.ts":       `export const x = 1;`,
		"/project/mod.test.ts":  `import { x } from "./mod.ts"; import { helper } from "./test_util.ts";`,
		"/project/test_util.ts": `import { x } from "./mod.ts"; export const helper = x;`,
	}, nil, resolver.Options{})

	result, err := b.Build(context.Background(), []string{"./mod.ts"}, []string{"./mod.test.ts"})
	require.NoError(t, err)

	assert.Equal(t, []string{"file:///project/mod.ts"}, specs(result.Main.Modules()))
	assert.Equal(t, []string{
		"file:///project/mod.test.ts",
		"file:///project/test_util.ts",
	}, specs(result.Test.Modules()))

	// Edges into main are kept.
	assert.Equal(t, []specifier.ModuleSpecifier{
		"file:///project/mod.ts",
		"file:///project/test_util.ts",
	}, result.Test.Dependencies("file:///project/mod.test.ts"))
	assert.False(t, result.Test.Has("file:///project/mod.ts"))
}

func TestBuild_SharedRemoteFetchedOnce(t *testing.T) {
	shared := "https://deno.land/x/shared/mod.ts"
	b, fetcher := newBuilder(map[string]string{
		"/project/mod.ts": `import "./a.ts"; import "./b.ts";`,
		"/project/a.ts":   `import "` + shared + `";`,
		"/project/b.ts":   `import "` + shared + `";`,
	}, map[string]string{shared: `export {};`}, resolver.Options{})

	result, err := b.Build(context.Background(), []string{"mod.ts"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.Calls(shared))
	assert.Equal(t, 4, result.Main.Len())
	assert.Len(t, result.Main.Dependents(specifier.ModuleSpecifier(shared)), 2)
}

func TestBuild_PackageMappingSkipsFetch(t *testing.T) {
	remote := "https://deno.land/x/chalk/mod.ts"
	mappings, err := resolver.NewMappings(map[string]resolver.RawMapping{
		remote: {Package: &resolver.PackageMapping{Name: "chalk", Version: "^5.0.0", Peer: true}},
	}, "/project")
	require.NoError(t, err)

	b, fetcher := newBuilder(map[string]string{
		"/project/mod.ts": `import chalk from "` + remote + `";`,
	}, nil, resolver.Options{Mappings: mappings})

	result, err := b.Build(context.Background(), []string{"mod.ts"}, nil)
	require.NoError(t, err)

	assert.Zero(t, fetcher.Calls(remote))
	edge := result.Main.Get("file:///project/mod.ts").Edges[0]
	require.NotNil(t, edge.Package)
	assert.Equal(t, "chalk", edge.Package.Name)
	assert.True(t, edge.Package.Peer)
	assert.False(t, edge.IsModule())
}

func TestBuild_ModuleMappingReplacesTarget(t *testing.T) {
	mappings, err := resolver.NewMappings(map[string]resolver.RawMapping{
		"./deno_impl.ts": {Module: "./node_impl.ts"},
	}, "/project")
	require.NoError(t, err)

	b, _ := newBuilder(map[string]string{
		"/project/mod.ts":       `import { impl } from "./deno_impl.ts";`,
		"/project/deno_impl.ts": `export const impl = Deno.version;`,
		"/project/node_impl.ts": `export const impl = process.version;`,
	}, nil, resolver.Options{Mappings: mappings})

	result, err := b.Build(context.Background(), []string{"mod.ts"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"file:///project/mod.ts",
		"file:///project/node_impl.ts",
	}, specs(result.Main.Modules()))
	edge := result.Main.Get("file:///project/mod.ts").Edges[0]
	assert.Equal(t, "./deno_impl.ts", edge.Import.Specifier)
	assert.Equal(t, specifier.ModuleSpecifier("file:///project/node_impl.ts"), edge.Target)
}

func TestBuild_ModuleMappingChain(t *testing.T) {
	tests := []struct {
		name       string
		mappings   map[string]resolver.RawMapping
		wantTarget specifier.ModuleSpecifier
		wantPkg    string
		wantGraph  []string
	}{
		{
			name: "module then package",
			mappings: map[string]resolver.RawMapping{
				"./a.ts": {Module: "./b.ts"},
				"./b.ts": {Package: &resolver.PackageMapping{Name: "pkg", Version: "^1.0.0"}},
			},
			wantPkg:   "pkg",
			wantGraph: []string{"file:///project/mod.ts"},
		},
		{
			name: "module then module",
			mappings: map[string]resolver.RawMapping{
				"./a.ts": {Module: "./b.ts"},
				"./b.ts": {Module: "./c.ts"},
			},
			wantTarget: "file:///project/c.ts",
			wantGraph:  []string{"file:///project/mod.ts", "file:///project/c.ts"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mappings, err := resolver.NewMappings(tt.mappings, "/project")
			require.NoError(t, err)

			b, _ := newBuilder(map[string]string{
				"/project/mod.ts": `import { x } from "./a.ts";`,
				"/project/a.ts":   `export const x = "a";`,
				"/project/b.ts":   `export const x = "b";`,
				"/project/c.ts":   `export const x = "c";`,
			}, nil, resolver.Options{Mappings: mappings})

			result, err := b.Build(context.Background(), []string{"mod.ts"}, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.wantGraph, specs(result.Main.Modules()))
			edge := result.Main.Get("file:///project/mod.ts").Edges[0]
			if tt.wantPkg != "" {
				require.NotNil(t, edge.Package)
				assert.Equal(t, tt.wantPkg, edge.Package.Name)
				return
			}
			assert.Nil(t, edge.Package)
			assert.Equal(t, tt.wantTarget, edge.Target)
		})
	}
}

func TestNewMappings_Cycle(t *testing.T) {
	_, err := resolver.NewMappings(map[string]resolver.RawMapping{
		"./a.ts": {Module: "./b.ts"},
		"./b.ts": {Module: "./c.ts"},
		"./c.ts": {Module: "./a.ts"},
	}, "/project")
	require.ErrorIs(t, err, resolver.ErrInvalidMapping)
	assert.Contains(t, err.Error(), "cycle")
}

func TestMappings_Follow(t *testing.T) {
	mappings := resolver.Mappings{
		"file:///project/a.ts": {Module: "file:///project/b.ts"},
		"file:///project/b.ts": {Module: "file:///project/a.ts"},
		"file:///project/c.ts": {Module: "file:///project/d.ts"},
	}

	got, pkg, err := mappings.Follow("file:///project/c.ts")
	require.NoError(t, err)
	assert.Nil(t, pkg)
	assert.Equal(t, specifier.ModuleSpecifier("file:///project/d.ts"), got)

	got, _, err = mappings.Follow("file:///project/unmapped.ts")
	require.NoError(t, err)
	assert.Equal(t, specifier.ModuleSpecifier("file:///project/unmapped.ts"), got)

	_, _, err = mappings.Follow("file:///project/a.ts")
	assert.ErrorIs(t, err, resolver.ErrInvalidMapping)
}

func TestBuild_ImportMap(t *testing.T) {
	im, err := importmap.Parse([]byte(`{"imports": {"lib/": "./vendor/lib/"}}`), specifier.DirReferrer("/project"))
	require.NoError(t, err)

	b, _ := newBuilder(map[string]string{
		"/project/mod.ts":          `import { x } from "lib/x.ts";`,
		"/project/vendor/lib/x.ts": `export const x = 1;`,
	}, nil, resolver.Options{ImportMap: im})

	result, err := b.Build(context.Background(), []string{"mod.ts"}, nil)
	require.NoError(t, err)
	assert.True(t, result.Main.Has("file:///project/vendor/lib/x.ts"))
}

func TestBuild_MissingModule(t *testing.T) {
	b, _ := newBuilder(map[string]string{
		"/project/mod.ts": "export {};\nimport \"./missing.ts\";\n",
	}, nil, resolver.Options{})

	_, err := b.Build(context.Background(), []string{"mod.ts"}, nil)
	require.Error(t, err)

	var re *resolver.ResolutionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "./missing.ts", re.Specifier)
	assert.Equal(t, specifier.ModuleSpecifier("file:///project/mod.ts"), re.Importer)
	assert.Equal(t, 2, re.Line)
	assert.Equal(t, 9, re.Column)
	assert.ErrorIs(t, err, resolver.ErrUnresolved)
	assert.ErrorIs(t, err, load.ErrNotFound)
}

func TestBuild_MissingRemote(t *testing.T) {
	b, _ := newBuilder(map[string]string{
		"/project/mod.ts": `import "https://example.com/gone.js";`,
	}, nil, resolver.Options{})

	_, err := b.Build(context.Background(), []string{"mod.ts"}, nil)
	assert.ErrorIs(t, err, load.ErrFetchFailed)
	assert.ErrorIs(t, err, resolver.ErrUnresolved)
}

func TestBuild_EntryPointErrors(t *testing.T) {
	b, _ := newBuilder(map[string]string{}, nil, resolver.Options{})

	_, err := b.Build(context.Background(), []string{"mod.ts"}, nil)
	var re *resolver.ResolutionError
	require.True(t, errors.As(err, &re))
	assert.Empty(t, re.Importer)
	assert.ErrorIs(t, err, load.ErrNotFound)

	_, err = b.ResolveEntryPoint("npm:chalk")
	assert.ErrorIs(t, err, resolver.ErrUnresolved)
}

func TestBuild_Warnings(t *testing.T) {
	b, _ := newBuilder(map[string]string{
		"/project/a.ts": "import \"./b.ts\";\nconst name = \"x\";\nawait import(name);\n",
		"/project/b.ts": `import "./a.ts";`,
	}, nil, resolver.Options{})

	result, err := b.Build(context.Background(), []string{"a.ts"}, nil)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0], "file:///project/a.ts:3:7")
	assert.Contains(t, result.Warnings[0], "dynamic import")
	assert.True(t, strings.HasPrefix(result.Warnings[1], "main graph contains an import cycle"))
}

func TestBuild_ReferenceTypesPackageIsSkipped(t *testing.T) {
	b, _ := newBuilder(map[string]string{
		"/project/mod.ts": "/// <reference types=\"node\" />\nexport {};\n",
	}, nil, resolver.Options{})

	result, err := b.Build(context.Background(), []string{"mod.ts"}, nil)
	require.NoError(t, err)
	edges := result.Main.Get("file:///project/mod.ts").Edges
	require.Len(t, edges, 1)
	assert.True(t, edges[0].Skip)
}

func TestExtend(t *testing.T) {
	b, _ := newBuilder(map[string]string{
		"/project/mod.ts":         `export {};`,
		"/project/shims/deno.ts":  `import "./inner.ts"; export const Deno = {};`,
		"/project/shims/inner.ts": `export {};`,
	}, nil, resolver.Options{})

	ctx := context.Background()
	require.NoError(t, b.BuildPartition(ctx, resolver.Main, []string{"mod.ts"}))
	require.NoError(t, b.Extend(ctx, resolver.Main, []specifier.ModuleSpecifier{"file:///project/shims/deno.ts"}))

	result := b.Result()
	assert.Equal(t, []string{
		"file:///project/mod.ts",
		"file:///project/shims/deno.ts",
		"file:///project/shims/inner.ts",
	}, specs(result.Main.Modules()))
	assert.False(t, result.Main.Get("file:///project/shims/deno.ts").Entry)
	assert.Len(t, result.Main.EntryPoints(), 1)
}

func TestNewMappings_Invalid(t *testing.T) {
	_, err := resolver.NewMappings(map[string]resolver.RawMapping{
		"./a.ts": {},
	}, "/project")
	assert.ErrorIs(t, err, resolver.ErrInvalidMapping)

	_, err = resolver.NewMappings(map[string]resolver.RawMapping{
		"./a.ts": {Package: &resolver.PackageMapping{}},
	}, "/project")
	assert.ErrorIs(t, err, resolver.ErrInvalidMapping)
}
