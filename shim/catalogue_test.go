/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package shim_test

import (
	"testing"

	"bennypowers.dev/dualpack/resolver"
	"bennypowers.dev/dualpack/shim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sources(defs []shim.Definition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Source()
	}
	return out
}

func TestResolve(t *testing.T) {
	custom := shim.Definition{
		Package:     &shim.PackageSource{Name: "my-fetch", Version: "^1.0.0"},
		GlobalNames: []shim.GlobalName{shim.Value("myFetch")},
	}
	dev := shim.Definition{
		Module:      "test/helpers.ts",
		GlobalNames: []shim.GlobalName{shim.Value("assertSnapshot")},
	}

	main, test := shim.Resolve(shim.Options{
		Deno:      shim.Always,
		Timers:    shim.DevOnly,
		Blob:      shim.Never,
		Custom:    []shim.Definition{custom},
		CustomDev: []shim.Definition{dev},
	})

	assert.Equal(t, []string{"package @deno/shim-deno", "package my-fetch"}, sources(main))
	assert.Equal(t, []string{
		"package @deno/shim-deno",
		"package @deno/shim-timers",
		"package my-fetch",
		"module test/helpers.ts",
	}, sources(test))
}

func TestResolve_DenoTestOnly(t *testing.T) {
	main, test := shim.Resolve(shim.Options{Deno: shim.DevOnly, DenoTestOnly: true})
	assert.Empty(t, main)
	assert.Equal(t, []string{"package @deno/shim-deno-test"}, sources(test))
}

func TestResolve_Nothing(t *testing.T) {
	main, test := shim.Resolve(shim.Options{})
	assert.Empty(t, main)
	assert.Empty(t, test)
}

func TestCatalogue_Valid(t *testing.T) {
	var all []shim.Definition
	for _, c := range shim.Catalogue() {
		all = append(all, c.Definition)
	}
	require.NoError(t, shim.Validate(all, nil))

	var opts shim.Options
	for _, c := range shim.Catalogue() {
		assert.Equal(t, shim.Never, opts.Mode(c.Name), c.Name)
	}
}

func TestDefinition_Dependencies(t *testing.T) {
	main, _ := shim.Resolve(shim.Options{WebSocket: shim.Always})
	require.Len(t, main, 1)
	deps := main[0].Dependencies()
	require.Len(t, deps, 2)
	assert.Equal(t, "ws", deps[0].Name)
	assert.Equal(t, "@types/ws", deps[1].Name)
	assert.True(t, main[0].Provides("WebSocket"))

	unversioned := shim.Definition{Package: &shim.PackageSource{Name: "x", PeerDependency: true}}
	require.Len(t, unversioned.Dependencies(), 1)
	assert.Equal(t, "*", unversioned.Dependencies()[0].Version)
	assert.True(t, unversioned.Dependencies()[0].PeerDependency)

	assert.Empty(t, shim.Definition{Module: "./m.ts"}.Dependencies())
}

func TestValidate(t *testing.T) {
	a := shim.Definition{
		Package:     &shim.PackageSource{Name: "a"},
		GlobalNames: []shim.GlobalName{shim.Value("x"), shim.Value("shared")},
	}
	b := shim.Definition{
		Module:      "./b.ts",
		GlobalNames: []shim.GlobalName{shim.Value("shared")},
	}

	t.Run("duplicate global", func(t *testing.T) {
		err := shim.Validate([]shim.Definition{a, b}, nil)
		require.ErrorIs(t, err, shim.ErrDuplicateGlobal)
		var conflict *shim.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "shared", conflict.Name)
		assert.Equal(t, "package a", conflict.First)
		assert.Equal(t, "module ./b.ts", conflict.Second)
	})

	t.Run("mapping conflict", func(t *testing.T) {
		mappings := resolver.Mappings{
			"https://deno.land/x/a/mod.ts": {Package: &resolver.PackageMapping{Name: "a"}},
		}
		err := shim.Validate([]shim.Definition{a}, mappings)
		assert.ErrorIs(t, err, shim.ErrShimMappingConflict)
	})

	invalid := map[string]shim.Definition{
		"neither source":  {GlobalNames: []shim.GlobalName{shim.Value("x")}},
		"both sources":    {Package: &shim.PackageSource{Name: "p"}, Module: "./m.ts", GlobalNames: []shim.GlobalName{shim.Value("x")}},
		"no package name": {Package: &shim.PackageSource{}, GlobalNames: []shim.GlobalName{shim.Value("x")}},
		"no names":        {Module: "./m.ts"},
		"empty name":      {Module: "./m.ts", GlobalNames: []shim.GlobalName{{}}},
	}
	for name, def := range invalid {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, shim.Validate([]shim.Definition{def}, nil), shim.ErrInvalidDefinition)
		})
	}
}
