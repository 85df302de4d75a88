/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package shim_test

import (
	"errors"
	"strings"
	"testing"

	"bennypowers.dev/dualpack/parser"
	"bennypowers.dev/dualpack/rewrite"
	"bennypowers.dev/dualpack/shim"
	"bennypowers.dev/dualpack/specifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseTS(t *testing.T, src string) *parser.Module {
	t.Helper()
	mod, err := parser.ParseModule([]byte(src), specifier.MediaTypeScript)
	require.NoError(t, err)
	return mod
}

func inject(t *testing.T, plan *shim.Plan, src string) string {
	t.Helper()
	mod := parseTS(t, src)
	out, err := rewrite.Apply([]byte(src), plan.Inject(mod, "./_dnt.shims.js"))
	require.NoError(t, err)
	return string(out)
}

var (
	shimA = shim.Definition{
		Package:     &shim.PackageSource{Name: "a", Version: "^1.0.0"},
		GlobalNames: []shim.GlobalName{shim.Value("x")},
	}
	shimB = shim.Definition{
		Package:     &shim.PackageSource{Name: "b", Version: "^2.0.0"},
		GlobalNames: []shim.GlobalName{shim.Value("y")},
	}
)

func TestNewPlan_Minimal(t *testing.T) {
	mod := parseTS(t, "console.log(x);\n")
	plan := shim.NewPlan([]shim.Definition{shimA, shimB}, shim.ReferencedGlobals([]*parser.Module{mod}))

	require.Len(t, plan.Active(), 1)
	assert.Equal(t, "package a", plan.Active()[0].Source())
	assert.True(t, plan.Covers("x"))
	assert.False(t, plan.Covers("y"))
	assert.True(t, plan.Provides("a"))
	assert.False(t, plan.Provides("b"))

	deps := plan.Dependencies()
	require.Len(t, deps, 1)
	assert.Equal(t, "a", deps[0].Name)

	binding, ok := plan.Globals().Get("console")
	require.True(t, ok)
	assert.Empty(t, binding.Source, "console is provided natively")
	binding, _ = plan.Globals().Get("x")
	assert.Equal(t, "package a", binding.Source)

	agg, err := plan.Aggregator(nil)
	require.NoError(t, err)
	assert.Contains(t, string(agg), `export { x } from "a";`)
	assert.NotContains(t, string(agg), `"b"`)
}

func TestNewPlan_Empty(t *testing.T) {
	mod := parseTS(t, "const setTimeout = 1;\nconsole.log(setTimeout);\n")
	timers := shim.Definition{
		Package:     &shim.PackageSource{Name: "@deno/shim-timers"},
		GlobalNames: []shim.GlobalName{shim.Value("setTimeout")},
	}
	plan := shim.NewPlan([]shim.Definition{timers}, shim.ReferencedGlobals([]*parser.Module{mod}))
	assert.True(t, plan.Empty(), "locally bound names do not activate shims")
	assert.Nil(t, plan.Inject(mod, "./_dnt.shims.js"))
}

func TestReferencedGlobals(t *testing.T) {
	a := parseTS(t, "Deno.exit(x);\n")
	b := parseTS(t, "x(); setTimeout(y);\n")
	assert.Equal(t, []string{"Deno", "x", "setTimeout", "y"}, shim.ReferencedGlobals([]*parser.Module{a, b}))
}

func TestInject(t *testing.T) {
	defs := []shim.Definition{
		{
			Package:     &shim.PackageSource{Name: "@deno/shim-deno"},
			GlobalNames: []shim.GlobalName{shim.Value("Deno")},
		},
		shimA,
	}
	plan := shim.NewPlan(defs, []string{"Deno", "x"})

	t.Run("rewrites references", func(t *testing.T) {
		got := inject(t, plan, "Deno.exit(1);\n")
		assert.Equal(t, "import * as dntShim from \"./_dnt.shims.js\";\ndntShim.Deno.exit(1);\n", got)
	})

	t.Run("no import without shimmed globals", func(t *testing.T) {
		src := "console.log(1);\n"
		assert.Equal(t, src, inject(t, plan, src))
	})

	t.Run("shorthand property", func(t *testing.T) {
		got := inject(t, plan, "export const o = { x };\n")
		assert.Contains(t, got, "{ x: dntShim.x }")
	})

	t.Run("hashbang stays first", func(t *testing.T) {
		got := inject(t, plan, "#!/usr/bin/env node\nDeno.exit(0);\n")
		assert.Equal(t, "#!/usr/bin/env node\nimport * as dntShim from \"./_dnt.shims.js\";\ndntShim.Deno.exit(0);\n", got)
	})

	t.Run("globalThis", func(t *testing.T) {
		got := inject(t, plan, "globalThis.Deno;\n")
		assert.Contains(t, got, "dntShim.dntGlobalThis.Deno;")
	})

	t.Run("globalThis without shimmed property", func(t *testing.T) {
		for _, src := range []string{"globalThis.foo = 1;\n", "const g = globalThis;\n"} {
			assert.Equal(t, src, inject(t, plan, src))
		}
	})

	t.Run("globalThis beside a shimmed read", func(t *testing.T) {
		got := inject(t, plan, "globalThis.foo = Deno.pid;\n")
		assert.Equal(t, "import * as dntShim from \"./_dnt.shims.js\";\nglobalThis.foo = dntShim.Deno.pid;\n", got)
	})

	t.Run("shadowed name", func(t *testing.T) {
		src := "function f(Deno: number) { return Deno; }\n"
		assert.Equal(t, src, inject(t, plan, src))
	})
}

func TestInject_GlobalThisWithoutShims(t *testing.T) {
	plan := shim.NewPlan([]shim.Definition{shimA}, []string{"globalThis"})
	src := "globalThis.foo = 1;\n"
	assert.Equal(t, src, inject(t, plan, src))
}

func TestReferencedGlobals_GlobalThisProperty(t *testing.T) {
	mod := parseTS(t, "globalThis.Deno.exit(0);\nconsole.log(1);\n")

	names := shim.ReferencedGlobals([]*parser.Module{mod})
	assert.Equal(t, []string{"globalThis", "Deno", "console"}, names)

	deno := shim.Definition{
		Package:     &shim.PackageSource{Name: "@deno/shim-deno"},
		GlobalNames: []shim.GlobalName{shim.Value("Deno")},
	}
	plan := shim.NewPlan([]shim.Definition{deno}, names)
	assert.True(t, plan.Covers("Deno"))
}

func TestAggregator(t *testing.T) {
	defs := []shim.Definition{
		{
			Package: &shim.PackageSource{Name: "undici"},
			GlobalNames: []shim.GlobalName{
				shim.Value("fetch"),
				shim.TypeOnly("RequestInit"),
			},
		},
		{
			Package:     &shim.PackageSource{Name: "ws"},
			GlobalNames: []shim.GlobalName{{Name: "WebSocket", ExportName: "default"}},
		},
		{
			Module:      "node:buffer",
			GlobalNames: []shim.GlobalName{shim.Value("Blob")},
		},
		{
			Module:      "./shims/local.ts",
			GlobalNames: []shim.GlobalName{shim.Value("localThing")},
		},
	}
	plan := shim.NewPlan(defs, []string{"fetch", "WebSocket", "Blob", "localThing", "console"})

	agg, err := plan.Aggregator(func(module string) (string, error) {
		if strings.HasPrefix(module, "node:") {
			return module, nil
		}
		return "./shims/local.js", nil
	})
	require.NoError(t, err)
	text := string(agg)

	assert.True(t, strings.HasPrefix(text, `import { fetch } from "undici";`), text)
	for _, line := range []string{
		`export { fetch } from "undici";`,
		`export type { RequestInit } from "undici";`,
		`import { default as WebSocket } from "ws";`,
		`export { default as WebSocket } from "ws";`,
		`import { Blob } from "node:buffer";`,
		`import { localThing } from "./shims/local.js";`,
		"const dntGlobals = {\n  fetch,\n  WebSocket,\n  Blob,\n  localThing,\n};",
		"export const dntGlobalThis = createMergeProxy(globalThis, dntGlobals);",
		"function createMergeProxy<",
	} {
		assert.Contains(t, text, line)
	}
	assert.NotContains(t, text, "RequestInit,", "type-only names are not placed on the global object")
	assert.NotContains(t, text, "console")
}

func TestAggregator_ModuleError(t *testing.T) {
	plan := shim.NewPlan([]shim.Definition{{
		Module:      "./missing.ts",
		GlobalNames: []shim.GlobalName{shim.Value("m")},
	}}, []string{"m"})
	boom := errors.New("boom")
	_, err := plan.Aggregator(func(string) (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
}
