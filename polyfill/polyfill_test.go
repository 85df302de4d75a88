/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package polyfill_test

import (
	"strings"
	"testing"

	"bennypowers.dev/dualpack/parser"
	"bennypowers.dev/dualpack/polyfill"
	"bennypowers.dev/dualpack/rewrite"
	"bennypowers.dev/dualpack/specifier"
	"bennypowers.dev/dualpack/target"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseTS(t *testing.T, src string) *parser.Module {
	t.Helper()
	mod, err := parser.ParseModule([]byte(src), specifier.MediaTypeScript)
	require.NoError(t, err)
	return mod
}

func TestSelect(t *testing.T) {
	mod := parseTS(t, `
const xs = [1, 2, 3];
xs.findLast((x) => x > 1);
Object.hasOwn({}, "a");
"abc".replaceAll("b", "c");
await Array.fromAsync(xs);
`)

	tests := []struct {
		level target.Level
		want  []string
	}{
		{target.ES2020, []string{"replaceAll", "hasOwn", "findLast", "fromAsync"}},
		{target.ES2021, []string{"hasOwn", "findLast", "fromAsync"}},
		{target.ES2022, []string{"findLast", "fromAsync"}},
		{target.Unknown, []string{"findLast", "fromAsync"}},
		{target.ES2023, []string{"fromAsync"}},
		{target.Latest, []string{"fromAsync"}},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			set := polyfill.Select(tt.level, []*parser.Module{mod})
			assert.Equal(t, tt.want, set.Names())
		})
	}
}

func TestSelect_Unused(t *testing.T) {
	mod := parseTS(t, "console.log([1].map((x) => x));\n")
	set := polyfill.Select(target.ES2015, []*parser.Module{mod})
	assert.True(t, set.Empty())
	assert.False(t, set.UsedBy(mod))
}

func TestSet_WithoutAndUsedBy(t *testing.T) {
	main := parseTS(t, "Object.hasOwn({}, 'a');\n")
	test := parseTS(t, "Object.hasOwn({}, 'a');\n[1].at(-1);\n")

	mainSet := polyfill.Select(target.ES2020, []*parser.Module{main})
	testSet := polyfill.Select(target.ES2020, []*parser.Module{main, test}).Without(mainSet)

	assert.Equal(t, []string{"hasOwn"}, mainSet.Names())
	assert.Equal(t, []string{"at"}, testSet.Names())
	assert.True(t, mainSet.UsedBy(test))
	assert.True(t, testSet.UsedBy(test))
	assert.False(t, testSet.UsedBy(main))
}

func TestRender(t *testing.T) {
	mod := parseTS(t, "Promise.withResolvers();\n[].findLastIndex(() => true);\n")
	set := polyfill.Select(target.ES2022, []*parser.Module{mod})
	require.Equal(t, []string{"findLast", "withResolvers"}, set.Names())

	out, err := set.Render()
	require.NoError(t, err)
	text := string(out)

	assert.True(t, strings.HasPrefix(text, "// findLast\n"), text)
	assert.Contains(t, text, "if (!Array.prototype.findLastIndex) {")
	assert.Contains(t, text, "if (!Promise.withResolvers) {")
	assert.Less(t, strings.Index(text, "// findLast"), strings.Index(text, "// withResolvers"))
	assert.True(t, strings.HasSuffix(text, "export {};\n"))
}

func TestCatalogue_ScriptsGuarded(t *testing.T) {
	for _, p := range polyfill.Catalogue() {
		script := p.Script()
		assert.NotEmpty(t, script, p.Name)
		assert.Contains(t, script, "if (!", "%s is guarded", p.Name)
	}
}

func TestImport(t *testing.T) {
	src := "#!/usr/bin/env node\nObject.hasOwn({}, 'a');\n"
	mod := parseTS(t, src)
	out, err := rewrite.Apply([]byte(src), []rewrite.Edit{polyfill.Import(mod, "./_dnt.polyfills.js")})
	require.NoError(t, err)
	assert.Equal(t, "#!/usr/bin/env node\nimport \"./_dnt.polyfills.js\";\nObject.hasOwn({}, 'a');\n", string(out))
}

func TestExponents(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		level target.Level
		want  string
	}{
		{"rewritten below ES2016", "const x = a ** b;\n", target.ES2015, "const x = Math.pow(a, b);\n"},
		{"nested", "const x = a ** b ** 2;\n", target.ES2015, "const x = Math.pow(a, Math.pow(b, 2));\n"},
		{"assignment", "let y = 2;\ny **= 3;\n", target.ES2015, "let y = 2;\ny = Math.pow(y, 3);\n"},
		{"member assignment", "this.size **= n + 1;\n", target.ES2015, "this.size = Math.pow(this.size, n + 1);\n"},
		{"assignment with exponent operand", "x **= a ** 2;\n", target.ES2015, "x = Math.pow(x, Math.pow(a, 2));\n"},
		{"computed member kept", "xs[i()] **= 2;\n", target.ES2015, "xs[i()] **= 2;\n"},
		{"assignment kept at ES2016", "y **= 3;\n", target.ES2016, "y **= 3;\n"},
		{"kept at ES2016", "const x = a ** b;\n", target.ES2016, "const x = a ** b;\n"},
		{"kept at default", "const x = a ** b;\n", target.Unknown, "const x = a ** b;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod := parseTS(t, tt.src)
			out, err := rewrite.Apply([]byte(tt.src), polyfill.Exponents(mod, tt.level))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}
