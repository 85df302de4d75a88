/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package importmap_test

import (
	"errors"
	"testing"

	"bennypowers.dev/dualpack/importmap"
	"bennypowers.dev/dualpack/internal/mapfs"
	"bennypowers.dev/dualpack/specifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mapJSON = `{
  // comments are allowed
  "imports": {
    "preact": "npm:preact@10.19.0",
    "preact/": "npm:preact@10.19.0/",
    "std/": "https://deno.land/std@0.200.0/",
    "~/": "./src/",
    "./src/legacy.ts": "./src/modern.ts"
  },
  "scopes": {
    "./src/vendor/": {
      "preact": "npm:preact@8"
    }
  }
}`

func TestResolve(t *testing.T) {
	mfs := mapfs.FromMap(map[string]string{"/project/import_map.json": mapJSON})
	im, err := importmap.Load(mfs, "/project/import_map.json")
	require.NoError(t, err)

	referrer := specifier.ModuleSpecifier("file:///project/src/mod.ts")
	tests := []struct {
		name     string
		raw      string
		referrer specifier.ModuleSpecifier
		want     string
		matched  bool
	}{
		{"exact bare", "preact", referrer, "npm:preact@10.19.0", true},
		{"prefix bare", "preact/hooks", referrer, "npm:preact@10.19.0/hooks", true},
		{"remote prefix", "std/path/mod.ts", referrer, "https://deno.land/std@0.200.0/path/mod.ts", true},
		{"local prefix", "~/util.ts", referrer, "file:///project/src/util.ts", true},
		{"relative key", "./legacy.ts", referrer, "file:///project/src/modern.ts", true},
		{"scoped", "preact", "file:///project/src/vendor/x.ts", "npm:preact@8", true},
		{"scope falls back to imports", "preact/hooks", "file:///project/src/vendor/x.ts", "npm:preact@10.19.0/hooks", true},
		{"unmatched", "lodash", referrer, "lodash", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := im.Resolve(tt.raw, tt.referrer)
			assert.Equal(t, tt.matched, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_NilMap(t *testing.T) {
	var im *importmap.ImportMap
	got, ok := im.Resolve("preact", "file:///project/mod.ts")
	assert.False(t, ok)
	assert.Equal(t, "preact", got)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"imports": [`},
		{"prefix without slash address", `{"imports": {"a/": "./b"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := importmap.Parse([]byte(tt.data), "file:///project/import_map.json")
			require.Error(t, err)
			assert.True(t, errors.Is(err, importmap.ErrInvalidImportMap))
		})
	}
}
