/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package shims

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestOutputTable(t *testing.T) {
	var buf bytes.Buffer
	if err := outputTable(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"package @deno/shim-deno@~0.19.2",
		"setInterval, setTimeout",
		"module node:buffer",
		"Array.prototype.findLast, Array.prototype.findLastIndex",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Index(out, "Shims") > strings.Index(out, "Polyfills") {
		t.Error("expected shims before polyfills")
	}
}

func TestPolyfillRows(t *testing.T) {
	rows := polyfillRows()
	if len(rows) == 0 {
		t.Fatal("expected polyfills")
	}
	if rows[0].Name != "replaceAll" || rows[0].Since != "below ES2021" {
		t.Errorf("unexpected first row %+v", rows[0])
	}
	last := rows[len(rows)-1]
	if last.Name != "fromAsync" || last.Since != "always" {
		t.Errorf("unexpected last row %+v", last)
	}
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := outputJSON(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded struct {
		Shims []shimOutput `json:"shims"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(decoded.Shims) == 0 || decoded.Shims[0].Category != "deno" {
		t.Errorf("expected deno first, got %+v", decoded.Shims)
	}
}
