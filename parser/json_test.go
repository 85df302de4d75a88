/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package parser_test

import (
	"errors"
	"strings"
	"testing"

	"bennypowers.dev/dualpack/parser"
)

func TestJSONModule(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"object", `{"a": 1}`, "export default {\"a\": 1};\n"},
		{"array", "[1, 2]\n", "export default [1, 2];\n"},
		{"scalar", `"hello"`, "export default \"hello\";\n"},
		{"bom", "\xef\xbb\xbf{}", "export default {};\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parser.JSONModule([]byte(tt.input))
			if err != nil {
				t.Fatalf("JSONModule() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("JSONModule() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJSONModule_Comments(t *testing.T) {
	got, err := parser.JSONModule([]byte("{\n  // note\n  \"a\": 1,\n}"))
	if err != nil {
		t.Fatalf("JSONModule() error = %v", err)
	}
	if string(got[:len("export default {")]) != "export default {" {
		t.Errorf("unexpected prefix: %q", got)
	}
	if strings.Contains(string(got), "note") {
		t.Errorf("comment survived: %q", got)
	}
}

func TestJSONModule_Invalid(t *testing.T) {
	_, err := parser.JSONModule([]byte(`{"a": }`))
	if !errors.Is(err, parser.ErrInvalidJSON) {
		t.Errorf("expected ErrInvalidJSON, got %v", err)
	}
}
