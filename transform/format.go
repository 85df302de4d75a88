/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package transform

import (
	"fmt"
	"strings"
)

// ScriptModule is the synchronous module format emitted next to ESM, if any.
type ScriptModule string

const (
	// ScriptModuleNone emits ESM only.
	ScriptModuleNone ScriptModule = ""

	// ScriptModuleCJS also emits CommonJS.
	ScriptModuleCJS ScriptModule = "cjs"

	// ScriptModuleUMD also emits UMD.
	ScriptModuleUMD ScriptModule = "umd"
)

// ValidScriptModules returns all valid script module strings.
func ValidScriptModules() []string {
	return []string{
		string(ScriptModuleCJS),
		string(ScriptModuleUMD),
		"false",
	}
}

// ParseScriptModule converts a string to a ScriptModule.
func ParseScriptModule(s string) (ScriptModule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "none", "esm":
		return ScriptModuleNone, nil
	case "cjs", "commonjs":
		return ScriptModuleCJS, nil
	case "umd":
		return ScriptModuleUMD, nil
	default:
		return "", fmt.Errorf("unknown script module: %s (valid: %s)", s, strings.Join(ValidScriptModules(), ", "))
	}
}

// Synchronous reports whether the format loads modules synchronously and so
// cannot express top-level await.
func (m ScriptModule) Synchronous() bool {
	return m == ScriptModuleCJS || m == ScriptModuleUMD
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ScriptModule) UnmarshalText(text []byte) error {
	parsed, err := ParseScriptModule(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
