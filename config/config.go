/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package config provides project configuration loading for dualpack.
package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"bennypowers.dev/dualpack/resolver"
	"bennypowers.dev/dualpack/shim"
	"bennypowers.dev/dualpack/target"
	"bennypowers.dev/dualpack/transform"
)

// ErrInvalidConfig is returned for a config file that decodes but holds
// values dualpack cannot use.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultOutDir is where the build command writes output.
const DefaultOutDir = "npm"

// DefaultTestPatterns find test modules when no test entry points are given.
var DefaultTestPatterns = []string{
	"**/*.test.{ts,tsx,js,mjs,jsx}",
	"**/*_test.{ts,tsx,js,mjs,jsx}",
}

// Config represents a dualpack project configuration.
type Config struct {
	// EntryPoints are the package's main modules (paths or specs).
	EntryPoints []EntryPoint `yaml:"entryPoints" json:"entryPoints"`

	// TestEntryPoints are test modules. Entries may be globs.
	TestEntryPoints []string `yaml:"testEntryPoints" json:"testEntryPoints"`

	// TestPattern replaces the default test module patterns.
	TestPattern string `yaml:"testPattern" json:"testPattern"`

	ImportMap string `yaml:"importMap" json:"importMap"`

	// Target is the lowest ECMAScript level the output must run on.
	Target string `yaml:"target" json:"target"`

	// ScriptModule is "cjs", "umd", or false. It holds a bool or a string
	// as decoded.
	ScriptModule any `yaml:"scriptModule" json:"scriptModule"`

	Shims Shims `yaml:"shims" json:"shims"`

	Mappings map[string]Mapping `yaml:"mappings" json:"mappings"`

	TypesNodeVersion string `yaml:"typesNodeVersion" json:"typesNodeVersion"`
	OutDir           string `yaml:"outDir" json:"outDir"`
}

// EntryPoint is an entry module. It can be written as a simple string path
// or as an object that also names the export.
type EntryPoint struct {
	// Name is the package export the module is published as, e.g. "./cli".
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
}

// UnmarshalYAML handles both string and object forms for EntryPoint.
func (e *EntryPoint) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		e.Path = node.Value
		return nil
	}

	type rawEntryPoint EntryPoint
	return node.Decode((*rawEntryPoint)(e))
}

// UnmarshalJSON handles both string and object forms for EntryPoint.
func (e *EntryPoint) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		e.Path = s
		return nil
	}

	type rawEntryPoint EntryPoint
	return json.Unmarshal(data, (*rawEntryPoint)(e))
}

// Shims selects the built-in shims and declares custom ones.
type Shims struct {
	Deno         ShimSetting `yaml:"deno" json:"deno"`
	Timers       ShimSetting `yaml:"timers" json:"timers"`
	Prompts      ShimSetting `yaml:"prompts" json:"prompts"`
	Blob         ShimSetting `yaml:"blob" json:"blob"`
	Crypto       ShimSetting `yaml:"crypto" json:"crypto"`
	DOMException ShimSetting `yaml:"domException" json:"domException"`
	Undici       ShimSetting `yaml:"undici" json:"undici"`
	WeakRef      ShimSetting `yaml:"weakRef" json:"weakRef"`
	WebSocket    ShimSetting `yaml:"webSocket" json:"webSocket"`

	Custom    []shim.Definition `yaml:"custom" json:"custom"`
	CustomDev []shim.Definition `yaml:"customDev" json:"customDev"`
}

// Options converts the settings to shim options.
func (s Shims) Options() shim.Options {
	return shim.Options{
		Deno:         s.Deno.Mode,
		DenoTestOnly: s.Deno.TestOnly,
		Timers:       s.Timers.Mode,
		Prompts:      s.Prompts.Mode,
		Blob:         s.Blob.Mode,
		Crypto:       s.Crypto.Mode,
		DOMException: s.DOMException.Mode,
		Undici:       s.Undici.Mode,
		WeakRef:      s.WeakRef.Mode,
		WebSocket:    s.WebSocket.Mode,
		Custom:       s.Custom,
		CustomDev:    s.CustomDev,
	}
}

// ShimSetting is true, "dev", or false. The object form {test: true|"dev"}
// enables only Deno.test.
type ShimSetting struct {
	Mode     shim.Mode
	TestOnly bool
}

func (s *ShimSetting) set(v any) error {
	mode, err := shim.ParseMode(v)
	if err != nil {
		return fmt.Errorf("%w: shims: %w", ErrInvalidConfig, err)
	}
	s.Mode = mode
	return nil
}

func (s *ShimSetting) setTest(v any) error {
	if err := s.set(v); err != nil {
		return err
	}
	s.TestOnly = s.Mode != shim.Never
	return nil
}

type testOnlySetting struct {
	Test any `yaml:"test" json:"test"`
}

// UnmarshalYAML handles scalar and object forms for ShimSetting.
func (s *ShimSetting) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		var obj testOnlySetting
		if err := node.Decode(&obj); err != nil {
			return err
		}
		return s.setTest(obj.Test)
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	return s.set(v)
}

// UnmarshalJSON handles scalar and object forms for ShimSetting.
func (s *ShimSetting) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if obj, ok := v.(map[string]any); ok {
		return s.setTest(obj["test"])
	}
	return s.set(v)
}

// Mapping replaces a module. A string names a replacement module; an object
// names an npm package.
type Mapping struct {
	Module  string
	Package *resolver.PackageMapping
}

// UnmarshalYAML handles both string and object forms for Mapping.
func (m *Mapping) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		m.Module = node.Value
		return nil
	}
	m.Package = &resolver.PackageMapping{}
	return node.Decode(m.Package)
}

// UnmarshalJSON handles both string and object forms for Mapping.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		m.Module = s
		return nil
	}
	m.Package = &resolver.PackageMapping{}
	return json.Unmarshal(data, m.Package)
}

// Default returns a config with default values.
func Default() *Config {
	return &Config{
		OutDir: DefaultOutDir,
	}
}

// EntryPointPaths returns the list of paths from all entry points.
func (c *Config) EntryPointPaths() []string {
	paths := make([]string, 0, len(c.EntryPoints))
	for _, ep := range c.EntryPoints {
		paths = append(paths, ep.Path)
	}
	return paths
}

// TargetLevel returns the parsed target. An empty target is target.Unknown,
// which later stages treat as the default level.
func (c *Config) TargetLevel() (target.Level, error) {
	if c.Target == "" {
		return target.Unknown, nil
	}
	level, err := target.FromString(c.Target)
	if err != nil {
		return target.Unknown, fmt.Errorf("%w: target: %w", ErrInvalidConfig, err)
	}
	return level, nil
}

// ScriptModuleFormat returns the parsed scriptModule setting.
func (c *Config) ScriptModuleFormat() (transform.ScriptModule, error) {
	var (
		format transform.ScriptModule
		err    error
	)
	switch v := c.ScriptModule.(type) {
	case nil:
		return transform.ScriptModuleNone, nil
	case bool:
		if v {
			return transform.ScriptModuleCJS, nil
		}
		return transform.ScriptModuleNone, nil
	case string:
		format, err = transform.ParseScriptModule(v)
	default:
		err = fmt.Errorf("unexpected value %v", v)
	}
	if err != nil {
		return "", fmt.Errorf("%w: scriptModule: %w", ErrInvalidConfig, err)
	}
	return format, nil
}

// RawMappings returns the mappings in the form resolver.NewMappings takes.
func (c *Config) RawMappings() map[string]resolver.RawMapping {
	if len(c.Mappings) == 0 {
		return nil
	}
	raw := make(map[string]resolver.RawMapping, len(c.Mappings))
	for key, m := range c.Mappings {
		raw[key] = resolver.RawMapping{Module: m.Module, Package: m.Package}
	}
	return raw
}

// OutputDir returns the output directory, defaulting to DefaultOutDir.
func (c *Config) OutputDir() string {
	if c.OutDir == "" {
		return DefaultOutDir
	}
	return c.OutDir
}

// TestPatterns returns the globs that find test modules.
func (c *Config) TestPatterns() []string {
	if c.TestPattern != "" {
		return []string{c.TestPattern}
	}
	return DefaultTestPatterns
}
