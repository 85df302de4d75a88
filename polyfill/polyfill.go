/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package polyfill selects the standard library polyfills a module graph
// needs for its ECMAScript target and renders them into one module.
package polyfill

import (
	"bytes"
	"embed"
	"fmt"
	"slices"
	"strings"
	"text/template"

	"bennypowers.dev/dualpack/internal/logger"
	"bennypowers.dev/dualpack/parser"
	"bennypowers.dev/dualpack/rewrite"
	"bennypowers.dev/dualpack/target"
)

const (
	// MainFile and TestFile are the polyfill modules' output paths.
	MainFile = "_dnt.polyfills.ts"
	TestFile = "_dnt.test_polyfills.ts"
)

//go:embed scripts/*.ts
var scriptFS embed.FS

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// Polyfill defines missing standard library members at runtime.
type Polyfill struct {
	Name string

	// Features are the members the polyfill defines, as the parser reports
	// them.
	Features []string

	// Since is the first target that has the features natively. Unknown
	// means no supported target has them.
	Since target.Level

	file string
}

// Script returns the polyfill source.
func (p Polyfill) Script() string {
	data, err := scriptFS.ReadFile("scripts/" + p.file)
	if err != nil {
		panic(fmt.Sprintf("polyfill %s: %v", p.Name, err))
	}
	return strings.TrimSpace(string(data))
}

// NeededFor reports whether code compiled for level needs the polyfill.
func (p Polyfill) NeededFor(level target.Level) bool {
	return p.Since == target.Unknown || level.OrDefault().Below(p.Since)
}

func (p Polyfill) provides(feature string) bool {
	return slices.Contains(p.Features, feature)
}

var catalogue = []Polyfill{
	{Name: "replaceAll", Features: []string{"String.prototype.replaceAll"}, Since: target.ES2021, file: "replaceAll.ts"},
	{Name: "hasOwn", Features: []string{"Object.hasOwn"}, Since: target.ES2022, file: "hasOwn.ts"},
	{Name: "at", Features: []string{"Array.prototype.at"}, Since: target.ES2022, file: "at.ts"},
	{Name: "findLast", Features: []string{"Array.prototype.findLast", "Array.prototype.findLastIndex"}, Since: target.ES2023, file: "findLast.ts"},
	{Name: "withResolvers", Features: []string{"Promise.withResolvers"}, Since: target.ES2024, file: "withResolvers.ts"},
	{Name: "fromAsync", Features: []string{"Array.fromAsync"}, file: "fromAsync.ts"},
}

// Catalogue returns every known polyfill in output order.
func Catalogue() []Polyfill {
	return slices.Clone(catalogue)
}

// Set is the polyfills one partition emits.
type Set struct {
	polyfills []Polyfill
}

// Select returns the polyfills that modules use and level lacks.
func Select(level target.Level, modules []*parser.Module) *Set {
	s := &Set{}
	for _, p := range catalogue {
		if !p.NeededFor(level) {
			continue
		}
		for _, m := range modules {
			if slices.ContainsFunc(p.Features, m.UsesFeature) {
				logger.Debugw("polyfill activated", "name", p.Name, "target", level.OrDefault())
				s.polyfills = append(s.polyfills, p)
				break
			}
		}
	}
	return s
}

// Without returns the polyfills of s that other does not emit.
func (s *Set) Without(other *Set) *Set {
	out := &Set{}
	for _, p := range s.polyfills {
		if !slices.ContainsFunc(other.polyfills, func(o Polyfill) bool { return o.Name == p.Name }) {
			out.polyfills = append(out.polyfills, p)
		}
	}
	return out
}

func (s *Set) Empty() bool {
	return len(s.polyfills) == 0
}

// Polyfills returns the polyfills in output order.
func (s *Set) Polyfills() []Polyfill {
	return s.polyfills
}

// Names returns the polyfill names in output order.
func (s *Set) Names() []string {
	names := make([]string, len(s.polyfills))
	for i, p := range s.polyfills {
		names[i] = p.Name
	}
	return names
}

// UsedBy reports whether mod uses a feature s polyfills.
func (s *Set) UsedBy(mod *parser.Module) bool {
	for _, p := range s.polyfills {
		for _, f := range mod.Features {
			if p.provides(f) {
				return true
			}
		}
	}
	return false
}

type scriptData struct {
	Name   string
	Script string
}

// Render returns the polyfill module source.
func (s *Set) Render() ([]byte, error) {
	data := make([]scriptData, len(s.polyfills))
	for i, p := range s.polyfills {
		data[i] = scriptData{Name: p.Name, Script: p.Script()}
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "polyfills.ts.tmpl", data); err != nil {
		return nil, err
	}
	return bytes.TrimLeft(buf.Bytes(), "\n"), nil
}

// Import returns the edit adding a side-effect import of the polyfill
// module at moduleSpecifier to the top of mod.
func Import(mod *parser.Module, moduleSpecifier string) rewrite.Edit {
	return rewrite.Prepend(mod.HashbangEnd, fmt.Sprintf("import %q;", moduleSpecifier))
}

// Exponents returns edits rewriting `a ** b` to `Math.pow(a, b)` and
// `a **= b` to `a = Math.pow(a, b)` when level predates the operators.
func Exponents(mod *parser.Module, level target.Level) []rewrite.Edit {
	if !level.OrDefault().Below(target.ES2016) {
		return nil
	}
	edits := make([]rewrite.Edit, 0, 3*len(mod.Exponents))
	for _, e := range mod.Exponents {
		if e.Assign != "" {
			edits = append(edits,
				rewrite.Replace(e.LeftEnd, e.RightStart, " = Math.pow("+e.Assign+", "),
				rewrite.Insert(e.End, ")"),
			)
			continue
		}
		edits = append(edits,
			rewrite.Insert(e.Start, "Math.pow("),
			rewrite.Replace(e.LeftEnd, e.RightStart, ", "),
			rewrite.Insert(e.End, ")"),
		)
	}
	return edits
}
