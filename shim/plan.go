/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package shim

import (
	"fmt"

	"bennypowers.dev/dualpack/internal/logger"
	"bennypowers.dev/dualpack/parser"
	"bennypowers.dev/dualpack/rewrite"
)

const (
	// ImportName is the namespace modules import the aggregator as.
	ImportName = "dntShim"

	// GlobalThisName is the aggregator export that replaces globalThis.
	GlobalThisName = "dntGlobalThis"

	// MainFile and TestFile are the aggregator modules' output paths.
	MainFile = "_dnt.shims.ts"
	TestFile = "_dnt.test_shims.ts"
)

// Binding records how a referenced global is satisfied.
type Binding struct {
	Name string

	// Source is the shim source, or empty when the runtime provides the
	// global natively.
	Source string

	TypeOnly bool
}

// Plan is the active shim set of one partition.
type Plan struct {
	active  []Definition
	covered map[string]GlobalName
	globals *MergedView[Binding]
}

// ReferencedGlobals returns the distinct free globals of modules in
// first-reference order. A property read through globalThis, such as
// `globalThis.Deno`, counts as a reference to that property.
func ReferencedGlobals(modules []*parser.Module) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, m := range modules {
		for _, g := range m.Globals {
			add(g.Name)
			if g.Name == "globalThis" {
				add(g.Property)
			}
		}
	}
	return names
}

// NewPlan activates exactly the definitions that provide at least one
// referenced name, keeping their configured order.
func NewPlan(defs []Definition, referenced []string) *Plan {
	refs := make(map[string]bool, len(referenced))
	for _, name := range referenced {
		refs[name] = true
	}

	p := &Plan{covered: make(map[string]GlobalName)}
	base := NewOrderedMap[Binding]()
	override := NewOrderedMap[Binding]()

	for _, d := range defs {
		used := false
		for _, g := range d.GlobalNames {
			if refs[g.Name] {
				used = true
				break
			}
		}
		if !used {
			continue
		}
		logger.Debugw("shim activated", "source", d.Source())
		p.active = append(p.active, d)
		for _, g := range d.GlobalNames {
			p.covered[g.Name] = g
			override.Set(g.Name, Binding{Name: g.Name, Source: d.Source(), TypeOnly: g.TypeOnly})
		}
	}
	for _, name := range referenced {
		if !override.Has(name) {
			base.Set(name, Binding{Name: name})
		}
	}
	p.globals = NewMergedView(base, override)
	return p
}

// Active returns the active definitions.
func (p *Plan) Active() []Definition {
	return p.active
}

// Empty reports whether no shim is active; no aggregator is emitted then.
func (p *Plan) Empty() bool {
	return len(p.active) == 0
}

// Covers reports whether an active shim provides name.
func (p *Plan) Covers(name string) bool {
	_, ok := p.covered[name]
	return ok
}

// Globals is the view of every referenced global, with shimmed names
// overriding native ones.
func (p *Plan) Globals() *MergedView[Binding] {
	return p.globals
}

// Dependencies returns the packages of the active shims.
func (p *Plan) Dependencies() []rewrite.Dependency {
	var deps []rewrite.Dependency
	for _, d := range p.active {
		deps = append(deps, d.Dependencies()...)
	}
	return deps
}

// Provides reports whether an active shim declares the package name,
// either as its implementation or as its types package.
func (p *Plan) Provides(pkg string) bool {
	for _, d := range p.active {
		for _, dep := range d.Dependencies() {
			if dep.Name == pkg {
				return true
			}
		}
	}
	return false
}

// Modules returns the module sources of the active shims.
func (p *Plan) Modules() []string {
	var modules []string
	for _, d := range p.active {
		if d.Module != "" {
			modules = append(modules, d.Module)
		}
	}
	return modules
}

// Inject returns the edits that route a module's shimmed globals through
// the aggregator at aggregatorSpecifier. `globalThis` becomes the merged
// global only where it reads a shimmed name. It returns nil when the
// module references no shimmed global.
func (p *Plan) Inject(mod *parser.Module, aggregatorSpecifier string) []rewrite.Edit {
	if p.Empty() {
		return nil
	}
	var edits []rewrite.Edit
	for _, g := range mod.Globals {
		var replacement string
		switch {
		case p.Covers(g.Name):
			replacement = ImportName + "." + g.Name
		case g.Name == "globalThis" && p.Covers(g.Property):
			replacement = ImportName + "." + GlobalThisName
		default:
			continue
		}
		if g.Shorthand {
			replacement = g.Name + ": " + replacement
		}
		edits = append(edits, rewrite.Replace(g.Start, g.End, replacement))
	}
	if len(edits) == 0 {
		return nil
	}
	header := fmt.Sprintf("import * as %s from %q;", ImportName, aggregatorSpecifier)
	return append([]rewrite.Edit{rewrite.Prepend(mod.HashbangEnd, header)}, edits...)
}
