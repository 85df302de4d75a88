/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package shim replaces references to runtime-specific globals with imports
// from a generated aggregator module.
//
// A Definition supplies a set of global names from an npm package or from a
// module. For each partition only the definitions covering a name some
// module actually references become active; the aggregator re-exports their
// names and builds dntGlobalThis, a merged view of globalThis and the shims.
package shim

import (
	"bennypowers.dev/dualpack/rewrite"
)

// GlobalName is one global a shim provides.
type GlobalName struct {
	Name string `json:"name" yaml:"name" toml:"name"`

	// ExportName is the name the source exports it under, when different
	// (e.g. "default").
	ExportName string `json:"exportName,omitempty" yaml:"exportName,omitempty" toml:"exportName,omitempty"`

	// TypeOnly names are re-exported as types and never placed on the
	// global object.
	TypeOnly bool `json:"typeOnly,omitempty" yaml:"typeOnly,omitempty" toml:"typeOnly,omitempty"`
}

// Export returns the name to import from the shim source.
func (g GlobalName) Export() string {
	if g.ExportName == "" {
		return g.Name
	}
	return g.ExportName
}

// Value returns a runtime global name.
func Value(name string) GlobalName {
	return GlobalName{Name: name}
}

// TypeOnly returns a type-only global name.
func TypeOnly(name string) GlobalName {
	return GlobalName{Name: name, TypeOnly: true}
}

// PackageSource is an npm package that implements a shim.
type PackageSource struct {
	Name    string `json:"name" yaml:"name" toml:"name"`
	Version string `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
	SubPath string `json:"subPath,omitempty" yaml:"subPath,omitempty" toml:"subPath,omitempty"`

	PeerDependency bool `json:"peerDependency,omitempty" yaml:"peerDependency,omitempty" toml:"peerDependency,omitempty"`

	// TypesPackage holds the package's type declarations when it ships none.
	TypesPackage *rewrite.Dependency `json:"typesPackage,omitempty" yaml:"typesPackage,omitempty" toml:"typesPackage,omitempty"`
}

// ImportPath is the specifier the aggregator imports the package by.
func (p *PackageSource) ImportPath() string {
	if p.SubPath == "" {
		return p.Name
	}
	return p.Name + "/" + p.SubPath
}

// Definition is a shim: global names and where their implementation lives.
// Exactly one of Package and Module is set.
type Definition struct {
	Package *PackageSource `json:"package,omitempty" yaml:"package,omitempty" toml:"package,omitempty"`

	// Module is a project module relative to the root, or a builtin such
	// as "node:buffer".
	Module string `json:"module,omitempty" yaml:"module,omitempty" toml:"module,omitempty"`

	GlobalNames []GlobalName `json:"globalNames" yaml:"globalNames" toml:"globalNames"`
}

// Source describes where the shim comes from, for messages.
func (d Definition) Source() string {
	if d.Package != nil {
		return "package " + d.Package.ImportPath()
	}
	return "module " + d.Module
}

// Provides reports whether d supplies the global name.
func (d Definition) Provides(name string) bool {
	for _, g := range d.GlobalNames {
		if g.Name == name {
			return true
		}
	}
	return false
}

// Dependencies returns the packages the shim adds to a partition.
func (d Definition) Dependencies() []rewrite.Dependency {
	if d.Package == nil {
		return nil
	}
	version := d.Package.Version
	if version == "" {
		version = "*"
	}
	deps := []rewrite.Dependency{{
		Name:           d.Package.Name,
		Version:        version,
		PeerDependency: d.Package.PeerDependency,
	}}
	if d.Package.TypesPackage != nil {
		deps = append(deps, *d.Package.TypesPackage)
	}
	return deps
}
