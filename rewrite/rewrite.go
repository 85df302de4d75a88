/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package rewrite computes output paths and rewrites import specifiers so
// that the emitted package resolves under Node.
//
// Local and remote modules become relative specifiers into the output tree
// with the extension the compiled file will have. Registry packages and
// mapped packages become bare npm names and produce a Dependency. Node
// builtins keep their node: name and pull in type declarations.
package rewrite

import (
	"errors"
	"fmt"
	"strings"

	"bennypowers.dev/dualpack/parser"
	"bennypowers.dev/dualpack/resolver"
	"bennypowers.dev/dualpack/specifier"
)

// ErrMappingNotFound indicates an import target with no output location,
// typically a module mapping whose replacement was never loaded.
var ErrMappingNotFound = errors.New("no output location for module")

// DefaultTypesNodeVersion is the @types/node range added for node: imports.
const DefaultTypesNodeVersion = "^24.0.0"

// TypesNodePackage is the type declarations package for Node builtins.
const TypesNodePackage = "@types/node"

// Dependency is an npm package the output requires.
type Dependency struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	PeerDependency bool   `json:"peerDependency,omitempty"`
}

func (d Dependency) String() string {
	return d.Name + "@" + d.Version
}

// Options configures a Rewriter.
type Options struct {
	TypesNodeVersion string
}

// Rewriter rewrites the imports of laid-out modules.
type Rewriter struct {
	layout           *Layout
	typesNodeVersion string
}

// New creates a Rewriter for modules placed by layout.
func New(layout *Layout, opts Options) *Rewriter {
	v := opts.TypesNodeVersion
	if v == "" {
		v = DefaultTypesNodeVersion
	}
	return &Rewriter{layout: layout, typesNodeVersion: v}
}

// Result is the rewrite of one module's imports.
type Result struct {
	Edits []Edit

	// Dependencies lists packages in import order, possibly repeated.
	Dependencies []Dependency
}

// Module rewrites every import of m.
func (r *Rewriter) Module(m *resolver.Module) (*Result, error) {
	from, ok := r.layout.Path(m.Specifier)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMappingNotFound, m.Specifier)
	}
	res := &Result{}
	for _, e := range m.Edges {
		if e.Skip {
			continue
		}
		text, dep, err := r.Specifier(from, e)
		if err != nil {
			return nil, fmt.Errorf("rewriting %q in %s: %w", e.Import.Specifier, m.Specifier, err)
		}
		if text != e.Import.Specifier {
			res.Edits = append(res.Edits, Replace(e.Import.Start, e.Import.End, text))
		}
		if dep != nil {
			res.Dependencies = append(res.Dependencies, *dep)
		}
		if e.Import.HasAttributes() && r.isJSONTarget(e) {
			res.Edits = append(res.Edits, Replace(e.Import.AttrStart, e.Import.AttrEnd, ""))
		}
	}
	return res, nil
}

func (r *Rewriter) isJSONTarget(e resolver.Edge) bool {
	if e.Import.AttrType == "json" {
		return true
	}
	return e.IsModule() && specifier.MediaTypeOf(e.Target).IsJSON()
}

// Specifier returns the text that replaces e's specifier in a module whose
// output path is from, and the dependency the import requires, if any.
func (r *Rewriter) Specifier(from string, e resolver.Edge) (string, *Dependency, error) {
	switch {
	case e.Skip:
		return e.Import.Specifier, nil, nil
	case e.Package != nil:
		version := e.Package.Version
		if version == "" {
			version = "*"
		}
		return e.Package.ImportPath(), &Dependency{
			Name:           e.Package.Name,
			Version:        version,
			PeerDependency: e.Package.Peer,
		}, nil
	case e.External != nil && e.External.Package != nil:
		pkg := e.External.Package
		version := pkg.Version
		if version == "" {
			version = "*"
		}
		return pkg.ImportPath(), &Dependency{Name: pkg.NPMName(), Version: version}, nil
	case e.External != nil:
		target := string(e.Target)
		if strings.HasPrefix(target, "node:") {
			return target, &Dependency{Name: TypesNodePackage, Version: r.typesNodeVersion}, nil
		}
		return target, nil, nil
	}

	var to string
	var ok bool
	if e.Import.Kind == parser.ReferencePath {
		to, ok = r.layout.Path(e.Target)
	} else {
		to, ok = r.layout.EmittedPath(e.Target)
	}
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrMappingNotFound, e.Target)
	}
	return Relative(from, to), nil, nil
}
