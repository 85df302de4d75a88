/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver

import (
	"errors"
	"fmt"
	"sort"

	"bennypowers.dev/dualpack/specifier"
)

// ErrInvalidMapping is returned for a mapping that names neither or both of
// a module and a package.
var ErrInvalidMapping = errors.New("invalid mapping")

// PackageMapping replaces a module with an npm package.
type PackageMapping struct {
	Name    string `json:"name" yaml:"name" toml:"name"`
	Version string `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
	SubPath string `json:"subPath,omitempty" yaml:"subPath,omitempty" toml:"subPath,omitempty"`

	// Peer lists the package as a peer dependency.
	Peer bool `json:"peerDependency,omitempty" yaml:"peerDependency,omitempty" toml:"peerDependency,omitempty"`
}

// ImportPath is the specifier text that imports the mapped package.
func (p *PackageMapping) ImportPath() string {
	if p.SubPath == "" {
		return p.Name
	}
	return p.Name + "/" + p.SubPath
}

// Mapping overrides the resolution of one canonical specifier. Exactly one
// of Module and Package is set.
type Mapping struct {
	// Module is the canonical specifier of a replacement module.
	Module specifier.ModuleSpecifier

	Package *PackageMapping
}

// Mappings is keyed by canonical specifier; keys match exactly.
type Mappings map[specifier.ModuleSpecifier]Mapping

// RawMapping is a mapping as written in configuration, before its
// specifiers are resolved.
type RawMapping struct {
	Module  string
	Package *PackageMapping
}

// NewMappings resolves the keys and module replacements of raw against the
// project root.
func NewMappings(raw map[string]RawMapping, root string) (Mappings, error) {
	base := specifier.DirReferrer(root)
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make(Mappings, len(raw))
	for _, key := range keys {
		m := raw[key]
		if (m.Module == "") == (m.Package == nil) {
			return nil, fmt.Errorf("%w: %q must map to a module or a package", ErrInvalidMapping, key)
		}
		from, err := specifier.Resolve(key, base)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidMapping, key, err)
		}
		if m.Package != nil {
			if m.Package.Name == "" {
				return nil, fmt.Errorf("%w: %q: package name is required", ErrInvalidMapping, key)
			}
			result[from] = Mapping{Package: m.Package}
			continue
		}
		to, err := specifier.Resolve(m.Module, base)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidMapping, key, err)
		}
		result[from] = Mapping{Module: to}
	}
	for _, key := range keys {
		from, _ := specifier.Resolve(key, base)
		if _, _, err := result.Follow(from); err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidMapping, key, err)
		}
	}
	return result, nil
}

// Follow applies module mappings to spec until no mapping matches or a
// package mapping is reached. A replacement module is itself subject to
// mapping, so "./a.ts" -> "./b.ts" -> package resolves to the package.
// It returns the final module and, when the chain ends in a package, that
// package. A chain that revisits a module is an error.
func (m Mappings) Follow(spec specifier.ModuleSpecifier) (specifier.ModuleSpecifier, *PackageMapping, error) {
	var seen map[specifier.ModuleSpecifier]bool
	for {
		mapping, ok := m[spec]
		if !ok {
			return spec, nil, nil
		}
		if mapping.Package != nil {
			return spec, mapping.Package, nil
		}
		if seen == nil {
			seen = make(map[specifier.ModuleSpecifier]bool)
		}
		if seen[spec] {
			return spec, nil, fmt.Errorf("%w: mapping cycle through %s", ErrInvalidMapping, spec)
		}
		seen[spec] = true
		spec = mapping.Module
	}
}

// PackageNames returns the distinct names of all package mappings, sorted.
func (m Mappings) PackageNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, mapping := range m {
		if mapping.Package != nil && !seen[mapping.Package.Name] {
			seen[mapping.Package.Name] = true
			names = append(names, mapping.Package.Name)
		}
	}
	sort.Strings(names)
	return names
}
