/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package shim

import (
	"errors"
	"fmt"

	"bennypowers.dev/dualpack/resolver"
)

var (
	// ErrDuplicateGlobal indicates two shims of one partition provide the same global.
	ErrDuplicateGlobal = errors.New("global provided by more than one shim")

	// ErrShimMappingConflict indicates a package that is both a shim and a
	// mapping target.
	ErrShimMappingConflict = errors.New("shim package is also a mapping target")

	// ErrInvalidDefinition indicates a malformed shim definition.
	ErrInvalidDefinition = errors.New("invalid shim definition")
)

// ConflictError names a global claimed by two shims.
type ConflictError struct {
	Name   string
	First  string
	Second string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("global %q is provided by both %s and %s", e.Name, e.First, e.Second)
}

func (e *ConflictError) Unwrap() error {
	return ErrDuplicateGlobal
}

// Validate checks the definitions of one partition before traversal.
func Validate(defs []Definition, mappings resolver.Mappings) error {
	owner := make(map[string]int)
	for i, d := range defs {
		if (d.Package == nil) == (d.Module == "") {
			return fmt.Errorf("%w: exactly one of package and module must be set", ErrInvalidDefinition)
		}
		if d.Package != nil && d.Package.Name == "" {
			return fmt.Errorf("%w: package name is required", ErrInvalidDefinition)
		}
		if len(d.GlobalNames) == 0 {
			return fmt.Errorf("%w: %s provides no global names", ErrInvalidDefinition, d.Source())
		}
		for _, g := range d.GlobalNames {
			if g.Name == "" {
				return fmt.Errorf("%w: %s has an empty global name", ErrInvalidDefinition, d.Source())
			}
			if j, ok := owner[g.Name]; ok {
				return &ConflictError{Name: g.Name, First: defs[j].Source(), Second: d.Source()}
			}
			owner[g.Name] = i
		}
	}

	for _, name := range mappings.PackageNames() {
		for _, d := range defs {
			if d.Package != nil && d.Package.Name == name {
				return fmt.Errorf("%w: %q", ErrShimMappingConflict, name)
			}
		}
	}
	return nil
}
