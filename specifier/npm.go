/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package specifier

import "strings"

// NPMResolver canonicalizes npm: specifiers and bare package references.
type NPMResolver struct{}

// NewNPMResolver creates a resolver for npm: package specifiers.
func NewNPMResolver() *NPMResolver {
	return &NPMResolver{}
}

// Resolve validates raw and returns it with an "npm:" prefix.
func (r *NPMResolver) Resolve(raw string, _ ModuleSpecifier) (ModuleSpecifier, error) {
	pkg, err := ParsePackage(raw)
	if err != nil {
		return "", err
	}
	canonical := "npm:" + pkg.Name
	if pkg.Version != "" {
		canonical += "@" + pkg.Version
	}
	if pkg.SubPath != "" {
		canonical += "/" + pkg.SubPath
	}
	return ModuleSpecifier(canonical), nil
}

// CanResolve returns true for registry specifiers that are not jsr:.
func (r *NPMResolver) CanResolve(raw string, _ ModuleSpecifier) bool {
	return Classify(raw) == KindRegistry && !strings.HasPrefix(strings.ToLower(raw), "jsr:")
}
