/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package specifier

import "strings"

// JSRResolver canonicalizes jsr: specifiers.
// JSR requires scoped packages (@scope/name).
//
// JSR packages installed via the npm compatibility layer appear under the
// @jsr scope with the following naming convention:
//   - jsr:@scope/pkg → @jsr/scope__pkg
type JSRResolver struct{}

// NewJSRResolver creates a resolver for jsr: package specifiers.
func NewJSRResolver() *JSRResolver {
	return &JSRResolver{}
}

// Resolve validates raw and returns it in its "jsr:" form.
func (r *JSRResolver) Resolve(raw string, _ ModuleSpecifier) (ModuleSpecifier, error) {
	pkg, err := ParsePackage(raw)
	if err != nil {
		return "", err
	}
	canonical := "jsr:" + pkg.Name
	if pkg.Version != "" {
		canonical += "@" + pkg.Version
	}
	if pkg.SubPath != "" {
		canonical += "/" + pkg.SubPath
	}
	return ModuleSpecifier(canonical), nil
}

// CanResolve returns true for jsr: specifiers.
func (r *JSRResolver) CanResolve(raw string, _ ModuleSpecifier) bool {
	return strings.HasPrefix(strings.ToLower(raw), "jsr:")
}

// jsrToNPMCompatPackage converts a JSR package name to its npm compatibility layer name.
// Scoped packages (@scope/pkg) become scope__pkg.
func jsrToNPMCompatPackage(pkg string) string {
	if scopedPkg, ok := strings.CutPrefix(pkg, "@"); ok {
		// @scope/pkg → scope__pkg
		return strings.Replace(scopedPkg, "/", "__", 1)
	}
	return pkg
}
