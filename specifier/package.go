/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package specifier

import (
	"fmt"
	"regexp"
	"strings"
)

// Package represents a parsed registry specifier.
type Package struct {
	// Registry is "npm" or "jsr".
	Registry string

	// Name is the package name as written (e.g., "@scope/pkg" or "pkg").
	Name string

	// Version is the version or range, empty when unpinned.
	Version string

	// SubPath is the path within the package, without a leading slash.
	SubPath string

	// Raw is the original specifier string.
	Raw string
}

// packagePattern matches @scope/pkg@version/path, pkg@version/path, or bare pkg.
var packagePattern = regexp.MustCompile(`^(@[^/@]+/[^/@]+|[^/@]+)(?:@([^/]*))?(/.*)?$`)

// ParsePackage parses "npm:@scope/pkg@^1/sub", "jsr:@std/path@1", or a bare
// package reference such as "preact/hooks".
func ParsePackage(raw string) (*Package, error) {
	registry := "npm"
	rest := raw
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "npm:"):
		rest = raw[len("npm:"):]
	case strings.HasPrefix(lower, "jsr:"):
		registry = "jsr"
		rest = raw[len("jsr:"):]
	}
	rest = strings.TrimPrefix(rest, "/")

	matches := packagePattern.FindStringSubmatch(rest)
	if len(matches) != 4 {
		return nil, fmt.Errorf("%w: not a package specifier: %q", ErrInvalidSpecifier, raw)
	}
	if registry == "jsr" && !strings.HasPrefix(matches[1], "@") {
		return nil, fmt.Errorf("%w: jsr packages must be scoped: %q", ErrInvalidSpecifier, raw)
	}
	return &Package{
		Registry: registry,
		Name:     matches[1],
		Version:  matches[2],
		SubPath:  strings.TrimPrefix(matches[3], "/"),
		Raw:      raw,
	}, nil
}

// IsPackageSpecifier returns true if the string parses as a registry reference.
func IsPackageSpecifier(raw string) bool {
	if Classify(raw) != KindRegistry {
		return false
	}
	_, err := ParsePackage(raw)
	return err == nil
}

// IsJSR returns true if this is a jsr package.
func (p *Package) IsJSR() bool {
	return p.Registry == "jsr"
}

// NPMName returns the name the package is installed under from npm.
// jsr packages use the npm compatibility layer naming (@jsr/scope__pkg).
func (p *Package) NPMName() string {
	if p.IsJSR() {
		return "@jsr/" + jsrToNPMCompatPackage(p.Name)
	}
	return p.Name
}

// ImportPath returns the specifier text an npm consumer writes:
// the npm name followed by the sub-path, if any.
func (p *Package) ImportPath() string {
	if p.SubPath == "" {
		return p.NPMName()
	}
	return p.NPMName() + "/" + p.SubPath
}
