/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package parser scans JavaScript and TypeScript modules with tree-sitter.
//
// It does not build an AST of its own. ParseModule reports byte ranges for
// everything later stages rewrite (import specifiers, import attributes,
// references to free globals, exponent expressions) so that rewriting can
// splice the original source and keep its formatting and comments.
package parser

import (
	"errors"

	"bennypowers.dev/dualpack/specifier"
)

// ErrUnsupportedMediaType is returned for media types without a grammar.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// ImportKind distinguishes the syntactic forms that reference a module.
type ImportKind int

const (
	// ImportStatic is `import ... from "x"` or `import "x"`.
	ImportStatic ImportKind = iota
	// ImportRequire is `import x = require("x")`.
	ImportRequire
	// ExportFrom is `export ... from "x"`.
	ExportFrom
	// ImportDynamic is `import("x")` with a literal argument.
	ImportDynamic
	// ReferencePath is `/// <reference path="x" />`.
	ReferencePath
	// ReferenceTypes is `/// <reference types="x" />`.
	ReferenceTypes
	// TypesComment is `// @ts-types="x"` or `// @deno-types="x"`.
	TypesComment
)

func (k ImportKind) String() string {
	switch k {
	case ImportStatic:
		return "import"
	case ImportRequire:
		return "import-require"
	case ExportFrom:
		return "export-from"
	case ImportDynamic:
		return "dynamic-import"
	case ReferencePath:
		return "reference-path"
	case ReferenceTypes:
		return "reference-types"
	case TypesComment:
		return "types-comment"
	default:
		return "unknown"
	}
}

// Position is a location in the source. Line and Column are 1-based.
type Position struct {
	Offset uint
	Line   int
	Column int
}

// Import is one module reference as written.
type Import struct {
	// Specifier is the text between the quotes.
	Specifier string

	Kind ImportKind

	// Start and End delimit Specifier in the source (inside the quotes).
	Start uint
	End   uint

	Line   int
	Column int

	// AttrStart and AttrEnd delimit the import attributes clause, including
	// its leading separator, so that removing the range leaves valid code.
	// Both are zero when there are no attributes.
	AttrStart uint
	AttrEnd   uint

	// AttrType is the value of the `type` attribute, e.g. "json".
	AttrType string

	// TypeOnly is set for `import type`, `export type` and reference comments.
	TypeOnly bool
}

// HasAttributes reports whether the import carries an attributes clause.
func (i Import) HasAttributes() bool {
	return i.AttrEnd > i.AttrStart
}

// GlobalRef is a reference to a name bound nowhere in scope.
type GlobalRef struct {
	Name  string
	Start uint
	End   uint

	// Property is the name read from the reference by a dotted access,
	// "Deno" in `globalThis.Deno`. It is empty otherwise.
	Property string

	// TypeOnly is set when the reference appears only in a type position.
	TypeOnly bool

	// Shorthand is set for `{ name }` object literal properties, which must
	// be expanded to `name: replacement` when rewritten.
	Shorthand bool
}

// Exponent is a binary `**` expression or a `**=` assignment.
type Exponent struct {
	Start uint
	End   uint

	// LeftEnd and RightStart bound the operator and surrounding whitespace.
	LeftEnd    uint
	RightStart uint

	// Assign holds the source text of the left side of a `**=`
	// assignment. It is empty for a binary expression. Only identifiers
	// and dotted member chains are recorded as assignments.
	Assign string
}

// Module is the result of scanning one source file.
type Module struct {
	Imports []Import

	// DynamicImports are import() calls whose argument is not a literal.
	DynamicImports []Position

	Globals []GlobalRef

	// TopLevelAwait lists await expressions and for-await loops outside any function.
	TopLevelAwait []Position

	// Features lists standard library members the module uses, such as
	// "Array.prototype.findLast", in first-use order.
	Features []string

	Exponents []Exponent

	// HashbangEnd is the offset after a leading `#!` line, or zero.
	HashbangEnd uint

	// HasErrors is set when tree-sitter recovered from syntax errors.
	HasErrors bool
}

// GlobalNames returns the distinct referenced global names in first-use order.
func (m *Module) GlobalNames() []string {
	seen := make(map[string]bool, len(m.Globals))
	var names []string
	for _, g := range m.Globals {
		if !seen[g.Name] {
			seen[g.Name] = true
			names = append(names, g.Name)
		}
	}
	return names
}

// References reports whether the module references name as a free global.
func (m *Module) References(name string) bool {
	for _, g := range m.Globals {
		if g.Name == name {
			return true
		}
	}
	return false
}

// UsesFeature reports whether the module uses the named feature.
func (m *Module) UsesFeature(feature string) bool {
	for _, f := range m.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// ParseModule scans source of the given media type. JSON modules have
// nothing to scan.
func ParseModule(source []byte, mediaType specifier.MediaType) (*Module, error) {
	if mediaType.IsJSON() {
		return &Module{}, nil
	}
	lang, err := grammarFor(mediaType)
	if err != nil {
		return nil, err
	}
	return scan(source, lang)
}
