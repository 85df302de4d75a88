/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package parser

import (
	ts "github.com/tree-sitter/go-tree-sitter"
)

// scopeKinds open a lexical scope.
var scopeKinds = map[string]bool{
	"program":                        true,
	"statement_block":                true,
	"catch_clause":                   true,
	"for_statement":                  true,
	"for_in_statement":               true,
	"switch_body":                    true,
	"function_declaration":           true,
	"generator_function_declaration": true,
	"function_expression":            true,
	"function":                       true,
	"generator_function":             true,
	"arrow_function":                 true,
	"method_definition":              true,
	"function_signature":             true,
	"method_signature":               true,
	"abstract_method_signature":      true,
	"call_signature":                 true,
	"construct_signature":            true,
	"function_type":                  true,
	"constructor_type":               true,
}

// functionKinds are scopes that `var` declarations hoist to.
// The last group are type-level signatures whose parameters never escape.
var functionKinds = map[string]bool{
	"program":                        true,
	"function_declaration":           true,
	"generator_function_declaration": true,
	"function_expression":            true,
	"function":                       true,
	"generator_function":             true,
	"arrow_function":                 true,
	"method_definition":              true,

	"function_signature":        true,
	"method_signature":          true,
	"abstract_method_signature": true,
	"call_signature":            true,
	"construct_signature":       true,
	"function_type":             true,
	"constructor_type":          true,
}

// runtimeFunctionKinds are the function bodies an await can belong to.
var runtimeFunctionKinds = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"function_expression":            true,
	"function":                       true,
	"generator_function":             true,
	"arrow_function":                 true,
	"method_definition":              true,
}

// bindings records which names each scope declares, and which identifier
// nodes are declaration sites rather than references.
type bindings struct {
	src   []byte
	names map[uintptr]map[string]bool
	sites map[uintptr]bool
}

func collectBindings(root *ts.Node, src []byte) *bindings {
	b := &bindings{
		src:   src,
		names: make(map[uintptr]map[string]bool),
		sites: make(map[uintptr]bool),
	}
	b.visit(root, root)
	return b
}

func (b *bindings) visit(n, root *ts.Node) {
	switch n.Kind() {
	case "variable_declarator":
		scope := scopeOf(n)
		if parent := n.Parent(); parent != nil && parent.Kind() == "variable_declaration" {
			scope = functionScopeOf(n)
		}
		b.bindPattern(n.ChildByFieldName("name"), scope)

	case "function_declaration", "generator_function_declaration",
		"class_declaration", "abstract_class_declaration",
		"enum_declaration", "interface_declaration", "type_alias_declaration",
		"function_signature", "module", "internal_module":
		if parent := n.Parent(); parent != nil {
			b.bindPattern(n.ChildByFieldName("name"), scopeOf(parent))
		}

	case "function_expression", "function", "generator_function":
		b.bindPattern(n.ChildByFieldName("name"), n)

	case "class":
		b.bindPattern(n.ChildByFieldName("name"), scopeOf(n))

	case "formal_parameters":
		if fn := n.Parent(); fn != nil {
			for i := range n.NamedChildCount() {
				b.bindParameter(n.NamedChild(i), fn)
			}
		}

	case "arrow_function":
		b.bindPattern(n.ChildByFieldName("parameter"), n)

	case "catch_clause":
		b.bindPattern(n.ChildByFieldName("parameter"), n)

	case "for_in_statement":
		if kind := n.ChildByFieldName("kind"); kind != nil {
			scope := n
			if kind.Kind() == "var" {
				scope = functionScopeOf(n)
			}
			b.bindPattern(n.ChildByFieldName("left"), scope)
		}

	case "import_specifier":
		name := n.ChildByFieldName("name")
		alias := n.ChildByFieldName("alias")
		if name != nil {
			b.sites[name.Id()] = true
		}
		if alias != nil {
			b.bindPattern(alias, root)
		} else {
			b.bindPattern(name, root)
		}

	case "import_clause", "namespace_import", "import_require_clause":
		for i := range n.NamedChildCount() {
			if child := n.NamedChild(i); child.Kind() == "identifier" {
				b.bindPattern(child, root)
			}
		}

	case "type_parameter":
		b.bindPattern(n.ChildByFieldName("name"), scopeOf(n))
	}

	for i := range n.ChildCount() {
		b.visit(n.Child(i), root)
	}
}

func (b *bindings) bindParameter(param, fn *ts.Node) {
	if param == nil {
		return
	}
	switch param.Kind() {
	case "required_parameter", "optional_parameter":
		b.bindPattern(param.ChildByFieldName("pattern"), fn)
	default:
		b.bindPattern(param, fn)
	}
}

func (b *bindings) bindPattern(p, scope *ts.Node) {
	if p == nil || scope == nil {
		return
	}
	switch p.Kind() {
	case "identifier", "type_identifier", "shorthand_property_identifier_pattern":
		b.sites[p.Id()] = true
		b.declare(scope, p.Utf8Text(b.src))
	case "object_pattern", "array_pattern":
		for i := range p.NamedChildCount() {
			b.bindPattern(p.NamedChild(i), scope)
		}
	case "pair_pattern":
		b.bindPattern(p.ChildByFieldName("value"), scope)
	case "assignment_pattern", "object_assignment_pattern":
		b.bindPattern(p.ChildByFieldName("left"), scope)
	case "rest_pattern":
		if p.NamedChildCount() > 0 {
			b.bindPattern(p.NamedChild(0), scope)
		}
	}
}

func (b *bindings) declare(scope *ts.Node, name string) {
	id := scope.Id()
	set, ok := b.names[id]
	if !ok {
		set = make(map[string]bool)
		b.names[id] = set
	}
	set[name] = true
}

// bound reports whether name is declared in any scope of the chain.
func (b *bindings) bound(name string, chain []uintptr) bool {
	for i := len(chain) - 1; i >= 0; i-- {
		if b.names[chain[i]][name] {
			return true
		}
	}
	return false
}

func (b *bindings) isSite(n *ts.Node) bool {
	return b.sites[n.Id()]
}

func scopeOf(n *ts.Node) *ts.Node {
	for cur := n; cur != nil; cur = cur.Parent() {
		if scopeKinds[cur.Kind()] {
			return cur
		}
	}
	return nil
}

func functionScopeOf(n *ts.Node) *ts.Node {
	for cur := n; cur != nil; cur = cur.Parent() {
		if functionKinds[cur.Kind()] {
			return cur
		}
	}
	return nil
}
