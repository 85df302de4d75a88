/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package parser

import (
	"errors"
	"regexp"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

var (
	referenceCommentPattern = regexp.MustCompile(`^///\s*<reference\s+(path|types)\s*=\s*["']([^"']+)["']`)
	typesCommentPattern     = regexp.MustCompile(`^//\s*@(?:ts-types|deno-types)\s*=?\s*["']([^"']+)["']`)
	attrTypePattern         = regexp.MustCompile(`\btype\s*:\s*["']([^"']+)["']`)
)

// typeContextKinds mark subtrees that only exist at the type level.
var typeContextKinds = map[string]bool{
	"type_annotation":          true,
	"opting_type_annotation":   true,
	"omitting_type_annotation": true,
	"type_arguments":           true,
	"type_parameters":          true,
	"type_alias_declaration":   true,
	"interface_declaration":    true,
	"implements_clause":        true,
	"extends_type_clause":      true,
	"type_query":               true,
	"type_predicate":           true,
	"asserts":                  true,
	"generic_type":             true,
	"nested_type_identifier":   true,
	"union_type":               true,
	"intersection_type":        true,
	"array_type":               true,
	"object_type":              true,
	"tuple_type":               true,
	"lookup_type":              true,
	"conditional_type":         true,
	"index_type_query":         true,
	"parenthesized_type":       true,
	"function_type":            true,
	"constructor_type":         true,
	"readonly_type":            true,
	"template_literal_type":    true,
}

// notReferenceParents hold identifiers that name something other than a
// binding in scope.
var notReferenceParents = map[string]bool{
	"import_specifier":  true,
	"export_specifier":  true,
	"namespace_export":  true,
	"nested_identifier": true,
	"meta_property":     true,
}

// memberFeatures maps `x.<prop>` to the feature it needs, for any receiver.
var memberFeatures = map[string]string{
	"findLast":      "Array.prototype.findLast",
	"findLastIndex": "Array.prototype.findLastIndex",
	"replaceAll":    "String.prototype.replaceAll",
	"at":            "Array.prototype.at",
}

// staticFeatures maps `<Global>.<prop>` to the feature it needs.
var staticFeatures = map[string]string{
	"Object.hasOwn":         "Object.hasOwn",
	"Array.fromAsync":       "Array.fromAsync",
	"Promise.withResolvers": "Promise.withResolvers",
}

type scanner struct {
	src      []byte
	mod      *Module
	bindings *bindings
	features map[string]bool
}

type walkState struct {
	chain   []uintptr
	fnDepth int
	inType  bool
}

func scan(source []byte, g grammar) (*Module, error) {
	tree := parseTree(source, g)
	if tree == nil {
		return nil, errors.New("tree-sitter returned no tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	s := &scanner{
		src:      source,
		mod:      &Module{HasErrors: root.HasError()},
		bindings: collectBindings(root, source),
		features: make(map[string]bool),
	}
	s.walk(root, walkState{})
	return s.mod, nil
}

func (s *scanner) walk(n *ts.Node, st walkState) {
	kind := n.Kind()
	switch kind {
	case "hash_bang_line":
		s.mod.HashbangEnd = n.EndByte()
	case "comment":
		s.comment(n)
	case "import_statement":
		s.importStatement(n)
	case "export_statement":
		s.exportStatement(n)
	case "call_expression":
		s.callExpression(n)
	case "await_expression":
		if st.fnDepth == 0 {
			s.mod.TopLevelAwait = append(s.mod.TopLevelAwait, s.position(n))
		}
	case "for_in_statement":
		if st.fnDepth == 0 && hasAnonymousChild(n, "await") {
			s.mod.TopLevelAwait = append(s.mod.TopLevelAwait, s.position(n))
		}
	case "binary_expression":
		s.binaryExpression(n)
	case "augmented_assignment_expression":
		s.exponentAssignment(n)
	case "member_expression":
		if !st.inType {
			s.memberExpression(n, st)
		}
	case "identifier", "type_identifier", "shorthand_property_identifier":
		s.reference(n, st)
	}

	if runtimeFunctionKinds[kind] {
		st.fnDepth++
	}
	if scopeKinds[kind] {
		st.chain = append(st.chain, n.Id())
	}
	if typeContextKinds[kind] {
		st.inType = true
	}

	for i := range n.ChildCount() {
		s.walk(n.Child(i), st)
	}
}

func (s *scanner) position(n *ts.Node) Position {
	p := n.StartPosition()
	return Position{Offset: n.StartByte(), Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

func (s *scanner) reference(n *ts.Node, st walkState) {
	if s.bindings.isSite(n) {
		return
	}
	parent := n.Parent()
	if parent != nil {
		parentKind := parent.Kind()
		if notReferenceParents[parentKind] {
			return
		}
		// In `Deno.Reader` only the namespace is a reference.
		if parentKind == "nested_type_identifier" && n.Kind() == "type_identifier" {
			return
		}
		// Lowercase JSX tags are intrinsic elements, not identifiers.
		if strings.HasPrefix(parentKind, "jsx_") && isLowerASCII(s.src[n.StartByte()]) {
			return
		}
	}
	name := n.Utf8Text(s.src)
	if s.bindings.bound(name, st.chain) {
		return
	}
	s.mod.Globals = append(s.mod.Globals, GlobalRef{
		Name:      name,
		Start:     n.StartByte(),
		End:       n.EndByte(),
		TypeOnly:  st.inType || n.Kind() == "type_identifier",
		Shorthand: n.Kind() == "shorthand_property_identifier",
		Property:  s.propertyOf(n, parent),
	})
}

// propertyOf returns the property name when n is the object of a dotted
// member access.
func (s *scanner) propertyOf(n, parent *ts.Node) string {
	if parent == nil || parent.Kind() != "member_expression" {
		return ""
	}
	obj := parent.ChildByFieldName("object")
	prop := parent.ChildByFieldName("property")
	if obj == nil || prop == nil || obj.Id() != n.Id() || prop.Kind() != "property_identifier" {
		return ""
	}
	return prop.Utf8Text(s.src)
}

func isLowerASCII(b byte) bool {
	return b >= 'a' && b <= 'z'
}

func (s *scanner) importStatement(n *ts.Node) {
	source := n.ChildByFieldName("source")
	kind := ImportStatic
	if source == nil {
		clause := firstChildOfKind(n, "import_require_clause")
		if clause == nil {
			return
		}
		source = clause.ChildByFieldName("source")
		if source == nil {
			source = firstChildOfKind(clause, "string")
		}
		kind = ImportRequire
	}
	if source == nil || source.Kind() != "string" {
		return
	}
	imp := s.stringImport(source, kind)
	imp.TypeOnly = hasAnonymousChild(n, "type")
	s.attributes(&imp, source, firstChildOfKind(n, "import_attribute"))
	s.mod.Imports = append(s.mod.Imports, imp)
}

func (s *scanner) exportStatement(n *ts.Node) {
	source := n.ChildByFieldName("source")
	if source == nil || source.Kind() != "string" {
		return
	}
	imp := s.stringImport(source, ExportFrom)
	imp.TypeOnly = hasAnonymousChild(n, "type")
	s.attributes(&imp, source, firstChildOfKind(n, "import_attribute"))
	s.mod.Imports = append(s.mod.Imports, imp)
}

func (s *scanner) attributes(imp *Import, source, attr *ts.Node) {
	if attr == nil {
		return
	}
	imp.AttrStart = source.EndByte()
	imp.AttrEnd = attr.EndByte()
	if m := attrTypePattern.FindSubmatch(s.src[attr.StartByte():attr.EndByte()]); m != nil {
		imp.AttrType = string(m[1])
	}
}

func (s *scanner) callExpression(n *ts.Node) {
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "import" {
		return
	}
	args := n.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		s.mod.DynamicImports = append(s.mod.DynamicImports, s.position(n))
		return
	}
	first := args.NamedChild(0)
	if !isLiteralSpecifier(first) {
		s.mod.DynamicImports = append(s.mod.DynamicImports, s.position(n))
		return
	}
	imp := s.stringImport(first, ImportDynamic)
	if args.NamedChildCount() > 1 {
		options := args.NamedChild(1)
		imp.AttrStart = first.EndByte()
		imp.AttrEnd = options.EndByte()
		if m := attrTypePattern.FindSubmatch(s.src[options.StartByte():options.EndByte()]); m != nil {
			imp.AttrType = string(m[1])
		}
	}
	s.mod.Imports = append(s.mod.Imports, imp)
}

// isLiteralSpecifier accepts strings and template literals without substitutions.
func isLiteralSpecifier(n *ts.Node) bool {
	switch n.Kind() {
	case "string":
		return true
	case "template_string":
		return firstChildOfKind(n, "template_substitution") == nil
	}
	return false
}

// stringImport builds an Import from a quoted string or template node.
func (s *scanner) stringImport(str *ts.Node, kind ImportKind) Import {
	start, end := str.StartByte()+1, str.EndByte()-1
	if end < start {
		end = start
	}
	p := str.StartPosition()
	return Import{
		Specifier: string(s.src[start:end]),
		Kind:      kind,
		Start:     start,
		End:       end,
		Line:      int(p.Row) + 1,
		Column:    int(p.Column) + 2,
	}
}

func (s *scanner) comment(n *ts.Node) {
	start := n.StartByte()
	text := s.src[start:n.EndByte()]
	p := n.StartPosition()

	if m := referenceCommentPattern.FindSubmatchIndex(text); m != nil {
		kind := ReferencePath
		if string(text[m[2]:m[3]]) == "types" {
			kind = ReferenceTypes
		}
		s.mod.Imports = append(s.mod.Imports, Import{
			Specifier: string(text[m[4]:m[5]]),
			Kind:      kind,
			Start:     start + uint(m[4]),
			End:       start + uint(m[5]),
			Line:      int(p.Row) + 1,
			Column:    int(p.Column) + 1 + m[4],
			TypeOnly:  true,
		})
		return
	}
	if m := typesCommentPattern.FindSubmatchIndex(text); m != nil {
		s.mod.Imports = append(s.mod.Imports, Import{
			Specifier: string(text[m[2]:m[3]]),
			Kind:      TypesComment,
			Start:     start + uint(m[2]),
			End:       start + uint(m[3]),
			Line:      int(p.Row) + 1,
			Column:    int(p.Column) + 1 + m[2],
			TypeOnly:  true,
		})
	}
}

func (s *scanner) binaryExpression(n *ts.Node) {
	op := n.ChildByFieldName("operator")
	if op == nil || op.Kind() != "**" {
		return
	}
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil || right == nil {
		return
	}
	s.mod.Exponents = append(s.mod.Exponents, Exponent{
		Start:      n.StartByte(),
		End:        n.EndByte(),
		LeftEnd:    left.EndByte(),
		RightStart: right.StartByte(),
	})
}

func (s *scanner) exponentAssignment(n *ts.Node) {
	op := n.ChildByFieldName("operator")
	if op == nil || op.Kind() != "**=" {
		return
	}
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil || right == nil || !plainReference(left) {
		return
	}
	s.mod.Exponents = append(s.mod.Exponents, Exponent{
		Start:      n.StartByte(),
		End:        n.EndByte(),
		LeftEnd:    left.EndByte(),
		RightStart: right.StartByte(),
		Assign:     left.Utf8Text(s.src),
	})
}

// plainReference reports whether n is an identifier or a chain of dotted
// property accesses on an identifier or this, which can be read twice
// without side effects.
func plainReference(n *ts.Node) bool {
	switch n.Kind() {
	case "identifier", "this":
		return true
	case "member_expression":
		obj := n.ChildByFieldName("object")
		prop := n.ChildByFieldName("property")
		return obj != nil && prop != nil &&
			prop.Kind() == "property_identifier" && plainReference(obj)
	}
	return false
}

func (s *scanner) memberExpression(n *ts.Node, st walkState) {
	prop := n.ChildByFieldName("property")
	if prop == nil || prop.Kind() != "property_identifier" {
		return
	}
	name := prop.Utf8Text(s.src)
	if feature, ok := memberFeatures[name]; ok {
		s.addFeature(feature)
		return
	}
	obj := n.ChildByFieldName("object")
	if obj == nil || obj.Kind() != "identifier" {
		return
	}
	objName := obj.Utf8Text(s.src)
	if feature, ok := staticFeatures[objName+"."+name]; ok && !s.bindings.bound(objName, st.chain) {
		s.addFeature(feature)
	}
}

func (s *scanner) addFeature(feature string) {
	if s.features[feature] {
		return
	}
	s.features[feature] = true
	s.mod.Features = append(s.mod.Features, feature)
}

func firstChildOfKind(n *ts.Node, kind string) *ts.Node {
	for i := range n.ChildCount() {
		if child := n.Child(i); child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

func hasAnonymousChild(n *ts.Node, kind string) bool {
	for i := range n.ChildCount() {
		if child := n.Child(i); child != nil && !child.IsNamed() && child.Kind() == kind {
			return true
		}
	}
	return false
}
