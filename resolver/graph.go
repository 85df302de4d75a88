/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package resolver builds the module dependency graph of a project.
//
// Starting from entry points it loads every reachable local and remote
// module, resolving each import through the import map, the user's
// mappings and the specifier resolver chain. Registry and builtin imports
// become external references. Main and test entry points produce two
// disjoint graphs; test modules may import main modules but never own them.
package resolver

import (
	"errors"
	"fmt"

	"bennypowers.dev/dualpack/load"
	"bennypowers.dev/dualpack/parser"
	"bennypowers.dev/dualpack/specifier"
)

// ErrCircularDependency is returned by TopologicalSort for cyclic graphs.
var ErrCircularDependency = errors.New("circular dependency")

// Partition identifies the main or the test graph.
type Partition int

const (
	Main Partition = iota
	Test
)

func (p Partition) String() string {
	if p == Test {
		return "test"
	}
	return "main"
}

// Edge is one import of a module after resolution.
type Edge struct {
	Import parser.Import

	// Target is the canonical specifier the import resolves to, after the
	// import map and module mappings were applied.
	Target specifier.ModuleSpecifier

	// External is set when Target is a registry package or a builtin.
	External *load.ExternalRef

	// Package is set when a package mapping matched the import.
	Package *PackageMapping

	// Skip is set for imports left exactly as written, such as
	// `/// <reference types="node" />`.
	Skip bool
}

// IsModule reports whether the edge points at another graph node.
func (e Edge) IsModule() bool {
	return !e.Skip && e.External == nil
}

// Module is a node of the dependency graph.
type Module struct {
	Specifier specifier.ModuleSpecifier
	MediaType specifier.MediaType
	Source    []byte
	Parsed    *parser.Module

	// Edges has one entry per parsed import, in written order.
	Edges []Edge

	Partition Partition
	Entry     bool

	// Redirect is the URL a remote module was served from, if it differs
	// from Specifier.
	Redirect specifier.ModuleSpecifier
}

// Base is the specifier the module's relative imports resolve against.
func (m *Module) Base() specifier.ModuleSpecifier {
	if m.Redirect != "" {
		return m.Redirect
	}
	return m.Specifier
}

// DependencyGraph is a directed graph of modules in discovery order.
type DependencyGraph struct {
	partition    Partition
	order        []specifier.ModuleSpecifier
	modules      map[specifier.ModuleSpecifier]*Module
	entryPoints  []specifier.ModuleSpecifier
	dependencies map[specifier.ModuleSpecifier][]specifier.ModuleSpecifier
	dependents   map[specifier.ModuleSpecifier][]specifier.ModuleSpecifier
}

// NewDependencyGraph creates an empty graph for a partition.
func NewDependencyGraph(partition Partition) *DependencyGraph {
	return &DependencyGraph{
		partition:    partition,
		modules:      make(map[specifier.ModuleSpecifier]*Module),
		dependencies: make(map[specifier.ModuleSpecifier][]specifier.ModuleSpecifier),
		dependents:   make(map[specifier.ModuleSpecifier][]specifier.ModuleSpecifier),
	}
}

// Partition returns which graph this is.
func (g *DependencyGraph) Partition() Partition {
	return g.partition
}

// Add inserts m and records its module edges. Adding a specifier twice
// keeps the first module.
func (g *DependencyGraph) Add(m *Module) {
	if _, ok := g.modules[m.Specifier]; ok {
		return
	}
	m.Partition = g.partition
	g.modules[m.Specifier] = m
	g.order = append(g.order, m.Specifier)

	seen := make(map[specifier.ModuleSpecifier]bool)
	for _, e := range m.Edges {
		if !e.IsModule() || seen[e.Target] {
			continue
		}
		seen[e.Target] = true
		g.dependencies[m.Specifier] = append(g.dependencies[m.Specifier], e.Target)
		g.dependents[e.Target] = append(g.dependents[e.Target], m.Specifier)
	}
}

func (g *DependencyGraph) addEntryPoint(spec specifier.ModuleSpecifier) {
	for _, e := range g.entryPoints {
		if e == spec {
			return
		}
	}
	g.entryPoints = append(g.entryPoints, spec)
}

// Has reports whether spec is a node of this graph.
func (g *DependencyGraph) Has(spec specifier.ModuleSpecifier) bool {
	_, ok := g.modules[spec]
	return ok
}

// Get returns the module for spec, or nil.
func (g *DependencyGraph) Get(spec specifier.ModuleSpecifier) *Module {
	return g.modules[spec]
}

// Len returns the number of modules.
func (g *DependencyGraph) Len() int {
	return len(g.order)
}

// Modules returns the modules in discovery order.
func (g *DependencyGraph) Modules() []*Module {
	result := make([]*Module, 0, len(g.order))
	for _, spec := range g.order {
		result = append(result, g.modules[spec])
	}
	return result
}

// EntryPoints returns the entry points in the order given. A test entry
// point that is also a main module is listed but not owned by this graph.
func (g *DependencyGraph) EntryPoints() []specifier.ModuleSpecifier {
	return append([]specifier.ModuleSpecifier(nil), g.entryPoints...)
}

// Dependencies returns the modules that spec imports.
func (g *DependencyGraph) Dependencies(spec specifier.ModuleSpecifier) []specifier.ModuleSpecifier {
	if deps, ok := g.dependencies[spec]; ok {
		return deps
	}
	return []specifier.ModuleSpecifier{}
}

// Dependents returns the modules of this graph that import spec.
func (g *DependencyGraph) Dependents(spec specifier.ModuleSpecifier) []specifier.ModuleSpecifier {
	if deps, ok := g.dependents[spec]; ok {
		return deps
	}
	return []specifier.ModuleSpecifier{}
}

// FindCycle returns the first cycle in discovery order, starting and ending
// with the same module, or nil if there is none.
func (g *DependencyGraph) FindCycle() []specifier.ModuleSpecifier {
	visited := make(map[specifier.ModuleSpecifier]bool)
	recStack := make(map[specifier.ModuleSpecifier]bool)

	for _, node := range g.order {
		if cycle := g.findCycleDFS(node, visited, recStack, nil); cycle != nil {
			return cycle
		}
	}
	return nil
}

func (g *DependencyGraph) findCycleDFS(node specifier.ModuleSpecifier, visited, recStack map[specifier.ModuleSpecifier]bool, path []specifier.ModuleSpecifier) []specifier.ModuleSpecifier {
	if recStack[node] {
		cycleStart := -1
		for i, n := range path {
			if n == node {
				cycleStart = i
				break
			}
		}
		if cycleStart == -1 {
			panic(fmt.Sprintf("cycle detection invariant violated: node %q in recStack but not in path %v", node, path))
		}
		cycle := append([]specifier.ModuleSpecifier(nil), path[cycleStart:]...)
		return append(cycle, node)
	}
	if visited[node] {
		return nil
	}

	visited[node] = true
	recStack[node] = true
	path = append(path, node)

	for _, dep := range g.dependencies[node] {
		if cycle := g.findCycleDFS(dep, visited, recStack, path); cycle != nil {
			return cycle
		}
	}

	recStack[node] = false
	return nil
}

// TopologicalSort returns the modules of this graph in dependency order
// (dependencies first). Edges into the other partition are ignored.
// Returns an error if the graph contains a cycle.
func (g *DependencyGraph) TopologicalSort() ([]specifier.ModuleSpecifier, error) {
	if cycle := g.FindCycle(); cycle != nil {
		return nil, fmt.Errorf("%w: %v", ErrCircularDependency, cycle)
	}

	visited := make(map[specifier.ModuleSpecifier]bool)
	result := []specifier.ModuleSpecifier{}

	for _, node := range g.order {
		if !visited[node] {
			g.topologicalSortDFS(node, visited, &result)
		}
	}

	return result, nil
}

func (g *DependencyGraph) topologicalSortDFS(node specifier.ModuleSpecifier, visited map[specifier.ModuleSpecifier]bool, stack *[]specifier.ModuleSpecifier) {
	visited[node] = true

	for _, dep := range g.dependencies[node] {
		if !visited[dep] {
			g.topologicalSortDFS(dep, visited, stack)
		}
	}

	if g.Has(node) {
		*stack = append(*stack, node)
	}
}
