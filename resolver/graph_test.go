/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver_test

import (
	"errors"
	"testing"

	"bennypowers.dev/dualpack/resolver"
	"bennypowers.dev/dualpack/specifier"
)

func node(name string, deps ...string) *resolver.Module {
	m := &resolver.Module{Specifier: specifier.ModuleSpecifier("file:///" + name)}
	for _, d := range deps {
		m.Edges = append(m.Edges, resolver.Edge{Target: specifier.ModuleSpecifier("file:///" + d)})
	}
	return m
}

func buildGraph(modules ...*resolver.Module) *resolver.DependencyGraph {
	g := resolver.NewDependencyGraph(resolver.Main)
	for _, m := range modules {
		g.Add(m)
	}
	return g
}

func TestDependencyGraph_NoCycle(t *testing.T) {
	graph := buildGraph(
		node("c.ts", "b.ts"),
		node("b.ts", "a.ts"),
		node("a.ts"),
	)

	if cycle := graph.FindCycle(); cycle != nil {
		t.Errorf("expected nil cycle, got %v", cycle)
	}
}

func TestDependencyGraph_Cycle(t *testing.T) {
	graph := buildGraph(
		node("a.ts", "c.ts"),
		node("b.ts", "a.ts"),
		node("c.ts", "b.ts"),
	)

	cycle := graph.FindCycle()
	want := []specifier.ModuleSpecifier{"file:///a.ts", "file:///c.ts", "file:///b.ts", "file:///a.ts"}
	if len(cycle) != len(want) {
		t.Fatalf("expected cycle %v, got %v", want, cycle)
	}
	for i := range want {
		if cycle[i] != want[i] {
			t.Errorf("cycle[%d] = %s, want %s", i, cycle[i], want[i])
		}
	}

	if _, err := graph.TopologicalSort(); !errors.Is(err, resolver.ErrCircularDependency) {
		t.Errorf("expected ErrCircularDependency, got %v", err)
	}
}

func TestDependencyGraph_TopologicalSort(t *testing.T) {
	graph := buildGraph(
		node("mod.ts", "a.ts", "b.ts"),
		node("a.ts", "b.ts"),
		node("b.ts"),
	)

	sorted, err := graph.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []specifier.ModuleSpecifier{"file:///b.ts", "file:///a.ts", "file:///mod.ts"}
	for i := range want {
		if sorted[i] != want[i] {
			t.Errorf("sorted[%d] = %s, want %s", i, sorted[i], want[i])
		}
	}
}

func TestDependencyGraph_Dependents(t *testing.T) {
	graph := buildGraph(
		node("mod.ts", "util.ts", "util.ts"),
		node("other.ts", "util.ts"),
		node("util.ts"),
	)

	deps := graph.Dependencies("file:///mod.ts")
	if len(deps) != 1 {
		t.Errorf("expected repeated imports to collapse to one edge, got %v", deps)
	}
	dependents := graph.Dependents("file:///util.ts")
	if len(dependents) != 2 || dependents[0] != "file:///mod.ts" || dependents[1] != "file:///other.ts" {
		t.Errorf("unexpected dependents %v", dependents)
	}
	if got := graph.Dependents("file:///nope.ts"); len(got) != 0 {
		t.Errorf("expected no dependents, got %v", got)
	}
}

func TestDependencyGraph_AddKeepsFirst(t *testing.T) {
	first := node("a.ts")
	graph := buildGraph(first, node("a.ts", "b.ts"))

	if graph.Len() != 1 {
		t.Fatalf("expected 1 module, got %d", graph.Len())
	}
	if graph.Get("file:///a.ts") != first {
		t.Error("expected the first module to be kept")
	}
	if first.Partition != resolver.Main {
		t.Errorf("expected partition to be set, got %v", first.Partition)
	}
}
