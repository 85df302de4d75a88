/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bennypowers.dev/dualpack/importmap"
	"bennypowers.dev/dualpack/internal/logger"
	"bennypowers.dev/dualpack/load"
	"bennypowers.dev/dualpack/parser"
	"bennypowers.dev/dualpack/specifier"
	"golang.org/x/sync/errgroup"
)

var errExternalEntryPoint = errors.New("entry point must be a local or remote module")

// Options configures a Builder.
type Options struct {
	// Root is the directory entry points are relative to.
	Root string

	ImportMap *importmap.ImportMap
	Mappings  Mappings

	// Resolver defaults to specifier.NewDefaultResolver.
	Resolver specifier.Resolver
}

// Result holds both graphs and the warnings raised while building them.
type Result struct {
	Main     *DependencyGraph
	Test     *DependencyGraph
	Warnings []string
}

// Builder discovers modules breadth-first from entry points.
//
// A Builder is not safe for concurrent use. The main partition must be
// built before the test partition so that test traversal can leave main
// modules out.
type Builder struct {
	loader    *load.Loader
	resolver  specifier.Resolver
	root      specifier.ModuleSpecifier
	importMap *importmap.ImportMap
	mappings  Mappings

	main     *DependencyGraph
	test     *DependencyGraph
	warnings []string
}

// NewBuilder creates a Builder that loads modules through loader.
func NewBuilder(loader *load.Loader, opts Options) *Builder {
	r := opts.Resolver
	if r == nil {
		r = specifier.NewDefaultResolver()
	}
	root := opts.Root
	if root == "" {
		root = "/"
	}
	return &Builder{
		loader:    loader,
		resolver:  r,
		root:      specifier.DirReferrer(root),
		importMap: opts.ImportMap,
		mappings:  opts.Mappings,
		main:      NewDependencyGraph(Main),
		test:      NewDependencyGraph(Test),
	}
}

// Build builds the main graph from main and then the test graph from test.
func (b *Builder) Build(ctx context.Context, main, test []string) (*Result, error) {
	if err := b.BuildPartition(ctx, Main, main); err != nil {
		return nil, err
	}
	if err := b.BuildPartition(ctx, Test, test); err != nil {
		return nil, err
	}
	return b.Result(), nil
}

// BuildPartition resolves entries against the root and adds everything
// they reach to the partition's graph.
func (b *Builder) BuildPartition(ctx context.Context, p Partition, entries []string) error {
	g := b.Graph(p)
	roots := make([]specifier.ModuleSpecifier, 0, len(entries))
	for _, raw := range entries {
		spec, err := b.ResolveEntryPoint(raw)
		if err != nil {
			return err
		}
		g.addEntryPoint(spec)
		roots = append(roots, spec)
	}
	return b.traverse(ctx, p, roots, true)
}

// Extend adds specs, and everything they reach, to the partition's graph.
// The shim injector uses it for shims implemented as project modules.
func (b *Builder) Extend(ctx context.Context, p Partition, specs []specifier.ModuleSpecifier) error {
	return b.traverse(ctx, p, specs, false)
}

// ResolveEntryPoint returns the canonical specifier of an entry point.
// Names without a scheme are taken as paths relative to the root, so
// "mod.ts" means "./mod.ts".
func (b *Builder) ResolveEntryPoint(raw string) (specifier.ModuleSpecifier, error) {
	written := raw
	switch specifier.Classify(raw) {
	case specifier.KindRegistry, specifier.KindBuiltin:
		if !strings.Contains(raw, ":") {
			raw = "./" + raw
		}
	}
	spec, err := b.resolver.Resolve(raw, b.root)
	if err != nil {
		return "", &ResolutionError{Specifier: written, Err: err}
	}
	if spec.IsExternal() {
		return "", &ResolutionError{Specifier: written, Err: errExternalEntryPoint}
	}
	return spec, nil
}

// Result returns the graphs built so far. Import cycles are reported as
// warnings; they are legal in ES modules.
func (b *Builder) Result() *Result {
	warnings := append([]string(nil), b.warnings...)
	for _, g := range []*DependencyGraph{b.main, b.test} {
		if cycle := g.FindCycle(); cycle != nil {
			parts := make([]string, len(cycle))
			for i, s := range cycle {
				parts[i] = s.String()
			}
			warnings = append(warnings, fmt.Sprintf("%s graph contains an import cycle: %s", g.partition, strings.Join(parts, " -> ")))
		}
	}
	return &Result{Main: b.main, Test: b.test, Warnings: warnings}
}

// Graph returns the partition's graph as built so far.
func (b *Builder) Graph(p Partition) *DependencyGraph {
	if p == Test {
		return b.test
	}
	return b.main
}

func (b *Builder) owned(spec specifier.ModuleSpecifier) bool {
	return b.main.Has(spec) || b.test.Has(spec)
}

// pending is a module waiting in the work list, with the import that
// first reached it for error reporting.
type pending struct {
	spec     specifier.ModuleSpecifier
	importer *Module
	imp      *parser.Import
	root     bool
}

func (b *Builder) traverse(ctx context.Context, p Partition, roots []specifier.ModuleSpecifier, entries bool) error {
	g := b.Graph(p)
	queued := make(map[specifier.ModuleSpecifier]bool)
	var queue []pending

	var first []pending
	for _, spec := range roots {
		if b.owned(spec) || queued[spec] {
			continue
		}
		queued[spec] = true
		first = append(first, pending{spec: spec, root: entries})
	}
	if err := b.prefetch(ctx, first); err != nil {
		return err
	}
	queue = append(queue, first...)

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		res, err := b.loader.Load(ctx, next.spec)
		if err != nil {
			return resolutionError(next, err)
		}
		if res.Source == nil {
			return resolutionError(next, errExternalEntryPoint)
		}
		mod, err := b.newModule(ctx, res.Source)
		if err != nil {
			return err
		}
		mod.Entry = next.root
		g.Add(mod)
		logger.Debugw("visited module", "specifier", mod.Specifier, "partition", p, "imports", len(mod.Edges))

		var siblings []pending
		for i := range mod.Edges {
			e := &mod.Edges[i]
			if !e.IsModule() || b.owned(e.Target) || queued[e.Target] {
				continue
			}
			queued[e.Target] = true
			siblings = append(siblings, pending{spec: e.Target, importer: mod, imp: &e.Import})
		}
		if err := b.prefetch(ctx, siblings); err != nil {
			return err
		}
		queue = append(queue, siblings...)
	}
	return nil
}

// prefetch loads targets concurrently so their results are cached when the
// work list reaches them. The reported error is the first failure in
// written order.
func (b *Builder) prefetch(ctx context.Context, targets []pending) error {
	if len(targets) == 0 {
		return nil
	}
	errs := make([]error, len(targets))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, t := range targets {
		eg.Go(func() error {
			if _, err := b.loader.Load(egCtx, t.spec); err != nil {
				errs[i] = err
				return err
			}
			return nil
		})
	}
	if eg.Wait() == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var fallback error
	for i, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) {
			if fallback == nil {
				fallback = resolutionError(targets[i], err)
			}
			continue
		}
		return resolutionError(targets[i], err)
	}
	return fallback
}

func resolutionError(p pending, err error) error {
	re := &ResolutionError{Specifier: string(p.spec), Err: err}
	if p.importer != nil && p.imp != nil {
		re.Specifier = p.imp.Specifier
		re.Importer = p.importer.Specifier
		re.Line = p.imp.Line
		re.Column = p.imp.Column
	}
	return re
}

func (b *Builder) newModule(ctx context.Context, src *load.Source) (*Module, error) {
	parsed, err := parser.ParseModule(src.Text, src.MediaType)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", src.Specifier, err)
	}
	mod := &Module{
		Specifier: src.Specifier,
		MediaType: src.MediaType,
		Source:    src.Text,
		Parsed:    parsed,
		Redirect:  src.Redirect,
	}
	if parsed.HasErrors {
		b.warn("%s contains syntax errors; output may be incomplete", src.Specifier)
	}
	for _, pos := range parsed.DynamicImports {
		b.warn("%s:%d:%d: dynamic import with a computed specifier was left unchanged", src.Specifier, pos.Line, pos.Column)
	}

	mod.Edges = make([]Edge, 0, len(parsed.Imports))
	for _, imp := range parsed.Imports {
		edge, err := b.resolveImport(ctx, mod, imp)
		if err != nil {
			return nil, err
		}
		mod.Edges = append(mod.Edges, edge)
	}
	return mod, nil
}

func (b *Builder) resolveImport(ctx context.Context, referrer *Module, imp parser.Import) (Edge, error) {
	edge := Edge{Import: imp}
	fail := func(err error) (Edge, error) {
		return edge, &ResolutionError{
			Specifier: imp.Specifier,
			Importer:  referrer.Specifier,
			Line:      imp.Line,
			Column:    imp.Column,
			Err:       err,
		}
	}

	raw := imp.Specifier
	if imp.Kind == parser.ReferenceTypes && !strings.Contains(raw, ":") && specifier.Classify(raw) != specifier.KindLocal {
		// `/// <reference types="node" />` names an ambient types package.
		edge.Skip = true
		return edge, nil
	}
	if mapped, ok := b.importMap.Resolve(raw, referrer.Base()); ok {
		raw = mapped
	}
	target, err := b.resolver.Resolve(raw, referrer.Base())
	if err != nil {
		return fail(err)
	}

	mapped, pkg, err := b.mappings.Follow(target)
	if err != nil {
		return fail(err)
	}
	if pkg != nil {
		edge.Target = target
		edge.Package = pkg
		edge.External = &load.ExternalRef{
			Specifier: target,
			Package: &specifier.Package{
				Registry: "npm",
				Name:     pkg.Name,
				Version:  pkg.Version,
				SubPath:  pkg.SubPath,
				Raw:      string(target),
			},
		}
		return edge, nil
	}
	if mapped != target {
		logger.Debugw("module mapping", "from", target, "to", mapped)
		target = mapped
	}
	edge.Target = target

	if target.IsExternal() {
		res, err := b.loader.Load(ctx, target)
		if err != nil {
			return fail(err)
		}
		edge.External = res.External
	}
	return edge, nil
}

func (b *Builder) warn(format string, args ...any) {
	b.warnings = append(b.warnings, fmt.Sprintf(format, args...))
}
