/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package transform runs the whole conversion of a module graph into the
// source files and dependency lists of a dual ESM and CommonJS package.
//
// Transform builds the main and test graphs, activates the shims and
// polyfills each partition needs, rewrites every module and assembles an
// Output. It is a pure function of its Options: nothing is cached across
// calls and nothing is written to disk.
package transform

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"bennypowers.dev/dualpack/fs"
	"bennypowers.dev/dualpack/importmap"
	"bennypowers.dev/dualpack/internal/logger"
	"bennypowers.dev/dualpack/load"
	"bennypowers.dev/dualpack/parser"
	"bennypowers.dev/dualpack/polyfill"
	"bennypowers.dev/dualpack/resolver"
	"bennypowers.dev/dualpack/rewrite"
	"bennypowers.dev/dualpack/shim"
	"bennypowers.dev/dualpack/specifier"
	"bennypowers.dev/dualpack/target"
)

// Options configures a transform.
type Options struct {
	EntryPoints     []string
	TestEntryPoints []string

	// Shims are active for main output; TestShims for test output, usually
	// a superset. See shim.Resolve.
	Shims     []shim.Definition
	TestShims []shim.Definition

	Mappings  resolver.Mappings
	Target    target.Level
	ImportMap *importmap.ImportMap

	ScriptModule ScriptModule

	// Root is the directory entry points are relative to.
	Root string

	FS fs.FileSystem

	// Fetcher loads remote modules. Callers wanting retries wrap it in a
	// load.RetryFetcher.
	Fetcher load.Fetcher

	TypesNodeVersion string
}

var errRegistryShimModule = errors.New("registry modules must be configured as a shim package")

// jsrNote is added once when any partition depends on a jsr package.
const jsrNote = `jsr packages are installed from the npm compatibility registry; add "@jsr:registry=https://npm.jsr.io" to the .npmrc of consumers`

// Transform converts the graphs reachable from the configured entry points.
func Transform(ctx context.Context, opts Options) (*Output, error) {
	if len(opts.EntryPoints) == 0 {
		return nil, ErrNoEntryPoints
	}
	if err := shim.Validate(opts.Shims, opts.Mappings); err != nil {
		return nil, fmt.Errorf("main shims: %w", err)
	}
	if err := shim.Validate(opts.TestShims, opts.Mappings); err != nil {
		return nil, fmt.Errorf("test shims: %w", err)
	}

	defer logger.Phase("transform", "entries", len(opts.EntryPoints), "tests", len(opts.TestEntryPoints))()

	t := &transformer{opts: opts}
	t.loader = load.NewLoader(opts.FS, opts.Fetcher)
	t.builder = resolver.NewBuilder(t.loader, resolver.Options{
		Root:      opts.Root,
		ImportMap: opts.ImportMap,
		Mappings:  opts.Mappings,
	})

	endGraph := logger.Phase("graph")
	err := t.build(ctx)
	endGraph()
	if err != nil {
		return nil, err
	}
	return t.assemble()
}

type transformer struct {
	opts    Options
	loader  *load.Loader
	builder *resolver.Builder

	graphs    *resolver.Result
	plans     [2]*shim.Plan
	polyfills [2]*polyfill.Set

	// shimModules are project modules that implement shims. They are
	// emitted but never rewritten to use the aggregator themselves.
	shimModules map[specifier.ModuleSpecifier]bool

	layout   *rewrite.Layout
	rewriter *rewrite.Rewriter
	warnings []string
	jsr      bool
}

func (t *transformer) warn(format string, args ...any) {
	t.warnings = append(t.warnings, fmt.Sprintf(format, args...))
}

// build discovers both graphs. Shim plans are made as soon as a partition's
// graph is complete so that shim modules join the partition that needs
// them first.
func (t *transformer) build(ctx context.Context) error {
	t.shimModules = make(map[specifier.ModuleSpecifier]bool)
	partitions := []struct {
		p       resolver.Partition
		entries []string
		defs    []shim.Definition
	}{
		{resolver.Main, t.opts.EntryPoints, t.opts.Shims},
		{resolver.Test, t.opts.TestEntryPoints, t.opts.TestShims},
	}
	for _, part := range partitions {
		if err := t.builder.BuildPartition(ctx, part.p, part.entries); err != nil {
			return err
		}
		graph := t.builder.Graph(part.p)
		plan := shim.NewPlan(part.defs, shim.ReferencedGlobals(parsedModules(graph)))
		t.plans[part.p] = plan

		var specs []specifier.ModuleSpecifier
		for _, m := range plan.Modules() {
			spec, local, err := t.shimModule(m)
			if err != nil {
				return err
			}
			if local {
				t.shimModules[spec] = true
				specs = append(specs, spec)
			}
		}
		if err := t.builder.Extend(ctx, part.p, specs); err != nil {
			return err
		}
	}

	t.graphs = t.builder.Result()
	t.warnings = append(t.warnings, t.graphs.Warnings...)

	t.polyfills[resolver.Main] = polyfill.Select(t.opts.Target, parsedModules(t.graphs.Main))
	t.polyfills[resolver.Test] = polyfill.Select(t.opts.Target, parsedModules(t.graphs.Test)).
		Without(t.polyfills[resolver.Main])

	var specs []specifier.ModuleSpecifier
	mediaTypes := make(map[specifier.ModuleSpecifier]specifier.MediaType)
	for _, g := range []*resolver.DependencyGraph{t.graphs.Main, t.graphs.Test} {
		for _, m := range g.Modules() {
			specs = append(specs, m.Specifier)
			mediaTypes[m.Specifier] = m.MediaType
		}
	}
	t.layout = rewrite.NewLayout(specs,
		rewrite.Reserve(shim.MainFile, shim.TestFile, polyfill.MainFile, polyfill.TestFile),
		rewrite.WithMediaTypes(func(s specifier.ModuleSpecifier) specifier.MediaType { return mediaTypes[s] }),
	)
	t.rewriter = rewrite.New(t.layout, rewrite.Options{TypesNodeVersion: t.opts.TypesNodeVersion})
	logger.Debugw("graphs built", "main", t.graphs.Main.Len(), "test", t.graphs.Test.Len(), "root", t.layout.Root())
	return nil
}

// shimModule resolves the module of a module shim. Builtins are imported by
// name and are not part of any graph.
func (t *transformer) shimModule(module string) (specifier.ModuleSpecifier, bool, error) {
	switch kind := specifier.Classify(module); {
	case kind == specifier.KindBuiltin:
		spec, err := specifier.NewBuiltinResolver().Resolve(module, "")
		return spec, false, err
	case kind == specifier.KindRegistry && strings.Contains(module, ":"):
		return "", false, fmt.Errorf("shim module %q: %w", module, errRegistryShimModule)
	}
	spec, err := t.builder.ResolveEntryPoint(module)
	if err != nil {
		return "", false, fmt.Errorf("shim module: %w", err)
	}
	return spec, true, nil
}

func parsedModules(g *resolver.DependencyGraph) []*parser.Module {
	mods := g.Modules()
	parsed := make([]*parser.Module, len(mods))
	for i, m := range mods {
		parsed[i] = m.Parsed
	}
	return parsed
}

func (t *transformer) assemble() (*Output, error) {
	out := &Output{}
	var err error
	if out.Main, err = t.environment(resolver.Main, t.graphs.Main); err != nil {
		return nil, err
	}
	if out.Test, err = t.environment(resolver.Test, t.graphs.Test); err != nil {
		return nil, err
	}
	if t.jsr {
		t.warn(jsrNote)
	}
	out.Warnings = t.warnings
	return out, nil
}

func aggregatorFile(p resolver.Partition) string {
	if p == resolver.Test {
		return shim.TestFile
	}
	return shim.MainFile
}

func polyfillFile(p resolver.Partition) string {
	if p == resolver.Test {
		return polyfill.TestFile
	}
	return polyfill.MainFile
}

// emitted maps an output source path to the specifier compiled code uses.
func emitted(path string) string {
	ext := specifier.Ext(path)
	return path[:len(path)-len(ext)] + rewrite.EmittedExt(ext)
}

func (t *transformer) environment(p resolver.Partition, g *resolver.DependencyGraph) (Environment, error) {
	env := Environment{}
	deps := newDependencies(p, t.warn)
	plan := t.plans[p]

	for _, spec := range g.EntryPoints() {
		path, _ := t.layout.Path(spec)
		env.EntryPoints = append(env.EntryPoints, path)
	}

	for _, m := range g.Modules() {
		path, ok := t.layout.Path(m.Specifier)
		if !ok {
			return env, fmt.Errorf("%w: %s", rewrite.ErrMappingNotFound, m.Specifier)
		}
		text, moduleDeps, err := t.module(p, m, path)
		if err != nil {
			return env, err
		}
		for _, d := range moduleDeps {
			if plan.Provides(d.Name) {
				continue
			}
			deps.add(d)
		}
		env.Files = append(env.Files, File{Path: path, Text: text})
	}

	if !plan.Empty() {
		file := aggregatorFile(p)
		text, err := plan.Aggregator(func(module string) (string, error) {
			spec, local, err := t.shimModule(module)
			if err != nil {
				return "", err
			}
			if !local {
				if strings.HasPrefix(string(spec), "node:") && !plan.Provides(rewrite.TypesNodePackage) {
					deps.add(Dependency{Name: rewrite.TypesNodePackage, Version: t.typesNodeVersion()})
				}
				return string(spec), nil
			}
			to, ok := t.layout.EmittedPath(spec)
			if !ok {
				return "", fmt.Errorf("%w: %s", rewrite.ErrMappingNotFound, spec)
			}
			return rewrite.Relative(file, to), nil
		})
		if err != nil {
			return env, err
		}
		for _, d := range plan.Dependencies() {
			deps.add(d)
		}
		env.Files = append(env.Files, File{Path: file, Text: string(text)})
	}

	if set := t.polyfills[p]; !set.Empty() {
		text, err := set.Render()
		if err != nil {
			return env, err
		}
		env.Files = append(env.Files, File{Path: polyfillFile(p), Text: string(text)})
	}

	env.Dependencies = deps.list()
	logger.Debugw("environment assembled", "partition", p, "files", len(env.Files), "dependencies", deps)
	return env, nil
}

func (t *transformer) typesNodeVersion() string {
	if t.opts.TypesNodeVersion != "" {
		return t.opts.TypesNodeVersion
	}
	return rewrite.DefaultTypesNodeVersion
}

// module returns the output text of m and the dependencies its imports need.
func (t *transformer) module(p resolver.Partition, m *resolver.Module, path string) (string, []Dependency, error) {
	if m.MediaType.IsJSON() {
		text, err := parser.JSONModule(m.Source)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", m.Specifier, err)
		}
		return string(text), nil, nil
	}
	if err := t.checkTopLevelAwait(p, m); err != nil {
		return "", nil, err
	}

	res, err := t.rewriter.Module(m)
	if err != nil {
		return "", nil, err
	}
	for _, e := range m.Edges {
		if e.External != nil && e.External.Package != nil && e.External.Package.IsJSR() {
			t.jsr = true
		}
	}

	var edits []rewrite.Edit
	for _, file := range t.polyfillImports(p, m.Parsed) {
		edits = append(edits, polyfill.Import(m.Parsed, rewrite.Relative(path, emitted(file))))
	}
	if !t.shimModules[m.Specifier] {
		edits = append(edits, t.plans[p].Inject(m.Parsed, rewrite.Relative(path, emitted(aggregatorFile(p))))...)
	}
	edits = append(edits, res.Edits...)
	edits = append(edits, polyfill.Exponents(m.Parsed, t.opts.Target)...)

	text, err := rewrite.Apply(m.Source, edits)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", m.Specifier, err)
	}
	return string(text), res.Dependencies, nil
}

// polyfillImports lists the polyfill modules mod needs. Test modules may
// use polyfills from both partitions.
func (t *transformer) polyfillImports(p resolver.Partition, mod *parser.Module) []string {
	var files []string
	if t.polyfills[resolver.Main].UsedBy(mod) {
		files = append(files, polyfill.MainFile)
	}
	if p == resolver.Test && t.polyfills[resolver.Test].UsedBy(mod) {
		files = append(files, polyfill.TestFile)
	}
	return files
}

func (t *transformer) checkTopLevelAwait(p resolver.Partition, m *resolver.Module) error {
	if len(m.Parsed.TopLevelAwait) == 0 {
		return nil
	}
	pos := m.Parsed.TopLevelAwait[0]
	if p == resolver.Main && t.opts.ScriptModule.Synchronous() {
		return &SyntaxError{
			Specifier: m.Specifier,
			Line:      pos.Line,
			Column:    pos.Column,
			Construct: "top-level await",
			Format:    t.opts.ScriptModule,
			Err:       ErrIncompatibleSyntax,
		}
	}
	if t.opts.ScriptModule.Synchronous() {
		t.warn("%s:%d:%d: top-level await in a test module; tests must run as ESM", m.Specifier, pos.Line, pos.Column)
		return nil
	}
	if !slices.Contains(t.warnings, topLevelAwaitNote) {
		t.warn(topLevelAwaitNote)
	}
	return nil
}

const topLevelAwaitNote = "top-level await found; a CommonJS or UMD build of this package would fail"
