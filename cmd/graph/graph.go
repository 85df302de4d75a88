/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package graph provides the graph command for dualpack.
package graph

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bennypowers.dev/dualpack/cmd/project"
	"bennypowers.dev/dualpack/fs"
	"bennypowers.dev/dualpack/load"
	"bennypowers.dev/dualpack/resolver"
)

// Cmd is the graph cobra command.
var Cmd = &cobra.Command{
	Use:   "graph [entry...]",
	Short: "Print the resolved module graph",
	Long:  `Print the main and test module graphs with each module's resolved imports and any import cycles.`,
	Args:  cobra.ArbitraryArgs,
	RunE:  run,
}

func init() {
	Cmd.Flags().String("format", "table", "Output format: table, json")
	Cmd.Flags().Bool("sorted", false, "List modules dependencies first instead of in discovery order")
}

func run(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	sorted, _ := cmd.Flags().GetBool("sorted")

	filesystem := fs.NewOSFileSystem()
	p, err := project.Load(filesystem, args)
	if err != nil {
		return err
	}
	opts := p.Options

	builder := resolver.NewBuilder(load.NewLoader(opts.FS, opts.Fetcher), resolver.Options{
		Root:      opts.Root,
		ImportMap: opts.ImportMap,
		Mappings:  opts.Mappings,
	})
	result, err := builder.Build(cmd.Context(), opts.EntryPoints, opts.TestEntryPoints)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return outputJSON(cmd.OutOrStdout(), result, sorted)
	default:
		return outputTable(cmd.OutOrStdout(), result, sorted)
	}
}

type moduleOutput struct {
	Specifier  string         `json:"specifier"`
	Entry      bool           `json:"entry,omitempty"`
	Imports    []importOutput `json:"imports"`
	ImportedBy []string       `json:"importedBy,omitempty"`
}

type importOutput struct {
	Specifier string `json:"specifier"`
	Target    string `json:"target"`
	External  bool   `json:"external,omitempty"`
}

type graphOutput struct {
	Partition string         `json:"partition"`
	Modules   []moduleOutput `json:"modules"`
	Cycle     []string       `json:"cycle,omitempty"`
}

func describe(g *resolver.DependencyGraph, sorted bool) graphOutput {
	out := graphOutput{Partition: g.Partition().String()}
	for _, s := range g.FindCycle() {
		out.Cycle = append(out.Cycle, s.String())
	}

	modules := g.Modules()
	if sorted {
		// A cyclic graph has no topological order; keep discovery order.
		if order, err := g.TopologicalSort(); err == nil {
			modules = modules[:0:0]
			for _, s := range order {
				modules = append(modules, g.Get(s))
			}
		}
	}

	for _, m := range modules {
		mo := moduleOutput{Specifier: m.Specifier.String(), Entry: m.Entry, Imports: []importOutput{}}
		for _, d := range g.Dependents(m.Specifier) {
			mo.ImportedBy = append(mo.ImportedBy, d.String())
		}
		for _, e := range m.Edges {
			target := e.Target.String()
			if e.Package != nil {
				target = "npm:" + e.Package.ImportPath()
			}
			mo.Imports = append(mo.Imports, importOutput{
				Specifier: e.Import.Specifier,
				Target:    target,
				External:  !e.IsModule(),
			})
		}
		out.Modules = append(out.Modules, mo)
	}
	return out
}

func outputTable(w io.Writer, result *resolver.Result, sorted bool) error {
	caser := cases.Title(language.English)
	for _, g := range []*resolver.DependencyGraph{result.Main, result.Test} {
		if g.Len() == 0 {
			continue
		}
		d := describe(g, sorted)
		fmt.Fprintf(w, "%s graph (%d modules)\n", caser.String(d.Partition), len(d.Modules))
		for _, m := range d.Modules {
			marker := " "
			if m.Entry {
				marker = "*"
			}
			fmt.Fprintf(w, "%s %s\n", marker, m.Specifier)
			for _, imp := range m.Imports {
				arrow := "->"
				if imp.External {
					arrow = "=>"
				}
				fmt.Fprintf(w, "    %-30s %s %s\n", imp.Specifier, arrow, imp.Target)
			}
		}
		if len(d.Cycle) > 0 {
			fmt.Fprintf(w, "  cycle: %v\n", d.Cycle)
		}
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	return nil
}

func outputJSON(w io.Writer, result *resolver.Result, sorted bool) error {
	output := struct {
		Graphs   []graphOutput `json:"graphs"`
		Warnings []string      `json:"warnings"`
	}{
		Graphs:   []graphOutput{describe(result.Main, sorted), describe(result.Test, sorted)},
		Warnings: result.Warnings,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
