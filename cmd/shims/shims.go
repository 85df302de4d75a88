/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package shims provides the shims command for dualpack.
package shims

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"bennypowers.dev/dualpack/polyfill"
	"bennypowers.dev/dualpack/shim"
	"bennypowers.dev/dualpack/target"
)

// Cmd is the shims cobra command.
var Cmd = &cobra.Command{
	Use:   "shims",
	Short: "List the built-in shims and polyfills",
	Long:  `List the built-in shim categories that can be enabled in the config file, and the polyfills added for older targets.`,
	Args:  cobra.NoArgs,
	RunE:  run,
}

func init() {
	Cmd.Flags().StringP("format", "f", "table", "Output format: table, json")
}

func run(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		return outputJSON(cmd.OutOrStdout())
	default:
		return outputTable(cmd.OutOrStdout())
	}
}

type shimOutput struct {
	Category string   `json:"category"`
	Source   string   `json:"source"`
	Version  string   `json:"version,omitempty"`
	Globals  []string `json:"globals"`
}

type polyfillOutput struct {
	Name     string   `json:"name"`
	Features []string `json:"features"`
	Since    string   `json:"since"`
}

func shimRows() []shimOutput {
	var rows []shimOutput
	for _, c := range shim.Catalogue() {
		row := shimOutput{Category: c.Name, Source: c.Definition.Source()}
		if c.Definition.Package != nil {
			row.Version = c.Definition.Package.Version
		}
		for _, g := range c.Definition.GlobalNames {
			name := g.Name
			if g.TypeOnly {
				name += " (type)"
			}
			row.Globals = append(row.Globals, name)
		}
		rows = append(rows, row)
	}
	return rows
}

func polyfillRows() []polyfillOutput {
	var rows []polyfillOutput
	for _, p := range polyfill.Catalogue() {
		since := "always"
		if p.Since != target.Unknown {
			since = "below " + p.Since.String()
		}
		rows = append(rows, polyfillOutput{Name: p.Name, Features: p.Features, Since: since})
	}
	return rows
}

func outputTable(w io.Writer) error {
	fmt.Fprintln(w, "Shims")
	for _, r := range shimRows() {
		source := r.Source
		if r.Version != "" {
			source += "@" + r.Version
		}
		fmt.Fprintf(w, "  %-14s %-40s %s\n", r.Category, source, strings.Join(r.Globals, ", "))
	}
	fmt.Fprintln(w, "Polyfills")
	for _, r := range polyfillRows() {
		fmt.Fprintf(w, "  %-14s %-40s %s\n", r.Name, strings.Join(r.Features, ", "), r.Since)
	}
	return nil
}

func outputJSON(w io.Writer) error {
	output := struct {
		Shims     []shimOutput     `json:"shims"`
		Polyfills []polyfillOutput `json:"polyfills"`
	}{shimRows(), polyfillRows()}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
