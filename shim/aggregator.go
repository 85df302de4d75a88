/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package shim

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"names": joinNames,
}).ParseFS(templateFS, "templates/*.tmpl"))

// templateData holds data for the aggregator template.
type templateData struct {
	Sources []sourceData
	Globals []string
}

// sourceData is one import source and the names taken from it.
type sourceData struct {
	From   string
	Values []GlobalName
	Types  []GlobalName
}

func joinNames(names []GlobalName) string {
	parts := make([]string, len(names))
	for i, g := range names {
		if g.Export() == g.Name {
			parts[i] = g.Name
		} else {
			parts[i] = g.Export() + " as " + g.Name
		}
	}
	return strings.Join(parts, ", ")
}

// Aggregator renders the aggregator module. moduleSpecifier maps the Module
// of a module shim to the specifier the aggregator imports it by.
func (p *Plan) Aggregator(moduleSpecifier func(module string) (string, error)) ([]byte, error) {
	data := templateData{}
	for _, d := range p.active {
		src := sourceData{}
		if d.Package != nil {
			src.From = d.Package.ImportPath()
		} else {
			from, err := moduleSpecifier(d.Module)
			if err != nil {
				return nil, fmt.Errorf("shim %s: %w", d.Source(), err)
			}
			src.From = from
		}
		for _, g := range d.GlobalNames {
			if g.TypeOnly {
				src.Types = append(src.Types, g)
			} else {
				src.Values = append(src.Values, g)
			}
		}
		data.Sources = append(data.Sources, src)
	}

	for _, key := range p.globals.Keys() {
		b, _ := p.globals.Get(key)
		if p.globals.Overrides(key) && !b.TypeOnly {
			data.Globals = append(data.Globals, key)
		}
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "shims.ts.tmpl", data); err != nil {
		return nil, err
	}
	return bytes.TrimLeft(buf.Bytes(), "\n"), nil
}
