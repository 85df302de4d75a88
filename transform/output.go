/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package transform

import (
	"fmt"

	"bennypowers.dev/dualpack/resolver"
	"bennypowers.dev/dualpack/rewrite"
)

// Dependency is an npm package an environment requires.
type Dependency = rewrite.Dependency

// File is one output source file. Path is slash separated and relative to
// the output source directory.
type File struct {
	Path string `json:"filePath"`
	Text string `json:"fileText"`
}

// Environment is the output of one partition.
type Environment struct {
	// EntryPoints are the output paths of the partition's entry modules.
	EntryPoints  []string     `json:"entryPoints"`
	Dependencies []Dependency `json:"dependencies"`
	Files        []File       `json:"files"`
}

// Normal returns the dependencies that are not peer dependencies.
func (e Environment) Normal() []Dependency {
	var deps []Dependency
	for _, d := range e.Dependencies {
		if !d.PeerDependency {
			deps = append(deps, d)
		}
	}
	return deps
}

// Peer returns the peer dependencies.
func (e Environment) Peer() []Dependency {
	var deps []Dependency
	for _, d := range e.Dependencies {
		if d.PeerDependency {
			deps = append(deps, d)
		}
	}
	return deps
}

// File returns the file at path.
func (e Environment) File(path string) (File, bool) {
	for _, f := range e.Files {
		if f.Path == path {
			return f, true
		}
	}
	return File{}, false
}

// Output is the result of a transform.
type Output struct {
	Main     Environment `json:"main"`
	Test     Environment `json:"test"`
	Warnings []string    `json:"warnings"`
}

// dependencies collects one partition's dependencies. A name keeps its
// first position; a later version replaces an earlier one.
type dependencies struct {
	partition resolver.Partition
	order     []string
	byName    map[string]Dependency
	warn      func(format string, args ...any)
}

func newDependencies(p resolver.Partition, warn func(string, ...any)) *dependencies {
	return &dependencies{partition: p, byName: make(map[string]Dependency), warn: warn}
}

func (d *dependencies) add(dep Dependency) {
	prev, ok := d.byName[dep.Name]
	if !ok {
		d.order = append(d.order, dep.Name)
		d.byName[dep.Name] = dep
		return
	}
	if prev.Version != dep.Version {
		d.warn("%s dependency %s: version %s replaces %s", d.partition, dep.Name, dep.Version, prev.Version)
	}
	dep.PeerDependency = dep.PeerDependency || prev.PeerDependency
	d.byName[dep.Name] = dep
}

func (d *dependencies) list() []Dependency {
	deps := make([]Dependency, len(d.order))
	for i, name := range d.order {
		deps[i] = d.byName[name]
	}
	return deps
}

func (d *dependencies) String() string {
	return fmt.Sprintf("%d %s dependencies", len(d.order), d.partition)
}
