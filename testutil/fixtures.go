/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package testutil provides fixtures, golden files and a fake remote
// fetcher for dualpack tests.
//
// Fixtures live in the repository's top-level testdata directory. Tests run
// with their package directory as the working directory, so lookups climb
// at most two levels to find it.
package testutil

import (
	"flag"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"bennypowers.dev/dualpack/internal/mapfs"
)

var updateGolden = flag.Bool("update", false, "rewrite golden files from actual output")

// testdataRoots are tried in order; the first that exists wins.
var testdataRoots = []string{
	"testdata",
	filepath.Join("..", "testdata"),
	filepath.Join("..", "..", "testdata"),
}

// locate returns the on-disk path of rel under the nearest testdata
// directory. With mustExist false it settles for the first testdata
// directory holding rel's parent, which is where a new golden file goes.
func locate(rel string, mustExist bool) (string, bool) {
	rel = filepath.FromSlash(rel)
	for _, root := range testdataRoots {
		candidate := filepath.Join(root, rel)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	if mustExist {
		return "", false
	}
	for _, root := range testdataRoots {
		candidate := filepath.Join(root, rel)
		if _, err := os.Stat(filepath.Dir(candidate)); err == nil {
			return candidate, true
		}
	}
	return filepath.Join(testdataRoots[0], rel), true
}

// NewFixtureFS copies a testdata directory into an in-memory filesystem,
// mounted at root. A project fixture under testdata/config/yaml mounted at
// /project shows up as /project/.config/dualpack.yaml and so on.
func NewFixtureFS(t *testing.T, fixtureDir string, root string) *mapfs.MapFileSystem {
	t.Helper()

	dir, ok := locate(fixtureDir, true)
	if !ok {
		t.Fatalf("fixture directory %s not found under testdata", fixtureDir)
	}

	mfs := mapfs.New()
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		mfs.AddFile(path.Join(root, filepath.ToSlash(rel)), string(content), 0o644)
		return nil
	})
	if err != nil {
		t.Fatalf("loading fixture %s: %v", fixtureDir, err)
	}
	return mfs
}

// LoadFixtureFile returns the content of a single file under testdata.
func LoadFixtureFile(t *testing.T, fixturePath string) []byte {
	t.Helper()

	p, ok := locate(fixturePath, true)
	if !ok {
		t.Fatalf("fixture %s not found under testdata", fixturePath)
	}
	content, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("reading fixture %s: %v", fixturePath, err)
	}
	return content
}

// UpdateGoldenFile writes actual to the golden file when tests run with
// -update. Without the flag it does nothing.
func UpdateGoldenFile(t *testing.T, goldenPath string, actual []byte) {
	t.Helper()
	if !*updateGolden {
		return
	}

	target, _ := locate(goldenPath, false)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatalf("creating directory for golden %s: %v", goldenPath, err)
	}
	if err := os.WriteFile(target, actual, 0o644); err != nil {
		t.Fatalf("writing golden %s: %v", goldenPath, err)
	}
	t.Logf("updated golden file %s", target)
}

// Golden compares emitted module text against testdata/<goldenPath>,
// reporting a line diff on mismatch. Run with -update to accept the
// current output.
func Golden(t *testing.T, goldenPath string, actual string) {
	t.Helper()

	UpdateGoldenFile(t, goldenPath, []byte(actual))
	want := string(LoadFixtureFile(t, goldenPath))
	if diff := cmp.Diff(want, actual); diff != "" {
		t.Errorf("%s mismatch (-golden +actual):\n%s", goldenPath, diff)
	}
}
