/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package mapfs is an in-memory fs.FileSystem for tests. It records how
// often each file is read so tests can assert that a module graph loads
// every source exactly once.
package mapfs

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"testing/fstest"
	"time"
)

// MapFileSystem implements fs.FileSystem over an fstest.MapFS.
// Paths are absolute slash paths ("/project/mod.ts"); they are stored
// without the leading slash so fs.WalkDir works on them.
type MapFileSystem struct {
	mu      sync.RWMutex
	mapFS   fstest.MapFS
	modTime time.Time
	reads   map[string]int
}

// New returns an empty filesystem. Every entry carries the same fixed
// modification time so output is reproducible.
func New() *MapFileSystem {
	return &MapFileSystem{
		mapFS:   make(fstest.MapFS),
		modTime: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		reads:   make(map[string]int),
	}
}

// FromMap creates a filesystem holding the given path → content pairs.
func FromMap(files map[string]string) *MapFileSystem {
	mfs := New()
	for p, content := range files {
		mfs.AddFile(p, content, 0o644)
	}
	return mfs
}

// AddFile stores content at p, replacing any existing file.
func (mfs *MapFileSystem) AddFile(p string, content string, mode fs.FileMode) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	mfs.mapFS[cleanPath(p)] = &fstest.MapFile{
		Data:    []byte(content),
		Mode:    mode,
		ModTime: mfs.modTime,
	}
}

func (mfs *MapFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	name = cleanPath(name)
	dir := path.Dir(name)
	if file, exists := mfs.mapFS[dir]; exists && !file.Mode.IsDir() {
		return &fs.PathError{Op: "open", Path: name, Err: fmt.Errorf("not a directory")}
	}

	mfs.mapFS[name] = &fstest.MapFile{
		Data:    append([]byte(nil), data...),
		Mode:    perm,
		ModTime: mfs.modTime,
	}
	return nil
}

func (mfs *MapFileSystem) ReadFile(name string) ([]byte, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	name = cleanPath(name)
	mfs.reads[name]++
	return fs.ReadFile(mfs.mapFS, name)
}

// MkdirAll records the directory; it fails when a file occupies the path.
func (mfs *MapFileSystem) MkdirAll(p string, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	p = cleanPath(p)
	if p == "." || p == "" {
		return nil
	}
	if file, exists := mfs.mapFS[p]; exists && !file.Mode.IsDir() {
		return &fs.PathError{Op: "mkdir", Path: p, Err: fmt.Errorf("not a directory")}
	}
	mfs.mapFS[p] = &fstest.MapFile{Mode: fs.ModeDir | perm.Perm(), ModTime: mfs.modTime}
	return nil
}

// RemoveAll drops p and every entry below it.
func (mfs *MapFileSystem) RemoveAll(p string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	p = cleanPath(p)
	if p == "." {
		mfs.mapFS = make(fstest.MapFS)
		return nil
	}
	prefix := p + "/"
	for filePath := range mfs.mapFS {
		if filePath == p || strings.HasPrefix(filePath, prefix) {
			delete(mfs.mapFS, filePath)
		}
	}
	return nil
}

func (mfs *MapFileSystem) Stat(name string) (fs.FileInfo, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	return fs.Stat(mfs.mapFS, cleanPath(name))
}

// Exists reports whether a file or an implied directory exists at p.
func (mfs *MapFileSystem) Exists(p string) bool {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	p = cleanPath(p)
	if _, exists := mfs.mapFS[p]; exists {
		return true
	}
	prefix := p + "/"
	for filePath := range mfs.mapFS {
		if strings.HasPrefix(filePath, prefix) {
			return true
		}
	}
	return false
}

func (mfs *MapFileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	return fs.ReadDir(mfs.mapFS, cleanPath(name))
}

func (mfs *MapFileSystem) Open(name string) (fs.File, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	return mfs.mapFS.Open(cleanPath(name))
}

// Files returns the sorted absolute paths of all regular files.
func (mfs *MapFileSystem) Files() []string {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	result := make([]string, 0, len(mfs.mapFS))
	for p, file := range mfs.mapFS {
		if file.Mode.IsDir() {
			continue
		}
		result = append(result, "/"+p)
	}
	sort.Strings(result)
	return result
}

// ReadCount returns how many times ReadFile was called for p.
func (mfs *MapFileSystem) ReadCount(p string) int {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	return mfs.reads[cleanPath(p)]
}

func cleanPath(p string) string {
	cleaned := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	if cleaned == "/" {
		return "."
	}
	return strings.TrimPrefix(cleaned, "/")
}
