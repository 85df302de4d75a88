/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package fs is the filesystem seam between dualpack and the disk.
//
// Project sources are read through it by the loader and the config layer,
// and the build command writes the emitted package through it. Tests swap
// in internal/mapfs so no test touches the real disk.
package fs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSystem is the set of operations dualpack needs. It embeds fs.FS so
// test globs can be expanded with fs.WalkDir.
type FileSystem interface {
	fs.FS

	ReadFile(name string) ([]byte, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	Stat(name string) (fs.FileInfo, error)
	Exists(path string) bool

	WriteFile(name string, data []byte, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
	// RemoveAll deletes path and everything below it. A missing path is
	// not an error.
	RemoveAll(path string) error
}

// OSFileSystem is the FileSystem backed by the os package.
type OSFileSystem struct{}

// NewOSFileSystem returns the disk-backed FileSystem.
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

func (*OSFileSystem) Open(name string) (fs.File, error)          { return os.Open(name) }
func (*OSFileSystem) ReadFile(name string) ([]byte, error)       { return os.ReadFile(name) }
func (*OSFileSystem) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }
func (*OSFileSystem) Stat(name string) (fs.FileInfo, error)      { return os.Stat(name) }
func (*OSFileSystem) RemoveAll(path string) error                { return os.RemoveAll(path) }

func (*OSFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (*OSFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Exists reports whether anything is present at path. Permission errors
// count as present so callers don't silently overwrite.
func (*OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

// WriteFileAll writes data to name, creating parent directories first.
func WriteFileAll(filesystem FileSystem, name string, data []byte) error {
	if err := filesystem.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	return filesystem.WriteFile(name, data, 0o644)
}

// ReplaceDir clears dir and writes files into it, keyed by slash paths
// relative to dir. Files left over from an earlier build are gone afterward.
func ReplaceDir(filesystem FileSystem, dir string, files map[string][]byte) error {
	if err := filesystem.RemoveAll(dir); err != nil {
		return err
	}
	if err := filesystem.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for rel, data := range files {
		if err := WriteFileAll(filesystem, filepath.Join(dir, filepath.FromSlash(rel)), data); err != nil {
			return err
		}
	}
	return nil
}
