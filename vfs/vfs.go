// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package vfs provides the filesystem seam between the key-value separation
// machinery and the host environment. Default is backed by the underlying
// operating system's filesystem; NewMem is an in-memory implementation for
// tests.
package vfs

import (
	"io"
	"os"
)

// File is a readable and writable file handle. Writers append sequentially;
// readers use ReadAt. A file opened for writing must be Synced before its
// contents are considered durable.
type File interface {
	io.Closer
	io.ReaderAt
	io.Writer
	Stat() (os.FileInfo, error)
	Sync() error
}

// FS is a namespace of files.
type FS interface {
	// Create creates the named file for writing, truncating it if it
	// already exists.
	Create(name string) (File, error)
	// Open opens the named file for reading.
	Open(name string) (File, error)
	// Remove removes the named file.
	Remove(name string) error
	// Rename renames a file. Overwrites the target if it exists.
	Rename(oldname, newname string) error
	// MkdirAll creates the named directory and any parents.
	MkdirAll(dir string, perm os.FileMode) error
	// List returns the names (not paths) of the files within dir.
	List(dir string) ([]string, error)
	// Stat returns info for the named file.
	Stat(name string) (os.FileInfo, error)
}

type defaultFS struct{}

// Default is the FS backed by the underlying operating system's filesystem.
var Default FS = defaultFS{}

func (defaultFS) Create(name string) (File, error) {
	return os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

func (defaultFS) Open(name string) (File, error) {
	return os.Open(name)
}

func (defaultFS) Remove(name string) error {
	return os.Remove(name)
}

func (defaultFS) Rename(oldname, newname string) error {
	return os.Rename(oldname, newname)
}

func (defaultFS) MkdirAll(dir string, perm os.FileMode) error {
	return os.MkdirAll(dir, perm)
}

func (defaultFS) List(dir string) ([]string, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Readdirnames(-1)
}

func (defaultFS) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}
