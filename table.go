// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package vsep extends an LSM-tree key-value store with key-value
// separation: at flush time, large values are routed out of the sstable into
// an append-only side file (a vTable), and the sstable keeps only a small
// index pointing into it. The vtable package holds the on-disk machinery;
// this package holds the flush-time separator, the fields codec layered
// above the key-value interface, and the seams to the host engine.
package vsep

import (
	"github.com/darshanime/vsep/internal/base"
	"github.com/darshanime/vsep/vfs"
)

// Iterator is the ordered key/value stream the host engine exposes. For
// BuildTable the keys are encoded internal keys drained from a memtable; for
// FindKeysByField they are user keys. Key and Value return slices that are
// only valid until the next call to Next.
type Iterator interface {
	First()
	Next()
	Valid() bool
	Key() []byte
	Value() []byte
	Error() error
}

// TableBuilder is the host's sstable builder. Add is called with encoded
// internal keys in ascending order.
type TableBuilder interface {
	Add(key, value []byte) error
	// Finish completes the table. The builder's file is synced and closed
	// by the caller, not by Finish.
	Finish() error
	// Abandon discards builder state after an error.
	Abandon()
	// FileSize returns the size of the table so far.
	FileSize() uint64
}

// NewTableBuilder constructs the host's sstable builder over a writable
// file.
type NewTableBuilder func(f vfs.File) TableBuilder

// TableCache verifies a newly written sstable is readable, the way the host
// would read it.
type TableCache interface {
	Verify(fileNum base.FileNum, fileSize uint64) error
}

// FileMetaData describes a flushed sstable. Number is allocated by the host
// before the flush; the rest is filled by BuildTable.
type FileMetaData struct {
	Number   base.FileNum
	FileSize uint64
	// Smallest and Largest are the bounds of the table, as encoded internal
	// keys.
	Smallest []byte
	Largest  []byte
}
