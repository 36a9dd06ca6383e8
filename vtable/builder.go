// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vtable

import (
	"bufio"

	"github.com/darshanime/vsep/vfs"
)

// Builder appends framed records to a single vTable file, handing back a
// Handle per record. Records land in the file in Add order, which for a
// flush is key-ascending.
//
// A Builder is not safe for concurrent use. Once it fails, it is sticky:
// further Adds are no-ops returning the first error.
type Builder struct {
	f       vfs.File
	w       *bufio.Writer
	offset  uint64
	records uint64
	err     error
	buf     []byte
}

// NewBuilder returns a Builder writing to f. The caller retains ownership of
// f: Finish flushes buffered writes but does not sync or close, so the
// caller can order sstable and vTable durability.
func NewBuilder(f vfs.File) *Builder {
	return &Builder{f: f, w: bufio.NewWriter(f)}
}

// Add appends a record and returns its handle. The handle's offset is the
// file offset before the write; its size covers the framing header.
func (b *Builder) Add(r Record) (Handle, error) {
	if b.err != nil {
		return Handle{}, b.err
	}
	header, body := EncodeRecord(r, b.buf[:0])
	b.buf = body
	if _, b.err = b.w.Write(header[:]); b.err != nil {
		return Handle{}, b.err
	}
	if _, b.err = b.w.Write(body); b.err != nil {
		return Handle{}, b.err
	}
	h := Handle{Offset: b.offset, Size: uint64(RecordHeaderSize + len(body))}
	b.offset += h.Size
	b.records++
	return h, nil
}

// Finish flushes buffered writes to the file. It does not sync or close.
func (b *Builder) Finish() error {
	if b.err != nil {
		return b.err
	}
	b.err = b.w.Flush()
	return b.err
}

// Abandon discards the builder's in-memory state. The caller unlinks the
// file.
func (b *Builder) Abandon() {
	b.w = nil
	b.buf = nil
}

// FileSize returns the number of bytes appended so far.
func (b *Builder) FileSize() uint64 { return b.offset }

// RecordCount returns the number of records added so far.
func (b *Builder) RecordCount() uint64 { return b.records }

// Err returns the builder's latched error.
func (b *Builder) Err() error { return b.err }
