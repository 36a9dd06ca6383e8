// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vtable

import (
	"io"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/darshanime/vsep/internal/base"
	"github.com/darshanime/vsep/vfs"
)

// Reader resolves handles back to records with random-access reads of one
// vTable file.
//
// A Reader bound to a Manager participates in reference counting: the file
// it reads cannot be garbage collected while the reader is open. If the
// manager nevertheless invalidates the file beneath the reader (or the
// reader has been closed), Get fails with a timeout error, a soft signal to
// retry against a fresher version.
type Reader struct {
	f       vfs.File
	fileNum base.FileNum
	manager *Manager
	stale   atomic.Bool
}

// OpenReader opens the vTable at path. If m is non-nil the reader registers
// itself with the manager, pinning the file against garbage collection until
// Close.
func OpenReader(fs vfs.FS, path string, fileNum base.FileNum, m *Manager) (*Reader, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	r := &Reader{f: f, fileNum: fileNum, manager: m}
	if m != nil {
		if err := m.refReader(fileNum, r); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return r, nil
}

// Get reads the record h points at.
func (r *Reader) Get(h Handle) (Record, error) {
	if r.stale.Load() {
		return Record{}, base.TimeoutErrorf("vtable %s: stale file", r.fileNum)
	}
	buf := make([]byte, h.Size)
	n, err := r.f.ReadAt(buf, int64(h.Offset))
	if err != nil && err != io.EOF {
		if r.stale.Load() {
			return Record{}, base.TimeoutErrorf("vtable %s: stale file", r.fileNum)
		}
		return Record{}, errors.Wrapf(err, "vtable %s: read", r.fileNum)
	}
	if uint64(n) != h.Size {
		return Record{}, base.CorruptionErrorf("vtable %s: read %d bytes, handle promised %d", r.fileNum, n, h.Size)
	}
	size, err := DecodeRecordSize(buf)
	if err != nil {
		return Record{}, err
	}
	body := buf[RecordHeaderSize:]
	if uint64(size) != uint64(len(body)) {
		return Record{}, base.CorruptionErrorf("vtable %s: header size %d does not match body size %d", r.fileNum, size, len(body))
	}
	return DecodeRecord(body)
}

// Close releases the file handle and, for a manager-bound reader, drops the
// reference pinning the file. Reads after Close fail with a timeout error.
func (r *Reader) Close() error {
	r.stale.Store(true)
	if r.manager != nil {
		r.manager.unrefReader(r.fileNum, r)
		r.manager = nil
	}
	return r.f.Close()
}

// invalidate marks the reader stale; the manager calls it when the file is
// scheduled for deletion.
func (r *Reader) invalidate() {
	r.stale.Store(true)
}
