// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vsep

import (
	"github.com/darshanime/vsep/internal/base"
	"github.com/darshanime/vsep/vtable"
)

// BuildTable drains iter, an ordered stream of internal keys from a flush,
// into the sstable numbered meta.Number, separating large values into the
// vTable with the same number. Values shorter than opts.KVSepSize stay
// inline; the rest are appended to the vTable and the sstable stores an
// index entry in their place.
//
// On success meta holds the table's size and bounds, and vmeta describes the
// vTable (all zero if every value stayed inline, in which case no vTable
// file is left behind). The caller registers a non-empty vmeta with the
// manager and publishes the sstable in its manifest afterwards; the sstable
// is durable before the vTable is, never the other way around.
//
// On any error both files are unlinked and the error is returned: a
// malformed internal key or undecodable stream is corruption, I/O failures
// pass through.
func BuildTable(
	dbname string,
	opts *Options,
	tc TableCache,
	newTable NewTableBuilder,
	iter Iterator,
	meta *FileMetaData,
	vmeta *vtable.Meta,
) error {
	opts.EnsureDefaults()
	meta.FileSize = 0
	*vmeta = vtable.Meta{}

	iter.First()
	if !iter.Valid() {
		return iter.Error()
	}

	fname := base.TableFilePath(dbname, meta.Number)
	vtbname := base.VTableFilePath(dbname, meta.Number)

	f, err := opts.FS.Create(fname)
	if err != nil {
		return err
	}
	vf, err := opts.FS.Create(vtbname)
	if err != nil {
		_ = f.Close()
		_ = opts.FS.Remove(fname)
		return err
	}

	tb := newTable(f)
	vb := vtable.NewBuilder(vf)
	fClosed, vfClosed := false, false

	fail := func(err error) error {
		tb.Abandon()
		vb.Abandon()
		if !fClosed {
			_ = f.Close()
		}
		if !vfClosed {
			_ = vf.Close()
		}
		_ = opts.FS.Remove(fname)
		_ = opts.FS.Remove(vtbname)
		meta.FileSize = 0
		*vmeta = vtable.Meta{}
		return err
	}

	meta.Smallest = append([]byte(nil), iter.Key()...)
	var separated uint64
	var indexBuf []byte
	for ; iter.Valid(); iter.Next() {
		key := iter.Key()
		value := iter.Value()
		meta.Largest = append(meta.Largest[:0], key...)

		if uint64(len(value)) < opts.KVSepSize {
			if err := tb.Add(key, value); err != nil {
				return fail(err)
			}
			continue
		}

		parsed, err := base.ParseInternalKey(key)
		if err != nil {
			return fail(base.MarkCorruptionError(err))
		}
		if len(value) == 0 {
			return fail(base.CorruptionErrorf("vsep: flush: empty value for separated key %q", parsed.UserKey))
		}
		// The host prefixes values with a one-byte value kind; the vTable
		// stores the bare value.
		handle, err := vb.Add(vtable.Record{Key: parsed.UserKey, Value: value[1:]})
		if err != nil {
			return fail(err)
		}
		indexBuf = vtable.Index{FileNum: meta.Number, Handle: handle}.Encode(indexBuf[:0])
		if err := tb.Add(key, indexBuf); err != nil {
			return fail(err)
		}
		separated++
	}

	// Durability order: the sstable is finished, synced and closed before
	// the vTable is. An sstable must never be exposed to readers before the
	// vTable it points into is on disk.
	err = tb.Finish()
	if err == nil {
		meta.FileSize = tb.FileSize()
		err = f.Sync()
	}
	if err == nil {
		err = f.Close()
		fClosed = true
	}
	if err == nil {
		err = vb.Finish()
	}
	if err == nil {
		vmeta.Number = meta.Number
		vmeta.TableSize = vb.FileSize()
		vmeta.RecordsNum = vb.RecordCount()
		err = vf.Sync()
	}
	if err == nil {
		err = vf.Close()
		vfClosed = true
	}
	if err == nil && tc != nil {
		// Verify that the table is usable.
		err = tc.Verify(meta.Number, meta.FileSize)
	}
	if err == nil {
		err = iter.Error()
	}
	if err != nil {
		return fail(err)
	}

	if vmeta.TableSize == 0 {
		// Nothing was separated; don't keep an empty vTable around.
		_ = opts.FS.Remove(vtbname)
		*vmeta = vtable.Meta{}
	} else if opts.Metrics != nil {
		opts.Metrics.VTablesBuilt.Inc()
		opts.Metrics.RecordsSeparated.Add(float64(separated))
	}
	return nil
}
