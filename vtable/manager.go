// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vtable

import (
	"encoding/binary"
	"os"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/darshanime/vsep/internal/base"
	"github.com/darshanime/vsep/vfs"
)

// Meta describes one vTable. It is the unit of the manager's manifest; the
// runtime reference count is deliberately not part of it and is not
// persisted.
type Meta struct {
	// Number is the vTable's file number, drawn from the same namespace as
	// sstable numbers.
	Number base.FileNum
	// RecordsNum is the total number of records written at build time.
	RecordsNum uint64
	// InvalidNum is the cumulative number of invalidations reported by the
	// host's compactions. The vTable is dead once InvalidNum >= RecordsNum.
	InvalidNum uint64
	// TableSize is the file's size in bytes.
	TableSize uint64
}

// Dead reports whether every record in the vTable has been invalidated.
func (m Meta) Dead() bool { return m.InvalidNum >= m.RecordsNum }

// Encode encodes the meta as a varint quartet, appending to buf.
func (m Meta) Encode(buf []byte) []byte {
	buf = binary.AppendUvarint(buf, uint64(m.Number))
	buf = binary.AppendUvarint(buf, m.RecordsNum)
	buf = binary.AppendUvarint(buf, m.InvalidNum)
	return binary.AppendUvarint(buf, m.TableSize)
}

// DecodeMeta decodes one encoded Meta from b, returning the remainder.
func DecodeMeta(b []byte) (Meta, []byte, error) {
	var m Meta
	fields := []*uint64{(*uint64)(&m.Number), &m.RecordsNum, &m.InvalidNum, &m.TableSize}
	for _, f := range fields {
		v, n := binary.Uvarint(b)
		if n <= 0 {
			return Meta{}, nil, base.CorruptionErrorf("vtable: manifest: truncated meta entry")
		}
		*f = v
		b = b[n:]
	}
	return m, b, nil
}

type managedVTable struct {
	Meta
	refs    int64
	readers []*Reader
}

// Manager owns the authoritative set of vTables for one database: per-file
// metadata, invalidation counts, reference counts of open readers, manifest
// persistence, and background garbage collection of dead files.
//
// All state is guarded by a single mutex. The background GC worker receives
// an owned list of file numbers detached from that state before the worker
// starts, and never re-enters the manager.
type Manager struct {
	dbname      string
	fs          vfs.FS
	gcThreshold uint64
	logger      base.Logger
	metrics     *Metrics

	mu      sync.Mutex
	vtables map[base.FileNum]*managedVTable
	// invalid holds the numbers of vTables believed dead. Deduplicated and
	// filtered on every GC pass.
	invalid []base.FileNum

	bg sync.WaitGroup
}

// NewManager returns a Manager for the database at dbname. gcThreshold is
// the total dead-vTable byte size at or above which a background unlink is
// scheduled. logger and metrics may be nil.
func NewManager(dbname string, fs vfs.FS, gcThreshold uint64, logger base.Logger, metrics *Metrics) *Manager {
	if logger == nil {
		logger = base.DefaultLogger
	}
	return &Manager{
		dbname:      dbname,
		fs:          fs,
		gcThreshold: gcThreshold,
		logger:      logger,
		metrics:     metrics,
		vtables:     make(map[base.FileNum]*managedVTable),
	}
}

// Add registers a newly built vTable, overwriting any existing entry with
// the same number.
func (m *Manager) Add(meta Meta) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vtables[meta.Number]; !ok && m.metrics != nil {
		m.metrics.LiveVTables.Inc()
	}
	m.vtables[meta.Number] = &managedVTable{Meta: meta}
}

// Remove erases the entry for fn if present. Idempotent.
func (m *Manager) Remove(fn base.FileNum) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vtables[fn]; ok {
		delete(m.vtables, fn)
		if m.metrics != nil {
			m.metrics.LiveVTables.Dec()
		}
	}
}

// Lookup returns the meta for fn.
func (m *Manager) Lookup(fn base.FileNum) (Meta, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vt, ok := m.vtables[fn]
	if !ok {
		return Meta{}, false
	}
	return vt.Meta, true
}

// Metas returns the metadata of every managed vTable, sorted by number.
func (m *Manager) Metas() []Meta {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedMetasLocked()
}

func (m *Manager) sortedMetasLocked() []Meta {
	metas := make([]Meta, 0, len(m.vtables))
	for _, vt := range m.vtables {
		metas = append(metas, vt.Meta)
	}
	slices.SortFunc(metas, func(a, b Meta) int {
		switch {
		case a.Number < b.Number:
			return -1
		case a.Number > b.Number:
			return 1
		default:
			return 0
		}
	})
	return metas
}

// AddInvalid records one invalidation against fn: a compaction dropped an
// sstable entry whose index pointed into that vTable. If the vTable becomes
// dead it is queued for garbage collection, and a GC pass may be scheduled.
//
// Invalidations for a given file are serialized by the host's compaction
// scheduling; the host must not double-count.
func (m *Manager) AddInvalid(fn base.FileNum) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	vt, ok := m.vtables[fn]
	if !ok {
		return base.CorruptionErrorf("vtable: invalid vtable number %s", fn)
	}
	if vt.InvalidNum < vt.RecordsNum {
		vt.InvalidNum++
	}
	if vt.Dead() {
		m.invalid = append(m.invalid, fn)
		if m.metrics != nil {
			m.metrics.DeadBytes.Set(float64(m.deadBytesLocked()))
		}
	}
	m.maybeScheduleGCLocked()
	return nil
}

// Ref pins fn against garbage collection. Used by the host around read
// paths that hold a vTable index but no open Reader.
func (m *Manager) Ref(fn base.FileNum) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if vt, ok := m.vtables[fn]; ok {
		vt.refs++
	}
}

// Unref drops a pin taken with Ref. It does not itself schedule a GC pass;
// the next invalidation or an explicit MaybeScheduleGC picks up newly
// eligible files.
func (m *Manager) Unref(fn base.FileNum) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if vt, ok := m.vtables[fn]; ok && vt.refs > 0 {
		vt.refs--
	}
}

// refReader is Ref plus registration of the reader for invalidation if the
// file is later scheduled for deletion.
func (m *Manager) refReader(fn base.FileNum, r *Reader) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	vt, ok := m.vtables[fn]
	if !ok {
		return base.TimeoutErrorf("vtable %s: no longer managed", fn)
	}
	vt.refs++
	vt.readers = append(vt.readers, r)
	return nil
}

func (m *Manager) unrefReader(fn base.FileNum, r *Reader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vt, ok := m.vtables[fn]
	if !ok {
		// The file was detached while the reader was open; nothing to
		// unpin.
		return
	}
	if vt.refs > 0 {
		vt.refs--
	}
	vt.readers = slices.DeleteFunc(vt.readers, func(other *Reader) bool { return other == r })
}

func (m *Manager) deadBytesLocked() uint64 {
	var total uint64
	for _, vt := range m.vtables {
		if vt.Dead() {
			total += vt.TableSize
		}
	}
	return total
}

// MaybeScheduleGC runs a GC pass: if the dead, unreferenced vTables
// accumulate at least gcThreshold bytes, they are detached from the
// manager's state and a background worker unlinks their files. Returns
// immediately; unlink errors are logged, not surfaced.
func (m *Manager) MaybeScheduleGC() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maybeScheduleGCLocked()
}

func (m *Manager) maybeScheduleGCLocked() {
	slices.Sort(m.invalid)
	m.invalid = slices.Compact(m.invalid)

	var eligible []base.FileNum
	var bytes uint64
	for _, fn := range m.invalid {
		vt, ok := m.vtables[fn]
		if !ok {
			// Erased with Remove after it was queued.
			continue
		}
		if !vt.Dead() || vt.refs > 0 {
			continue
		}
		eligible = append(eligible, fn)
		bytes += vt.TableSize
	}
	if len(eligible) == 0 || bytes < m.gcThreshold {
		return
	}

	// Detach the work list from manager state before the worker starts, so
	// the worker owns it outright and the remaining state stays consistent
	// even if the worker crashes.
	for _, fn := range eligible {
		vt := m.vtables[fn]
		for _, r := range vt.readers {
			r.invalidate()
		}
		delete(m.vtables, fn)
		if m.metrics != nil {
			m.metrics.LiveVTables.Dec()
		}
	}
	detached := eligible
	m.invalid = slices.DeleteFunc(m.invalid, func(fn base.FileNum) bool {
		return slices.Contains(detached, fn)
	})
	if m.metrics != nil {
		m.metrics.DeadBytes.Set(float64(m.deadBytesLocked()))
	}

	m.bg.Add(1)
	go m.backgroundGC(detached, bytes)
}

// backgroundGC unlinks the detached files. It never re-enters the manager's
// state.
func (m *Manager) backgroundGC(files []base.FileNum, bytes uint64) {
	defer m.bg.Done()
	for _, fn := range files {
		path := base.VTableFilePath(m.dbname, fn)
		if err := m.fs.Remove(path); err != nil {
			// A leaked file is acceptable; the host reaps it on the next
			// open via file-number cross-check.
			m.logger.Errorf("vtable: gc: remove %s: %v", path, err)
		}
	}
	m.logger.Infof("vtable: gc: removed %d files, %d bytes", len(files), bytes)
	if m.metrics != nil {
		m.metrics.GCRuns.Inc()
		m.metrics.BytesReclaimed.Add(float64(bytes))
	}
}

// Save persists the manager's state to the manifest, writing a temporary
// file and renaming it into place.
func (m *Manager) Save() error {
	m.mu.Lock()
	metas := m.sortedMetasLocked()
	m.mu.Unlock()

	buf := binary.AppendUvarint(nil, uint64(len(metas)))
	for _, meta := range metas {
		buf = meta.Encode(buf)
	}

	fname := base.VTableManagerFilePath(m.dbname)
	tmpname := fname + ".tmp"
	f, err := m.fs.Create(tmpname)
	if err != nil {
		return errors.Wrap(err, "vtable: create manifest")
	}
	if _, err = f.Write(buf); err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = m.fs.Remove(tmpname)
		return errors.Wrap(err, "vtable: write manifest")
	}
	return errors.Wrap(m.fs.Rename(tmpname, fname), "vtable: install manifest")
}

// Load recovers the manager's state from the manifest. An absent manifest
// yields an empty manager; a corrupt one is an error, and the host must
// abort the open rather than run with partial state. Load assumes no
// concurrent mutators.
func (m *Manager) Load() error {
	fname := base.VTableManagerFilePath(m.dbname)
	f, err := m.fs.Open(fname)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return errors.Wrap(err, "vtable: open manifest")
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "vtable: stat manifest")
	}
	buf := make([]byte, fi.Size())
	if _, err := f.ReadAt(buf, 0); err != nil && fi.Size() > 0 {
		return errors.Wrap(err, "vtable: read manifest")
	}

	count, n := binary.Uvarint(buf)
	if n <= 0 {
		return base.CorruptionErrorf("vtable: manifest: bad entry count")
	}
	buf = buf[n:]

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := uint64(0); i < count; i++ {
		var meta Meta
		meta, buf, err = DecodeMeta(buf)
		if err != nil {
			return err
		}
		if meta.Number == 0 {
			continue
		}
		if _, ok := m.vtables[meta.Number]; !ok && m.metrics != nil {
			m.metrics.LiveVTables.Inc()
		}
		m.vtables[meta.Number] = &managedVTable{Meta: meta}
		if meta.Dead() {
			m.invalid = append(m.invalid, meta.Number)
		}
	}
	if m.metrics != nil {
		m.metrics.DeadBytes.Set(float64(m.deadBytesLocked()))
	}
	return nil
}

// Close waits for any in-flight background GC workers to finish.
func (m *Manager) Close() error {
	m.bg.Wait()
	return nil
}
