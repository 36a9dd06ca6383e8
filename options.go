// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vsep

import (
	"github.com/darshanime/vsep/internal/base"
	"github.com/darshanime/vsep/vfs"
	"github.com/darshanime/vsep/vtable"
)

// Options holds the configuration of the key-value separation layer.
type Options struct {
	// KVSepSize is the minimum value byte length at or above which a value
	// is written to a vTable instead of inline in the sstable. A value of 0
	// routes every value to a vTable.
	KVSepSize uint64

	// GCThreshold is the total dead-vTable byte size at or above which the
	// manager triggers a background unlink. A value of 0 schedules GC as
	// soon as any vTable dies.
	GCThreshold uint64

	// FS provides filesystem access. Defaults to vfs.Default.
	FS vfs.FS

	// Logger for background GC progress and swallowed errors. Defaults to
	// base.DefaultLogger.
	Logger base.Logger

	// Metrics, if non-nil, is updated by flushes and the manager.
	Metrics *vtable.Metrics
}

// EnsureDefaults fills in unset options with their default values, returning
// the receiver for convenience. KVSepSize and GCThreshold are left alone:
// zero is meaningful for both.
func (o *Options) EnsureDefaults() *Options {
	if o.FS == nil {
		o.FS = vfs.Default
	}
	if o.Logger == nil {
		o.Logger = base.DefaultLogger
	}
	return o
}
