// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "github.com/cockroachdb/errors"

// ErrCorruption is a marker for corruption errors: on-disk framing or decoding
// failed, or a size did not match what a handle promised. A corruption error
// is unrecoverable for that read but not necessarily fatal to the store.
var ErrCorruption = errors.New("vsep: corruption")

// ErrTimeout is a marker for soft, retryable errors: the reader observed a
// file that was invalidated or unlinked beneath it. Callers should retry
// against a fresher version.
var ErrTimeout = errors.New("vsep: timeout")

// CorruptionErrorf formats according to format and args, and returns an error
// that matches ErrCorruption via errors.Is.
func CorruptionErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrCorruption)
}

// MarkCorruptionError marks err as a corruption error.
func MarkCorruptionError(err error) error {
	if errors.Is(err, ErrCorruption) {
		return err
	}
	return errors.Mark(err, ErrCorruption)
}

// TimeoutErrorf formats according to format and args, and returns an error
// that matches ErrTimeout via errors.Is.
func TimeoutErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrTimeout)
}

// IsCorruption reports whether err is a corruption error.
func IsCorruption(err error) bool {
	return errors.Is(err, ErrCorruption)
}

// IsTimeout reports whether err is a soft, retryable timeout error.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
