// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package base defines the leaf types shared by every layer of the key-value
// separation machinery: the error taxonomy, internal key encoding, file
// numbers and filenames, and the logger seam.
package base

import (
	"encoding/binary"
	"fmt"
)

// SeqNum is a sequence number associated with an internal key.
type SeqNum uint64

// InternalKeyKind enumerates the kind of key stored in the trailer of an
// internal key. The kind also appears as the one-byte prefix of values the
// host engine hands to the flush iterator; that prefix is stripped before a
// value is written to a vTable.
type InternalKeyKind uint8

const (
	InternalKeyKindDelete InternalKeyKind = 0
	InternalKeyKindSet    InternalKeyKind = 1

	InternalKeyKindMax = InternalKeyKindSet
)

// internalKeyTrailerLen is the length of the seqnum+kind trailer appended to
// a user key to form an internal key.
const internalKeyTrailerLen = 8

// ParsedInternalKey is an internal key split into its parts.
type ParsedInternalKey struct {
	UserKey []byte
	SeqNum  SeqNum
	Kind    InternalKeyKind
}

// ParseInternalKey splits an encoded internal key into its user key, sequence
// number and kind. It returns a corruption error if the encoding is too short
// or carries an unknown kind.
func ParseInternalKey(encoded []byte) (ParsedInternalKey, error) {
	n := len(encoded) - internalKeyTrailerLen
	if n < 0 {
		return ParsedInternalKey{}, CorruptionErrorf("vsep: invalid internal key %q: too short", encoded)
	}
	trailer := binary.LittleEndian.Uint64(encoded[n:])
	kind := InternalKeyKind(trailer & 0xff)
	if kind > InternalKeyKindMax {
		return ParsedInternalKey{}, CorruptionErrorf("vsep: invalid internal key kind %d", kind)
	}
	return ParsedInternalKey{
		UserKey: encoded[:n:n],
		SeqNum:  SeqNum(trailer >> 8),
		Kind:    kind,
	}, nil
}

// MakeInternalKey encodes userKey, seqNum and kind into an internal key.
func MakeInternalKey(userKey []byte, seqNum SeqNum, kind InternalKeyKind) []byte {
	encoded := make([]byte, len(userKey)+internalKeyTrailerLen)
	copy(encoded, userKey)
	binary.LittleEndian.PutUint64(encoded[len(userKey):], (uint64(seqNum)<<8)|uint64(kind))
	return encoded
}

// FileNum is an identifier for a file within a database directory. vTables
// and sstables share the same number namespace; numbers are allocated
// monotonically by the host engine.
type FileNum uint64

// String implements fmt.Stringer, printing the file number the way it appears
// in filenames.
func (fn FileNum) String() string { return fmt.Sprintf("%06d", uint64(fn)) }
