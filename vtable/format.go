// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package vtable implements value tables: append-only side files that hold
// the values separated out of sstables at flush time, plus the manager that
// tracks their liveness and garbage collects dead files.
package vtable

import (
	"encoding/binary"

	"github.com/darshanime/vsep/internal/base"
)

/*
A vTable file is a bare sequence of framed records. There is no header or
footer; files are written once, read many times and deleted whole. Each
record is framed as:

	[uint32 little-endian record_size]
	[varint64 len(key)] [key bytes] [value bytes]

record_size counts the bytes following the fixed 4-byte header. The key is
the user key (no seqnum/kind trailer); the value is the user value with the
host's one-byte value-kind prefix already stripped. There is no per-record
checksum; durability rides on Flush+Sync of the underlying file.

A Handle is an in-sstable pointer to one record: (varint64 offset,
varint64 size), where size includes the 4-byte header. An Index is the
value the sstable stores in place of a separated value:

	[0x01] [varint64 file_number] [Handle]

The leading tag byte is how the host tells an inline value from a vTable
index with a single byte test at read time; the host strips its own one-byte
value-kind prefix before that test applies.
*/

// RecordHeaderSize is the fixed length of the framing header preceding each
// record body.
const RecordHeaderSize = 4

// vtableIndexTag is the leading byte of an encoded Index.
const vtableIndexTag = 1

// Record is the atom of a vTable: a user key and its separated value.
type Record struct {
	Key   []byte
	Value []byte
}

// Size returns the number of payload bytes in the record.
func (r Record) Size() int { return len(r.Key) + len(r.Value) }

// EncodedLen returns the number of bytes the record occupies on disk,
// including the framing header. It equals the Handle.Size of the record.
func (r Record) EncodedLen() uint64 {
	n := binary.PutUvarint(make([]byte, binary.MaxVarintLen64), uint64(len(r.Key)))
	return uint64(RecordHeaderSize + n + len(r.Key) + len(r.Value))
}

// EncodeRecord encodes r, appending the framed body to buf and filling
// header with the body's length. The caller must ensure the body length
// stays below 1<<32.
func EncodeRecord(r Record, buf []byte) (header [RecordHeaderSize]byte, body []byte) {
	body = binary.AppendUvarint(buf, uint64(len(r.Key)))
	body = append(body, r.Key...)
	body = append(body, r.Value...)
	binary.LittleEndian.PutUint32(header[:], uint32(len(body)))
	return header, body
}

// DecodeRecordSize decodes the 4-byte framing header, returning the length
// of the record body that follows it.
func DecodeRecordSize(b []byte) (uint32, error) {
	if len(b) < RecordHeaderSize {
		return 0, base.CorruptionErrorf("vtable: record header too short: %d bytes", len(b))
	}
	return binary.LittleEndian.Uint32(b), nil
}

// DecodeRecord decodes a record body of exactly the size announced by its
// header. The returned record aliases b.
func DecodeRecord(b []byte) (Record, error) {
	keyLen, n := binary.Uvarint(b)
	if n <= 0 {
		return Record{}, base.CorruptionErrorf("vtable: record body: bad key length")
	}
	b = b[n:]
	if keyLen > uint64(len(b)) {
		return Record{}, base.CorruptionErrorf("vtable: record body: key length %d exceeds %d remaining bytes", keyLen, len(b))
	}
	return Record{Key: b[:keyLen:keyLen], Value: b[keyLen:]}, nil
}

// Handle is a pointer into a vTable file. Size covers the framing header as
// well as the record body.
type Handle struct {
	Offset uint64
	Size   uint64
}

// EncodeVarints encodes the handle, appending to buf.
func (h Handle) EncodeVarints(buf []byte) []byte {
	buf = binary.AppendUvarint(buf, h.Offset)
	return binary.AppendUvarint(buf, h.Size)
}

// DecodeHandle decodes a handle from b, returning the number of bytes
// consumed. It returns n == 0 if b does not hold two varints.
func DecodeHandle(b []byte) (Handle, int) {
	offset, n := binary.Uvarint(b)
	if n <= 0 {
		return Handle{}, 0
	}
	size, m := binary.Uvarint(b[n:])
	if m <= 0 {
		return Handle{}, 0
	}
	return Handle{Offset: offset, Size: size}, n + m
}

// Index is the sstable-side placeholder for a separated value: which vTable
// holds the record, and where within it.
type Index struct {
	FileNum base.FileNum
	Handle  Handle
}

// Encode encodes the index, appending to buf.
func (i Index) Encode(buf []byte) []byte {
	buf = append(buf, vtableIndexTag)
	buf = binary.AppendUvarint(buf, uint64(i.FileNum))
	return i.Handle.EncodeVarints(buf)
}

// DecodeIndex decodes an encoded index. Any input that does not begin with
// the index tag byte is rejected as corruption.
func DecodeIndex(b []byte) (Index, error) {
	if len(b) == 0 || b[0] != vtableIndexTag {
		return Index{}, base.CorruptionErrorf("vtable: not a vtable index")
	}
	b = b[1:]
	fileNum, n := binary.Uvarint(b)
	if n <= 0 {
		return Index{}, base.CorruptionErrorf("vtable: index: bad file number")
	}
	h, m := DecodeHandle(b[n:])
	if m == 0 {
		return Index{}, base.CorruptionErrorf("vtable: index: bad handle")
	}
	return Index{FileNum: base.FileNum(fileNum), Handle: h}, nil
}

// IsIndex reports whether v begins with the vTable index tag. The host uses
// this single byte test on sstable values to decide whether a read must be
// resolved through a vTable.
func IsIndex(v []byte) bool {
	return len(v) > 0 && v[0] == vtableIndexTag
}
