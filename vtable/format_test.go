// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vtable

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/darshanime/vsep/internal/base"
	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrip(t *testing.T) {
	testCases := []Record{
		{Key: []byte("k"), Value: []byte("v")},
		{Key: []byte("key"), Value: []byte(strings.Repeat("x", 1024))},
		{Key: []byte(strings.Repeat("k", 300)), Value: nil},
		{Key: nil, Value: []byte("value-only")},
		{Key: nil, Value: nil},
	}
	for _, rec := range testCases {
		header, body := EncodeRecord(rec, nil)

		size, err := DecodeRecordSize(header[:])
		require.NoError(t, err)
		require.Equal(t, uint32(len(body)), size)

		decoded, err := DecodeRecord(body)
		require.NoError(t, err)
		require.Equal(t, string(rec.Key), string(decoded.Key))
		require.Equal(t, string(rec.Value), string(decoded.Value))

		require.Equal(t, uint64(RecordHeaderSize+len(body)), rec.EncodedLen())
	}
}

func TestEmptyRecordEncoding(t *testing.T) {
	// An empty record is 4 bytes of header plus a single varint-zero byte.
	header, body := EncodeRecord(Record{}, nil)
	require.Equal(t, []byte{0}, body)
	require.Equal(t, uint32(1), binary.LittleEndian.Uint32(header[:]))
	require.Equal(t, uint64(5), Record{}.EncodedLen())
}

func TestDecodeRecordSizeShort(t *testing.T) {
	for n := 0; n < RecordHeaderSize; n++ {
		_, err := DecodeRecordSize(make([]byte, n))
		require.Error(t, err)
		require.True(t, base.IsCorruption(err))
	}
}

func TestDecodeRecordCorruption(t *testing.T) {
	// A zero-length body cannot hold the key-length varint.
	_, err := DecodeRecord(nil)
	require.True(t, base.IsCorruption(err))

	// Key length exceeding the remaining bytes.
	b := binary.AppendUvarint(nil, 100)
	b = append(b, "short"...)
	_, err = DecodeRecord(b)
	require.True(t, base.IsCorruption(err))

	// Truncated varint.
	_, err = DecodeRecord([]byte{0x80})
	require.True(t, base.IsCorruption(err))
}

func TestHandleRoundTrip(t *testing.T) {
	testCases := []Handle{
		{},
		{Offset: 0, Size: 5},
		{Offset: 1030, Size: 1030},
		{Offset: 1<<40 + 7, Size: 1 << 33},
	}
	for _, h := range testCases {
		buf := h.EncodeVarints(nil)
		decoded, n := DecodeHandle(buf)
		require.Equal(t, len(buf), n)
		require.Equal(t, h, decoded)
	}

	_, n := DecodeHandle(nil)
	require.Zero(t, n)
	_, n = DecodeHandle([]byte{0x80})
	require.Zero(t, n)
	// One varint only.
	_, n = DecodeHandle(binary.AppendUvarint(nil, 42))
	require.Zero(t, n)
}

func TestIndexRoundTrip(t *testing.T) {
	testCases := []Index{
		{FileNum: 1, Handle: Handle{Offset: 0, Size: 5}},
		{FileNum: 123456, Handle: Handle{Offset: 1 << 20, Size: 4096}},
	}
	for _, idx := range testCases {
		buf := idx.Encode(nil)
		require.True(t, IsIndex(buf))
		decoded, err := DecodeIndex(buf)
		require.NoError(t, err)
		require.Equal(t, idx, decoded)
	}
}

func TestDecodeIndexCorruption(t *testing.T) {
	_, err := DecodeIndex(nil)
	require.True(t, base.IsCorruption(err))

	// Any leading byte other than the index tag is rejected.
	for _, tag := range []byte{0, 2, 0x7f, 0xff} {
		buf := Index{FileNum: 9, Handle: Handle{Offset: 1, Size: 2}}.Encode(nil)
		buf[0] = tag
		require.False(t, IsIndex(buf))
		_, err := DecodeIndex(buf)
		require.True(t, base.IsCorruption(err))
	}

	// Tag with nothing after it.
	_, err = DecodeIndex([]byte{vtableIndexTag})
	require.True(t, base.IsCorruption(err))

	// Tag and file number, but a truncated handle.
	buf := append([]byte{vtableIndexTag}, binary.AppendUvarint(nil, 7)...)
	_, err = DecodeIndex(buf)
	require.True(t, base.IsCorruption(err))
}
