// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vsep

import (
	"encoding/binary"
	"testing"

	"github.com/darshanime/vsep/internal/base"
	"github.com/stretchr/testify/require"
)

func TestFieldsRoundTrip(t *testing.T) {
	f := NewFields([]Field{
		{Name: "name", Value: "Arcueid01"},
		{Name: "address", Value: "tYpeMuuN"},
		{Name: "phone", Value: "122-233-4455"},
	})
	decoded, err := DecodeFields(f.Encode())
	require.NoError(t, err)
	require.Equal(t, f, decoded)
	require.Equal(t, []Field{
		{Name: "address", Value: "tYpeMuuN"},
		{Name: "name", Value: "Arcueid01"},
		{Name: "phone", Value: "122-233-4455"},
	}, decoded.Pairs())
}

func TestFieldsEncodeDeterministic(t *testing.T) {
	// Two mappings with the same pairs encode identically regardless of
	// insertion order.
	a := NewFields([]Field{{Name: "x", Value: "1"}, {Name: "y", Value: "2"}})
	b := NewFields([]Field{{Name: "y", Value: "2"}, {Name: "x", Value: "1"}})
	require.Equal(t, a.Encode(), b.Encode())
}

func TestFieldsEmptyValues(t *testing.T) {
	f := NewFields([]Field{{Name: "present", Value: ""}})
	decoded, err := DecodeFields(f.Encode())
	require.NoError(t, err)
	require.Equal(t, f, decoded)

	// An empty mapping encodes to nothing and decodes back to empty.
	decoded, err = DecodeFields(nil)
	require.NoError(t, err)
	require.Empty(t, decoded)
}

func TestFieldsGetSet(t *testing.T) {
	f := NewFields([]Field{{Name: "a", Value: "1"}})
	require.Equal(t, "1", f.Get("a"))

	// Get of an absent name returns "" and does not insert.
	require.Equal(t, "", f.Get("missing"))
	require.Len(t, f, 1)

	f.Set("b", "2")
	f.Set("a", "overwritten")
	require.Equal(t, "overwritten", f.Get("a"))
	require.Equal(t, "2", f.Get("b"))
	require.Len(t, f, 2)
}

func TestFieldsSize(t *testing.T) {
	f := NewFields([]Field{
		{Name: "ab", Value: "cde"},
		{Name: "f", Value: ""},
	})
	require.Equal(t, 6, f.Size())
}

func TestDecodeFieldsCorruption(t *testing.T) {
	// Outer frame promising more bytes than remain.
	b := binary.AppendUvarint(nil, 100)
	b = append(b, "short"...)
	_, err := DecodeFields(b)
	require.True(t, base.IsCorruption(err))

	// Name size overflowing its field.
	field := binary.AppendUvarint(nil, 50)
	b = binary.AppendUvarint(nil, uint64(len(field)))
	b = append(b, field...)
	_, err = DecodeFields(b)
	require.True(t, base.IsCorruption(err))

	// Truncated varint.
	_, err = DecodeFields([]byte{0x80})
	require.True(t, base.IsCorruption(err))
}

// userKV is a user-keyspace iterator over in-memory pairs.
type userKV struct {
	keys   []string
	values [][]byte
	i      int
}

func (it *userKV) First()        { it.i = 0 }
func (it *userKV) Next()         { it.i++ }
func (it *userKV) Valid() bool   { return it.i < len(it.keys) }
func (it *userKV) Key() []byte   { return []byte(it.keys[it.i]) }
func (it *userKV) Value() []byte { return it.values[it.i] }
func (it *userKV) Error() error  { return nil }

func TestFindKeysByField(t *testing.T) {
	harry := NewFields([]Field{{Name: "test_name", Value: "Harry"}}).Encode()
	other := NewFields([]Field{{Name: "test_name", Value: "Sally"}}).Encode()
	unrelated := NewFields([]Field{{Name: "city", Value: "Harry"}}).Encode()

	it := &userKV{
		keys: []string{"k1", "k2", "k3", "k4", "k5"},
		values: [][]byte{
			harry,
			other,
			harry,
			unrelated,
			{0x80}, // not a fields value; skipped
		},
	}
	keys, err := FindKeysByField(it, "test_name", "Harry")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"k1", "k3"}, keys)

	keys, err = FindKeysByField(it, "test_name", "Nobody")
	require.NoError(t, err)
	require.Empty(t, keys)
}
