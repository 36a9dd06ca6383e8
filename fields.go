// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vsep

import (
	"encoding/binary"
	"sort"

	"github.com/darshanime/vsep/internal/base"
)

// Fields is a mapping of named sub-fields making up one logical value. It is
// stored as a single opaque value in the key-value store:
//
//	outer := (varint64 field_size [field_size bytes])*
//	field := varint64 name_size [name_size bytes] [value bytes]
//
// Names are unique within one key. Encode iterates names in sorted order, so
// encoding is deterministic, but callers must treat Fields as an unordered
// mapping: byte-for-byte round-trips are only guaranteed field-set-wise.
type Fields map[string]string

// Field is one (name, value) pair of a Fields mapping.
type Field struct {
	Name  string
	Value string
}

// NewFields builds a Fields from pairs. Later duplicates of a name win.
func NewFields(pairs []Field) Fields {
	f := make(Fields, len(pairs))
	for _, p := range pairs {
		f[p.Name] = p.Value
	}
	return f
}

// DecodeFields decodes an encoded Fields value. Short frames or trailing
// bytes are corruption.
func DecodeFields(b []byte) (Fields, error) {
	f := make(Fields)
	for len(b) > 0 {
		fieldSize, n := binary.Uvarint(b)
		if n <= 0 {
			return nil, base.CorruptionErrorf("fields: bad field size")
		}
		b = b[n:]
		if fieldSize > uint64(len(b)) {
			return nil, base.CorruptionErrorf("fields: field size %d exceeds %d remaining bytes", fieldSize, len(b))
		}
		field := b[:fieldSize]
		b = b[fieldSize:]

		nameSize, n := binary.Uvarint(field)
		if n <= 0 {
			return nil, base.CorruptionErrorf("fields: bad name size")
		}
		field = field[n:]
		if nameSize > uint64(len(field)) {
			return nil, base.CorruptionErrorf("fields: name size %d exceeds %d remaining bytes", nameSize, len(field))
		}
		f[string(field[:nameSize])] = string(field[nameSize:])
	}
	return f, nil
}

// Encode encodes the mapping into the byte string stored as the key's value.
func (f Fields) Encode() []byte {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf []byte
	for _, name := range names {
		value := f[name]
		fieldLen := uvarintLen(uint64(len(name))) + len(name) + len(value)
		buf = binary.AppendUvarint(buf, uint64(fieldLen))
		buf = binary.AppendUvarint(buf, uint64(len(name)))
		buf = append(buf, name...)
		buf = append(buf, value...)
	}
	return buf
}

// Get returns the value of the named field, or "" if absent. It never
// inserts.
func (f Fields) Get(name string) string { return f[name] }

// Set inserts or overwrites the named field.
func (f Fields) Set(name, value string) { f[name] = value }

// Size returns the sum of name and value lengths across all fields. Used
// for telemetry only.
func (f Fields) Size() int {
	var size int
	for name, value := range f {
		size += len(name) + len(value)
	}
	return size
}

// Pairs returns the fields sorted by name.
func (f Fields) Pairs() []Field {
	pairs := make([]Field, 0, len(f))
	for name, value := range f {
		pairs = append(pairs, Field{Name: name, Value: value})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Name < pairs[j].Name })
	return pairs
}

func uvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// FindKeysByField scans the full key space through it, a user-key iterator,
// and returns every key whose decoded fields contain name -> value. Values
// that do not decode as fields are skipped. This is a linear scan; no index
// is maintained.
func FindKeysByField(it Iterator, name, value string) ([]string, error) {
	var keys []string
	for it.First(); it.Valid(); it.Next() {
		f, err := DecodeFields(it.Value())
		if err != nil {
			continue
		}
		if v, ok := f[name]; ok && v == value {
			keys = append(keys, string(it.Key()))
		}
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return keys, nil
}
