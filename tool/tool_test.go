// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"bytes"
	"testing"

	"github.com/darshanime/vsep/internal/base"
	"github.com/darshanime/vsep/vfs"
	"github.com/darshanime/vsep/vtable"
	"github.com/stretchr/testify/require"
)

func runTool(t *testing.T, fs vfs.FS, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	cmd := New(WithFS(fs))
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return buf.String()
}

func TestDump(t *testing.T) {
	fs := vfs.NewMem()
	f, err := fs.Create("000003.vtb")
	require.NoError(t, err)
	b := vtable.NewBuilder(f)
	_, err = b.Add(vtable.Record{Key: []byte("apple"), Value: []byte("red")})
	require.NoError(t, err)
	_, err = b.Add(vtable.Record{Key: []byte("banana"), Value: []byte("yellow")})
	require.NoError(t, err)
	require.NoError(t, b.Finish())
	require.NoError(t, f.Close())

	out := runTool(t, fs, "dump", "000003.vtb")
	require.Contains(t, out, `key="apple" value-len=3`)
	require.Contains(t, out, `key="banana" value-len=6`)
	require.Contains(t, out, "total: 30 bytes")

	out = runTool(t, fs, "dump", "-v", "000003.vtb")
	require.Contains(t, out, `"apple" = "red"`)
}

func TestManifest(t *testing.T) {
	fs := vfs.NewMem()
	m := vtable.NewManager("db", fs, 0, nil, nil)
	m.Add(vtable.Meta{Number: 1, RecordsNum: 5, InvalidNum: 2, TableSize: 4096})
	m.Add(vtable.Meta{Number: 2, RecordsNum: 3, InvalidNum: 3, TableSize: 1030})
	require.NoError(t, m.Save())

	out := runTool(t, fs, "manifest", "db")
	require.Contains(t, out, "000001")
	require.Contains(t, out, "000002")
	require.Contains(t, out, "true")
	require.Contains(t, out, "4096")

	_, err := fs.Stat(base.VTableManagerFilePath("db"))
	require.NoError(t, err)
}
