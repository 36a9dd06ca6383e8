// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package tool implements the vsep command line tool: offline inspection of
// vTable files and of the manager's manifest.
package tool

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/darshanime/vsep/internal/base"
	"github.com/darshanime/vsep/vfs"
	"github.com/darshanime/vsep/vtable"
)

// T holds the tool's dependencies, letting tests swap the filesystem.
type T struct {
	fs vfs.FS
}

// An Option configures the tool.
type Option func(*T)

// WithFS sets the filesystem the tool reads from.
func WithFS(fs vfs.FS) Option {
	return func(t *T) { t.fs = fs }
}

// New returns the root command of the vsep tool.
func New(opts ...Option) *cobra.Command {
	t := &T{fs: vfs.Default}
	for _, opt := range opts {
		opt(t)
	}

	root := &cobra.Command{
		Use:   "vsep",
		Short: "vsep introspection tool",
	}
	root.AddCommand(t.newDumpCmd(), t.newManifestCmd())
	return root
}

func (t *T) newDumpCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "dump <file.vtb>",
		Short: "print the records of a vTable file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return t.runDump(cmd.OutOrStdout(), args[0], verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print record values, not just sizes")
	return cmd
}

func (t *T) runDump(w io.Writer, path string, verbose bool) error {
	buf, err := readAll(t.fs, path)
	if err != nil {
		return err
	}
	var offset uint64
	for len(buf) > 0 {
		size, err := vtable.DecodeRecordSize(buf)
		if err != nil {
			return err
		}
		if uint64(size) > uint64(len(buf)-vtable.RecordHeaderSize) {
			return base.CorruptionErrorf("vtable: record at offset %d overflows file", offset)
		}
		body := buf[vtable.RecordHeaderSize : vtable.RecordHeaderSize+size]
		rec, err := vtable.DecodeRecord(body)
		if err != nil {
			return err
		}
		encodedLen := uint64(vtable.RecordHeaderSize) + uint64(size)
		if verbose {
			fmt.Fprintf(w, "%8d  %q = %q\n", offset, rec.Key, rec.Value)
		} else {
			fmt.Fprintf(w, "%8d  key=%q value-len=%d\n", offset, rec.Key, len(rec.Value))
		}
		offset += encodedLen
		buf = buf[encodedLen:]
	}
	fmt.Fprintf(w, "total: %d bytes\n", offset)
	return nil
}

func (t *T) newManifestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "manifest <dbdir>",
		Short: "list the vTables recorded in the manager manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return t.runManifest(cmd.OutOrStdout(), args[0])
		},
	}
}

func (t *T) runManifest(w io.Writer, dbname string) error {
	buf, err := readAll(t.fs, base.VTableManagerFilePath(dbname))
	if err != nil {
		return err
	}
	count, n := binary.Uvarint(buf)
	if n <= 0 {
		return base.CorruptionErrorf("vtable: manifest: bad entry count")
	}
	buf = buf[n:]

	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"number", "records", "invalid", "size", "dead"})
	for i := uint64(0); i < count; i++ {
		var meta vtable.Meta
		meta, buf, err = vtable.DecodeMeta(buf)
		if err != nil {
			return err
		}
		tw.Append([]string{
			meta.Number.String(),
			strconv.FormatUint(meta.RecordsNum, 10),
			strconv.FormatUint(meta.InvalidNum, 10),
			strconv.FormatUint(meta.TableSize, 10),
			strconv.FormatBool(meta.Dead()),
		})
	}
	tw.Render()
	return nil
}

func readAll(fs vfs.FS, path string) ([]byte, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, fi.Size())
	if fi.Size() == 0 {
		return buf, nil
	}
	if _, err := f.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}
