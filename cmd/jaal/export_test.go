// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kortschak/jaal"
	"github.com/kortschak/jaal/dataset"
	"github.com/kortschak/jaal/table"
)

// runExport executes the jaal command with the given arguments in a
// fresh working directory, returning the directory and stdout.
func runExport(t *testing.T, args ...string) (dir string, stdout *bytes.Buffer, err error) {
	t.Helper()
	dir = t.TempDir()
	t.Chdir(dir)

	exportFlags.format, exportFlags.out, exportFlags.columns = "csv", "", nil
	dataFlags.got = false

	stdout = &bytes.Buffer{}
	rootCmd.SetOut(stdout)
	rootCmd.SetArgs(append([]string{"export"}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	return dir, stdout, rootCmd.Execute()
}

func TestExportDefaults(t *testing.T) {
	name := "onto-got"
	e, err := dataset.LoadOntology()
	require.NoError(t, err)
	require.Equal(t, name, e.Ontology().Name())

	for _, test := range []struct {
		format string
		files  []string
	}{
		{format: "csv", files: []string{"edges.csv", "nodes.csv"}},
		{format: "xlsx", files: []string{name + ".xlsx"}},
		{format: "ntriples", files: []string{name + ".nt"}},
		{format: "turtle", files: []string{name + ".ttl"}},
	} {
		t.Run(test.format, func(t *testing.T) {
			dir, stdout, err := runExport(t, "-f", test.format)
			require.NoError(t, err)
			assert.Empty(t, stdout.String())
			for _, f := range test.files {
				fi, err := os.Stat(filepath.Join(dir, f))
				if assert.NoError(t, err, "missing %s", f) {
					assert.NotZero(t, fi.Size(), "empty %s", f)
				}
			}
		})
	}
}

func TestExportCSVReadable(t *testing.T) {
	dir, _, err := runExport(t)
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "edges.csv"))
	require.NoError(t, err)
	defer f.Close()
	edges, err := table.ReadCSV(f)
	require.NoError(t, err)
	assert.True(t, edges.Has("from"))
	assert.NotZero(t, edges.Len())
}

func TestExportXLSXReadable(t *testing.T) {
	dir, _, err := runExport(t, "-f", "xlsx")
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "onto-got.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	nodes, err := table.ReadXLSX(f, "nodes")
	require.NoError(t, err)
	assert.True(t, nodes.Has("id"))
}

func TestExportStdout(t *testing.T) {
	for _, format := range []string{"ntriples", "turtle"} {
		t.Run(format, func(t *testing.T) {
			dir, stdout, err := runExport(t, "-f", format, "-o", "-")
			require.NoError(t, err)
			assert.Contains(t, stdout.String(), "onto-got")
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestExportCSVStdout(t *testing.T) {
	dir, stdout, err := runExport(t, "-o", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stdout")
	assert.Empty(t, stdout.String())
	_, err = os.Stat(filepath.Join(dir, "-"))
	assert.True(t, os.IsNotExist(err), "unexpected directory named -")
}

func TestExportIntoDirectory(t *testing.T) {
	dir, _, err := runExport(t, "-f", "xlsx", "-o", ".")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "onto-got.xlsx"))
	assert.NoError(t, err)
}

func TestExportTablesOnly(t *testing.T) {
	dir, _, err := runExport(t, "--got", "-f", "xlsx")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "jaal.xlsx"))
	assert.NoError(t, err)

	_, _, err = runExport(t, "--got", "-f", "turtle")
	assert.EqualError(t, err, "no ontology to export")
}

func TestExportFunc(t *testing.T) {
	e := jaal.NewEditor("http://example.org/shop.owl#")
	e.AddClass("book", "")
	o := e.Ontology()
	edges, nodes := jaal.Tables(o, false, nil)

	dir := t.TempDir()
	require.NoError(t, export(nil, edges.Table(), nodes.Table(), o, "ntriples", dir))
	b, err := os.ReadFile(filepath.Join(dir, "shop.nt"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), "<http://example.org/shop.owl#book>"))

	err = export(nil, edges.Table(), nodes.Table(), o, "dot", dir)
	assert.EqualError(t, err, `unknown export format "dot"`)
}
