// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kortschak/jaal"
	"github.com/kortschak/jaal/table"
)

var exportFlags struct {
	format  string
	out     string
	columns []string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the graph tables or the ontology",
	Long: `export writes the edge and node tables as CSV files named edges.csv and
nodes.csv in the output directory, or as a single XLSX workbook. With the
ntriples or turtle formats the ontology itself is written.

Without --out, CSV files are written to the working directory and the
single file formats are written to a file named for the ontology, for
example pizza.xlsx, or jaal.xlsx when only tables are loaded. An --out
naming a directory receives the default file name. An --out of - writes
single file formats to standard output.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		edges, nodes, o, err := loadData(logger)
		if err != nil {
			return err
		}
		if len(exportFlags.columns) != 0 {
			edges, err = edges.Select(exportFlags.columns...)
			if err != nil {
				return err
			}
		}
		return export(cmd.OutOrStdout(), edges, nodes, o, exportFlags.format, exportFlags.out)
	},
}

// extensions holds the file extension of each single file export format.
var extensions = map[string]string{
	"xlsx":     ".xlsx",
	"ntriples": ".nt",
	"turtle":   ".ttl",
}

// export writes the tables or the ontology in the given format to out.
// The path - refers to stdout.
func export(stdout io.Writer, edges, nodes *table.Table, o *jaal.Ontology, format, out string) error {
	if format == "csv" {
		if out == "-" {
			return errors.New("csv export writes two files and cannot be written to stdout")
		}
		if out == "" {
			out = "."
		}
		err := os.MkdirAll(out, 0o755)
		if err != nil {
			return err
		}
		err = writeFile(stdout, filepath.Join(out, "edges.csv"), edges.WriteCSV)
		if err != nil || nodes == nil {
			return err
		}
		return writeFile(stdout, filepath.Join(out, "nodes.csv"), nodes.WriteCSV)
	}

	ext, ok := extensions[format]
	if !ok {
		return fmt.Errorf("unknown export format %q", format)
	}
	var write func(io.Writer) error
	switch format {
	case "xlsx":
		sheets := []table.Sheet{{Name: "edges", Table: edges}}
		if nodes != nil {
			sheets = append(sheets, table.Sheet{Name: "nodes", Table: nodes})
		}
		write = func(w io.Writer) error { return table.WriteXLSX(w, sheets...) }
	case "ntriples", "turtle":
		if o == nil {
			return errors.New("no ontology to export")
		}
		write = func(w io.Writer) error { return o.Graph().Encode(w, format) }
	}

	name := "jaal"
	if o != nil && o.Name() != "" {
		name = o.Name()
	}
	switch {
	case out == "":
		out = name + ext
	case out != "-":
		fi, err := os.Stat(out)
		if err == nil && fi.IsDir() {
			out = filepath.Join(out, name+ext)
		}
	}
	return writeFile(stdout, out, write)
}

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportFlags.format, "format", "f", "csv", "output format (csv, xlsx, ntriples or turtle)")
	f.StringVarP(&exportFlags.out, "out", "o", "", "output directory for csv, otherwise output file or directory (- for stdout)")
	f.StringSliceVar(&exportFlags.columns, "columns", nil, "edge table columns to export")
}

// writeFile writes to the file at path, or to stdout if path is -.
func writeFile(stdout io.Writer, path string, write func(io.Writer) error) (err error) {
	if path == "-" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		cerr := f.Close()
		if err == nil {
			err = cerr
		}
	}()
	return write(f)
}
