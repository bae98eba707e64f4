// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/kortschak/jaal"
	"github.com/kortschak/jaal/dataset"
	"github.com/kortschak/jaal/table"
)

var dataFlags struct {
	ontology string
	iri      string
	edges    string
	nodes    string
	sheet    string
	abox     bool
	got      bool
	weight   float64
	logDir   string
}

func addDataFlags(cmd interface{ PersistentFlags() *pflag.FlagSet }) {
	f := cmd.PersistentFlags()
	f.StringVar(&dataFlags.ontology, "ontology", "", "ontology file (RDF/XML, Turtle or N-Triples, optionally gzipped)")
	f.StringVar(&dataFlags.iri, "iri", "", "ontology IRI (default from the ontology declaration)")
	f.StringVar(&dataFlags.edges, "edges", "", "edge table (CSV or XLSX)")
	f.StringVar(&dataFlags.nodes, "nodes", "", "node table (CSV or XLSX)")
	f.StringVar(&dataFlags.sheet, "sheet", "", "worksheet to read from XLSX tables")
	f.BoolVar(&dataFlags.abox, "abox", false, "include individuals")
	f.BoolVar(&dataFlags.got, "got", false, "use the example Game of Thrones tables")
	f.Float64Var(&dataFlags.weight, "got-threshold", 0, "minimum edge weight of the Game of Thrones tables")
	f.StringVar(&dataFlags.logDir, "log-dir", "", "directory of the dashboard log file (empty disables it)")
}

// applyDataFlags overrides the configured data source with any flags set
// on the command line.
func applyDataFlags(f *pflag.FlagSet) {
	str := map[string]*string{
		"ontology": &cfg.Data.Ontology,
		"iri":      &cfg.Data.IRI,
		"edges":    &cfg.Data.Edges,
		"nodes":    &cfg.Data.Nodes,
		"sheet":    &cfg.Data.Sheet,
		"log-dir":  &cfg.Log.Dir,
	}
	val := map[string]string{
		"ontology": dataFlags.ontology,
		"iri":      dataFlags.iri,
		"edges":    dataFlags.edges,
		"nodes":    dataFlags.nodes,
		"sheet":    dataFlags.sheet,
		"log-dir":  dataFlags.logDir,
	}
	for name, p := range str {
		if f.Changed(name) {
			*p = val[name]
		}
	}
	if f.Changed("abox") {
		cfg.Data.ABox = dataFlags.abox
	}
}

// loadData returns the tables and ontology described by the configuration.
// Tables given explicitly take precedence over those extracted from the
// ontology. Without any data source, the example ontology is used.
func loadData(log *zap.Logger) (edges, nodes *table.Table, o *jaal.Ontology, err error) {
	if dataFlags.got {
		edges, nodes, err = dataset.LoadGoT(dataFlags.weight)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Info("loaded example tables", zap.Int("edges", edges.Len()), zap.Int("nodes", nodes.Len()))
		return edges, nodes, nil, nil
	}
	switch {
	case cfg.Data.Ontology != "":
		o, err = jaal.Load(cfg.Data.Ontology, cfg.Data.IRI)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Info("loaded ontology", zap.String("path", cfg.Data.Ontology), zap.String("iri", o.IRI()))
	case cfg.Data.Edges == "":
		e, err := dataset.LoadOntology()
		if err != nil {
			return nil, nil, nil, err
		}
		o = e.Ontology()
		log.Info("loaded example ontology", zap.String("iri", o.IRI()))
	}

	if cfg.Data.Edges == "" {
		e, n := jaal.Tables(o, cfg.Data.ABox, log)
		return e.Table(), n.Table(), o, nil
	}
	edges, err = readTable(cfg.Data.Edges, cfg.Data.Sheet)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Data.Nodes != "" {
		nodes, err = readTable(cfg.Data.Nodes, cfg.Data.Sheet)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	log.Info("loaded tables", zap.Int("edges", edges.Len()), zap.Int("nodes", nodes.Len()))
	return edges, nodes, o, nil
}

// dataPaths returns the paths of the configured data files.
func dataPaths() []string {
	var paths []string
	for _, p := range []string{cfg.Data.Ontology, cfg.Data.Edges, cfg.Data.Nodes} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func readTable(path, sheet string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return table.ReadCSV(f)
	case ".xlsx":
		return table.ReadXLSX(f, sheet)
	default:
		return nil, fmt.Errorf("unknown table format %q", ext)
	}
}
