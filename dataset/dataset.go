// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dataset provides example data sets for the dashboard.
package dataset

import (
	"embed"
	"fmt"

	"github.com/kortschak/jaal"
	"github.com/kortschak/jaal/table"
)

//go:embed pizza got
var files embed.FS

// PizzaIRI is the IRI of the example pizza ontology.
const PizzaIRI = "http://example.org/onto-got.owl"

// pizzaClasses are the class axioms added before the property definitions.
var pizzaClasses = [][]string{
	{"company"},
	{"pizza_company", "company", "", "", "", "", "false"},
	{"margherita_company", "pizza_company", "", "", "", "", "false"},
	{"quattro_stagioni", "pizza", "", "", "", "", "false"},
}

// pizzaInstances are the individuals of the example pizza ontology.
var pizzaInstances = [][]string{
	{"Her_pizza", "quattro_stagioni"},
	{"Jane", "human", "likes", "Her_pizza"},
	{"Faulty_pizza"},
	{"Her_pizza", "quattro_stagioni", "weight_in_grams", "430.0", "float"},
	{"Her_pizza", "quattro_stagioni", "diameter_in_cm", "32", "integer"},
	{"Her_pizza", "quattro_stagioni", "description", "jane's pizza", "string"},
}

// LoadOntology returns an editor holding the example pizza ontology with
// classes, instances, object properties and data properties.
func LoadOntology() (*jaal.Editor, error) {
	e := jaal.NewEditor(PizzaIRI)
	err := e.AddAxioms(pizzaClasses)
	if err != nil {
		return nil, err
	}

	f, err := files.Open("pizza/props.json")
	if err != nil {
		return nil, err
	}
	props, err := jaal.LoadProperties(f)
	f.Close()
	if err != nil {
		return nil, err
	}
	err = e.AddObjectProperties(props.Object)
	if err != nil {
		return nil, err
	}
	err = e.AddDataProperties(props.Data)
	if err != nil {
		return nil, err
	}

	f, err = files.Open("pizza/class_axioms.csv")
	if err != nil {
		return nil, err
	}
	err = e.LoadAxiomsCSV(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	err = e.AddInstances(pizzaInstances)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// LoadGoT returns the edge and node tables of the Game of Thrones
// character interaction data set. Only edges with a weight of at least
// threshold are retained.
func LoadGoT(threshold float64) (edges, nodes *table.Table, err error) {
	edges, err = readCSV("got/got_edge_df.csv")
	if err != nil {
		return nil, nil, err
	}
	if threshold > 0 {
		kept := edges.Rows[:0]
		w := edges.Index("weight")
		for _, r := range edges.Rows {
			if v, ok := r[w].(float64); ok && v >= threshold {
				kept = append(kept, r)
			}
		}
		edges.Rows = kept
	}
	nodes, err = readCSV("got/got_node_df.csv")
	if err != nil {
		return nil, nil, err
	}
	return edges, nodes, nil
}

func readCSV(path string) (*table.Table, error) {
	f, err := files.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := table.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}
	return t, nil
}
