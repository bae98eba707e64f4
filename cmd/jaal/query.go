// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/graph/formats/rdf"

	"github.com/kortschak/jaal"
	"github.com/kortschak/jaal/sparql"
)

var queryCmd = &cobra.Command{
	Use:   "query <sparql>",
	Short: "Evaluate a SPARQL SELECT query against the ontology",
	Long: `query evaluates a SPARQL SELECT query against the ontology and prints the
results as a table. The empty prefix is bound to the ontology namespace.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, o, err := loadData(logger)
		if err != nil {
			return err
		}
		if o == nil {
			return errors.New("no ontology to query")
		}
		res, err := sparql.Exec(o.Graph(), args[0], map[string]string{"": o.IRI() + "#"})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "?"+strings.Join(res.Vars, "\t?"))
		for _, row := range res.Rows {
			cells := make([]string, len(row))
			for i, t := range row {
				cells[i] = display(o, t)
			}
			fmt.Fprintln(w, strings.Join(cells, "\t"))
		}
		return w.Flush()
	},
}

// display returns the short form of a result term, the entity name for
// IRIs and the N-Triples text otherwise.
func display(o *jaal.Ontology, t rdf.Term) string {
	if strings.HasPrefix(t.Value, "<") {
		return o.EntityName(t)
	}
	return t.Value
}
