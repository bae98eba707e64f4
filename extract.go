// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jaal

import (
	"strings"

	"github.com/kortschak/jaal/table"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// sep separates merged edge ids, labels and node title entries.
const sep = ",\n "

// Node is a row of the node table extracted from an ontology.
type Node struct {
	ID         string
	Importance int
	Shape      string
	// Box is "T" for terminology and "A" for assertion nodes.
	Box   string
	Title string
}

// Edge is a row of the edge table extracted from an ontology.
type Edge struct {
	From   string
	To     string
	ID     string
	Weight int
	Label  string
	Dashes bool
}

// Nodes is a node table.
type Nodes []Node

// Index returns the index of the node with the given id, or -1.
func (n Nodes) Index(id string) int {
	for i, v := range n {
		if v.ID == id {
			return i
		}
	}
	return -1
}

// Table returns the nodes as a table with columns id, importance, shape,
// T/A and title.
func (n Nodes) Table() *table.Table {
	t := table.New(
		table.Column{Name: "id", Kind: table.String},
		table.Column{Name: "importance", Kind: table.Number},
		table.Column{Name: "shape", Kind: table.String},
		table.Column{Name: "T/A", Kind: table.String},
		table.Column{Name: "title", Kind: table.String},
	)
	for _, v := range n {
		t.Rows = append(t.Rows, table.Row{v.ID, float64(v.Importance), v.Shape, v.Box, v.Title})
	}
	return t
}

// Edges is an edge table.
type Edges []Edge

// Index returns the index of the edge with the given id, or -1.
func (e Edges) Index(id string) int {
	for i, v := range e {
		if v.ID == id {
			return i
		}
	}
	return -1
}

// between returns the index of the first edge from u to v, or -1.
func (e Edges) between(u, v string) int {
	for i, r := range e {
		if r.From == u && r.To == v {
			return i
		}
	}
	return -1
}

// merge folds the relation with the given id and label into the edge at i.
func (e Edges) merge(i int, id, label string) {
	e[i].ID += sep + id
	e[i].Label += sep + label
	e[i].Weight++
}

// Table returns the edges as a table with columns from, to, id, weight,
// label and dashes.
func (e Edges) Table() *table.Table {
	t := table.New(
		table.Column{Name: "from", Kind: table.String},
		table.Column{Name: "to", Kind: table.String},
		table.Column{Name: "id", Kind: table.String},
		table.Column{Name: "weight", Kind: table.Number},
		table.Column{Name: "label", Kind: table.String},
		table.Column{Name: "dashes", Kind: table.Bool},
	)
	for _, v := range e {
		t.Rows = append(t.Rows, table.Row{v.From, v.To, v.ID, float64(v.Weight), v.Label, v.Dashes})
	}
	return t
}

// TBoxes appends a terminology node for each class of o to nodes.
func TBoxes(o *Ontology, nodes Nodes) Nodes {
	for _, c := range o.Classes() {
		nodes = append(nodes, Node{ID: c.Name, Importance: 1, Shape: "dot", Box: "T"})
	}
	return nodes
}

// IsARelations appends an is_a edge from each direct sub-class to its
// class to edges.
func IsARelations(o *Ontology, edges Edges) Edges {
	for _, c := range o.Classes() {
		for _, s := range o.Subclasses(c) {
			edges = append(edges, Edge{
				From:   s.Name,
				To:     c.Name,
				ID:     s.Name + " is_a " + c.Name,
				Weight: 1,
				Label:  "is_a",
			})
		}
	}
	return edges
}

// ObjectPropertyEdges appends a dashed edge for each object property of o
// and each of its domain and range pairs to edges.
func ObjectPropertyEdges(o *Ontology, edges Edges) Edges {
	for _, p := range o.ObjectProperties() {
		for _, d := range p.Domain {
			for _, r := range p.Range {
				id := d.Name + " " + p.Name + " " + r.Name
				if edges.Index(id) >= 0 {
					continue
				}
				edges = append(edges, Edge{
					From:   d.Name,
					To:     r.Name,
					ID:     id,
					Weight: 1,
					Label:  p.Name,
					Dashes: true,
				})
			}
		}
	}
	return edges
}

// DataPropertyEdges appends a dashed edge from each domain of each data
// property of o to a node representing the property's datatype. Data
// properties sharing a domain and datatype are merged into a single edge.
// Data properties without a range are skipped. The number of parsed and
// skipped properties is returned.
func DataPropertyEdges(o *Ontology, nodes Nodes, edges Edges) (_ Nodes, _ Edges, parsed, skipped int) {
	for _, p := range o.DataProperties() {
		if len(p.Range) == 0 {
			skipped++
			continue
		}
		typ := DatatypeName(p.Range[0].Term.Value)
		for _, d := range p.Domain {
			id := d.Name + " " + p.Name + " " + typ
			if i := edges.between(d.Name, typ); i >= 0 {
				edges.merge(i, id, p.Name)
				continue
			}
			edges = append(edges, Edge{
				From:   d.Name,
				To:     typ,
				ID:     id,
				Weight: 1,
				Label:  p.Name,
				Dashes: true,
			})
		}
		if nodes.Index(typ) < 0 {
			nodes = append(nodes, Node{ID: typ, Importance: 1, Shape: "triangle", Box: "T"})
		}
		parsed++
	}
	return nodes, edges, parsed, skipped
}

// ABoxes appends a node for each individual of o to nodes and the edges
// for its object property assertions and its class membership to edges.
// Data property assertions are held in the individual's node title.
func ABoxes(o *Ontology, nodes Nodes, edges Edges) (Nodes, Edges) {
	for _, c := range o.Classes() {
		for _, ind := range o.Search(c) {
			var (
				title string
				seen  = make(map[string]bool)
			)
			for _, v := range o.PropertyValues(ind) {
				if v.Literal != nil {
					entry := v.Property.Name + " = " + v.Literal.String()
					if seen[entry] {
						continue
					}
					seen[entry] = true
					if title != "" {
						title += sep
					}
					title += entry
					continue
				}
				id := ind.Name + " " + v.Property.Name + " " + v.Object.Name
				if edges.Index(id) >= 0 {
					continue
				}
				edges = append(edges, Edge{
					From:   ind.Name,
					To:     v.Object.Name,
					ID:     id,
					Weight: 1,
					Label:  v.Property.Name,
				})
			}

			if nodes.Index(ind.Name) < 0 {
				nodes = append(nodes, Node{ID: ind.Name, Importance: 1, Shape: "box", Box: "A", Title: title})
			}

			types := o.Types(ind)
			if len(types) == 0 {
				continue
			}
			super := types[0].Name
			id := ind.Name + " is_a " + super
			if i := edges.between(ind.Name, super); i >= 0 {
				if !slices.Contains(strings.Split(edges[i].ID, sep), id) {
					edges.merge(i, id, "is_a")
				}
				continue
			}
			edges = append(edges, Edge{
				From:   ind.Name,
				To:     super,
				ID:     id,
				Weight: 1,
				Label:  "is_a",
			})
		}
	}
	return nodes, edges
}

// NodeImportance sets the importance of each node with incoming is_a
// edges to the number of those edges.
func NodeImportance(nodes Nodes, edges Edges) {
	for i, n := range nodes {
		var count int
		for _, e := range edges {
			if e.To == n.ID && e.Label == "is_a" {
				count++
			}
		}
		if count != 0 {
			nodes[i].Importance = count
		}
	}
}

// Tables extracts the edge and node tables of o. Individuals are included
// when abox is true. Progress is logged to log, which may be nil.
func Tables(o *Ontology, abox bool, log *zap.Logger) (Edges, Nodes) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("ontology", o.IRI()))
	log.Info("begin parsing data from ontology")

	nodes := TBoxes(o, nil)
	log.Info("parsed T-Boxes", zap.Int("nodes", len(nodes)))

	edges := IsARelations(o, nil)
	log.Info("parsed is_a relations", zap.Int("edges", len(edges)))

	edges = ObjectPropertyEdges(o, edges)
	log.Info("parsed object properties", zap.Int("edges", len(edges)))

	nodes, edges, parsed, skipped := DataPropertyEdges(o, nodes, edges)
	log.Info("parsed data properties", zap.Int("parsed", parsed))
	if skipped != 0 {
		log.Warn("skipped data properties without range", zap.Int("skipped", skipped))
	}

	if abox {
		nodes, edges = ABoxes(o, nodes, edges)
		log.Info("parsed A-Boxes", zap.Int("nodes", len(nodes)), zap.Int("edges", len(edges)))
	}

	NodeImportance(nodes, edges)
	log.Info("calculated node importance")

	log.Info("parsed data from ontology", zap.Int("nodes", len(nodes)), zap.Int("edges", len(edges)))
	return edges, nodes
}
