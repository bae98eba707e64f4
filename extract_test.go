// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jaal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/graph/formats/rdf"
)

func newShop(t *testing.T) *Ontology {
	t.Helper()
	e := NewEditor(shop)
	e.AddClass("product", "")
	e.AddClass("book", "product")
	e.AddClass("magazine", "product")
	require.NoError(t, e.AddObjectProperties([]PropertyDef{
		{Prop: "written_by", Domain: Names{"book", "magazine"}, Range: Names{"author"}},
	}))
	require.NoError(t, e.AddDataProperties([]PropertyDef{
		{Prop: "pages", Domain: Names{"book"}, Range: Names{"integer"}},
		{Prop: "issue", Domain: Names{"book"}, Range: Names{"integer"}},
		{Prop: "isbn", Domain: Names{"book"}},
	}))
	require.NoError(t, e.AddInstances([][]string{
		{"dune", "book", "written_by", "herbert"},
		{"dune", "book", "pages", "412", "integer"},
		{"dune", "book", "pages", "412", "integer"},
		{"herbert", "author"},
	}))
	return e.Ontology()
}

func TestTables(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	edges, nodes := Tables(newShop(t), true, zap.New(core))

	assert.Equal(t, Nodes{
		{ID: "product", Importance: 2, Shape: "dot", Box: "T"},
		{ID: "book", Importance: 1, Shape: "dot", Box: "T"},
		{ID: "magazine", Importance: 1, Shape: "dot", Box: "T"},
		{ID: "author", Importance: 1, Shape: "dot", Box: "T"},
		{ID: "integer", Importance: 1, Shape: "triangle", Box: "T"},
		{ID: "dune", Importance: 1, Shape: "box", Box: "A", Title: "pages = 412"},
		{ID: "herbert", Importance: 1, Shape: "box", Box: "A"},
	}, nodes)

	assert.Equal(t, Edges{
		{From: "book", To: "product", ID: "book is_a product", Weight: 1, Label: "is_a"},
		{From: "magazine", To: "product", ID: "magazine is_a product", Weight: 1, Label: "is_a"},
		{From: "book", To: "author", ID: "book written_by author", Weight: 1, Label: "written_by", Dashes: true},
		{From: "magazine", To: "author", ID: "magazine written_by author", Weight: 1, Label: "written_by", Dashes: true},
		{From: "book", To: "integer", ID: "book pages integer,\n book issue integer", Weight: 2, Label: "pages,\n issue", Dashes: true},
		{From: "dune", To: "herbert", ID: "dune written_by herbert", Weight: 1, Label: "written_by"},
		{From: "dune", To: "book", ID: "dune is_a book", Weight: 1, Label: "is_a"},
		{From: "herbert", To: "author", ID: "herbert is_a author", Weight: 1, Label: "is_a"},
	}, edges)

	warn := logs.FilterMessage("skipped data properties without range").All()
	require.Len(t, warn, 1)
	assert.Equal(t, zapcore.WarnLevel, warn[0].Level)
	assert.Equal(t, int64(1), warn[0].ContextMap()["skipped"])
	assert.Equal(t, 1, logs.FilterMessage("parsed A-Boxes").Len())
}

func TestTablesWithoutABox(t *testing.T) {
	edges, nodes := Tables(newShop(t), false, nil)
	assert.Less(t, nodes.Index("dune"), 0, "unexpected individual node")
	assert.Less(t, edges.Index("dune is_a book"), 0, "unexpected individual edge")
	assert.Equal(t, 1, nodes[nodes.Index("book")].Importance)
	assert.Len(t, nodes, 5)
}

func TestEdgeMerge(t *testing.T) {
	edges := Edges{{From: "a", To: "b", ID: "a is_a b", Weight: 1, Label: "is_a"}}
	assert.Equal(t, 0, edges.between("a", "b"))
	assert.Equal(t, -1, edges.between("b", "a"))
	edges.merge(0, "a likes b", "likes")
	assert.Equal(t, Edge{From: "a", To: "b", ID: "a is_a b,\n a likes b", Weight: 2, Label: "is_a,\n likes"}, edges[0])
}

func TestABoxesMergeIsA(t *testing.T) {
	o := newShop(t)
	edges := Edges{{From: "dune", To: "book", ID: "dune reviewed_as book", Weight: 1, Label: "reviewed_as"}}
	nodes, edges := ABoxes(o, nil, edges)

	i := edges.between("dune", "book")
	require.GreaterOrEqual(t, i, 0)
	want := Edge{
		From:   "dune",
		To:     "book",
		ID:     "dune reviewed_as book" + sep + "dune is_a book",
		Weight: 2,
		Label:  "reviewed_as" + sep + "is_a",
	}
	assert.Equal(t, want, edges[i])

	// A second pass does not fold the is_a relation in again.
	_, edges = ABoxes(o, nodes, edges)
	assert.Equal(t, want, edges[edges.between("dune", "book")])
	assertUniqueIDs(t, nodes, edges)
}

func TestTableConversion(t *testing.T) {
	edges, nodes := Tables(newShop(t), false, nil)
	et := edges.Table()
	assert.Equal(t, len(edges), et.Len())
	assert.Equal(t, []any{"book", "product", "book is_a product", 1.0, "is_a", false}, []any(et.Rows[0]))
	nt := nodes.Table()
	assert.Equal(t, []any{"product", 2.0, "dot", "T", ""}, []any(nt.Rows[0]))
	assert.True(t, nt.Has("T/A"))
}

func assertUniqueIDs(t *testing.T, nodes Nodes, edges Edges) {
	t.Helper()
	seen := make(map[string]bool)
	for _, n := range nodes {
		assert.False(t, seen[n.ID], "node id %q is not unique", n.ID)
		seen[n.ID] = true
	}
	seen = make(map[string]bool)
	for _, e := range edges {
		assert.False(t, seen[e.ID], "edge id %q is not unique", e.ID)
		seen[e.ID] = true
	}
}

func TestTablesCollidingNames(t *testing.T) {
	const (
		foaf   = "http://xmlns.com/foaf/0.1/Person"
		schema = "http://schema.org/Person"
	)
	e := NewEditor(shop)
	e.AddClass("agent", "")
	e.AddClass(foaf, "agent")
	e.AddClass("Person_2", "agent")
	e.AddClass(schema, "agent")
	require.NoError(t, e.AddInstances([][]string{{"alice", schema}}))
	o := e.Ontology()

	edges, nodes := Tables(o, true, nil)
	assertUniqueIDs(t, nodes, edges)

	var got []string
	for _, n := range nodes {
		got = append(got, n.ID)
	}
	assert.Equal(t, []string{"agent", "Person", "Person_2", "Person_3", "alice"}, got)
	for _, id := range []string{
		"Person is_a agent",
		"Person_2 is_a agent",
		"Person_3 is_a agent",
		"alice is_a Person_3",
	} {
		assert.GreaterOrEqual(t, edges.Index(id), 0, "missing edge %q", id)
	}

	assert.Equal(t, "Person_3", o.EntityName(rdf.Term{Value: IRITerm(schema)}))
	assert.Equal(t, "Person", o.EntityName(rdf.Term{Value: IRITerm(foaf)}))
	assert.Equal(t, "Class", o.EntityName(rdf.Term{Value: owlClass}))

	// Names follow changes to the ontology.
	e.Remove(foaf)
	assert.Equal(t, "Person", o.EntityName(rdf.Term{Value: IRITerm(schema)}))
}

func TestTablesUniqueIDs(t *testing.T) {
	edges, nodes := Tables(newShop(t), true, nil)
	assertUniqueIDs(t, nodes, edges)
}
