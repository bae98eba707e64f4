// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vis

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kortschak/jaal/table"
)

func testTables(t *testing.T) (edges, nodes *table.Table) {
	t.Helper()
	edges = table.New(
		table.Column{Name: "from", Kind: table.String},
		table.Column{Name: "to", Kind: table.String},
		table.Column{Name: "label", Kind: table.String},
		table.Column{Name: "weight", Kind: table.Number},
		table.Column{Name: "kind", Kind: table.String},
	)
	for _, r := range [][]any{
		{"Jon", "Arya", "sibling", 10, "family"},
		{"Jon", "Ygritte", "loves", 4, "romance"},
		{"Arya", "Sansa", "sibling", 2, "family"},
	} {
		require.NoError(t, edges.Add(r...))
	}
	nodes = table.New(
		table.Column{Name: "id", Kind: table.String},
		table.Column{Name: "house", Kind: table.String},
		table.Column{Name: "age", Kind: table.Number},
	)
	for _, r := range [][]any{
		{"Jon", "Stark", 20},
		{"Arya", "Stark", 10},
		{"Sansa", "Stark", nil},
		{"Ygritte", "Free Folk", 30},
	} {
		require.NoError(t, nodes.Add(r...))
	}
	return edges, nodes
}

func TestParse(t *testing.T) {
	edges, nodes := testTables(t)
	d, scaling, err := Parse(edges, nodes, nil)
	require.NoError(t, err)

	require.Len(t, d.Nodes, 4)
	require.Len(t, d.Edges, 3)
	assert.Equal(t, "Jon", d.Nodes[0].Label)
	assert.Equal(t, float64(DefaultNodeSize), d.Nodes[0].Size)
	assert.Equal(t, "Jon__Arya", d.Edges[0].ID)
	assert.Equal(t, "sibling", d.Edges[0].Label)

	want := Scaling{
		Node: map[string]Range{"age": {Min: 10, Max: 30}},
		Edge: map[string]Range{"weight": {Min: 2, Max: 10}},
	}
	if diff := cmp.Diff(want, scaling); diff != "" {
		t.Errorf("unexpected scaling (-want +got):\n%s", diff)
	}
}

func TestParseEdgesOnly(t *testing.T) {
	edges, _ := testTables(t)
	d, _, err := Parse(edges, nil, nil)
	require.NoError(t, err)

	var ids []string
	for _, n := range d.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"Jon", "Arya", "Ygritte", "Sansa"}, ids)
}

func TestParseMissingColumns(t *testing.T) {
	edges, nodes := testTables(t)

	noTo, err := edges.Select("from", "label")
	require.NoError(t, err)
	_, _, err = Parse(noTo, nodes, nil)
	assert.True(t, errors.Is(err, ErrMissingColumn), "unexpected error: %v", err)

	noID, err := nodes.Select("house", "age")
	require.NoError(t, err)
	_, _, err = Parse(edges, noID, nil)
	assert.True(t, errors.Is(err, ErrMissingColumn), "unexpected error: %v", err)
}

func TestMarshal(t *testing.T) {
	edges, nodes := testTables(t)
	d, _, err := Parse(edges, nodes, nil)
	require.NoError(t, err)

	b, err := json.Marshal(d.Edges[0])
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, map[string]any{"color": DefaultColor}, got["color"])
	assert.Equal(t, "family", got["kind"])
	assert.Equal(t, 10.0, got["weight"])

	b, err = json.Marshal(d.Nodes[2])
	require.NoError(t, err)
	got = nil
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "Sansa", got["id"])
	assert.Nil(t, got["age"])
	assert.Equal(t, false, got["hidden"])
}

func TestClone(t *testing.T) {
	edges, nodes := testTables(t)
	d, _, err := Parse(edges, nodes, nil)
	require.NoError(t, err)

	c := d.Clone()
	c.Nodes[0].Color = "#000000"
	c.Nodes[0].Attrs["house"] = "Targaryen"
	assert.Equal(t, DefaultColor, d.Nodes[0].Color)
	assert.Equal(t, "Stark", d.Nodes[0].Attrs["house"])
}

func TestFeatures(t *testing.T) {
	edges, nodes := testTables(t)

	assert.Equal(t, []string{None, "house"}, CategoricalFeatures(nodes, 20, NodeExclusions))
	assert.Equal(t, []string{None, "label", "kind"}, CategoricalFeatures(edges, 20, EdgeExclusions))
	assert.Equal(t, []string{None, "label", "kind"}, CategoricalFeatures(edges, 2, EdgeExclusions))
	assert.Equal(t, []string{None}, CategoricalFeatures(edges, 1, EdgeExclusions))

	assert.Equal(t, []string{None, "age"}, NumericalFeatures(nodes))
	assert.Equal(t, []string{None, "weight"}, NumericalFeatures(edges))

	assert.Equal(t, []string{None}, CategoricalFeatures(nil, 20, NodeExclusions))
	assert.Equal(t, []string{None}, NumericalFeatures(nil))
}

func TestDistinctColors(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 2))

	c, err := DistinctColors(5, rnd)
	require.NoError(t, err)
	assert.Len(t, c, 5)
	for _, v := range c {
		assert.Contains(t, KellyColors[:7], v)
	}
	assertUnique(t, c)

	c, err = DistinctColors(12, rnd)
	require.NoError(t, err)
	assert.Len(t, c, 12)
	assertUnique(t, c)

	_, err = DistinctColors(len(KellyColors)+1, rnd)
	assert.True(t, errors.Is(err, ErrTooManyValues), "unexpected error: %v", err)
}

func assertUnique(t *testing.T, colors []string) {
	t.Helper()
	seen := make(map[string]bool)
	for _, c := range colors {
		assert.False(t, seen[c], "duplicate color %s", c)
		seen[c] = true
	}
}

func TestColor(t *testing.T) {
	edges, nodes := testTables(t)
	d, _, err := Parse(edges, nodes, nil)
	require.NoError(t, err)
	rnd := rand.New(rand.NewPCG(1, 2))

	m, err := ColorNodes(d, "house", rnd)
	require.NoError(t, err)
	require.Len(t, m, 2)
	assert.NotEqual(t, m["Stark"], m["Free Folk"])
	for _, n := range d.Nodes {
		assert.Equal(t, m[table.Format(n.Attrs["house"])], n.Color)
	}

	m, err = ColorEdges(d, "kind", rnd)
	require.NoError(t, err)
	require.Len(t, m, 2)
	assert.Equal(t, d.Edges[0].Color, d.Edges[2].Color)
	assert.NotEqual(t, d.Edges[0].Color, d.Edges[1].Color)

	m, err = ColorNodes(d, None, rnd)
	require.NoError(t, err)
	assert.Nil(t, m)
	for _, n := range d.Nodes {
		assert.Equal(t, DefaultColor, n.Color)
	}
}

func TestSize(t *testing.T) {
	edges, nodes := testTables(t)
	d, scaling, err := Parse(edges, nodes, nil)
	require.NoError(t, err)

	SizeNodes(d, "age", scaling)
	var got []float64
	for _, n := range d.Nodes {
		got = append(got, n.Size)
	}
	assert.Equal(t, []float64{17, 7, 7, 27}, got)

	// Sizing is not cumulative.
	SizeNodes(d, "age", scaling)
	assert.Equal(t, 17.0, d.Nodes[0].Size)

	SizeNodes(d, None, scaling)
	for _, n := range d.Nodes {
		assert.Equal(t, float64(DefaultNodeSize), n.Size)
	}

	SizeEdges(d, "weight")
	assert.Equal(t, []float64{10, 4, 2}, []float64{d.Edges[0].Width, d.Edges[1].Width, d.Edges[2].Width})
	SizeEdges(d, None)
	assert.Equal(t, float64(DefaultEdgeSize), d.Edges[1].Width)
}

func TestSearch(t *testing.T) {
	edges, nodes := testTables(t)
	d, _, err := Parse(edges, nodes, nil)
	require.NoError(t, err)

	hidden := func() []bool {
		h := make([]bool, len(d.Nodes))
		for i, n := range d.Nodes {
			h[i] = n.Hidden
		}
		return h
	}

	Search(d, "SA")
	assert.Equal(t, []bool{true, true, false, true}, hidden())

	Search(d, "loves")
	assert.Equal(t, []bool{false, true, true, false}, hidden())

	Search(d, "")
	assert.Equal(t, []bool{false, false, false, false}, hidden())
}

func TestLegend(t *testing.T) {
	got := Legend(map[string]string{"b": "#2", "a": "#1"}, nil)
	want := []LegendSection{
		{Title: "Node legends", Entries: []LegendEntry{{Value: "a", Color: "#1"}, {Value: "b", Color: "#2"}}},
		{Title: "Edge legends", Filler: "no edge colored!"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected legend (-want +got):\n%s", diff)
	}
}
