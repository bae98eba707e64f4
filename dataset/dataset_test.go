// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kortschak/jaal"
)

func TestLoadOntology(t *testing.T) {
	e, err := LoadOntology()
	require.NoError(t, err)
	o := e.Ontology()
	assert.Equal(t, PizzaIRI, o.IRI())

	edges, nodes := jaal.Tables(o, true, nil)

	her := nodes.Index("Her_pizza")
	require.GreaterOrEqual(t, her, 0, "missing Her_pizza node")
	assert.Equal(t, jaal.Node{
		ID:         "Her_pizza",
		Importance: 1,
		Shape:      "box",
		Box:        "A",
		Title:      "weight_in_grams = 430.0,\n diameter_in_cm = 32,\n description = jane's pizza",
	}, nodes[her])

	assert.Less(t, nodes.Index("Faulty_pizza"), 0, "individual without class should not be a node")

	for _, id := range []string{
		"Jane likes Her_pizza",
		"Jane is_a human",
		"Her_pizza is_a quattro_stagioni",
		"quattro_stagioni is_a pizza",
		"human likes pizza",
		"human likes food",
		"pizza weight_in_grams float",
	} {
		assert.GreaterOrEqual(t, edges.Index(id), 0, "missing edge %q", id)
	}

	importance := map[string]int{
		"food":          3,
		"pizza":         2,
		"pizza_topping": 5,
		"human":         2,
		"company":       1,
	}
	for id, want := range importance {
		i := nodes.Index(id)
		if assert.GreaterOrEqual(t, i, 0, "missing node %q", id) {
			assert.Equal(t, want, nodes[i].Importance, "unexpected importance for %q", id)
		}
	}

	for _, typ := range []string{"float", "integer", "string", "boolean"} {
		i := nodes.Index(typ)
		if assert.GreaterOrEqual(t, i, 0, "missing datatype node %q", typ) {
			assert.Equal(t, "triangle", nodes[i].Shape)
		}
	}

	ids := make(map[string]int)
	for _, n := range nodes {
		ids[n.ID]++
	}
	for _, e := range edges {
		ids["edge "+e.ID]++
	}
	for id, n := range ids {
		assert.Equal(t, 1, n, "id %q is not unique", id)
	}

	_, _, parsed, skipped := jaal.DataPropertyEdges(o, nil, nil)
	assert.Equal(t, 5, parsed)
	assert.Equal(t, 1, skipped)
}

func TestLoadGoT(t *testing.T) {
	edges, nodes, err := LoadGoT(0)
	require.NoError(t, err)
	assert.Equal(t, 29, edges.Len())
	assert.Equal(t, 23, nodes.Len())

	edges, _, err = LoadGoT(30)
	require.NoError(t, err)
	for _, w := range edges.Values("weight") {
		assert.GreaterOrEqual(t, w.(float64), 30.0)
	}
	assert.Equal(t, 6, edges.Len())
}
