// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vis converts node and edge tables into the data consumed by the
// vis-network browser widget.
package vis

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kortschak/jaal/table"
)

// Default rendering values.
const (
	DefaultNodeSize = 7
	DefaultEdgeSize = 1
	DefaultColor    = "#97C2FC"
)

// ErrMissingColumn is returned when a required table column is absent.
var ErrMissingColumn = errors.New("vis: missing required column")

// Node is a vis-network node.
type Node struct {
	ID     string
	Label  string
	Size   float64
	Color  string
	Hidden bool

	// Attrs holds the node table values by column name.
	Attrs map[string]any
}

// MarshalJSON implements the json.Marshaler interface. Table attributes
// are included alongside the rendering fields so that the widget can use
// columns such as shape and title.
func (n Node) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(n.Attrs)+5)
	for k, v := range n.Attrs {
		m[k] = v
	}
	m["id"] = n.ID
	m["label"] = n.Label
	m["size"] = n.Size
	m["color"] = n.Color
	m["hidden"] = n.Hidden
	return json.Marshal(m)
}

// Edge is a vis-network edge.
type Edge struct {
	ID    string
	From  string
	To    string
	Label string
	Width float64
	Color string

	// Attrs holds the edge table values by column name.
	Attrs map[string]any
}

// MarshalJSON implements the json.Marshaler interface.
func (e Edge) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Attrs)+6)
	for k, v := range e.Attrs {
		m[k] = v
	}
	m["id"] = e.ID
	m["from"] = e.From
	m["to"] = e.To
	m["label"] = e.Label
	m["width"] = e.Width
	m["color"] = map[string]string{"color": e.Color}
	return json.Marshal(m)
}

// Data is the graph data rendered by the widget.
type Data struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Clone returns a deep copy of d.
func (d *Data) Clone() *Data {
	c := &Data{
		Nodes: make([]Node, len(d.Nodes)),
		Edges: make([]Edge, len(d.Edges)),
	}
	for i, n := range d.Nodes {
		n.Attrs = cloneAttrs(n.Attrs)
		c.Nodes[i] = n
	}
	for i, e := range d.Edges {
		e.Attrs = cloneAttrs(e.Attrs)
		c.Edges[i] = e
	}
	return c
}

func cloneAttrs(a map[string]any) map[string]any {
	if a == nil {
		return nil
	}
	c := make(map[string]any, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// Range is the value range of a numeric column.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Scaling holds the value ranges of the numeric node and edge columns.
type Scaling struct {
	Node map[string]Range `json:"node"`
	Edge map[string]Range `json:"edge"`
}

// Parse returns the widget data for the given edge and node tables. The
// edge table must have from and to columns and the node table, if not
// nil, an id column. When nodes is nil, the nodes are taken from the edge
// endpoints. Edges with endpoints missing from the node table are logged
// to log, which may be nil.
func Parse(edges, nodes *table.Table, log *zap.Logger) (*Data, Scaling, error) {
	if log == nil {
		log = zap.NewNop()
	}
	for _, col := range []string{"from", "to"} {
		if !edges.Has(col) {
			return nil, Scaling{}, fmt.Errorf("%w: edge table has no %q column", ErrMissingColumn, col)
		}
	}
	if nodes == nil {
		nodes = table.New(table.Column{Name: "id", Kind: table.String})
		seen := make(map[string]bool)
		for _, col := range []string{"from", "to"} {
			for _, v := range edges.Values(col) {
				id := table.Format(v)
				if seen[id] {
					continue
				}
				seen[id] = true
				nodes.Rows = append(nodes.Rows, table.Row{id})
			}
		}
	} else if !nodes.Has("id") {
		return nil, Scaling{}, fmt.Errorf("%w: node table has no %q column", ErrMissingColumn, "id")
	}

	d := &Data{}
	ids := make(map[string]bool)
	for i := range nodes.Rows {
		attrs := attributes(nodes, i)
		id := table.Format(attrs["id"])
		attrs["id"] = id
		label := id
		if l, ok := attrs["label"]; ok && l != nil {
			label = table.Format(l)
		}
		ids[id] = true
		d.Nodes = append(d.Nodes, Node{
			ID:    id,
			Label: label,
			Size:  DefaultNodeSize,
			Color: DefaultColor,
			Attrs: attrs,
		})
	}

	var missing int
	for i := range edges.Rows {
		attrs := attributes(edges, i)
		from := table.Format(attrs["from"])
		to := table.Format(attrs["to"])
		attrs["from"] = from
		attrs["to"] = to
		if !ids[from] || !ids[to] {
			missing++
		}
		id := from + "__" + to
		if v, ok := attrs["id"]; ok && v != nil {
			id = table.Format(v)
		}
		d.Edges = append(d.Edges, Edge{
			ID:    id,
			From:  from,
			To:    to,
			Label: table.Format(attrs["label"]),
			Width: DefaultEdgeSize,
			Color: DefaultColor,
			Attrs: attrs,
		})
	}
	if missing != 0 {
		log.Warn("edges refer to nodes not present in node table", zap.Int("edges", missing))
	}

	scaling := Scaling{Node: ranges(nodes), Edge: ranges(edges)}
	return d, scaling, nil
}

func attributes(t *table.Table, row int) map[string]any {
	attrs := make(map[string]any, len(t.Columns))
	for i, c := range t.Columns {
		attrs[c.Name] = t.Rows[row][i]
	}
	return attrs
}

func ranges(t *table.Table) map[string]Range {
	r := make(map[string]Range)
	for _, c := range t.Columns {
		if c.Kind != table.Number {
			continue
		}
		lo, ok := t.Min(c.Name)
		if !ok {
			continue
		}
		hi, _ := t.Max(c.Name)
		r[c.Name] = Range{Min: lo, Max: hi}
	}
	return r
}
