// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vis

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/kortschak/jaal/table"
)

// KellyColors is Kenneth Kelly's list of colors of maximum contrast. The
// first seven are distinguishable with defective color vision.
var KellyColors = []string{
	"#FFB300", // Vivid Yellow
	"#A6BDD7", // Very Light Blue
	"#803E75", // Strong Purple
	"#FF6800", // Vivid Orange
	"#C10020", // Vivid Red
	"#CEA262", // Grayish Yellow
	"#817066", // Medium Gray

	"#007D34", // Vivid Green
	"#F6768E", // Strong Purplish Pink
	"#00538A", // Strong Blue
	"#FF7A5C", // Strong Yellowish Pink
	"#53377A", // Strong Violet
	"#FF8E00", // Vivid Orange Yellow
	"#B32851", // Strong Purplish Red
	"#F4C800", // Vivid Greenish Yellow
	"#7F180D", // Strong Reddish Brown
	"#93AA00", // Vivid Yellowish Green
	"#593315", // Deep Yellowish Brown
	"#F13A13", // Vivid Reddish Orange
	"#232C16", // Dark Olive Green
}

// ErrTooManyValues is returned when a feature has more distinct values
// than there are distinct colors.
var ErrTooManyValues = errors.New("vis: too many distinct values")

// DistinctColors returns n distinct colors in random order. Up to seven
// colors are drawn from those safe for defective color vision. If rnd is
// nil the global source is used.
func DistinctColors(n int, rnd *rand.Rand) ([]string, error) {
	if n > len(KellyColors) {
		return nil, fmt.Errorf("%w: %d colors requested, at most %d available", ErrTooManyValues, n, len(KellyColors))
	}
	pool := KellyColors
	if n <= 7 {
		pool = KellyColors[:7]
	}
	colors := append([]string(nil), pool...)
	shuffle := rand.Shuffle
	if rnd != nil {
		shuffle = rnd.Shuffle
	}
	shuffle(len(colors), func(i, j int) { colors[i], colors[j] = colors[j], colors[i] })
	return colors[:n], nil
}

// ColorNodes sets the color of the nodes in d according to the values of
// the named feature and returns the value to color mapping. The None
// feature resets all nodes to the default color.
func ColorNodes(d *Data, feature string, rnd *rand.Rand) (map[string]string, error) {
	if feature == None {
		for i := range d.Nodes {
			d.Nodes[i].Color = DefaultColor
		}
		return nil, nil
	}
	values := make([]string, len(d.Nodes))
	for i, n := range d.Nodes {
		values[i] = table.Format(n.Attrs[feature])
	}
	mapping, err := colorMapping(values, rnd)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		d.Nodes[i].Color = mapping[v]
	}
	return mapping, nil
}

// ColorEdges sets the color of the edges in d according to the values of
// the named feature and returns the value to color mapping. The None
// feature resets all edges to the default color.
func ColorEdges(d *Data, feature string, rnd *rand.Rand) (map[string]string, error) {
	if feature == None {
		for i := range d.Edges {
			d.Edges[i].Color = DefaultColor
		}
		return nil, nil
	}
	values := make([]string, len(d.Edges))
	for i, e := range d.Edges {
		values[i] = table.Format(e.Attrs[feature])
	}
	mapping, err := colorMapping(values, rnd)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		d.Edges[i].Color = mapping[v]
	}
	return mapping, nil
}

func colorMapping(values []string, rnd *rand.Rand) (map[string]string, error) {
	var unique []string
	seen := make(map[string]bool)
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			unique = append(unique, v)
		}
	}
	colors, err := DistinctColors(len(unique), rnd)
	if err != nil {
		return nil, err
	}
	mapping := make(map[string]string, len(unique))
	for i, v := range unique {
		mapping[v] = colors[i]
	}
	return mapping, nil
}

// SizeNodes sets the size of the nodes in d according to the values of
// the named numeric feature, scaled into [0, 20] and added to the default
// size. The None feature resets all nodes to the default size.
func SizeNodes(d *Data, feature string, scaling Scaling) {
	r, ok := scaling.Node[feature]
	for i, n := range d.Nodes {
		d.Nodes[i].Size = DefaultNodeSize
		if feature == None || !ok {
			continue
		}
		v, isNum := n.Attrs[feature].(float64)
		if !isNum || r.Max == r.Min {
			continue
		}
		d.Nodes[i].Size += 20 * (v - r.Min) / (r.Max - r.Min)
	}
}

// SizeEdges sets the width of the edges in d to the values of the named
// numeric feature. The None feature resets all edges to the default width.
func SizeEdges(d *Data, feature string) {
	for i, e := range d.Edges {
		d.Edges[i].Width = DefaultEdgeSize
		if feature == None {
			continue
		}
		if v, ok := e.Attrs[feature].(float64); ok {
			d.Edges[i].Width = v
		}
	}
}

// Search hides the nodes of d whose label does not contain text and shows
// those that do. The endpoints of edges whose label contains text are also
// shown. Matching is case insensitive.
func Search(d *Data, text string) {
	text = strings.ToLower(text)
	for i, n := range d.Nodes {
		d.Nodes[i].Hidden = !strings.Contains(strings.ToLower(n.Label), text)
	}
	for _, e := range d.Edges {
		if !strings.Contains(strings.ToLower(e.Label), text) {
			continue
		}
		for i, n := range d.Nodes {
			label := strings.ToLower(n.Label)
			if label == strings.ToLower(e.From) || label == strings.ToLower(e.To) {
				d.Nodes[i].Hidden = false
			}
		}
	}
}

// LegendEntry is a value and its color.
type LegendEntry struct {
	Value string `json:"value"`
	Color string `json:"color"`
}

// LegendSection is the color legend for nodes or edges.
type LegendSection struct {
	Title   string        `json:"title"`
	Entries []LegendEntry `json:"entries,omitempty"`
	// Filler is shown when there are no entries.
	Filler string `json:"filler,omitempty"`
}

// Legend returns the node and edge color legends for the given value to
// color mappings.
func Legend(nodes, edges map[string]string) []LegendSection {
	return []LegendSection{
		legendFor("Node", nodes),
		legendFor("Edge", edges),
	}
}

func legendFor(title string, mapping map[string]string) LegendSection {
	s := LegendSection{Title: title + " legends"}
	if len(mapping) == 0 {
		s.Filler = "no " + strings.ToLower(title) + " colored!"
		return s
	}
	for v, c := range mapping {
		s.Entries = append(s.Entries, LegendEntry{Value: v, Color: c})
	}
	sortEntries(s.Entries)
	return s
}

func sortEntries(e []LegendEntry) {
	sort.Slice(e, func(i, j int) bool { return e[i].Value < e[j].Value })
}
