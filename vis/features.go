// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vis

import (
	"github.com/kortschak/jaal/table"
	"golang.org/x/exp/slices"
)

// None is the feature option that disables coloring or sizing.
const None = "None"

// Default feature exclusions.
var (
	NodeExclusions = []string{"shape", "label", "id"}
	EdgeExclusions = []string{"color", "from", "to", "id"}
)

// CategoricalFeatures returns None followed by the names of the String
// columns of t with at most limit distinct values, omitting the names in
// exclude.
func CategoricalFeatures(t *table.Table, limit int, exclude []string) []string {
	features := []string{None}
	if t == nil {
		return features
	}
	for _, c := range t.Columns {
		if c.Kind != table.String || slices.Contains(exclude, c.Name) {
			continue
		}
		if len(t.Unique(c.Name)) <= limit {
			features = append(features, c.Name)
		}
	}
	return features
}

// NumericalFeatures returns None followed by the names of the Number
// columns of t other than size.
func NumericalFeatures(t *table.Table) []string {
	features := []string{None}
	if t == nil {
		return features
	}
	for _, c := range t.Columns {
		if c.Kind == table.Number && c.Name != "size" {
			features = append(features, c.Name)
		}
	}
	return features
}
