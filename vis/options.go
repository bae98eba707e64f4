// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vis

// Options returns the vis-network widget options. Values in overrides are
// merged recursively over the defaults.
func Options(directed bool, overrides map[string]any) map[string]any {
	opts := map[string]any{
		"height":      "600px",
		"width":       "100%",
		"interaction": map[string]any{"hover": true},
		"physics": map[string]any{
			"stabilization": map[string]any{"iterations": 100},
		},
		"edges": map[string]any{
			"arrows": map[string]any{"to": directed},
			"font":   map[string]any{"size": 0},
		},
	}
	merge(opts, overrides)
	return opts
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		sv, srcMap := v.(map[string]any)
		dv, dstMap := dst[k].(map[string]any)
		if srcMap && dstMap {
			merge(dv, sv)
			continue
		}
		dst[k] = v
	}
}
