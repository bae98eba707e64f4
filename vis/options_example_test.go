// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vis_test

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/kortschak/jaal/vis"
)

func ExampleOptions() {
	opts := vis.Options(true, map[string]any{
		"height": "900px",
		"physics": map[string]any{
			"enabled": false,
		},
	})
	b, err := json.MarshalIndent(opts, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(b))

	// Output:
	// {
	//   "edges": {
	//     "arrows": {
	//       "to": true
	//     },
	//     "font": {
	//       "size": 0
	//     }
	//   },
	//   "height": "900px",
	//   "interaction": {
	//     "hover": true
	//   },
	//   "physics": {
	//     "enabled": false,
	//     "stabilization": {
	//       "iterations": 100
	//     }
	//   },
	//   "width": "100%"
	// }
}
