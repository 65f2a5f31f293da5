// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sgraph

import "math/rand"

// Random returns a random graph over n nodes in which each ordered pair
// of distinct nodes is connected with probability density.
// All edges are Unconstrained.  The same seed always gives the same graph.
func Random(n int, density float64, seed int64) *Graph {
	rnd := rand.New(rand.NewSource(seed))
	var src, trg []int32
	for t := 0; t < n; t++ {
		for s := 0; s < n; s++ {
			if s == t {
				continue
			}
			if rnd.Float64() < density {
				src = append(src, int32(s))
				trg = append(trg, int32(t))
			}
		}
	}
	gr, err := New(n, src, trg, make([]SignModes, len(src)))
	if err != nil { // only possible for n <= 0
		return nil
	}
	return gr
}
