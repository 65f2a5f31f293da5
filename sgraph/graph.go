// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package sgraph holds the sparse signed interaction graph of a bionetwork:
a directed edge list in coordinate (COO) form over an NNodes x NNodes
space, a sign constraint (mode of action) per edge, and a role per node.

The coordinate list is the canonical order: weight vectors are indexed
by edge in exactly this order, and the sign mask is aligned with it.
Receiver- and sender-ordered index lists are built once at construction
so that W.x and W^T.g products can be computed per node.

The edges of a Graph are never changed after New returns: only the node
roles may be tagged, when a model is built over the graph.
*/
package sgraph

import (
	"fmt"

	"github.com/emer/etable/minmax"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrConfig is the cause of all malformed network definition errors.
var ErrConfig = errors.New("malformed network definition")

// Graph is a sparse directed graph with a sign constraint on each edge.
// Edge e goes from node Src[e] to node Trg[e], so in dense form the
// weight lives at row Trg[e], column Src[e].
type Graph struct {
	NNodes int         `desc:"number of nodes -- node indexes are in [0, NNodes)"`
	Src    []int32     `desc:"source (sending) node for each edge"`
	Trg    []int32     `desc:"target (receiving) node for each edge"`
	Signs  []SignModes `desc:"sign constraint for each edge, aligned with Src, Trg"`
	Roles  []NodeRoles `desc:"role of each node"`

	RecvN    []int32 `view:"-" desc:"number of incoming edges for each node"`
	RecvSt   []int32 `view:"-" desc:"starting index into RecvEdge for each node"`
	RecvEdge []int32 `view:"-" desc:"edge indexes ordered by target node, then by edge order"`
	SendN    []int32 `view:"-" desc:"number of outgoing edges for each node"`
	SendSt   []int32 `view:"-" desc:"starting index into SendEdge for each node"`
	SendEdge []int32 `view:"-" desc:"edge indexes ordered by source node, then by edge order"`

	RecvRange minmax.F64 `inactive:"+" desc:"min / max number of incoming edges per node"`
	SendRange minmax.F64 `inactive:"+" desc:"min / max number of outgoing edges per node"`
}

// New returns a new graph with nNodes nodes and the given edges.
// All configuration problems are reported as errors with cause ErrConfig:
// mismatched lengths, out-of-range indexes and duplicate (src, trg) pairs.
// Nothing is silently corrected.
func New(nNodes int, src, trg []int32, signs []SignModes) (*Graph, error) {
	if nNodes <= 0 {
		return nil, errors.Wrapf(ErrConfig, "number of nodes must be positive, got %d", nNodes)
	}
	if len(src) != len(trg) {
		return nil, errors.Wrapf(ErrConfig, "source list length %d != target list length %d", len(src), len(trg))
	}
	if len(signs) != len(src) {
		return nil, errors.Wrapf(ErrConfig, "sign mask length %d != edge list length %d", len(signs), len(src))
	}
	seen := make(map[[2]int32]int, len(src))
	for e := range src {
		s, t := src[e], trg[e]
		if s < 0 || int(s) >= nNodes || t < 0 || int(t) >= nNodes {
			return nil, errors.Wrapf(ErrConfig, "edge %d: %d -> %d out of range for %d nodes", e, s, t, nNodes)
		}
		if signs[e] < 0 || signs[e] >= SignModesN {
			return nil, errors.Wrapf(ErrConfig, "edge %d: invalid sign mode %d", e, signs[e])
		}
		key := [2]int32{s, t}
		if pe, has := seen[key]; has {
			return nil, errors.Wrapf(ErrConfig, "edge %d: duplicate of edge %d: %d -> %d", e, pe, s, t)
		}
		seen[key] = e
	}
	gr := &Graph{NNodes: nNodes}
	gr.Src = append([]int32(nil), src...)
	gr.Trg = append([]int32(nil), trg...)
	gr.Signs = append([]SignModes(nil), signs...)
	gr.Roles = make([]NodeRoles, nNodes)
	gr.BuildIndex()
	return gr, nil
}

// BuildIndex constructs the receiver- and sender-ordered edge index lists.
func (gr *Graph) BuildIndex() {
	nn := gr.NNodes
	gr.RecvN = make([]int32, nn)
	gr.SendN = make([]int32, nn)
	for e := range gr.Src {
		gr.RecvN[gr.Trg[e]]++
		gr.SendN[gr.Src[e]]++
	}
	tot := gr.SetNIndexSt(gr.RecvN, &gr.RecvSt, &gr.RecvRange)
	gr.SetNIndexSt(gr.SendN, &gr.SendSt, &gr.SendRange)
	gr.RecvEdge = make([]int32, tot)
	gr.SendEdge = make([]int32, tot)

	rcur := make([]int32, nn) // temporary: current n of recv edges filled per node
	scur := make([]int32, nn)
	for e := range gr.Src {
		t := gr.Trg[e]
		s := gr.Src[e]
		gr.RecvEdge[gr.RecvSt[t]+rcur[t]] = int32(e)
		rcur[t]++
		gr.SendEdge[gr.SendSt[s]+scur[s]] = int32(e)
		scur[s]++
	}
}

// SetNIndexSt sets the starting indexes from the counts in n,
// and updates the count range.  Returns the total count.
func (gr *Graph) SetNIndexSt(n []int32, idxst *[]int32, rng *minmax.F64) int32 {
	*idxst = make([]int32, len(n))
	rng.SetInfinity()
	idx := int32(0)
	for i, nv := range n {
		(*idxst)[i] = idx
		idx += nv
		rng.FitValInRange(float64(nv))
	}
	return idx
}

// NEdges returns the number of edges
func (gr *Graph) NEdges() int {
	return len(gr.Src)
}

// Coords returns the coordinate list: source and target node of each edge.
func (gr *Graph) Coords() (src, trg []int32) {
	return gr.Src, gr.Trg
}

// Shape returns the implied dense shape (rows = targets, cols = sources).
func (gr *Graph) Shape() (rows, cols int) {
	return gr.NNodes, gr.NNodes
}

// SignMask returns the sign constraint of each edge, aligned with Coords.
func (gr *Graph) SignMask() []SignModes {
	return gr.Signs
}

// Violations returns the mask of edges whose weight in w contradicts
// the edge's sign constraint.  Unconstrained edges are never violations.
func (gr *Graph) Violations(w []float64) []bool {
	viol := make([]bool, len(gr.Signs))
	for e, sm := range gr.Signs {
		viol[e] = sm.Violates(w[e])
	}
	return viol
}

// NViolations returns the number of edges violating their sign constraint.
func (gr *Graph) NViolations(w []float64) int {
	n := 0
	for e, sm := range gr.Signs {
		if sm.Violates(w[e]) {
			n++
		}
	}
	return n
}

// EdgeIndex returns the edge index for given source, target pair, or -1 if none.
func (gr *Graph) EdgeIndex(src, trg int) int {
	st := gr.RecvSt[trg]
	for ci := int32(0); ci < gr.RecvN[trg]; ci++ {
		e := gr.RecvEdge[st+ci]
		if int(gr.Src[e]) == src {
			return int(e)
		}
	}
	return -1
}

///////////////////////////////////////////////////////////////////////
//  Roles

// SetRole sets the role of node ni.
func (gr *Graph) SetRole(ni int, role NodeRoles) {
	gr.Roles[ni] = role
}

// Role returns the role of node ni.
func (gr *Graph) Role(ni int) NodeRoles {
	return gr.Roles[ni]
}

// NodesByRole returns the indexes of all nodes with given role, in index order.
func (gr *Graph) NodesByRole(role NodeRoles) []int {
	var nodes []int
	for ni, r := range gr.Roles {
		if r == role {
			nodes = append(nodes, ni)
		}
	}
	return nodes
}

///////////////////////////////////////////////////////////////////////
//  Dense conversion

// Dense returns the dense NNodes x NNodes adjacency matrix for weights w,
// with w[e] at row Trg[e], column Src[e].
func (gr *Graph) Dense(w []float64) *mat.Dense {
	dm := mat.NewDense(gr.NNodes, gr.NNodes, nil)
	for e := range gr.Src {
		dm.Set(int(gr.Trg[e]), int(gr.Src[e]), w[e])
	}
	return dm
}

// WtsFromDense reads the edge weights in coordinate order from a dense matrix.
func (gr *Graph) WtsFromDense(dm mat.Matrix) []float64 {
	w := make([]float64, len(gr.Src))
	for e := range gr.Src {
		w[e] = dm.At(int(gr.Trg[e]), int(gr.Src[e]))
	}
	return w
}

// FromDense builds a graph from the non-zero entries of a square dense
// matrix, in row-major order (by target, then source).  The sign of each
// edge is given by signFun, or Unconstrained if signFun is nil.
// Returns the graph and the edge weights.
func FromDense(dm mat.Matrix, signFun func(src, trg int, w float64) SignModes) (*Graph, []float64, error) {
	r, c := dm.Dims()
	if r != c {
		return nil, nil, errors.Wrapf(ErrConfig, "adjacency must be square, got %d x %d", r, c)
	}
	var src, trg []int32
	var signs []SignModes
	var w []float64
	for t := 0; t < r; t++ {
		for s := 0; s < c; s++ {
			v := dm.At(t, s)
			if v == 0 {
				continue
			}
			src = append(src, int32(s))
			trg = append(trg, int32(t))
			w = append(w, v)
			sm := Unconstrained
			if signFun != nil {
				sm = signFun(s, t, v)
			}
			signs = append(signs, sm)
		}
	}
	gr, err := New(r, src, trg, signs)
	if err != nil {
		return nil, nil, err
	}
	return gr, w, nil
}

// String returns a brief summary of the graph
func (gr *Graph) String() string {
	nc := make([]int, SignModesN)
	for _, sm := range gr.Signs {
		nc[sm]++
	}
	return fmt.Sprintf("Graph: Nodes: %d  Edges: %d  (%s: %d  %s: %d  %s: %d)  FanIn: [%g..%g]  FanOut: [%g..%g]",
		gr.NNodes, len(gr.Src), Activating, nc[Activating], Inhibiting, nc[Inhibiting], Unconstrained, nc[Unconstrained],
		gr.RecvRange.Min, gr.RecvRange.Max, gr.SendRange.Min, gr.SendRange.Max)
}
