// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sgraph

import (
	"testing"

	"github.com/pkg/errors"
)

func testGraph(t *testing.T) *Graph {
	src := []int32{0, 1, 2, 0, 3}
	trg := []int32{1, 2, 0, 2, 1}
	signs := []SignModes{Activating, Inhibiting, Unconstrained, Activating, Inhibiting}
	gr, err := New(4, src, trg, signs)
	if err != nil {
		t.Fatal(err)
	}
	return gr
}

func TestViolations(t *testing.T) {
	gr := testGraph(t)
	w := []float64{-0.5, 0.3, -2, 0, -0.1}
	cor := []bool{true, true, false, false, false}
	viol := gr.Violations(w)
	for e := range cor {
		if viol[e] != cor[e] {
			t.Errorf("edge %d: w: %g sign: %v violation: %v, should be: %v", e, w[e], gr.Signs[e], viol[e], cor[e])
		}
	}
	if nv := gr.NViolations(w); nv != 2 {
		t.Errorf("NViolations: %d, should be 2", nv)
	}
}

func TestUnconstrainedNeverViolates(t *testing.T) {
	for _, w := range []float64{-100, -1e-12, 0, 1e-12, 100} {
		if Unconstrained.Violates(w) {
			t.Errorf("Unconstrained violates for w: %g", w)
		}
		if Activating.Violates(0) || Inhibiting.Violates(0) {
			t.Errorf("zero weight should never violate")
		}
	}
}

func TestSignModeFromFlags(t *testing.T) {
	tests := []struct {
		stim, inhib bool
		cor         SignModes
	}{
		{true, false, Activating},
		{false, true, Inhibiting},
		{true, true, Unconstrained},
		{false, false, Unconstrained},
	}
	for _, ts := range tests {
		if sm := SignModeFromFlags(ts.stim, ts.inhib); sm != ts.cor {
			t.Errorf("stim: %v inhib: %v: got %v, should be %v", ts.stim, ts.inhib, sm, ts.cor)
		}
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		src   []int32
		trg   []int32
		signs []SignModes
	}{
		{"sign length", 3, []int32{0, 1}, []int32{1, 2}, []SignModes{Activating}},
		{"coord length", 3, []int32{0, 1}, []int32{1}, []SignModes{Activating, Activating}},
		{"range", 3, []int32{0, 3}, []int32{1, 2}, []SignModes{Activating, Activating}},
		{"negative", 3, []int32{0, -1}, []int32{1, 2}, []SignModes{Activating, Activating}},
		{"duplicate", 3, []int32{0, 0}, []int32{1, 1}, []SignModes{Activating, Inhibiting}},
		{"no nodes", 0, nil, nil, nil},
	}
	for _, ts := range tests {
		_, err := New(ts.n, ts.src, ts.trg, ts.signs)
		if err == nil {
			t.Errorf("%s: expected error", ts.name)
			continue
		}
		if errors.Cause(err) != ErrConfig {
			t.Errorf("%s: error cause should be ErrConfig, got: %v", ts.name, err)
		}
	}
}

func TestCoordsAligned(t *testing.T) {
	gr := testGraph(t)
	src, trg := gr.Coords()
	if len(src) != len(trg) || len(gr.SignMask()) != len(src) {
		t.Errorf("coordinate and sign lengths differ: %d %d %d", len(src), len(trg), len(gr.SignMask()))
	}
	r, c := gr.Shape()
	if r != 4 || c != 4 {
		t.Errorf("shape: %d x %d, should be 4 x 4", r, c)
	}
}

func TestDenseRoundTrip(t *testing.T) {
	gr := testGraph(t)
	w := []float64{0.5, -0.3, 1.25, 0.75, -0.1}
	dm := gr.Dense(w)
	for e := range w {
		if v := dm.At(int(gr.Trg[e]), int(gr.Src[e])); v != w[e] {
			t.Errorf("dense edge %d: %g, should be %g", e, v, w[e])
		}
	}
	rw := gr.WtsFromDense(dm)
	for e := range w {
		if rw[e] != w[e] {
			t.Errorf("round trip edge %d: %g, should be %g", e, rw[e], w[e])
		}
	}

	ng, nw, err := FromDense(dm, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ng.NEdges() != gr.NEdges() {
		t.Fatalf("FromDense edges: %d, should be %d", ng.NEdges(), gr.NEdges())
	}
	for e := range nw {
		oe := gr.EdgeIndex(int(ng.Src[e]), int(ng.Trg[e]))
		if oe < 0 {
			t.Errorf("FromDense edge %d -> %d missing from the source graph", ng.Src[e], ng.Trg[e])
			continue
		}
		if w[oe] != nw[e] {
			t.Errorf("FromDense edge %d -> %d: %g, should be %g", ng.Src[e], ng.Trg[e], nw[e], w[oe])
		}
	}
}

func TestIndexes(t *testing.T) {
	gr := testGraph(t)
	for ni := 0; ni < gr.NNodes; ni++ {
		for ci := int32(0); ci < gr.RecvN[ni]; ci++ {
			e := gr.RecvEdge[gr.RecvSt[ni]+ci]
			if int(gr.Trg[e]) != ni {
				t.Errorf("recv index for node %d includes edge %d with target %d", ni, e, gr.Trg[e])
			}
		}
		for ci := int32(0); ci < gr.SendN[ni]; ci++ {
			e := gr.SendEdge[gr.SendSt[ni]+ci]
			if int(gr.Src[e]) != ni {
				t.Errorf("send index for node %d includes edge %d with source %d", ni, e, gr.Src[e])
			}
		}
	}
	if gr.RecvRange.Max != 2 || gr.RecvRange.Min != 0 {
		t.Errorf("fan-in range: %v, should be [0..2]", gr.RecvRange)
	}
}

func TestRoles(t *testing.T) {
	gr := testGraph(t)
	gr.SetRole(3, InputNode)
	gr.SetRole(1, OutputNode)
	if in := gr.NodesByRole(InputNode); len(in) != 1 || in[0] != 3 {
		t.Errorf("input nodes: %v, should be [3]", in)
	}
	if gr.Role(0) != InteriorNode {
		t.Errorf("default role: %v, should be InteriorNode", gr.Role(0))
	}
}

func TestRandom(t *testing.T) {
	g1 := Random(10, 0.5, 42)
	g2 := Random(10, 0.5, 42)
	if g1.NEdges() != g2.NEdges() {
		t.Fatalf("same seed gave different graphs: %d vs %d edges", g1.NEdges(), g2.NEdges())
	}
	for e := range g1.Src {
		if g1.Src[e] == g1.Trg[e] {
			t.Errorf("self loop at edge %d", e)
		}
		if g1.Src[e] != g2.Src[e] || g1.Trg[e] != g2.Trg[e] {
			t.Errorf("same seed gave different edge %d", e)
		}
	}
	if g1.NEdges() == 0 || g1.NEdges() == 90 {
		t.Errorf("implausible edge count for density .5: %d", g1.NEdges())
	}
}
