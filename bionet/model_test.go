// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bionet

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/emer/bionet/act"
	"github.com/emer/bionet/sgraph"
	"github.com/emer/emergent/etime"
	"github.com/goki/gi/gi"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func testModel(t *testing.T, seed int64) *Model {
	nt, _ := testNet(t, seed)
	md, err := NewModel(nt, []int{0, 1, 2}, []int{7, 8, 9}, 3, 1.2)
	if err != nil {
		t.Fatal(err)
	}
	return md
}

func testInput(seed int64, ns, nf int) *mat.Dense {
	rnd := rand.New(rand.NewSource(seed))
	X := mat.NewDense(ns, nf, nil)
	for s := 0; s < ns; s++ {
		for i := 0; i < nf; i++ {
			X.Set(s, i, 0.3*rnd.Float64())
		}
	}
	return X
}

func TestModelForward(t *testing.T) {
	md := testModel(t, 1)
	X := testInput(1, 4, 3)
	ms, err := md.Forward(X)
	if err != nil {
		t.Fatal(err)
	}
	for s := 0; s < 4; s++ {
		for j, ni := range md.Proj.NodeIdx {
			if math.Abs(ms.Y.At(s, j)-1.2*ms.Full.At(s, ni)) > difTol {
				t.Errorf("projection sample %d output %d: %g, should be %g", s, j, ms.Y.At(s, j), 1.2*ms.Full.At(s, ni))
			}
		}
	}
	if gr := md.Net.Graph; gr.Role(0) != sgraph.InputNode || gr.Role(9) != sgraph.OutputNode || gr.Role(5) != sgraph.InteriorNode {
		t.Errorf("node roles not set by NewModel")
	}
}

func TestModelErrors(t *testing.T) {
	nt, _ := testNet(t, 1)
	if _, err := NewModel(nt, []int{0, 10}, []int{9}, 3, 1.2); errors.Cause(err) != ErrConfig {
		t.Errorf("out of range input node should be ErrConfig, got: %v", err)
	}
	md := testModel(t, 1)
	if _, err := md.Forward(testInput(1, 2, 5)); errors.Cause(err) != ErrConfig {
		t.Errorf("wrong number of input features should be ErrConfig, got: %v", err)
	}
}

// TestModelBackward checks all model gradients against central differences
// of the loss L = sum dY * Y, with the smooth sigmoid.
func TestModelBackward(t *testing.T) {
	md := testModel(t, 2)
	md.Net.Act.Type = act.Sigmoid
	md.In.Learn = true
	X := testInput(2, 3, 3)
	dY := testInput(3, 3, 3)
	loss := func() float64 {
		ms, err := md.Forward(X)
		if err != nil {
			t.Fatal(err)
		}
		return mat.Sum(mulElem(ms.Y, dY))
	}
	ms, err := md.Forward(X)
	if err != nil {
		t.Fatal(err)
	}
	g := md.NewGrads()
	dX, err := md.Backward(ms, dY, nil, g)
	if err != nil {
		t.Fatal(err)
	}
	const h = 1e-6
	fd := func(v []float64, i int) float64 {
		sv := v[i]
		v[i] = sv + h
		lp := loss()
		v[i] = sv - h
		lm := loss()
		v[i] = sv
		return (lp - lm) / (2 * h)
	}
	chk := func(what string, v, gv []float64) {
		for i := range v {
			if num := fd(v, i); math.Abs(num-gv[i]) > 1e-5 {
				t.Errorf("%s %d: grad: %g, numeric: %g", what, i, gv[i], num)
			}
		}
	}
	chk("weight", md.Net.Wts, g.Net.W)
	chk("bias", md.Net.Bias, g.Net.B)
	chk("input weight", md.In.Wts, g.InW)
	chk("projection weight", md.Proj.Wts, g.ProjW)
	chk("input", X.RawMatrix().Data, dX.RawMatrix().Data)
}

func mulElem(a, b *mat.Dense) *mat.Dense {
	var m mat.Dense
	m.MulElem(a, b)
	return &m
}

func TestModelThreads(t *testing.T) {
	md := testModel(t, 3)
	X := testInput(4, 7, 3)
	dY := testInput(5, 7, 3)
	var gs [2]*ModelGrads
	var ys [2]*mat.Dense
	for i, nth := range []int{1, 3} {
		md.NThreads = nth
		ms, err := md.Forward(X)
		if err != nil {
			t.Fatal(err)
		}
		gs[i] = md.NewGrads()
		if _, err := md.Backward(ms, dY, nil, gs[i]); err != nil {
			t.Fatal(err)
		}
		ys[i] = ms.Y
	}
	if !mat.Equal(ys[0], ys[1]) {
		t.Errorf("outputs depend on NThreads")
	}
	for e := range gs[0].Net.W {
		if math.Abs(gs[0].Net.W[e]-gs[1].Net.W[e]) > 1e-12 {
			t.Errorf("weight grad %d depends on NThreads: %g vs %g", e, gs[0].Net.W[e], gs[1].Net.W[e])
		}
	}
}

func TestModelModes(t *testing.T) {
	md := testModel(t, 4)
	md.Net.Solver.Grad = Unrolled
	X := testInput(6, 2, 3)
	md.Mode = etime.Test
	ms, err := md.Forward(X)
	if err != nil {
		t.Fatal(err)
	}
	if ms.States[0].Taped() {
		t.Errorf("Test mode should not record a tape")
	}
	md.Mode = etime.Train
	ms2, err := md.Forward(X)
	if err != nil {
		t.Fatal(err)
	}
	if !ms2.States[0].Taped() {
		t.Errorf("Train mode with unrolled gradient should record a tape")
	}
	if !mat.Equal(ms.Full, ms2.Full) {
		t.Errorf("Train and Test mode states differ")
	}
}

func TestSnapshot(t *testing.T) {
	md := testModel(t, 5)
	md.Net.Act.Type = act.NXX1
	md.Proj.Wts[1] = 0.7
	X := testInput(7, 3, 3)
	ms, err := md.Forward(X)
	if err != nil {
		t.Fatal(err)
	}
	for _, fn := range []string{"model.json", "model.json.gz"} {
		fname := gi.FileName(filepath.Join(t.TempDir(), fn))
		if err := md.SaveJSON(fname); err != nil {
			t.Fatal(err)
		}
		md2, err := OpenJSON(fname)
		if err != nil {
			t.Fatal(err)
		}
		ms2, err := md2.Forward(X)
		if err != nil {
			t.Fatal(err)
		}
		if !mat.EqualApprox(ms.Y, ms2.Y, 1e-12) {
			t.Errorf("%s: reloaded model predicts differently", fn)
		}
	}
}
