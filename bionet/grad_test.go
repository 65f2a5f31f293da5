// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bionet

import (
	"math"
	"math/rand"
	"testing"

	"github.com/emer/bionet/act"
	"gonum.org/v1/gonum/floats"
)

func randVec(rnd *rand.Rand, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = rnd.NormFloat64()
	}
	return v
}

func TestGradEquivalence(t *testing.T) {
	for seed := int64(1); seed <= 3; seed++ {
		nt, u := testNet(t, seed)
		st, err := nt.Solve(u, true)
		if err != nil {
			t.Fatal(err)
		}
		gOut := randVec(rand.New(rand.NewSource(seed+100)), nt.NNodes())
		rep, _, _, err := nt.CompareGrads(st, gOut, nt.Solver.NeumannTerms)
		if err != nil {
			t.Fatal(err)
		}
		if rep.MaxRel() > 1e-2 || rep.Diverged {
			t.Errorf("seed %d: implicit and unrolled gradients differ: %v", seed, rep)
		}
	}
}

func TestNeumannTightening(t *testing.T) {
	nt, u := testNet(t, 11)
	st, err := nt.Solve(u, true)
	if err != nil {
		t.Fatal(err)
	}
	gOut := randVec(rand.New(rand.NewSource(111)), nt.NNodes())
	prv := math.Inf(1)
	for _, terms := range []int{1, 4, 16, 64} {
		rep, _, _, err := nt.CompareGrads(st, gOut, terms)
		if err != nil {
			t.Fatal(err)
		}
		gap := rep.MaxRel()
		if gap > prv+1e-12 {
			t.Errorf("gap increased with Neumann terms %d: %g > %g", terms, gap, prv)
		}
		prv = gap
	}
	if prv > 1e-6 {
		t.Errorf("gap with 64 terms is too large: %g", prv)
	}
}

// TestUnrolledFiniteDiff checks the unrolled gradient against central
// differences of the loss L = gOut . X, using the smooth sigmoid.
func TestUnrolledFiniteDiff(t *testing.T) {
	nt, u := testNet(t, 3)
	nt.Act.Type = act.Sigmoid
	nt.Solver.Iters = 60
	st, err := nt.Solve(u, true)
	if err != nil {
		t.Fatal(err)
	}
	gOut := randVec(rand.New(rand.NewSource(33)), nt.NNodes())
	g := NewGrads(nt)
	dIn := make([]float64, nt.NNodes())
	if err := (&UnrolledGrad{}).Backward(nt, st, gOut, g, dIn); err != nil {
		t.Fatal(err)
	}
	loss := func() float64 {
		s, err := nt.Solve(u, false)
		if err != nil {
			t.Fatal(err)
		}
		return floats.Dot(gOut, s.X)
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
	for e := range nt.Wts {
		if num := fd(nt.Wts, e); math.Abs(num-g.W[e]) > 1e-6 {
			t.Errorf("weight %d: unrolled: %g, numeric: %g", e, g.W[e], num)
		}
	}
	for i := range nt.Bias {
		if num := fd(nt.Bias, i); math.Abs(num-g.B[i]) > 1e-6 {
			t.Errorf("bias %d: unrolled: %g, numeric: %g", i, g.B[i], num)
		}
		if num := fd(u, i); math.Abs(num-dIn[i]) > 1e-6 {
			t.Errorf("input %d: unrolled: %g, numeric: %g", i, dIn[i], num)
		}
	}
}

func TestUnrolledNeedsTape(t *testing.T) {
	nt, u := testNet(t, 2)
	st, err := nt.Solve(u, false)
	if err != nil {
		t.Fatal(err)
	}
	nt.Solver.Grad = Unrolled
	if err := nt.Backward(st, make([]float64, nt.NNodes()), NewGrads(nt), nil); err == nil {
		t.Errorf("unrolled backward without tape should fail")
	}
	nt.Solver.Grad = Implicit
	if err := nt.Backward(st, make([]float64, nt.NNodes()), NewGrads(nt), nil); err != nil {
		t.Errorf("implicit backward without tape should work: %v", err)
	}
}

func TestNotConvergedDiagnosis(t *testing.T) {
	nt, u := testNet(t, 4)
	nt.Solver.Iters = 2
	st, err := nt.Solve(u, true)
	if err != nil {
		t.Fatal(err)
	}
	gOut := randVec(rand.New(rand.NewSource(44)), nt.NNodes())
	rep, _, _, err := nt.CompareGrads(st, gOut, 100)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Diverged && rep.Diagnosis != "not converged" {
		t.Errorf("two-iteration state diagnosed as: %s", rep.Diagnosis)
	}
	if rep.Residual <= nt.Solver.ConvTol {
		t.Errorf("two-iteration residual should exceed tolerance: %g", rep.Residual)
	}
}
