// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bionet

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/floats"
)

// GradReport compares the implicit and unrolled gradients on the same
// forward state.
type GradReport struct {
	RelW      float64 `desc:"relative difference of the weight gradients"`
	RelB      float64 `desc:"relative difference of the bias gradients"`
	RelIn     float64 `desc:"relative difference of the input gradients"`
	Residual  float64 `desc:"fixed point residual of the forward state"`
	Terms     int     `desc:"number of Neumann series terms used"`
	Diverged  bool    `desc:"true if any relative difference exceeds the tolerance"`
	Diagnosis string  `desc:"likely cause of a divergence: not converged, or insufficient Neumann terms"`
}

// MaxRel returns the largest of the relative differences
func (gr *GradReport) MaxRel() float64 {
	return floats.Max([]float64{gr.RelW, gr.RelB, gr.RelIn})
}

func (gr *GradReport) String() string {
	str := fmt.Sprintf("RelW: %.4g  RelB: %.4g  RelIn: %.4g  Residual: %.4g  Terms: %d", gr.RelW, gr.RelB, gr.RelIn, gr.Residual, gr.Terms)
	if gr.Diverged {
		str += "  DIVERGED: " + gr.Diagnosis
	}
	return str
}

// RelDiff returns |a - b| / |b| (Euclidean norms), or |a - b| if b is zero
func RelDiff(a, b []float64) float64 {
	dif := floats.Distance(a, b, 2)
	nb := floats.Norm(b, 2)
	if nb == 0 {
		return dif
	}
	return dif / nb
}

// GradPair holds the gradients of one strategy
type GradPair struct {
	Grads *Grads
	In    []float64
}

// CompareGrads computes the gradients for upstream gradient gOut on taped
// state st using both the unrolled and the implicit (with given number of
// Neumann terms) strategies, and reports their relative differences,
// using the unrolled gradients as the reference.  A difference above
// Solver.GradTol is diagnosed and logged as a warning, and is not an error.
// Errors are only returned for an untaped state or non-finite gradients.
func (nt *Network) CompareGrads(st *SampleState, gOut []float64, terms int) (*GradReport, *GradPair, *GradPair, error) {
	ur := &GradPair{Grads: NewGrads(nt), In: make([]float64, nt.Graph.NNodes)}
	im := &GradPair{Grads: NewGrads(nt), In: make([]float64, nt.Graph.NNodes)}
	if err := (&UnrolledGrad{}).Backward(nt, st, gOut, ur.Grads, ur.In); err != nil {
		return nil, nil, nil, err
	}
	if err := (&ImplicitGrad{Terms: terms}).Backward(nt, st, gOut, im.Grads, im.In); err != nil {
		return nil, nil, nil, err
	}
	rep := &GradReport{Terms: terms}
	rep.RelW = RelDiff(im.Grads.W, ur.Grads.W)
	rep.RelB = RelDiff(im.Grads.B, ur.Grads.B)
	rep.RelIn = RelDiff(im.In, ur.In)
	rep.Residual = nt.Residual(st)
	if rep.MaxRel() > nt.Solver.GradTol {
		rep.Diverged = true
		if rep.Residual > nt.Solver.ConvTol {
			rep.Diagnosis = "not converged"
		} else {
			rep.Diagnosis = "insufficient Neumann terms"
		}
		log.Printf("bionet: gradient strategies diverge: %s\n", rep)
	}
	return rep, ur, im, nil
}
