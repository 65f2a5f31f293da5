// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bionet

import (
	"github.com/pkg/errors"
)

// Grads are the gradients of a loss with respect to the network weights
// and biases.  They are owned by the caller and only ever accumulated into.
type Grads struct {
	W []float64 `desc:"gradient for each edge weight"`
	B []float64 `desc:"gradient for each node bias"`
}

// NewGrads returns zero gradients sized for network nt
func NewGrads(nt *Network) *Grads {
	return &Grads{W: make([]float64, len(nt.Wts)), B: make([]float64, len(nt.Bias))}
}

// Zero sets all gradients to zero
func (gr *Grads) Zero() {
	for i := range gr.W {
		gr.W[i] = 0
	}
	for i := range gr.B {
		gr.B[i] = 0
	}
}

// Add adds the other gradients into these
func (gr *Grads) Add(o *Grads) {
	for i, v := range o.W {
		gr.W[i] += v
	}
	for i, v := range o.B {
		gr.B[i] += v
	}
}

// GradStrategy computes the gradient of a loss through a solved state.
type GradStrategy interface {
	// Backward takes the gradient gOut of the loss with respect to the
	// clipped final state st.X, and adds the gradients with respect to
	// the weights and biases into g, and with respect to the input
	// injection into dIn (if non-nil).  Neither gOut nor the network is modified.
	Backward(nt *Network, st *SampleState, gOut []float64, g *Grads, dIn []float64) error
}

// GradStrategy returns the strategy selected by Solver.Grad
func (nt *Network) GradStrategy() GradStrategy {
	if nt.Solver.Grad == Unrolled {
		return &UnrolledGrad{}
	}
	return &ImplicitGrad{Terms: nt.Solver.NeumannTerms}
}

// Backward adds the gradients for solved state st using the selected strategy
func (nt *Network) Backward(st *SampleState, gOut []float64, g *Grads, dIn []float64) error {
	return nt.GradStrategy().Backward(nt, st, gOut, g, dIn)
}

// UnrolledGrad back-propagates through every taped iteration of the solve.
type UnrolledGrad struct {
}

func (ug *UnrolledGrad) Backward(nt *Network, st *SampleState, gOut []float64, g *Grads, dIn []float64) error {
	if !st.Taped() {
		return errors.New("bionet: unrolled gradient needs a taped solve (Train mode)")
	}
	var sp Stepper = nt
	nn := nt.Graph.NNodes
	gx := append([]float64(nil), gOut...)
	nt.ClipGrad(st, gx)
	dh := make([]float64, nn)
	xprv := make([]float64, nn)
	for k := len(st.Tape) - 1; k >= 0; k-- {
		if k == 0 {
			for i := range xprv {
				xprv[i] = nt.Solver.InitAct
			}
		} else {
			nt.Act.FunVec(xprv, st.Tape[k-1])
		}
		sp.StepBack(gx, dh, gx, st.Tape[k])
		nt.AccumWtGrad(g.W, g.B, dh, xprv)
		if dIn != nil {
			for i, d := range dh {
				dIn[i] += d
			}
		}
	}
	return gradFinite(g, dIn)
}

// ImplicitGrad computes the gradient at the fixed point x* = f(W.x* + b + u):
// with D = diag(f'(pre*)), the gradient on the pre-activation is
// dh = D . (I - W^T.D)^-1 . g, where the inverse is approximated by the
// Neumann series sum_{k=0..Terms} (W^T.D)^k.
type ImplicitGrad struct {
	Terms int `desc:"number of series terms after the identity"`
}

func (ig *ImplicitGrad) Backward(nt *Network, st *SampleState, gOut []float64, g *Grads, dIn []float64) error {
	nn := nt.Graph.NNodes
	term := append([]float64(nil), gOut...)
	nt.ClipGrad(st, term)
	d := make([]float64, nn)
	nt.Act.DerivVec(d, st.Pre)
	v := append([]float64(nil), term...)
	dt := make([]float64, nn)
	for k := 0; k < ig.Terms; k++ {
		for i := range dt {
			dt[i] = d[i] * term[i]
		}
		nt.WtsT(term, dt)
		for i := range v {
			v[i] += term[i]
		}
	}
	dh := make([]float64, nn)
	for i := range dh {
		dh[i] = d[i] * v[i]
	}
	nt.AccumWtGrad(g.W, g.B, dh, st.Raw)
	if dIn != nil {
		for i, dv := range dh {
			dIn[i] += dv
		}
	}
	return gradFinite(g, dIn)
}

func gradFinite(g *Grads, dIn []float64) error {
	if err := CheckFinite("weight gradient", g.W); err != nil {
		return err
	}
	if err := CheckFinite("bias gradient", g.B); err != nil {
		return err
	}
	if dIn != nil {
		return CheckFinite("input gradient", dIn)
	}
	return nil
}
