// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bionet

import (
	"math"

	"github.com/pkg/errors"
)

// Stepper computes one iteration of a recurrence and its transpose.
// Network is the Stepper used by the solver and both gradient strategies.
type Stepper interface {
	// Step computes pre = W.x + b + u and nx = f(pre)
	Step(pre, nx, x, u []float64)

	// StepBack computes dh = g * f'(pre) and gx = W^T . dh
	StepBack(gx, dh, g, pre []float64)
}

var _ Stepper = (*Network)(nil)

// SampleState is the result of solving the network for one sample
type SampleState struct {
	X    []float64   `desc:"final state of every node, after clip-with-leak"`
	Raw  []float64   `desc:"final state of every node before clipping -- the approximate fixed point"`
	Pre  []float64   `desc:"pre-activation W.x + b + u of the last iteration"`
	U    []float64   `desc:"input injection used for the solve"`
	Tape [][]float64 `view:"-" desc:"pre-activation of every iteration, only when taped"`
}

// Taped returns true if this state recorded its iterations
func (st *SampleState) Taped() bool {
	return len(st.Tape) > 0
}

// Solve computes the steady state for input injection u (one value per
// node, zero for nodes without input; nil for no input).  The state starts
// at Solver.InitAct and is iterated exactly Solver.Iters times, after which
// values beyond +/- Solver.Clip are pulled back with slope Solver.Leak.
// If tape is true, every pre-activation is recorded for unrolled gradients.
// Returns an error with cause ErrNumerical if the state is not finite.
func (nt *Network) Solve(u []float64, tape bool) (*SampleState, error) {
	nn := nt.Graph.NNodes
	if u != nil && len(u) != nn {
		return nil, errors.Wrapf(ErrConfig, "input injection length %d != %d nodes", len(u), nn)
	}
	st := &SampleState{U: u}
	x := nt.InitState()
	nx := make([]float64, nn)
	pre := make([]float64, nn)
	if tape {
		st.Tape = make([][]float64, nt.Solver.Iters)
	}
	for it := 0; it < nt.Solver.Iters; it++ {
		nt.Step(pre, nx, x, u)
		if tape {
			st.Tape[it] = append([]float64(nil), pre...)
		}
		x, nx = nx, x
	}
	st.Raw = x
	st.Pre = pre
	st.X = make([]float64, nn)
	for i, v := range x {
		st.X[i] = nt.Solver.ClipLeak(v)
	}
	if err := CheckFinite("state", st.X); err != nil {
		return st, err
	}
	return st, nil
}

// InitState returns the state before the first iteration
func (nt *Network) InitState() []float64 {
	x := make([]float64, nt.Graph.NNodes)
	for i := range x {
		x[i] = nt.Solver.InitAct
	}
	return x
}

// Residual returns the largest absolute change that one more iteration
// would make to the unclipped state: max |f(W.x + b + u) - x|.
// It is a diagnostic only and is never used to stop the solver.
func (nt *Network) Residual(st *SampleState) float64 {
	nn := nt.Graph.NNodes
	pre := make([]float64, nn)
	nx := make([]float64, nn)
	nt.Step(pre, nx, st.Raw, st.U)
	res := 0.0
	for i := range nx {
		res = math.Max(res, math.Abs(nx[i]-st.Raw[i]))
	}
	return res
}

// ClipGrad converts the gradient g on the clipped state X into the
// gradient on the raw final state, in place.
func (nt *Network) ClipGrad(st *SampleState, g []float64) {
	for i, v := range st.Raw {
		g[i] *= nt.Solver.ClipLeakDeriv(v)
	}
}
