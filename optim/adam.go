// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optim

import (
	"math"

	"github.com/pkg/errors"
)

// AdamParams are the Adam optimizer parameters
type AdamParams struct {
	Beta1 float64 `def:"0.9" desc:"decay rate of the first moment (mean) estimate"`
	Beta2 float64 `def:"0.999" desc:"decay rate of the second moment (variance) estimate"`
	Eps   float64 `def:"1e-08" desc:"denominator offset"`
}

func (ap *AdamParams) Defaults() {
	ap.Beta1 = 0.9
	ap.Beta2 = 0.999
	ap.Eps = 1e-8
}

// Adam updates a fixed list of parameter vectors from their gradients
// using bias-corrected first and second moment estimates.
type Adam struct {
	AdamParams
	Params [][]float64 `view:"-" desc:"parameter vectors, updated in place"`
	M      [][]float64 `view:"-" desc:"first moment estimate per parameter"`
	V      [][]float64 `view:"-" desc:"second moment estimate per parameter"`
	T      int         `inactive:"+" desc:"number of steps since the last reset"`
}

// NewAdam returns a new optimizer over given parameter vectors,
// which are updated in place by Step
func NewAdam(params ...[]float64) *Adam {
	op := &Adam{Params: params}
	op.Defaults()
	op.M = make([][]float64, len(params))
	op.V = make([][]float64, len(params))
	for i, p := range params {
		op.M[i] = make([]float64, len(p))
		op.V[i] = make([]float64, len(p))
	}
	return op
}

// Step applies one update with learning rate lr from gradients,
// one per parameter vector, in the same order as the parameters.
func (op *Adam) Step(lr float64, grads ...[]float64) error {
	if len(grads) != len(op.Params) {
		return errors.Errorf("optim: %d gradients for %d parameters", len(grads), len(op.Params))
	}
	for pi, p := range op.Params {
		if len(grads[pi]) != len(p) {
			return errors.Errorf("optim: gradient %d has length %d, parameter has %d", pi, len(grads[pi]), len(p))
		}
	}
	op.T++
	bc1 := 1 - math.Pow(op.Beta1, float64(op.T))
	bc2 := 1 - math.Pow(op.Beta2, float64(op.T))
	for pi, p := range op.Params {
		g := grads[pi]
		m := op.M[pi]
		v := op.V[pi]
		for i, gv := range g {
			m[i] = op.Beta1*m[i] + (1-op.Beta1)*gv
			v[i] = op.Beta2*v[i] + (1-op.Beta2)*gv*gv
			mh := m[i] / bc1
			vh := v[i] / bc2
			p[i] -= lr * mh / (math.Sqrt(vh) + op.Eps)
		}
	}
	return nil
}

// Reset sets the moment estimates and step count back to their
// initial state.  Calling it more than once has no further effect.
func (op *Adam) Reset() {
	for pi := range op.M {
		for i := range op.M[pi] {
			op.M[pi][i] = 0
			op.V[pi][i] = 0
		}
	}
	op.T = 0
}
