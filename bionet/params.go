// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bionet

import (
	"github.com/goki/ki/kit"
	"github.com/pkg/errors"
)

// GradTypes are the gradient strategies for the steady state
type GradTypes int32

//go:generate stringer -type=GradTypes

var KiT_GradTypes = kit.Enums.AddEnum(GradTypesN, kit.NotBitFlag, nil)

func (ev GradTypes) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *GradTypes) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

// The gradient strategies
const (
	// Implicit uses the implicit-function gradient at the fixed point,
	// with a truncated Neumann series for the matrix inverse.
	Implicit GradTypes = iota

	// Unrolled back-propagates through every iteration of the solve,
	// which must be recorded on a tape in the forward pass.
	Unrolled

	GradTypesN
)

// SolveParams are the parameters of the recurrent steady-state solver
// and its gradient.
type SolveParams struct {
	Iters        int       `def:"150" min:"1" desc:"number of recurrent iterations -- always exactly this many, with no tolerance-based stopping"`
	Clip         float64   `def:"5,1" min:"0" desc:"state values beyond +/- Clip after the last iteration are pulled back toward Clip"`
	Leak         float64   `def:"0.01" min:"0" desc:"slope of the state beyond the Clip boundary, which keeps a nonzero gradient there"`
	InitAct      float64   `def:"0" desc:"initial state value of every node at the start of the solve"`
	Grad         GradTypes `desc:"gradient strategy"`
	NeumannTerms int       `def:"100" min:"0" viewif:"Grad=Implicit" desc:"number of Neumann series terms after the identity used to approximate (I - D.W)^-1 in the implicit gradient"`
	GradTol      float64   `def:"0.01" desc:"relative tolerance above which CompareGrads reports a divergence between strategies"`
	ConvTol      float64   `def:"1e-6" desc:"fixed point residual above which a state is diagnosed as not converged"`
}

func (sp *SolveParams) Defaults() {
	sp.Iters = 150
	sp.Clip = 5
	sp.Leak = 0.01
	sp.InitAct = 0
	sp.Grad = Implicit
	sp.NeumannTerms = 100
	sp.GradTol = 0.01
	sp.ConvTol = 1e-6
}

func (sp *SolveParams) Update() {
	if sp.Iters < 1 {
		sp.Iters = 1
	}
	if sp.NeumannTerms < 0 {
		sp.NeumannTerms = 0
	}
}

// SetGrad sets the gradient strategy from its name, e.g., "Unrolled".
// The strategy is unchanged on error, which has cause ErrConfig.
func (sp *SolveParams) SetGrad(name string) error {
	var gt GradTypes
	if err := gt.FromString(name); err != nil || gt < 0 || gt >= GradTypesN {
		return errors.Wrapf(ErrConfig, "%q is not a gradient strategy", name)
	}
	sp.Grad = gt
	return nil
}

// ClipLeak applies the soft clip-with-leak to one value
func (sp *SolveParams) ClipLeak(v float64) float64 {
	switch {
	case v > sp.Clip:
		return sp.Clip + sp.Leak*(v-sp.Clip)
	case v < -sp.Clip:
		return -sp.Clip + sp.Leak*(v+sp.Clip)
	}
	return v
}

// ClipLeakDeriv is the derivative of ClipLeak at v
func (sp *SolveParams) ClipLeakDeriv(v float64) float64 {
	if v > sp.Clip || v < -sp.Clip {
		return sp.Leak
	}
	return 1
}

// SpecParams are the parameters for the spectral radius estimate
// and its penalty.
type SpecParams struct {
	Target     float64 `def:"0.9" desc:"spectral radius ceiling -- penalty is exp(ExpFactor * (rho - Target)), offset to be zero at Floor"`
	Floor      float64 `def:"0.5" desc:"radius below which the penalty is exactly zero"`
	ExpFactor  float64 `def:"10" desc:"exponential steepness of the penalty"`
	PowerIters int     `def:"50" min:"1" desc:"number of power iterations for the estimate"`
	Tol        float64 `def:"1e-06" desc:"relative eigenvector residual for accepting the power iteration estimate -- otherwise the dense eigen decomposition is used"`
	NSamples   int     `def:"5" desc:"maximum number of batch states used as seeds for the estimate, 0 = all"`
}

func (sp *SpecParams) Defaults() {
	sp.Target = 0.9
	sp.Floor = 0.5
	sp.ExpFactor = 10
	sp.PowerIters = 50
	sp.Tol = 1e-6
	sp.NSamples = 5
}

func (sp *SpecParams) Update() {
	if sp.Floor > sp.Target {
		sp.Floor = sp.Target
	}
	if sp.PowerIters < 1 {
		sp.PowerIters = 1
	}
}
