// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package nxx1 provides the Noisy-X-over-X-plus-1 activation function, a saturating
sigmoid-like response with an initial largely-linear regime, in float64 with an
analytic derivative so it can be used as the node transfer function of a
recurrent signaling network trained by gradient descent.

The basic x/(x+1) function is convolved with a gaussian noise kernel, which creates
a continuous graded early level of output slightly below threshold, softening
the otherwise hard transition at threshold.

A hand-optimized piece-wise approximation of the convolution is used:
a sigmoid below zero, a linear interpolation over [0, InterpRange), and
a gain-corrected x/(x+1) above.  Each piece is smooth and the pieces meet
continuously, so the derivative is defined everywhere except at the two
junctions, where the right-hand derivative is returned.
*/
package nxx1

import "math"

// Params are the Noisy X/(X+1) activation function parameters.
type Params struct {
	Thr          float64 `def:"0.5" desc:"threshold value Theta (Q) subtracted from the input before applying the function, when used via FunThr"`
	Gain         float64 `def:"100,40,20,4" min:"0" desc:"gain (gamma) of the activation function -- lower values give more graded responses over a wider input range"`
	NVar         float64 `def:"0.005,0.01" min:"0" desc:"variance of the Gaussian noise kernel for convolving with XX1 -- determines the level of curvature of the activation function near the threshold -- this is not actual stochastic noise, just constant convolved gaussian smoothness"`
	SigMult      float64 `def:"0.33" view:"-" json:"-" xml:"-" desc:"multiplier on sigmoid used for computing values for x < 0"`
	SigMultPow   float64 `def:"0.8" view:"-" json:"-" xml:"-" desc:"power for computing sig_mult_eff as function of gain * nvar"`
	SigGain      float64 `def:"3" view:"-" json:"-" xml:"-" desc:"gain multipler on x for sigmoid used for computing values for x < 0"`
	InterpRange  float64 `def:"0.01" view:"-" json:"-" xml:"-" desc:"interpolation range above zero to use interpolation"`
	GainCorRange float64 `def:"10" view:"-" json:"-" xml:"-" desc:"range in units of nvar over which to apply gain correction to compensate for convolution"`
	GainCor      float64 `def:"0.1" view:"-" json:"-" xml:"-" desc:"gain correction multiplier -- how much to correct gains"`

	SigGainNVar float64 `view:"-" json:"-" xml:"-" desc:"sig_gain / nvar"`
	SigMultEff  float64 `view:"-" json:"-" xml:"-" desc:"overall multiplier on sigmoidal component for values below threshold = sig_mult * pow(gain * nvar, sig_mult_pow)"`
	SigValAt0   float64 `view:"-" json:"-" xml:"-" desc:"0.5 * sig_mult_eff -- used for interpolation portion"`
	InterpVal   float64 `view:"-" json:"-" xml:"-" desc:"function value at interp_range - sig_val_at_0 -- for interpolation"`
}

func (xp *Params) Update() {
	xp.SigGainNVar = xp.SigGain / xp.NVar
	xp.SigMultEff = xp.SigMult * math.Pow(xp.Gain*xp.NVar, xp.SigMultPow)
	xp.SigValAt0 = 0.5 * xp.SigMultEff
	xp.InterpVal = xp.XX1GainCor(xp.InterpRange) - xp.SigValAt0
}

func (xp *Params) Defaults() {
	xp.Thr = 0.5
	xp.Gain = 100
	xp.NVar = 0.005
	xp.SigMult = 0.33
	xp.SigMultPow = 0.8
	xp.SigGain = 3.0
	xp.InterpRange = 0.01
	xp.GainCorRange = 10.0
	xp.GainCor = 0.1
	xp.Update()
}

// XX1 computes the basic x/(x+1) function
func (xp *Params) XX1(x float64) float64 { return x / (x + 1) }

// corGain returns the gain-corrected gain at x, and its slope in x.
// Correction applies only within GainCorRange units of NVar above zero.
func (xp *Params) corGain(x float64) (g, dg float64) {
	gainCorFact := (xp.GainCorRange - (x / xp.NVar)) / xp.GainCorRange
	if gainCorFact < 0 {
		return xp.Gain, 0
	}
	g = xp.Gain * (1 - xp.GainCor*gainCorFact)
	dg = xp.Gain * xp.GainCor / (xp.NVar * xp.GainCorRange)
	return
}

// XX1GainCor computes x/(x+1) with gain correction within GainCorRange
// to compensate for convolution effects
func (xp *Params) XX1GainCor(x float64) float64 {
	g, _ := xp.corGain(x)
	return xp.XX1(g * x)
}

// XX1GainCorDeriv is the derivative of XX1GainCor with respect to x
func (xp *Params) XX1GainCorDeriv(x float64) float64 {
	g, dg := xp.corGain(x)
	gx := g*x + 1
	return (g + dg*x) / (gx * gx)
}

// NoisyXX1 computes the Noisy x/(x+1) function -- directly computes close approximation
// to x/(x+1) convolved with a gaussian noise function with variance nvar.
// No need for a lookup table -- very reasonable approximation for standard range of parameters
// (nvar = .01 or less -- higher values of nvar are less accurate with large gains,
// but ok for lower gains)
func (xp *Params) NoisyXX1(x float64) float64 {
	if x < 0 { // sigmoidal for < 0
		return xp.SigMultEff / (1 + math.Exp(-(x * xp.SigGainNVar)))
	} else if x < xp.InterpRange {
		interp := 1 - ((xp.InterpRange - x) / xp.InterpRange)
		return xp.SigValAt0 + interp*xp.InterpVal
	}
	return xp.XX1GainCor(x)
}

// NoisyXX1Deriv is the derivative of NoisyXX1 with respect to x
func (xp *Params) NoisyXX1Deriv(x float64) float64 {
	if x < 0 {
		s := 1 / (1 + math.Exp(-(x * xp.SigGainNVar)))
		return xp.SigMultEff * xp.SigGainNVar * s * (1 - s)
	} else if x < xp.InterpRange {
		return xp.InterpVal / xp.InterpRange
	}
	return xp.XX1GainCorDeriv(x)
}

// FunThr computes NoisyXX1 on x relative to the threshold Thr
func (xp *Params) FunThr(x float64) float64 {
	return xp.NoisyXX1(x - xp.Thr)
}

// DerivThr is the derivative of FunThr with respect to x
func (xp *Params) DerivThr(x float64) float64 {
	return xp.NoisyXX1Deriv(x - xp.Thr)
}
