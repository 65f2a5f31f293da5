// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package act provides the node transfer functions of a bionetwork, each
with its derivative with respect to the pre-activation, selectable by name.
The function is fixed for the lifetime of a network.
*/
package act

import (
	"math"

	"github.com/emer/bionet/nxx1"
	"github.com/goki/ki/kit"
	"github.com/pkg/errors"
)

// ActTypes are the available activation functions
type ActTypes int32

//go:generate stringer -type=ActTypes

var KiT_ActTypes = kit.Enums.AddEnum(ActTypesN, kit.NotBitFlag, nil)

func (ev ActTypes) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *ActTypes) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

// The activation function types
const (
	// Sigmoid is the logistic function 1 / (1 + exp(-x)), range (0, 1)
	Sigmoid ActTypes = iota

	// MML is a Michaelis-Menten-like piecewise function: Leak * x for x < 0,
	// x for 0 <= x < 0.5, and 1 - 0.25 / x above, range (-inf, 1)
	MML

	// NXX1 is the noisy x / (x + 1) function, range [0, 1)
	NXX1

	ActTypesN
)

// Params are the activation function parameters
type Params struct {
	Type ActTypes    `desc:"type of activation function"`
	Leak float64     `def:"0.01" viewif:"Type=MML" desc:"slope of the MML function for negative inputs"`
	XX1  nxx1.Params `view:"inline" viewif:"Type=NXX1" desc:"noisy x/(x+1) parameters"`
}

func (ap *Params) Defaults() {
	ap.Type = MML
	ap.Leak = 0.01
	ap.XX1.Defaults()
	ap.XX1.Thr = 0
	ap.XX1.Gain = 4
	ap.XX1.NVar = 0.01
	ap.Update()
}

// Update must be called after any changes to parameters
func (ap *Params) Update() {
	ap.XX1.Update()
}

// SetType sets the function type from its name, e.g., "MML".
// The type is unchanged on error.
func (ap *Params) SetType(name string) error {
	var typ ActTypes
	if err := typ.FromString(name); err != nil {
		return err
	}
	if typ < 0 || typ >= ActTypesN {
		return errors.Errorf("act: %q is not an activation function", name)
	}
	ap.Type = typ
	return nil
}

// Fun computes the activation for pre-activation x
func (ap *Params) Fun(x float64) float64 {
	switch ap.Type {
	case Sigmoid:
		return 1 / (1 + math.Exp(-x))
	case MML:
		switch {
		case x < 0:
			return ap.Leak * x
		case x < 0.5:
			return x
		}
		return 1 - 0.25/x
	case NXX1:
		return ap.XX1.FunThr(x)
	}
	return x
}

// Deriv computes the derivative of Fun with respect to pre-activation x.
// At the MML kink at 0 the right-hand slope is returned.
func (ap *Params) Deriv(x float64) float64 {
	switch ap.Type {
	case Sigmoid:
		s := 1 / (1 + math.Exp(-x))
		return s * (1 - s)
	case MML:
		switch {
		case x < 0:
			return ap.Leak
		case x < 0.5:
			return 1
		}
		return 0.25 / (x * x)
	case NXX1:
		return ap.XX1.DerivThr(x)
	}
	return 1
}

// FunVec computes y = Fun(x) for each element
func (ap *Params) FunVec(y, x []float64) {
	for i, v := range x {
		y[i] = ap.Fun(v)
	}
}

// DerivVec computes d = Deriv(x) for each element
func (ap *Params) DerivVec(d, x []float64) {
	for i, v := range x {
		d[i] = ap.Deriv(v)
	}
}
