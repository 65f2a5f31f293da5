// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package act

import (
	"math"
	"testing"
)

// difTol is the numerical difference tolerance for comparing vs. target values
const difTol = 1.0e-10

func TestMML(t *testing.T) {
	ap := Params{}
	ap.Defaults()
	ap.Type = MML

	tstx := []float64{-2, -0.5, 0, 0.25, 0.4999, 0.5, 1, 2, 10}
	cory := []float64{-0.02, -0.005, 0, 0.25, 0.4999, 0.5, 0.75, 0.875, 0.975}
	cord := []float64{0.01, 0.01, 1, 1, 1, 1, 0.25, 0.0625, 0.0025}
	for i, x := range tstx {
		y := ap.Fun(x)
		if dif := math.Abs(y - cory[i]); dif > difTol {
			t.Errorf("MML x: %v, y: %v, cor y: %v, dif: %v", x, y, cory[i], dif)
		}
		d := ap.Deriv(x)
		if dif := math.Abs(d - cord[i]); dif > difTol {
			t.Errorf("MML deriv x: %v, d: %v, cor d: %v, dif: %v", x, d, cord[i], dif)
		}
	}
}

func TestSigmoid(t *testing.T) {
	ap := Params{}
	ap.Defaults()
	ap.Type = Sigmoid
	if y := ap.Fun(0); math.Abs(y-0.5) > difTol {
		t.Errorf("Sigmoid(0): %v, should be 0.5", y)
	}
	if d := ap.Deriv(0); math.Abs(d-0.25) > difTol {
		t.Errorf("Sigmoid'(0): %v, should be 0.25", d)
	}
}

// TestDerivs compares the analytic derivatives to central differences
// away from the kinks.
func TestDerivs(t *testing.T) {
	ap := Params{}
	ap.Defaults()
	tstx := []float64{-3, -1, -0.2, 0.15, 0.3, 0.7, 1.5, 4}
	const h = 1.0e-6
	for typ := Sigmoid; typ < ActTypesN; typ++ {
		ap.Type = typ
		for _, x := range tstx {
			num := (ap.Fun(x+h) - ap.Fun(x-h)) / (2 * h)
			an := ap.Deriv(x)
			if dif := math.Abs(num - an); dif > 1.0e-6 {
				t.Errorf("%v x: %v, analytic: %v, numeric: %v, dif: %v", typ, x, an, num, dif)
			}
		}
	}
}

func TestSetType(t *testing.T) {
	ap := Params{}
	ap.Defaults()
	for _, nm := range []string{"Sigmoid", "MML", "NXX1"} {
		if err := ap.SetType(nm); err != nil {
			t.Error(err)
		}
		if ap.Type.String() != nm {
			t.Errorf("SetType(%s) gave: %v", nm, ap.Type)
		}
	}
	ap.SetType("MML")
	for _, nm := range []string{"ReLU", "ActTypesN", ""} {
		if err := ap.SetType(nm); err == nil {
			t.Errorf("SetType(%q) should fail", nm)
		}
		if ap.Type != MML {
			t.Errorf("failed SetType(%q) changed the type to: %v", nm, ap.Type)
		}
	}
}

func TestVec(t *testing.T) {
	ap := Params{}
	ap.Defaults()
	x := []float64{-1, 0.2, 2}
	y := make([]float64, 3)
	d := make([]float64, 3)
	ap.FunVec(y, x)
	ap.DerivVec(d, x)
	for i := range x {
		if y[i] != ap.Fun(x[i]) || d[i] != ap.Deriv(x[i]) {
			t.Errorf("vector form differs at %d", i)
		}
	}
}
