// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bionet

import (
	"math"
	"math/rand"
	"testing"

	"github.com/emer/bionet/act"
	"github.com/emer/bionet/sgraph"
)

// posNet returns a test network with all positive weights, so the
// dominant eigenvalue of the Jacobian is real, positive and simple.
func posNet(t *testing.T, seed int64) (*Network, *SampleState) {
	nt, u := testNet(t, seed)
	nt.Act.Type = act.Sigmoid
	for e, w := range nt.Wts {
		nt.Wts[e] = math.Abs(w) + 0.05
	}
	st, err := nt.Solve(u, false)
	if err != nil {
		t.Fatal(err)
	}
	return nt, st
}

// signedNet returns a test network with gaussian weights of both signs,
// scaled to weight matrix radius 1.2, and its solved state.
func signedNet(t *testing.T, seed int64) (*Network, *SampleState) {
	nt, u := testNet(t, seed)
	nt.InitWts(rand.New(rand.NewSource(seed+50)), 0.3, 0)
	nt.PreScaleWts(1.2)
	st, err := nt.Solve(u, false)
	if err != nil {
		t.Fatal(err)
	}
	return nt, st
}

// fixedDRadius returns the exact radius of D.W for the current weights,
// with D held at res.D
func fixedDRadius(nt *Network, res *SpecResult) float64 {
	jm := nt.WtsDense()
	jm.Apply(func(i, j int, v float64) float64 { return res.D[i] * v }, jm)
	return DenseRadius(jm)
}

// checkRadiusGrad compares RadiusGrad against central differences
func checkRadiusGrad(t *testing.T, nm string, nt *Network, res *SpecResult) {
	dW := make([]float64, len(nt.Wts))
	nt.RadiusGrad(res, 1, dW)
	const h = 1e-6
	for e := range nt.Wts {
		sv := nt.Wts[e]
		nt.Wts[e] = sv + h
		rp := fixedDRadius(nt, res)
		nt.Wts[e] = sv - h
		rm := fixedDRadius(nt, res)
		nt.Wts[e] = sv
		num := (rp - rm) / (2 * h)
		if math.Abs(num-dW[e]) > 1e-4*math.Max(1, math.Abs(num)) {
			t.Errorf("%s edge %d: radius gradient: %g, numeric: %g", nm, e, dW[e], num)
		}
	}
}

func TestSpectralPenalty(t *testing.T) {
	sp := SpecParams{}
	sp.Defaults()
	for _, rho := range []float64{0, 0.1, 0.3, 0.49} {
		if pen, dpen := sp.Penalty(rho); pen != 0 || dpen != 0 {
			t.Errorf("penalty below floor at rho %g: %g, %g", rho, pen, dpen)
		}
	}
	if pen, _ := sp.Penalty(sp.Floor); math.Abs(pen) > 1e-12 {
		t.Errorf("penalty at floor: %g, should be 0", pen)
	}
	prv := 0.0
	for rho := sp.Floor + 0.05; rho < 1.5; rho += 0.05 {
		pen, dpen := sp.Penalty(rho)
		if pen <= prv {
			t.Errorf("penalty not increasing at rho %g: %g <= %g", rho, pen, prv)
		}
		if dpen <= 0 {
			t.Errorf("penalty slope not positive at rho %g: %g", rho, dpen)
		}
		prv = pen
	}
}

func TestSpectralRadius(t *testing.T) {
	for seed := int64(1); seed <= 3; seed++ {
		nt, st := posNet(t, seed)
		exact := nt.SpectralRadiusExact(st)
		res := nt.SpectralRadius(st, 200)
		if math.Abs(res.Rho-exact) > 1e-6*math.Max(1, exact) {
			t.Errorf("seed %d: power iteration radius: %g, exact: %g", seed, res.Rho, exact)
		}
		if math.Abs(real(res.Lambda)-exact) > 1e-6*math.Max(1, exact) {
			t.Errorf("seed %d: eigenvalue estimate: %v, exact: %g", seed, res.Lambda, exact)
		}
	}
}

// TestRadiusGrad checks d(rho)/dW with the activation derivative held
// fixed against central differences of the exact radius.
func TestRadiusGrad(t *testing.T) {
	nt, st := posNet(t, 2)
	res := nt.SpectralRadius(st, 300)
	checkRadiusGrad(t, "positive", nt, res)
}

func TestSpectralLoss(t *testing.T) {
	nt, st := posNet(t, 3)
	nt.Spec.Floor = 0
	nt.Spec.Target = 0
	dW := make([]float64, len(nt.Wts))
	loss, rhos := nt.SpectralLoss([]*SampleState{st, st}, 1e-3, dW)
	if len(rhos) != 2 || rhos[0] != rhos[1] {
		t.Errorf("radius per state: %v", rhos)
	}
	if loss <= 0 {
		t.Errorf("spectral loss with zero floor should be positive: %g", loss)
	}
	// all positive weights: increasing any weight increases the radius
	for e, g := range dW {
		if g < 0 {
			t.Errorf("edge %d: negative spectral loss gradient %g for positive matrix", e, g)
		}
	}
}

// TestSpectralRotation uses a two node loop of opposite signs, whose
// Jacobian has the purely imaginary eigenvalues +/- i sqrt(-J01 J10),
// so power iteration never converges.
func TestSpectralRotation(t *testing.T) {
	gr, err := sgraph.New(2, []int32{0, 1}, []int32{1, 0}, []sgraph.SignModes{sgraph.Activating, sgraph.Inhibiting})
	if err != nil {
		t.Fatal(err)
	}
	nt, err := NewNetwork("rotation", gr, nil)
	if err != nil {
		t.Fatal(err)
	}
	nt.Act.Type = act.Sigmoid
	nt.Wts[0] = 1.5
	nt.Wts[1] = -2
	nt.Bias[0] = 0.3
	st, err := nt.Solve(nil, false)
	if err != nil {
		t.Fatal(err)
	}
	res := nt.SpectralRadius(st, nt.Spec.PowerIters)
	if !res.Exact {
		t.Errorf("power iteration accepted for a complex eigenvalue pair: %v", res.Lambda)
	}
	cor := math.Sqrt(res.D[0] * res.D[1] * 1.5 * 2)
	if math.Abs(res.Rho-cor) > 1e-10 {
		t.Errorf("rotation radius: %g, should be %g", res.Rho, cor)
	}
	if math.Abs(real(res.Lambda)) > 1e-10 {
		t.Errorf("rotation eigenvalue should be imaginary: %v", res.Lambda)
	}
	dW := make([]float64, 2)
	nt.RadiusGrad(res, 1, dW)
	// rho = sqrt(-d0 d1 w0 w1)
	corW := []float64{cor / (2 * 1.5), -cor / (2 * 2)}
	for e := range dW {
		if math.Abs(dW[e]-corW[e]) > 1e-10 {
			t.Errorf("rotation radius gradient %d: %g, should be %g", e, dW[e], corW[e])
		}
	}
	checkRadiusGrad(t, "rotation", nt, res)
}

// TestSpectralRadiusSigned checks the estimate against the exact radius
// on networks with weights of both signs.
func TestSpectralRadiusSigned(t *testing.T) {
	nexact := 0
	for seed := int64(1); seed <= 20; seed++ {
		nt, st := signedNet(t, seed)
		exact := nt.SpectralRadiusExact(st)
		res := nt.SpectralRadius(st, nt.Spec.PowerIters)
		if res.Exact {
			nexact++
		}
		if math.Abs(res.Rho-exact) > 1e-4*math.Max(1, exact) {
			t.Errorf("seed %d: radius estimate: %g, exact: %g", seed, res.Rho, exact)
		}
		pen, _ := nt.Spec.Penalty(res.Rho)
		cpen, _ := nt.Spec.Penalty(exact)
		if math.Abs(pen-cpen) > 1e-2*math.Max(1, cpen) {
			t.Errorf("seed %d: penalty: %g, should be %g", seed, pen, cpen)
		}
	}
	if nexact == 0 {
		t.Errorf("no signed network needed the dense eigen decomposition")
	}
}

func TestRadiusGradSigned(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		nt, st := signedNet(t, seed)
		res := nt.SpectralRadius(st, nt.Spec.PowerIters)
		if res.Rho < 1e-3 {
			continue
		}
		checkRadiusGrad(t, "signed", nt, res)
	}
}
