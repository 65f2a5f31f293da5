// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bionet

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SpecResult is an estimate of the dominant eigenvalue of the Jacobian
// J = D.W at a solved state, where D = diag(f'(pre)), with its right and
// left eigenvectors (J.V = Lambda V, U^H.J = Lambda U^H).
type SpecResult struct {
	Rho    float64      `desc:"spectral radius estimate |Lambda|"`
	Lambda complex128   `desc:"dominant eigenvalue estimate"`
	V      []complex128 `desc:"right eigenvector estimate, unit length"`
	U      []complex128 `desc:"left eigenvector estimate, unit length"`
	D      []float64    `desc:"activation derivative at the state"`
	Exact  bool         `desc:"power iteration did not converge and the dense eigen decomposition was used"`
}

// WtsMul computes y = W . x using the receiver index
func (nt *Network) WtsMul(y, x []float64) {
	gr := nt.Graph
	for t := 0; t < gr.NNodes; t++ {
		sum := 0.0
		st := gr.RecvSt[t]
		for ci := int32(0); ci < gr.RecvN[t]; ci++ {
			e := gr.RecvEdge[st+ci]
			sum += nt.Wts[e] * x[gr.Src[e]]
		}
		y[t] = sum
	}
}

// normalize scales v to unit length, returning the prior length
func normalize(v []float64) float64 {
	n := floats.Norm(v, 2)
	if n > 0 {
		floats.Scale(1/n, v)
	}
	return n
}

// powerSeed returns the seed vector for power iteration from state x,
// or all ones if x is zero.
func powerSeed(x []float64) []float64 {
	v := append([]float64(nil), x...)
	if normalize(v) == 0 {
		for i := range v {
			v[i] = 1
		}
		normalize(v)
	}
	return v
}

// SpectralRadius estimates the dominant eigenvalue of the Jacobian at
// solved state st with the given number of power iterations, seeded from
// the state itself, iterating both right and left eigenvectors.
// The power estimate is only accepted when both eigenvector residuals
// |J.v - l v| and |J^T.u - l u| are within Spec.Tol * |l| for a real l.
// A complex or unresolved dominant pair (common with mixed sign weights)
// never meets this, and then the dense eigen decomposition of J is used.
func (nt *Network) SpectralRadius(st *SampleState, steps int) *SpecResult {
	nn := nt.Graph.NNodes
	res := &SpecResult{D: make([]float64, nn)}
	nt.Act.DerivVec(res.D, st.Pre)
	d := res.D
	v := powerSeed(st.Raw)
	u := powerSeed(st.Raw)
	tmp := make([]float64, nn)
	jv := make([]float64, nn)
	ok := true
	for it := 0; it < steps; it++ {
		nt.jacMul(jv, v, d)
		if normalize(jv) == 0 {
			ok = false
			break
		}
		v, jv = jv, v
		nt.jacTMul(tmp, u, d)
		if normalize(tmp) == 0 {
			ok = false
			break
		}
		u, tmp = tmp, u
	}
	if ok {
		nt.jacMul(jv, v, d)
		lam := floats.Dot(v, jv)
		nt.jacTMul(tmp, u, d)
		tol := nt.Spec.Tol * math.Abs(lam)
		if lam != 0 && eigResid(jv, v, lam) <= tol && eigResid(tmp, u, lam) <= tol {
			res.Lambda = complex(lam, 0)
			res.Rho = math.Abs(lam)
			res.V, res.U = toComplex(v), toComplex(u)
			return res
		}
	}
	if !nt.exactSpec(res) {
		// no decomposition: fall back on the norm of the last power step
		nt.jacMul(jv, v, d)
		res.Rho = floats.Norm(jv, 2)
		res.Lambda = complex(res.Rho, 0)
		res.V, res.U = toComplex(v), toComplex(u)
	}
	return res
}

// jacMul computes y = D.W.x
func (nt *Network) jacMul(y, x, d []float64) {
	nt.WtsMul(y, x)
	floats.Mul(y, d)
}

// jacTMul computes y = W^T.D.x
func (nt *Network) jacTMul(y, x, d []float64) {
	dx := make([]float64, len(x))
	floats.MulTo(dx, d, x)
	nt.WtsT(y, dx)
}

// eigResid returns |jv - lam v|
func eigResid(jv, v []float64, lam float64) float64 {
	sum := 0.0
	for i, x := range jv {
		r := x - lam*v[i]
		sum += r * r
	}
	return math.Sqrt(sum)
}

func toComplex(v []float64) []complex128 {
	cv := make([]complex128, len(v))
	for i, x := range v {
		cv[i] = complex(x, 0)
	}
	return cv
}

// exactSpec fills res with the eigenvalue of largest magnitude of the
// dense Jacobian and its eigenvectors.  Returns false if the
// decomposition fails.
func (nt *Network) exactSpec(res *SpecResult) bool {
	var eig mat.Eigen
	if ok := eig.Factorize(nt.jacDense(res.D), mat.EigenBoth); !ok {
		return false
	}
	vals := eig.Values(nil)
	k := 0
	for i, ev := range vals {
		if cmplx.Abs(ev) > cmplx.Abs(vals[k]) {
			k = i
		}
	}
	var vr, vl mat.CDense
	eig.VectorsTo(&vr)
	eig.LeftVectorsTo(&vl)
	nn := len(vals)
	res.V = make([]complex128, nn)
	res.U = make([]complex128, nn)
	for i := 0; i < nn; i++ {
		res.V[i] = vr.At(i, k)
		res.U[i] = vl.At(i, k)
	}
	res.Lambda = vals[k]
	res.Rho = cmplx.Abs(vals[k])
	res.Exact = true
	return true
}

// SpectralRadiusExact returns the exact spectral radius of the Jacobian
// at solved state st, from a dense eigen decomposition.
func (nt *Network) SpectralRadiusExact(st *SampleState) float64 {
	return DenseRadius(nt.JacobianDense(st))
}

// JacobianDense returns the dense Jacobian D.W at solved state st
func (nt *Network) JacobianDense(st *SampleState) *mat.Dense {
	d := make([]float64, nt.Graph.NNodes)
	nt.Act.DerivVec(d, st.Pre)
	return nt.jacDense(d)
}

func (nt *Network) jacDense(d []float64) *mat.Dense {
	jm := nt.WtsDense()
	jm.Apply(func(i, j int, v float64) float64 { return d[i] * v }, jm)
	return jm
}

// RadiusGrad adds scale * d(rho)/dW into dW, holding D fixed.
// With dLambda/dJ_ts = conj(u_t) v_s / (u^H v), and
// d|Lambda| = Re(conj(Lambda) dLambda) / |Lambda|, this gives
// d(rho)/dW_ts = Re(conj(Lambda) conj(u_t) D_t v_s / (u^H v)) / rho.
// Nothing is added for a zero radius, or if the eigenvector estimates
// are orthogonal (a defective eigenvalue).
func (nt *Network) RadiusGrad(res *SpecResult, scale float64, dW []float64) {
	if res.Rho == 0 {
		return
	}
	var uv complex128
	for i, v := range res.V {
		uv += cmplx.Conj(res.U[i]) * v
	}
	if cmplx.Abs(uv) < 1e-12 {
		return
	}
	f := complex(scale/res.Rho, 0) * cmplx.Conj(res.Lambda) / uv
	gr := nt.Graph
	for e := range dW {
		t, s := gr.Trg[e], gr.Src[e]
		dW[e] += res.D[t] * real(f*cmplx.Conj(res.U[t])*res.V[s])
	}
}

// Penalty returns the spectral radius penalty for radius rho and its
// derivative with respect to rho: zero below Floor, and
// exp(ExpFactor * (rho - Target)) - exp(ExpFactor * (Floor - Target)) above,
// which is continuous at Floor and increases monotonically.
func (sp *SpecParams) Penalty(rho float64) (pen, dpen float64) {
	if rho < sp.Floor {
		return 0, 0
	}
	ex := math.Exp(sp.ExpFactor * (rho - sp.Target))
	pen = ex - math.Exp(sp.ExpFactor*(sp.Floor-sp.Target))
	dpen = sp.ExpFactor * ex
	return
}

// SpectralLoss estimates the spectral radius at up to Spec.NSamples of the
// given solved states, and returns factor times the mean penalty, while
// adding its gradient into dW.  The radius of each state is returned.
func (nt *Network) SpectralLoss(sts []*SampleState, factor float64, dW []float64) (float64, []float64) {
	n := len(sts)
	if nt.Spec.NSamples > 0 && n > nt.Spec.NSamples {
		n = nt.Spec.NSamples
	}
	rhos := make([]float64, n)
	loss := 0.0
	for i := 0; i < n; i++ {
		res := nt.SpectralRadius(sts[i], nt.Spec.PowerIters)
		rhos[i] = res.Rho
		pen, dpen := nt.Spec.Penalty(res.Rho)
		loss += factor * pen / float64(n)
		if dpen != 0 && dW != nil {
			nt.RadiusGrad(res, factor*dpen/float64(n), dW)
		}
	}
	return loss, rhos
}
