// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bionet

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// All penalties return their value and add their gradient into the
// given gradient buffer, if non-nil.

// SignPenalty returns factor * sum |w| over the edges flagged in viol,
// with gradient factor * sign(w) on those edges.
func SignPenalty(w []float64, viol []bool, factor float64, dW []float64) float64 {
	pen := 0.0
	for e, vl := range viol {
		if !vl {
			continue
		}
		pen += math.Abs(w[e])
		if dW != nil {
			if w[e] > 0 {
				dW[e] += factor
			} else if w[e] < 0 {
				dW[e] -= factor
			}
		}
	}
	return factor * pen
}

// L2 returns lambda * sum v^2, with gradient 2 lambda v
func L2(v []float64, lambda float64, dv []float64) float64 {
	pen := 0.0
	for i, x := range v {
		pen += x * x
		if dv != nil {
			dv[i] += 2 * lambda * x
		}
	}
	return lambda * pen
}

// TargetL2 returns lambda * sum (v - target)^2, with gradient 2 lambda (v - target).
// Used to keep the projection weights near their initial amplitude.
func TargetL2(v []float64, target, lambda float64, dv []float64) float64 {
	pen := 0.0
	for i, x := range v {
		d := x - target
		pen += d * d
		if dv != nil {
			dv[i] += 2 * lambda * d
		}
	}
	return lambda * pen
}

// IdxL2 returns lambda * sum v[i]^2 over indexes idx, with gradient
// 2 lambda v[i].  Used to keep the bias of input nodes small, so that their
// activity is driven by the input.
func IdxL2(v []float64, idx []int, lambda float64, dv []float64) float64 {
	pen := 0.0
	for _, i := range idx {
		pen += v[i] * v[i]
		if dv != nil {
			dv[i] += 2 * lambda * v[i]
		}
	}
	return lambda * pen
}

// UniformParams are the parameters of the activation range uniformity loss
type UniformParams struct {
	Min       float64 `def:"0" desc:"lower end of the target range"`
	Max       float64 `desc:"upper end of the target range -- typically 1 / projection amplitude"`
	MaxFactor float64 `def:"1" desc:"weight of the penalty on the node maximum exceeding Max"`
}

func (up *UniformParams) Defaults() {
	up.Min = 0
	up.Max = 1
	up.MaxFactor = 1
}

// UniformLoss penalizes node states that do not spread uniformly over
// [Min, Max] across the whole dataset.  buf holds the most recent full
// state of every sample (rows), and the rows idx are substituted by the
// current batch states full (one row per idx entry).  For each node the
// dataset values are sorted and compared to evenly spaced quantiles of
// the target range (mean squared distance), plus MaxFactor times the
// squared excess of the node maximum over Max, plus the squared shortfall
// of the minimum under Min.  The loss is summed over nodes.  Gradients
// flow only to the batch rows, and are added into dFull if non-nil.
func (up *UniformParams) UniformLoss(buf *mat.Dense, idx []int, full *mat.Dense, dFull *mat.Dense) float64 {
	nr, nn := buf.Dims()
	if nr == 0 {
		return 0
	}
	src := make([]int, nr) // batch row for each dataset row, -1 if none
	for r := range src {
		src[r] = -1
	}
	for b, r := range idx {
		src[r] = b
	}
	vals := make([]float64, nr)
	ord := make([]int, nr)
	loss := 0.0
	nf := float64(nr)
	for j := 0; j < nn; j++ {
		for r := 0; r < nr; r++ {
			if b := src[r]; b >= 0 {
				vals[r] = full.At(b, j)
			} else {
				vals[r] = buf.At(r, j)
			}
			ord[r] = r
		}
		sort.SliceStable(ord, func(a, b int) bool { return vals[ord[a]] < vals[ord[b]] })
		for i, r := range ord {
			q := up.Min
			if nr > 1 {
				q += (up.Max - up.Min) * float64(i) / float64(nr-1)
			}
			d := vals[r] - q
			loss += d * d / nf
			if b := src[r]; b >= 0 && dFull != nil {
				dFull.Set(b, j, dFull.At(b, j)+2*d/nf)
			}
		}
		if rmax := ord[nr-1]; vals[rmax] > up.Max {
			d := vals[rmax] - up.Max
			loss += up.MaxFactor * d * d
			if b := src[rmax]; b >= 0 && dFull != nil {
				dFull.Set(b, j, dFull.At(b, j)+2*up.MaxFactor*d)
			}
		}
		if rmin := ord[0]; vals[rmin] < up.Min {
			d := vals[rmin] - up.Min
			loss += d * d
			if b := src[rmin]; b >= 0 && dFull != nil {
				dFull.Set(b, j, dFull.At(b, j)+2*d)
			}
		}
	}
	return loss
}
