// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optim

import (
	"math"
	"sort"
)

// Schedule gives the learning rate for each training iteration
type Schedule interface {
	// LR returns the learning rate for iteration iter
	LR(iter int) float64
}

// OneCycle returns the learning rate at iteration iter of total iterations:
// a cosine ramp from start at iteration 0 up to peak at peakIter, then
// a cosine decay down to end at iteration total-1.  The result is
// continuous in iter and exact at 0, peakIter and total-1.
// If peakIter <= 0 the ramp is skipped and the rate starts at peak.
// Iterations beyond total-1 return end.
func OneCycle(iter, total int, start, peak, end float64, peakIter int) float64 {
	last := total - 1
	if peakIter > last {
		peakIter = last
	}
	if peakIter < 0 {
		peakIter = 0
	}
	if iter < 0 {
		iter = 0
	}
	if iter < peakIter {
		if iter == 0 {
			return start
		}
		ph := float64(iter) / float64(peakIter)
		return start + (peak-start)*0.5*(1-math.Cos(math.Pi*ph))
	}
	if last <= peakIter {
		return peak
	}
	if iter >= last {
		return end
	}
	ph := float64(iter-peakIter) / float64(last-peakIter)
	return end + (peak-end)*0.5*(1+math.Cos(math.Pi*ph))
}

// OneCycleSched is the one-cycle schedule as a parameter struct
type OneCycleSched struct {
	Total    int     `def:"8000" desc:"total number of iterations"`
	Start    float64 `def:"0.0001" desc:"learning rate at iteration 0"`
	Peak     float64 `def:"0.001" desc:"learning rate at PeakIter"`
	End      float64 `def:"1e-05" desc:"learning rate at the last iteration"`
	PeakIter int     `def:"1000" desc:"iteration of the peak learning rate"`
}

func (oc *OneCycleSched) Defaults() {
	oc.Total = 8000
	oc.Start = 1e-4
	oc.Peak = 1e-3
	oc.End = 1e-5
	oc.PeakIter = 1000
}

func (oc *OneCycleSched) LR(iter int) float64 {
	return OneCycle(iter, oc.Total, oc.Start, oc.Peak, oc.End, oc.PeakIter)
}

// StepVal is a learning rate starting at a given iteration
type StepVal struct {
	Iter int
	Val  float64
}

// StepSched is a piecewise constant schedule: each value holds from its
// iteration until the next step.  Steps must be sorted by Iter.
type StepSched []StepVal

// NewStepSched returns a step schedule starting at base
func NewStepSched(base float64) StepSched {
	return StepSched{{0, base}}
}

// Add adds a step and returns the schedule
func (ss StepSched) Add(iter int, val float64) StepSched {
	ss = append(ss, StepVal{iter, val})
	sort.SliceStable(ss, func(i, j int) bool { return ss[i].Iter < ss[j].Iter })
	return ss
}

func (ss StepSched) LR(iter int) float64 {
	if len(ss) == 0 {
		return 0
	}
	for i := 1; i < len(ss); i++ {
		if ss[i].Iter > iter {
			return ss[i-1].Val
		}
	}
	return ss[len(ss)-1].Val
}
