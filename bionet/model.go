// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bionet

import (
	"math/rand"
	"sync"

	"github.com/emer/bionet/sgraph"
	"github.com/emer/emergent/etime"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// InputLayer maps external input features onto input nodes:
// u[NodeIdx[i]] = Amp * Wts[i] * X[i].
type InputLayer struct {
	NodeIdx []int     `desc:"node index for each input feature"`
	Wts     []float64 `desc:"weight of each input feature"`
	Amp     float64   `def:"3" desc:"overall input amplitude"`
	Learn   bool      `desc:"whether the input weights are trained"`
}

// Inject adds the input injection for input features x into u,
// with gaussian noise of standard deviation noise (if > 0) added to each
// injected value.
func (il *InputLayer) Inject(u, x []float64, noise float64, rnd *rand.Rand) {
	for i, ni := range il.NodeIdx {
		v := il.Amp * il.Wts[i] * x[i]
		if noise > 0 {
			v += noise * rnd.NormFloat64()
		}
		u[ni] += v
	}
}

// ProjectionLayer reads out output nodes: Y[j] = Wts[j] * x[NodeIdx[j]].
type ProjectionLayer struct {
	NodeIdx []int     `desc:"node index for each output"`
	Wts     []float64 `desc:"weight of each output, initialized to Amp"`
	Amp     float64   `def:"1.2" desc:"initial projection weight"`
}

// Project computes outputs y from full state x
func (pl *ProjectionLayer) Project(y, x []float64) {
	for j, ni := range pl.NodeIdx {
		y[j] = pl.Wts[j] * x[ni]
	}
}

// Model is a Network with an input layer mapping external inputs onto
// input nodes, and a projection layer reading out the output nodes.
type Model struct {
	Net      *Network        `desc:"recurrent network"`
	In       InputLayer      `desc:"input layer"`
	Proj     ProjectionLayer `desc:"projection layer"`
	Mode     etime.Modes     `desc:"evaluation mode -- the unrolled tape is only recorded in Train mode"`
	NThreads int             `def:"1" desc:"number of goroutines over the samples of a batch"`
}

// ModelState is the result of a forward pass over a batch
type ModelState struct {
	X      *mat.Dense     `desc:"input features, samples x features"`
	Y      *mat.Dense     `desc:"projected outputs, samples x outputs"`
	Full   *mat.Dense     `desc:"full node state, samples x nodes"`
	States []*SampleState `view:"-" desc:"solved state of each sample"`
}

// ModelGrads are the gradients of a loss with respect to all model parameters
type ModelGrads struct {
	Net   *Grads    `desc:"network weight and bias gradients"`
	InW   []float64 `desc:"input weight gradients (only if In.Learn)"`
	ProjW []float64 `desc:"projection weight gradients"`
}

// NewModel returns a new model over network nt, with given input node and
// output node indexes, input amplitude and projection amplitude.
// Input weights are initialized to 1, projection weights to projAmp,
// and the graph node roles are set accordingly.
func NewModel(nt *Network, inIdx, outIdx []int, inAmp, projAmp float64) (*Model, error) {
	nn := nt.Graph.NNodes
	if len(inIdx) == 0 || len(outIdx) == 0 {
		return nil, errors.Wrapf(ErrConfig, "model needs input and output nodes, got %d inputs and %d outputs", len(inIdx), len(outIdx))
	}
	for _, ni := range inIdx {
		if ni < 0 || ni >= nn {
			return nil, errors.Wrapf(ErrConfig, "input node index %d out of range for %d nodes", ni, nn)
		}
	}
	for _, ni := range outIdx {
		if ni < 0 || ni >= nn {
			return nil, errors.Wrapf(ErrConfig, "output node index %d out of range for %d nodes", ni, nn)
		}
	}
	md := &Model{Net: nt, Mode: etime.Train, NThreads: 1}
	md.In.NodeIdx = append([]int(nil), inIdx...)
	md.In.Amp = inAmp
	md.In.Wts = make([]float64, len(inIdx))
	for i := range md.In.Wts {
		md.In.Wts[i] = 1
	}
	md.Proj.NodeIdx = append([]int(nil), outIdx...)
	md.Proj.Amp = projAmp
	md.Proj.Wts = make([]float64, len(outIdx))
	for j := range md.Proj.Wts {
		md.Proj.Wts[j] = projAmp
	}
	for _, ni := range inIdx {
		nt.Graph.SetRole(ni, sgraph.InputNode)
	}
	for _, ni := range outIdx {
		nt.Graph.SetRole(ni, sgraph.OutputNode)
	}
	return md, nil
}

// NewGrads returns zero gradients sized for this model
func (md *Model) NewGrads() *ModelGrads {
	return &ModelGrads{Net: NewGrads(md.Net), InW: make([]float64, len(md.In.Wts)), ProjW: make([]float64, len(md.Proj.Wts))}
}

// Zero sets all gradients to zero
func (mg *ModelGrads) Zero() {
	mg.Net.Zero()
	for i := range mg.InW {
		mg.InW[i] = 0
	}
	for i := range mg.ProjW {
		mg.ProjW[i] = 0
	}
}

// Add adds the other gradients into these
func (mg *ModelGrads) Add(o *ModelGrads) {
	mg.Net.Add(o.Net)
	for i, v := range o.InW {
		mg.InW[i] += v
	}
	for i, v := range o.ProjW {
		mg.ProjW[i] += v
	}
}

// NViolations returns the number of network edges violating their sign
func (md *Model) NViolations() int {
	return md.Net.NViolations()
}

// Taped returns true if forward passes record the unrolled tape
func (md *Model) Taped() bool {
	return md.Mode == etime.Train && md.Net.Solver.Grad == Unrolled
}

// Forward computes the steady state for a batch of inputs X
// (samples x input features).
func (md *Model) Forward(X *mat.Dense) (*ModelState, error) {
	return md.ForwardNoise(X, 0, nil)
}

// ForwardNoise computes the steady state for a batch of inputs X, with
// gaussian noise of standard deviation noise added to the input layer
// output.  rnd must be non-nil if noise > 0.  Noise values are drawn
// sequentially over samples before any solve, so results do not depend
// on NThreads.
func (md *Model) ForwardNoise(X *mat.Dense, noise float64, rnd *rand.Rand) (*ModelState, error) {
	ns, nf := X.Dims()
	if ns == 0 {
		return nil, errors.Wrap(ErrConfig, "empty input batch")
	}
	if nf != len(md.In.NodeIdx) {
		return nil, errors.Wrapf(ErrConfig, "input has %d features, model has %d input nodes", nf, len(md.In.NodeIdx))
	}
	nn := md.Net.Graph.NNodes
	us := make([][]float64, ns)
	for s := 0; s < ns; s++ {
		us[s] = make([]float64, nn)
		md.In.Inject(us[s], X.RawRowView(s), noise, rnd)
	}
	ms := &ModelState{X: X, States: make([]*SampleState, ns)}
	ms.Y = mat.NewDense(ns, len(md.Proj.NodeIdx), nil)
	ms.Full = mat.NewDense(ns, nn, nil)
	tape := md.Taped()
	err := md.parallel(ns, func(th, s int) error {
		st, err := md.Net.Solve(us[s], tape)
		if err != nil {
			return errors.Wrapf(err, "sample %d", s)
		}
		ms.States[s] = st
		ms.Full.SetRow(s, st.X)
		md.Proj.Project(ms.Y.RawRowView(s), st.X)
		return nil
	})
	return ms, err
}

// Backward computes the gradients for upstream gradients dY on the
// projected outputs and dFull on the full state (either may be nil),
// and adds them into g.  Per-thread gradients are reduced in thread order
// before returning.  Returns the gradient on the inputs X.
func (md *Model) Backward(ms *ModelState, dY, dFull *mat.Dense, g *ModelGrads) (*mat.Dense, error) {
	ns, nf := ms.X.Dims()
	nn := md.Net.Graph.NNodes
	nth := md.nThreads(ns)
	tgs := make([]*ModelGrads, nth)
	for th := range tgs {
		tgs[th] = md.NewGrads()
	}
	dX := mat.NewDense(ns, nf, nil)
	strat := md.Net.GradStrategy()
	err := md.parallel(ns, func(th, s int) error {
		tg := tgs[th]
		st := ms.States[s]
		gx := make([]float64, nn)
		if dFull != nil {
			copy(gx, dFull.RawRowView(s))
		}
		if dY != nil {
			dy := dY.RawRowView(s)
			for j, ni := range md.Proj.NodeIdx {
				gx[ni] += md.Proj.Wts[j] * dy[j]
				tg.ProjW[j] += dy[j] * st.X[ni]
			}
		}
		du := make([]float64, nn)
		if err := strat.Backward(md.Net, st, gx, tg.Net, du); err != nil {
			return errors.Wrapf(err, "sample %d", s)
		}
		x := ms.X.RawRowView(s)
		dx := dX.RawRowView(s)
		for i, ni := range md.In.NodeIdx {
			dx[i] = md.In.Amp * md.In.Wts[i] * du[ni]
			if md.In.Learn {
				tg.InW[i] += md.In.Amp * x[i] * du[ni]
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, tg := range tgs {
		g.Add(tg)
	}
	return dX, nil
}

// nThreads returns the number of threads to use for ns samples
func (md *Model) nThreads(ns int) int {
	nth := md.NThreads
	if nth < 1 {
		nth = 1
	}
	if nth > ns {
		nth = ns
	}
	if nth < 1 {
		nth = 1
	}
	return nth
}

// parallel calls fun for each sample, with samples interleaved over
// NThreads goroutines (sample s on thread s % nth).  Returns the error of
// the lowest failing thread.
func (md *Model) parallel(ns int, fun func(th, s int) error) error {
	nth := md.nThreads(ns)
	if nth == 1 {
		for s := 0; s < ns; s++ {
			if err := fun(0, s); err != nil {
				return err
			}
		}
		return nil
	}
	errs := make([]error, nth)
	var wg sync.WaitGroup
	for th := 0; th < nth; th++ {
		wg.Add(1)
		go func(th int) {
			defer wg.Done()
			for s := th; s < ns; s += nth {
				if err := fun(th, s); err != nil {
					errs[th] = err
					return
				}
			}
		}(th)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
