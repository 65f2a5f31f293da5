// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package train

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/emer/bionet/bionet"
	"github.com/emer/bionet/optim"
	"github.com/emer/emergent/erand"
	"github.com/emer/emergent/etime"
	"github.com/emer/etable/etable"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Trainer holds everything that persists across training iterations:
// the model and its optimizer, the dataset, the previous full state of
// every sample and the stats record.
type Trainer struct {
	Model     *bionet.Model  `desc:"model being trained"`
	Params    Params         `desc:"training parameters"`
	Opt       *optim.Adam    `view:"-" desc:"optimizer over all trained parameters"`
	Sched     optim.Schedule `view:"-" desc:"learning rate schedule, Params.Sched if nil"`
	X         *mat.Dense     `view:"-" desc:"training inputs, samples x input features"`
	Y         *mat.Dense     `view:"-" desc:"training targets, samples x outputs"`
	PrevState *mat.Dense     `view:"-" desc:"last full state of each sample, samples x nodes, starts at 0.5"`
	Stats     *etable.Table  `view:"no-inline" desc:"one row of stats per iteration"`
	Rnd       *rand.Rand     `view:"-" desc:"random source for noise"`
	PermRnd   *erand.SysRand `view:"-" desc:"random source for the sample order"`
	Iter      int            `inactive:"+" desc:"number of completed iterations"`
	NResets   int            `inactive:"+" desc:"number of optimizer resets so far"`
	order     []int
	grads     *bionet.ModelGrads
}

// NewTrainer returns a trainer for model md on inputs X and targets Y.
// The uniform activation target Max is set to 1 / projection amplitude.
func NewTrainer(md *bionet.Model, X, Y *mat.Dense, tp *Params) (*Trainer, error) {
	ns, nf := X.Dims()
	ny, no := Y.Dims()
	switch {
	case ns == 0:
		return nil, errors.Wrap(bionet.ErrConfig, "no training samples")
	case ns != ny:
		return nil, errors.Wrapf(bionet.ErrConfig, "%d input samples but %d target samples", ns, ny)
	case nf != len(md.In.NodeIdx):
		return nil, errors.Wrapf(bionet.ErrConfig, "%d input features for %d input nodes", nf, len(md.In.NodeIdx))
	case no != len(md.Proj.NodeIdx):
		return nil, errors.Wrapf(bionet.ErrConfig, "%d target columns for %d output nodes", no, len(md.Proj.NodeIdx))
	}
	tr := &Trainer{Model: md, Params: *tp, X: X, Y: Y}
	tr.Params.Update()
	if md.Proj.Amp > 0 {
		tr.Params.Uniform.Max = 1 / md.Proj.Amp
	}
	tr.Rnd = rand.New(rand.NewSource(tr.Params.Seed))
	tr.PermRnd = erand.NewSysRand(tr.Params.Seed)
	nn := md.Net.NNodes()
	tr.PrevState = mat.NewDense(ns, nn, nil)
	for i := range tr.PrevState.RawMatrix().Data {
		tr.PrevState.RawMatrix().Data[i] = 0.5
	}
	tr.order = make([]int, ns)
	for i := range tr.order {
		tr.order[i] = i
	}
	tr.grads = md.NewGrads()
	tr.Opt = optim.NewAdam(tr.paramVecs()...)
	tr.Stats = &etable.Table{}
	ConfigStats(tr.Stats, tr.Params.MaxIter)
	return tr, nil
}

// paramVecs returns the trained parameter vectors, which must match
// gradVecs in order
func (tr *Trainer) paramVecs() [][]float64 {
	md := tr.Model
	pv := [][]float64{md.Net.Wts, md.Net.Bias, md.Proj.Wts}
	if md.In.Learn {
		pv = append(pv, md.In.Wts)
	}
	return pv
}

func (tr *Trainer) gradVecs() [][]float64 {
	g := tr.grads
	gv := [][]float64{g.Net.W, g.Net.B, g.ProjW}
	if tr.Model.In.Learn {
		gv = append(gv, g.InW)
	}
	return gv
}

// NSamples returns the number of training samples
func (tr *Trainer) NSamples() int {
	ns, _ := tr.X.Dims()
	return ns
}

// InitWts initializes the network weights and biases from the Seed,
// and pre-scales the weights to PreScale spectral radius if > 0.
func (tr *Trainer) InitWts() {
	nt := tr.Model.Net
	nt.InitWts(rand.New(rand.NewSource(tr.Params.Seed)), tr.Params.InitWtSd, 0)
	if tr.Params.PreScale > 0 {
		nt.PreScaleWts(tr.Params.PreScale)
	}
	tr.Opt.Reset()
}

// LR returns the learning rate for the current iteration
func (tr *Trainer) LR() float64 {
	if tr.Sched != nil {
		return tr.Sched.LR(tr.Iter)
	}
	return tr.Params.Sched.LR(tr.Iter)
}

// ResetOpt resets the optimizer moment estimates
func (tr *Trainer) ResetOpt() {
	tr.Opt.Reset()
	tr.NResets++
}

// FitLoss returns the mean squared error between Yhat and Y, and its
// gradient with respect to Yhat if dY is non-nil.
func FitLoss(Yhat, Y, dY *mat.Dense) float64 {
	nr, nc := Y.Dims()
	n := float64(nr * nc)
	sum := 0.0
	for r := 0; r < nr; r++ {
		for c := 0; c < nc; c++ {
			d := Yhat.At(r, c) - Y.At(r, c)
			sum += d * d
			if dY != nil {
				dY.Set(r, c, 2*d/n)
			}
		}
	}
	return sum / n
}

// MeanLoss returns the fit loss of always predicting the per-output mean
// of the targets, which is the baseline any useful model must beat.
func (tr *Trainer) MeanLoss() float64 {
	nr, nc := tr.Y.Dims()
	mean := mat.NewDense(nr, nc, nil)
	for c := 0; c < nc; c++ {
		m := 0.0
		for r := 0; r < nr; r++ {
			m += tr.Y.At(r, c)
		}
		m /= float64(nr)
		for r := 0; r < nr; r++ {
			mean.Set(r, c, m)
		}
	}
	return FitLoss(mean, tr.Y, nil)
}

// Predict computes outputs for inputs X in Test mode, without noise
func (tr *Trainer) Predict(X *mat.Dense) (*bionet.ModelState, error) {
	md := tr.Model
	mode := md.Mode
	md.Mode = etime.Test
	defer func() { md.Mode = mode }()
	return md.Forward(X)
}

// Loss returns the fit loss of the model over the full training set
func (tr *Trainer) Loss() (float64, error) {
	ms, err := tr.Predict(tr.X)
	if err != nil {
		return 0, err
	}
	return FitLoss(ms.Y, tr.Y, nil), nil
}

// batchRows returns the rows of m at idx
func batchRows(m *mat.Dense, idx []int) *mat.Dense {
	_, nc := m.Dims()
	b := mat.NewDense(len(idx), nc, nil)
	for i, r := range idx {
		b.SetRow(i, m.RawRowView(r))
	}
	return b
}

// Step runs one training iteration: one pass over the shuffled samples in
// batches, each with a forward pass, the full regularized loss, backward
// pass and optimizer step.  Records stats, resets the optimizer every
// ResetEvery iterations, and prints every PrintEvery iterations.
func (tr *Trainer) Step() error {
	tp := &tr.Params
	md := tr.Model
	nt := md.Net
	md.Mode = etime.Train
	lr := tr.LR()
	erand.PermuteInts(tr.order, tr.PermRnd)
	ns := len(tr.order)
	var losses, eigs []float64
	for st := 0; st < ns; st += tp.BatchSize {
		ed := st + tp.BatchSize
		if ed > ns {
			ed = ns
		}
		idx := tr.order[st:ed]
		fit, rhos, err := tr.batch(idx, lr)
		if err != nil {
			return errors.Wrapf(err, "iteration %d", tr.Iter)
		}
		losses = append(losses, fit)
		eig := 0.0
		for _, r := range rhos {
			eig += r
		}
		if len(rhos) > 0 {
			eig /= float64(len(rhos))
		}
		eigs = append(eigs, eig)
	}
	if err := bionet.CheckFinite("network weights", nt.Wts); err != nil {
		return errors.Wrapf(err, "iteration %d", tr.Iter)
	}
	tr.RecordStats(losses, eigs, lr)
	if tp.PrintEvery > 0 && tr.Iter%tp.PrintEvery == 0 {
		fmt.Println(tr.StatsLine(tr.Iter))
	}
	if tp.ResetEvery > 0 && tr.Iter > 0 && tr.Iter%tp.ResetEvery == 0 {
		tr.ResetOpt()
	}
	tr.Iter++
	return nil
}

// batch trains on one batch of sample indexes, returning the fit loss
// and the spectral radius of each state used for the spectral loss.
func (tr *Trainer) batch(idx []int, lr float64) (float64, []float64, error) {
	tp := &tr.Params
	md := tr.Model
	nt := md.Net
	g := tr.grads
	g.Zero()

	Xb := batchRows(tr.X, idx)
	Yb := batchRows(tr.Y, idx)
	ms, err := md.ForwardNoise(Xb, tp.Noise, tr.Rnd)
	if err != nil {
		return 0, nil, err
	}
	for i, r := range idx {
		tr.PrevState.SetRow(r, ms.Full.RawRowView(i))
	}

	dY := mat.NewDense(len(idx), len(md.Proj.NodeIdx), nil)
	fit := FitLoss(ms.Y, Yb, dY)
	if math.IsNaN(fit) || math.IsInf(fit, 0) {
		return 0, nil, errors.Wrapf(bionet.ErrNumerical, "fit loss is %g", fit)
	}

	dFull := mat.NewDense(len(idx), nt.NNodes(), nil)
	if tp.UniformFactor > 0 {
		tp.Uniform.UniformLoss(tr.PrevState, idx, ms.Full, dFull)
		dFull.Scale(tp.UniformFactor, dFull)
	}
	bionet.SignPenalty(nt.Wts, nt.Graph.Violations(nt.Wts), tp.SignFactor, g.Net.W)
	bionet.IdxL2(nt.Bias, md.In.NodeIdx, tp.LigandL2, g.Net.B)
	bionet.L2(nt.Wts, tp.L2, g.Net.W)
	bionet.L2(nt.Bias, tp.L2, g.Net.B)
	bionet.TargetL2(md.Proj.Wts, md.Proj.Amp, tp.ProjL2, g.ProjW)
	_, rhos := nt.SpectralLoss(ms.States, tp.SpectralFactor, g.Net.W)

	if _, err := md.Backward(ms, dY, dFull, g); err != nil {
		return 0, nil, err
	}
	if err := bionet.CheckFinite("weight gradient", g.Net.W); err != nil {
		return 0, nil, err
	}
	if err := tr.Opt.Step(lr, tr.gradVecs()...); err != nil {
		return 0, nil, err
	}
	return fit, rhos, nil
}

// Train runs Step until MaxIter iterations are done, and prints the
// final full-data fit loss.
func (tr *Trainer) Train() error {
	for tr.Iter < tr.Params.MaxIter {
		if err := tr.Step(); err != nil {
			return err
		}
	}
	loss, err := tr.Loss()
	if err != nil {
		return err
	}
	fmt.Printf("Training done: %d iterations, loss: %.5f (mean baseline: %.5f), violations: %d\n", tr.Iter, loss, tr.MeanLoss(), tr.Model.NViolations())
	return nil
}
