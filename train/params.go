// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package train

import (
	"github.com/emer/bionet/bionet"
	"github.com/emer/bionet/optim"
	"github.com/emer/emergent/params"
)

// Params are the training loop parameters
type Params struct {
	MaxIter        int                  `def:"8000" desc:"number of training iterations, each a full pass over the data in batches"`
	BatchSize      int                  `def:"5" min:"1" desc:"number of samples per batch"`
	Noise          float64              `def:"0.001" desc:"standard deviation of gaussian noise added to the input layer output during training"`
	SignFactor     float64              `def:"0.1" desc:"weight of the penalty on weights that violate their sign constraint"`
	SpectralFactor float64              `def:"0.001" desc:"weight of the spectral radius penalty"`
	L2             float64              `def:"1e-06" desc:"L2 penalty on all network weights and biases"`
	ProjL2         float64              `def:"0.0001" desc:"penalty on the projection weights moving away from the projection amplitude"`
	LigandL2       float64              `def:"0.0001" desc:"L2 penalty on the bias of input (ligand) nodes"`
	UniformFactor  float64              `def:"1e-05" desc:"weight of the activation range uniformity loss"`
	ResetEvery     int                  `def:"200" desc:"the optimizer moments are reset every this many iterations, 0 = never"`
	PrintEvery     int                  `def:"50" desc:"print a stats line every this many iterations, 0 = never"`
	InitWtSd       float64              `def:"0.1" desc:"standard deviation of the initial weights"`
	PreScale       float64              `def:"0.7" desc:"if > 0, initial weights are scaled to this spectral radius"`
	Seed           int64                `desc:"random seed for weights and noise"`
	Sched          optim.OneCycleSched  `view:"inline" desc:"learning rate schedule"`
	Uniform        bionet.UniformParams `view:"inline" desc:"activation range target -- Max is set from the projection amplitude"`
}

func (tp *Params) Defaults() {
	tp.MaxIter = 8000
	tp.BatchSize = 5
	tp.Noise = 1e-3
	tp.SignFactor = 0.1
	tp.SpectralFactor = 1e-3
	tp.L2 = 1e-6
	tp.ProjL2 = 1e-4
	tp.LigandL2 = 1e-4
	tp.UniformFactor = 1e-5
	tp.ResetEvery = 200
	tp.PrintEvery = 50
	tp.InitWtSd = 0.1
	tp.PreScale = 0.7
	tp.Sched.Defaults()
	tp.Uniform.Defaults()
	tp.Update()
}

// Update must be called after any changes to parameters
func (tp *Params) Update() {
	if tp.BatchSize < 1 {
		tp.BatchSize = 1
	}
	tp.Sched.Total = tp.MaxIter
}

// ParamSets are the named parameter presets: Base is always applied
// first, and one other can be selected on top of it.
var ParamSets = params.Sets{
	{Name: "Base", Desc: "defaults for ligand screen training", Sheets: params.Sheets{
		"Solve": &params.Sheet{
			{Sel: "SolveParams", Desc: "150 iterations, wide clipping",
				Params: params.Params{
					"SolveParams.Iters":        "150",
					"SolveParams.Clip":         "5",
					"SolveParams.Leak":         "0.01",
					"SolveParams.NeumannTerms": "100",
				}},
		},
		"Spec": &params.Sheet{
			{Sel: "SpecParams", Desc: "keep the recurrence contracting",
				Params: params.Params{
					"SpecParams.Target":    "0.9",
					"SpecParams.ExpFactor": "10",
				}},
		},
		"Train": &params.Sheet{
			{Sel: "Params", Desc: "one-cycle schedule over 8000 iterations",
				Params: params.Params{
					"Params.MaxIter":    "8000",
					"Params.BatchSize":  "5",
					"Params.Noise":      "0.001",
					"Params.ResetEvery": "200",
				}},
		},
	}},
	{Name: "LigandScreen", Desc: "leave-one-condition-out cross validation", Sheets: params.Sheets{
		"Train": &params.Sheet{
			{Sel: "Params", Desc: "slightly stronger sign constraint",
				Params: params.Params{
					"Params.SignFactor": "0.1",
					"Params.PreScale":   "0.7",
				}},
		},
	}},
	{Name: "Synth", Desc: "synthetic multi-ligand networks", Sheets: params.Sheets{
		"Solve": &params.Sheet{
			{Sel: "SolveParams", Desc: "tight clipping",
				Params: params.Params{
					"SolveParams.Clip": "1",
				}},
		},
		"Train": &params.Sheet{
			{Sel: "Params", Desc: "shorter training",
				Params: params.Params{
					"Params.MaxIter": "5000",
				}},
		},
	}},
	{Name: "GradCheck", Desc: "gradient strategy comparison on small random networks", Sheets: params.Sheets{
		"Solve": &params.Sheet{
			{Sel: "SolveParams", Desc: "tight clipping, as for synthetic networks",
				Params: params.Params{
					"SolveParams.Clip": "1",
				}},
		},
	}},
}

// SetParams applies the Base parameter set and then the named set (if not
// empty or Base) to the training parameters, and the solver and spectral
// parameters of network nt.  If setMsg is true, each parameter set is printed.
func SetParams(psets params.Sets, setNm string, tp *Params, nt *bionet.Network, setMsg bool) error {
	err := SetParamsSet(psets, "Base", tp, nt, setMsg)
	if err != nil {
		return err
	}
	if setNm != "" && setNm != "Base" {
		err = SetParamsSet(psets, setNm, tp, nt, setMsg)
	}
	return err
}

// SetParamsSet applies the sheets of one named parameter set
func SetParamsSet(psets params.Sets, setNm string, tp *Params, nt *bionet.Network, setMsg bool) error {
	pset, err := psets.SetByNameTry(setNm)
	if err != nil {
		return err
	}
	if sh, ok := pset.Sheets["Train"]; ok && tp != nil {
		sh.Apply(tp, setMsg)
		tp.Update()
	}
	if nt != nil {
		if sh, ok := pset.Sheets["Solve"]; ok {
			sh.Apply(&nt.Solver, setMsg)
		}
		if sh, ok := pset.Sheets["Spec"]; ok {
			sh.Apply(&nt.Spec, setMsg)
		}
		nt.Update()
	}
	return nil
}
